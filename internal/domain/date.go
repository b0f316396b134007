package domain

import (
	"strings"
	"time"
)

// invoiceDateLayouts are tried in order when parsing invoice dates.
// Legacy exports use US slash dates (1/2/2006 covers both M/D/YYYY and
// MM/DD/YYYY), newer ones are ISO.
var invoiceDateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	time.RFC3339,
}

// ParseInvoiceDate parses an invoice date leniently. ok is false when no
// layout matches; callers skip the record rather than failing.
func ParseInvoiceDate(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}

	for _, layout := range invoiceDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
