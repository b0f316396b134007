package drive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/motorstock/insights-backend/internal/config"
)

const xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Syncer downloads monthly sales workbooks from the configured Drive
// folder and converts them to CSVs the ingest readers can load.
type Syncer struct {
	service     *Service
	folderPath  string
	downloadDir string
}

func NewSyncer(service *Service, cfg config.DriveConfig) *Syncer {
	return &Syncer{
		service:     service,
		folderPath:  cfg.FolderPath,
		downloadDir: cfg.DownloadDir,
	}
}

// Sync pulls every workbook in the folder that is missing locally and
// converts it. Returns the paths of the converted CSV files, including
// previously synced ones.
func (s *Syncer) Sync() ([]string, error) {
	folderID, err := s.service.FindFolderByPath(s.folderPath)
	if err != nil {
		return nil, fmt.Errorf("resolve drive folder: %w", err)
	}

	files, err := s.service.ListFiles(folderID)
	if err != nil {
		return nil, fmt.Errorf("list drive folder: %w", err)
	}

	if err := os.MkdirAll(s.downloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	var csvPaths []string
	for _, f := range files {
		if !isWorkbook(f) {
			continue
		}

		xlsxPath := filepath.Join(s.downloadDir, f.Name)
		csvPath := strings.TrimSuffix(xlsxPath, filepath.Ext(xlsxPath)) + ".csv"

		if _, err := os.Stat(csvPath); err == nil {
			csvPaths = append(csvPaths, csvPath)
			continue
		}

		if err := s.download(f, xlsxPath); err != nil {
			log.Warn().Err(err).Str("file", f.Name).Msg("drive: skipping workbook that failed to download")
			continue
		}

		if err := ConvertXLSXToCSV(xlsxPath, csvPath); err != nil {
			log.Warn().Err(err).Str("file", f.Name).Msg("drive: skipping workbook that failed to convert")
			continue
		}

		log.Info().Str("file", f.Name).Msg("drive: synced workbook")
		csvPaths = append(csvPaths, csvPath)
	}

	return csvPaths, nil
}

func (s *Syncer) download(f *File, destPath string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer out.Close()

	return s.service.DownloadFile(f.ID, out)
}

func isWorkbook(f *File) bool {
	if f.MimeType == xlsxMimeType {
		return true
	}
	return strings.EqualFold(filepath.Ext(f.Name), ".xlsx")
}
