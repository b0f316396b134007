package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/motorstock/insights-backend/internal/config"
	"github.com/motorstock/insights-backend/internal/domain"
	"github.com/motorstock/insights-backend/internal/drive"
	"github.com/motorstock/insights-backend/internal/forecast"
	"github.com/motorstock/insights-backend/internal/ingest"
	"github.com/motorstock/insights-backend/internal/insights"
	"github.com/motorstock/insights-backend/internal/storage"
	"github.com/motorstock/insights-backend/pkg/logger"
)

func newProductsFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "products",
		Usage:   "Path to the product catalog CSV",
		Value:   "./data/products.csv",
		EnvVars: []string{"PRODUCTS_FILE"},
	}
}

func newInvoicesFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "invoices",
		Usage:   "Path to the invoice line-item CSV",
		Value:   "./data/invoices.csv",
		EnvVars: []string{"INVOICES_FILE"},
	}
}

func newProductIDFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "product-id",
		Usage: "Product to analyze, or 'all'",
		Value: domain.AllProducts,
	}
}

func loadInventory(c *cli.Context) ([]domain.Product, []domain.Invoice, error) {
	products, err := ingest.LoadProducts(c.String("products"))
	if err != nil {
		return nil, nil, err
	}

	invoices, err := ingest.LoadInvoices(c.String("invoices"))
	if err != nil {
		return nil, nil, err
	}

	return products, invoices, nil
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		logger.SetLevel(mode)
	}

	app := &cli.App{
		Name:  "insights",
		Usage: "Restock projections and sales analytics from inventory files",
		Commands: []*cli.Command{
			{
				Name:  "project",
				Usage: "Print the 24-month restock projection",
				Flags: []cli.Flag{
					newProductsFlag(),
					newInvoicesFlag(),
					newProductIDFlag(),
					&cli.StringFlag{
						Name:    "predictions",
						Usage:   "Path to a batch predictions JSON from the forecaster",
						EnvVars: []string{"FORECAST_PREDICTIONS_FILE"},
					},
				},
				Action: runProject,
			},
			{
				Name:  "metrics",
				Usage: "Print dashboard metrics for a period",
				Flags: []cli.Flag{
					newProductsFlag(),
					newInvoicesFlag(),
					newProductIDFlag(),
					&cli.IntFlag{
						Name:  "year",
						Usage: "Period year (defaults to current year)",
					},
					&cli.IntFlag{
						Name:  "month",
						Usage: "Period month 1-12 (0 means whole year)",
					},
				},
				Action: runMetrics,
			},
			{
				Name:  "sales",
				Usage: "Print the trailing six-month sales history",
				Flags: []cli.Flag{
					newProductsFlag(),
					newInvoicesFlag(),
					newProductIDFlag(),
				},
				Action: runSales,
			},
			{
				Name:  "seed",
				Usage: "Load inventory CSVs into Postgres",
				Flags: []cli.Flag{
					newProductsFlag(),
					newInvoicesFlag(),
					&cli.StringFlag{
						Name:     "db-url",
						Usage:    "Database connection string",
						Required: true,
						EnvVars:  []string{"DATABASE_URL"},
					},
				},
				Action: runSeed,
			},
			{
				Name:  "dataset",
				Usage: "Manage the forecaster training dataset",
				Subcommands: []*cli.Command{
					{
						Name:  "build",
						Usage: "Build the normalized sales dataset CSV",
						Flags: []cli.Flag{
							newProductsFlag(),
							newInvoicesFlag(),
							&cli.StringFlag{
								Name:    "monthly-dir",
								Usage:   "Directory of monthly sales CSVs to merge instead of a single invoices file",
								EnvVars: []string{"DRIVE_DOWNLOAD_DIR"},
							},
							&cli.StringFlag{
								Name:  "out",
								Usage: "Output dataset path",
								Value: "./data/sales_dataset.csv",
							},
						},
						Action: runDatasetBuild,
					},
					{
						Name:  "push",
						Usage: "Upload a dataset to object storage",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "file",
								Usage: "Dataset file to upload",
								Value: "./data/sales_dataset.csv",
							},
							&cli.StringFlag{
								Name:  "key",
								Usage: "Object key (defaults to the file name)",
							},
						},
						Action: runDatasetPush,
					},
					{
						Name:  "pull",
						Usage: "Download a dataset from object storage",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "key",
								Usage:    "Object key to download",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "out",
								Usage: "Destination path",
								Value: "./data/sales_dataset.csv",
							},
						},
						Action: runDatasetPull,
					},
				},
			},
			{
				Name:  "drive",
				Usage: "Google Drive workbook sync",
				Subcommands: []*cli.Command{
					{
						Name:   "sync",
						Usage:  "Download and convert monthly sales workbooks",
						Action: runDriveSync,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func runProject(c *cli.Context) error {
	products, invoices, err := loadInventory(c)
	if err != nil {
		return err
	}

	forecasts := make(map[string]*domain.ForecastResult)
	if path := c.String("predictions"); path != "" {
		provider, err := forecast.NewFileProvider(path)
		if err != nil {
			return fmt.Errorf("load predictions: %w", err)
		}
		for _, p := range products {
			result, err := provider.Forecast(c.Context, p.ID)
			if err == nil && result != nil {
				forecasts[p.ID] = result
			}
		}
		log.Info().Int("count", provider.Len()).Msg("loaded batch predictions")
	}

	sel := domain.Selection{ProductID: c.String("product-id")}
	entries := insights.Project(products, invoices, forecasts, sel, time.Now().UTC())

	return printJSON(map[string]interface{}{
		"product_id": sel.ProductID,
		"items":      entries,
	})
}

func runMetrics(c *cli.Context) error {
	products, invoices, err := loadInventory(c)
	if err != nil {
		return err
	}

	period := domain.Period{Year: c.Int("year"), Month: c.Int("month")}
	if period.Year == 0 {
		period.Year = time.Now().UTC().Year()
	}
	if period.Month < 0 || period.Month > 12 {
		return fmt.Errorf("invalid month: %d", period.Month)
	}

	sel := domain.Selection{ProductID: c.String("product-id")}
	metrics := insights.Summarize(products, invoices, sel, period)

	return printJSON(metrics)
}

func runSales(c *cli.Context) error {
	_, invoices, err := loadInventory(c)
	if err != nil {
		return err
	}

	productID := c.String("product-id")
	buckets := insights.Aggregate(invoices, productID, time.Now().UTC())

	return printJSON(map[string]interface{}{
		"product_id": productID,
		"months":     buckets,
	})
}

func runSeed(c *cli.Context) error {
	products, invoices, err := loadInventory(c)
	if err != nil {
		return err
	}

	seeder, err := ingest.NewSeeder(c.String("db-url"))
	if err != nil {
		return err
	}
	defer seeder.Close()

	ctx := c.Context

	productCount, err := seeder.SeedProducts(ctx, products)
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}

	invoiceCount, err := seeder.SeedInvoices(ctx, invoices)
	if err != nil {
		return fmt.Errorf("seed invoices: %w", err)
	}

	log.Info().Int("products", productCount).Int("invoices", invoiceCount).Msg("seeding completed")
	return nil
}

func runDatasetBuild(c *cli.Context) error {
	products, err := ingest.LoadProducts(c.String("products"))
	if err != nil {
		return err
	}

	var invoices []domain.Invoice
	if dir := c.String("monthly-dir"); dir != "" {
		paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
		if err != nil {
			return fmt.Errorf("scan monthly dir: %w", err)
		}
		if len(paths) == 0 {
			return fmt.Errorf("no monthly CSVs found in %s", dir)
		}
		for _, path := range paths {
			monthly, err := ingest.LoadInvoices(path)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			invoices = append(invoices, monthly...)
		}
		log.Info().Int("files", len(paths)).Msg("merged monthly sales files")
	} else {
		invoices, err = ingest.LoadInvoices(c.String("invoices"))
		if err != nil {
			return err
		}
	}

	out := c.String("out")
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	count, err := ingest.WriteDatasetFile(out, products, invoices)
	if err != nil {
		return err
	}

	log.Info().Int("rows", count).Str("path", out).Msg("dataset written")
	return nil
}

func newStorageClient() (*storage.MinioClient, error) {
	cfg := config.Load()
	return storage.NewMinioClient(cfg.Storage)
}

func runDatasetPush(c *cli.Context) error {
	client, err := newStorageClient()
	if err != nil {
		return err
	}

	file := c.String("file")
	key := c.String("key")
	if key == "" {
		key = filepath.Base(file)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read dataset file: %w", err)
	}

	ctx, cancel := context.WithTimeout(c.Context, 2*time.Minute)
	defer cancel()

	if err := client.EnsureBucket(ctx); err != nil {
		return err
	}
	if err := client.UploadObject(ctx, key, data); err != nil {
		return err
	}

	log.Info().Str("key", key).Int("size", len(data)).Msg("dataset uploaded")
	return nil
}

func runDatasetPull(c *cli.Context) error {
	client, err := newStorageClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, 2*time.Minute)
	defer cancel()

	key := c.String("key")
	out := c.String("out")
	if err := client.DownloadObject(ctx, key, out); err != nil {
		return err
	}

	log.Info().Str("key", key).Str("path", out).Msg("dataset downloaded")
	return nil
}

func runDriveSync(c *cli.Context) error {
	cfg := config.Load()
	if cfg.Drive.CredentialsJSON == "" {
		return fmt.Errorf("DRIVE_CREDENTIALS_JSON is not configured")
	}

	service, err := drive.NewService(c.Context, cfg.Drive.CredentialsJSON)
	if err != nil {
		return err
	}

	syncer := drive.NewSyncer(service, cfg.Drive)
	paths, err := syncer.Sync()
	if err != nil {
		return err
	}

	log.Info().Int("files", len(paths)).Msg("drive sync completed")
	return printJSON(map[string]interface{}{"csv_files": paths})
}
