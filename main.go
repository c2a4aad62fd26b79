package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blogem/diesel-log/config"
	"github.com/blogem/diesel-log/database"
	"github.com/blogem/diesel-log/logging"
	"github.com/blogem/diesel-log/repositories"
	"github.com/blogem/diesel-log/services"
)

var configPath string

// rootCmd serves the application when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "diesel-log",
	Short:         "Depot diesel fuel log",
	Long:          `Records diesel dispensing events, computes fuel efficiency and exports the log.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web application",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer logging.Close()

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		return db.Close()
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the whole log to a CSV or XLSX file",
	RunE:  runExport,
}

// loadConfig loads configuration and initializes the global logger
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := cfg.Logging
	if err := logging.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// openDatabase connects to the configured store and migrates it
func openDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.Initialize(database.Config{
		Driver:          cfg.Storage.Type,
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.MaxConnections,
		ConnMaxLifetime: cfg.Storage.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outDir, _ := cmd.Flags().GetString("out")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logging.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := logging.GetLogger()
	repos := repositories.NewRepositories(db, nil)
	exporter := services.NewExportService(repos.FuelLog, loc, cfg.Export.FilePrefix, nil, logging.Component("export"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	file, err := exporter.Export(ctx, format)
	if err != nil {
		return err
	}

	path := filepath.Join(outDir, file.Filename)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	logger.WithFields(logrus.Fields{
		"path": path,
		"rows": file.Rows,
	}).Info("Export written")
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (YAML)")

	exportCmd.Flags().String("format", services.FormatCSV, "export format (csv, xlsx)")
	exportCmd.Flags().String("out", ".", "directory to write the file to")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
