package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skysurvey-labs/exodb/pkg/config"
	"github.com/skysurvey-labs/exodb/pkg/database"
	"github.com/skysurvey-labs/exodb/pkg/importer"
	"github.com/skysurvey-labs/exodb/pkg/logging"
	"github.com/skysurvey-labs/exodb/pkg/queries"
	"github.com/skysurvey-labs/exodb/pkg/repositories"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	configPath     string
	verbose        bool
	migrationsPath string
)

var rootCmd = &cobra.Command{
	Use:   "exodb",
	Short: "Exoplanet warehouse: schema, import pipeline, and analytical queries",
	Long: `exodb manages a normalized PostgreSQL schema for exoplanet data
(stars, planets, discoveries), imports a flat source dataset into it,
and runs a fixed battery of analytical queries, exporting results to CSV.`,
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runMigrate,
}

var importCmd = &cobra.Command{
	Use:   "import [dataset.csv]",
	Short: "Import a flat exoplanet dataset into the normalized schema",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runImport,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run the analytical query battery and export results as CSV",
	RunE:  runQuery,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check referential integrity of the populated schema",
	RunE:  runVerify,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	migrateCmd.Flags().StringVar(&migrationsPath, "migrations", "migrations", "Path to migrations directory")

	rootCmd.AddCommand(migrateCmd, importCmd, queryCmd, verifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config and builds the logger shared by every subcommand.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath, Version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	logger.Debug("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))
	return cfg, logger, nil
}

// connect opens the pgx pool used by the import, query, and verify commands.
func connect(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	return database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db, migrationsPath, logger); err != nil {
		return fmt.Errorf("migration failed: %s", logging.SanitizeError(err))
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	sourcePath := cfg.Import.SourcePath
	if len(args) > 0 {
		sourcePath = args[0]
	}

	src, err := importer.ReadSourceFile(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to parse source dataset: %w", err)
	}
	logger.Info("source dataset parsed",
		zap.String("path", sourcePath),
		zap.Int("rows", len(src.Rows)),
		zap.Int("skipped", src.SkippedRows))

	ctx := cmd.Context()
	db, err := connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %s", logging.SanitizeError(err))
	}
	defer db.Close()

	imp := importer.New(
		repositories.NewStarRepository(db),
		repositories.NewPlanetRepository(db),
		repositories.NewDiscoveryRepository(db),
		repositories.NewViewRepository(db),
		logger,
	)

	report, runErr := imp.Run(ctx, src)
	printImportReport(report)
	if runErr != nil {
		return runErr
	}

	integrity, err := imp.Verify(ctx)
	if err != nil {
		return fmt.Errorf("post-import verification failed: %w", err)
	}
	printIntegrityReport(integrity)
	if !integrity.OK() {
		return fmt.Errorf("referential integrity check failed: %d orphaned planets", integrity.OrphanedPlanets)
	}
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	db, err := connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %s", logging.SanitizeError(err))
	}
	defer db.Close()

	exporter, err := queries.NewExporter(cfg.Query.OutputDir)
	if err != nil {
		return err
	}

	runner := queries.NewRunner(db, logger)
	report := runner.Run(ctx, queries.Catalog())

	for i := range report.Results {
		res := &report.Results[i]
		if res.Err != nil {
			continue
		}
		path, err := exporter.ExportResult(res)
		if err != nil {
			return err
		}
		logger.Debug("exported query result", zap.String("path", path))
	}

	summaryPath, err := exporter.ExportSummary(report)
	if err != nil {
		return err
	}

	fmt.Printf("Executed %d queries (%d failed), results in %s\n",
		len(report.Results), report.Failed(), cfg.Query.OutputDir)
	fmt.Printf("Summary: %s\n", summaryPath)
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	db, err := connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %s", logging.SanitizeError(err))
	}
	defer db.Close()

	imp := importer.New(
		repositories.NewStarRepository(db),
		repositories.NewPlanetRepository(db),
		repositories.NewDiscoveryRepository(db),
		repositories.NewViewRepository(db),
		logger,
	)

	integrity, err := imp.Verify(ctx)
	if err != nil {
		return err
	}
	printIntegrityReport(integrity)
	if !integrity.OK() {
		return fmt.Errorf("referential integrity check failed: %d orphaned planets", integrity.OrphanedPlanets)
	}
	return nil
}

func printImportReport(report *importer.Report) {
	fmt.Printf("Import run %s\n", report.RunID)
	fmt.Printf("  source rows: %d (skipped during parse: %d)\n", report.SourceRows, report.SourceSkipped)
	fmt.Printf("  stars:       %d upserted, %d skipped\n", report.Stars.Upserted, report.Stars.Skipped)
	fmt.Printf("  planets:     %d upserted, %d skipped\n", report.Planets.Upserted, report.Planets.Skipped)
	fmt.Printf("  discoveries: %d upserted, %d skipped\n", report.Discoveries.Upserted, report.Discoveries.Skipped)
	if report.FailedStage != "" {
		fmt.Printf("  FAILED in stage: %s\n", report.FailedStage)
	}
	for _, skip := range report.Planets.Skips {
		fmt.Printf("  skipped planet %s: %v\n", skip.Key, skip.Reason)
	}
}

func printIntegrityReport(report *importer.IntegrityReport) {
	fmt.Printf("Integrity check\n")
	fmt.Printf("  stars: %d, planets: %d, discoveries: %d\n",
		report.Stars, report.Planets, report.Discoveries)
	fmt.Printf("  orphaned planets: %d\n", report.OrphanedPlanets)
	fmt.Printf("  planets without discovery: %d\n", report.PlanetsWithoutDiscovery)
}
