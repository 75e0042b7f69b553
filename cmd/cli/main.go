package main

import (
	"context"
	"fmt"
	"os"

	"uniscan/internal"
	"uniscan/internal/config"
	"uniscan/internal/container"
	"uniscan/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "uniscan",
		Short:         "UNI-SCAN CLI for stored analyses, exports and schema setup",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newHistoryCmd(),
		newExportCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase connects using DATABASE_URL only; the CLI never calls the model
func openDatabase() (*config.Config, *sqlx.DB, error) {
	dbConfig, err := config.LoadDatabaseOnly()
	if err != nil {
		return nil, nil, err
	}
	db, err := sqlx.Connect("postgres", dbConfig.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	cfg := &config.Config{Database: *dbConfig, Cache: *config.LoadCacheOnly()}
	return cfg, db, nil
}

// withHistory opens the analysis history and hands it to fn
func withHistory(ctx context.Context, fn func(h historyStore) error) error {
	cfg, db, err := openDatabase()
	if err != nil {
		return err
	}
	c, err := container.New(cfg, internal.NewDefaultLogger())
	if err != nil {
		db.Close()
		return err
	}
	defer c.Shutdown(context.Background())

	if err := c.InitHistoryOnly(ctx, db); err != nil {
		return err
	}
	return fn(c.History)
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show and delete stored analyses",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored analyses, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), func(h historyStore) error {
				return runList(cmd.Context(), cmd.OutOrStdout(), h, limit)
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "Maximum number of analyses (0 = all)")

	show := &cobra.Command{
		Use:   "show [id]",
		Short: "Print the summary of an analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withHistory(cmd.Context(), func(h historyStore) error {
				return runShow(cmd.Context(), cmd.OutOrStdout(), h, id)
			})
		},
	}

	var yes bool
	del := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an analysis permanently",
		Long: `Delete an analysis and its generated email. The deletion cannot be
undone, so --yes is required.

Example: uniscan history delete 42 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return errConfirmationRequired
			}
			return withHistory(cmd.Context(), func(h historyStore) error {
				return runDelete(cmd.Context(), cmd.OutOrStdout(), h, id)
			})
		},
	}
	del.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")

	cmd.AddCommand(list, show, del)
	return cmd
}

func newExportCmd() *cobra.Command {
	var format, outDir string

	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Export an analysis as an HTML report or XLSX workbook",
		Long: `Write the analysis to <out>/analisi_<title>_<date>.<format>.

Example: uniscan export 42 --format xlsx --out ./report`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := checkFormat(format); err != nil {
				return err
			}
			return withHistory(cmd.Context(), func(h historyStore) error {
				path, err := runExport(cmd.Context(), h, id, format, outDir, nowFunc())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "html", "Export format: html|xlsx")
	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var reset bool
	var catalogDir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema and optionally import a catalog",
		Long: `Create the database schema. With --catalog, every .json file in the
directory is imported as a subject with its framework and manuals.

Example: uniscan migrate --catalog ./catalog`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()
			return runMigrate(cmd.Context(), cmd.OutOrStdout(), db, migration.NewRunner(), reset, catalogDir)
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Drop every table before migrating")
	cmd.Flags().StringVar(&catalogDir, "catalog", "", "Directory of catalog JSON files to import")
	return cmd
}
