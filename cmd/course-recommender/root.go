package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/morezero/course-recommender/internal/backend"
	"github.com/morezero/course-recommender/internal/config"
	"github.com/morezero/course-recommender/internal/server"
	"github.com/morezero/course-recommender/internal/tui"
	"github.com/morezero/course-recommender/pkg/db"
	"github.com/morezero/course-recommender/pkg/registry"
)

// NewRoot builds the command tree. Running the root alone is `serve`.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "course-recommender",
		Short: "Course recommender: registry-driven forms over the course catalog backend",
		Long: `course-recommender exposes each declared functionality (find prerequisites,
list offerings, enroll, drop, ...) as a form, dispatches submissions to the
backend operation it maps to, and renders the interpreted result.

Environment: BACKEND_URL, GATEWAY_TRANSPORT (http|comms), COMMS_URL,
DATABASE_URL, CATALOG_FILE, HTTP_PORT, API_HTTP_PORT, LOG_LEVEL. See README.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	root.AddCommand(
		serveCmd(),
		apiCmd(),
		tuiCmd(),
		migrateCmd(),
		ensureDBCmd(),
		functionalitiesCmd(),
	)
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func apiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Start the backend API over PostgreSQL (HTTP, optionally COMMS)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateForAPI(); err != nil {
				return err
			}
			return backend.Run(cfg)
		},
	}
}

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateForUI(); err != nil {
				return err
			}
			// The terminal owns stdout; keep logs off it.
			slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

			c, err := server.Build(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return tui.Run(ctx, c.Controller)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the backend database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run database migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrateUp()
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration files and whether the schema is applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrateStatus(cmd.OutOrStdout())
			},
		},
	)
	return cmd
}

func ensureDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-db [name]",
		Short: "Create the database if missing (default: the DATABASE_URL database)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runEnsureDB(cmd.OutOrStdout(), name)
		},
	}
}

func functionalitiesCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "functionalities",
		Short: "List the registered functionalities, or dump the catalog as yaml or json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunctionalities(cmd.OutOrStdout(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "table", "output format: table, yaml or json")
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	return cfg, nil
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForUI(); err != nil {
		return err
	}
	return server.Run(cfg)
}

func runMigrateUp() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrations, err := db.LoadMigrations(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrations); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus(w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	migrations, err := db.LoadMigrations(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	applied, err := db.SchemaApplied(ctx, pool)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Migrations in %s:\n", cfg.MigrationPath)
	for _, m := range migrations {
		fmt.Fprintf(w, "  %s\n", m.Name)
	}
	if applied {
		fmt.Fprintln(w, "Schema: applied")
	} else {
		fmt.Fprintln(w, "Schema: not applied (run `course-recommender migrate up`)")
	}
	return nil
}

func runEnsureDB(w io.Writer, name string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	targetURL, err := withDatabase(cfg.DatabaseURL, name)
	if err != nil {
		return err
	}
	if err := db.EnsureDatabase(context.Background(), targetURL); err != nil {
		return err
	}
	fmt.Fprintf(w, "Database at %s is ready.\n", redact(targetURL))
	return nil
}

// withDatabase swaps the database name in a postgres URL; an empty name keeps it. Query
// parameters such as sslmode are kept.
func withDatabase(databaseURL, name string) (string, error) {
	if name == "" {
		return databaseURL, nil
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	u.Path = "/" + name
	return u.String(), nil
}

func redact(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "(invalid url)"
	}
	return u.Redacted()
}

func runFunctionalities(w io.Writer, format string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	catalog, err := registry.OpenCatalog(cfg.CatalogFile, cfg.CatalogVersionConstraint)
	if err != nil {
		return err
	}
	reg, err := catalog.Build(cfg.CatalogVersionConstraint)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(catalog); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tOPERATION\tFIELDS\tOUTCOME")
		for _, name := range reg.ListNames() {
			d, err := reg.Lookup(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.Operation, strings.Join(d.FieldNames(), ","), d.Outcome.Kind())
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (use table, yaml or json)", format)
	}
}
