package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"financas/internal/auth"
	"financas/internal/cli"
	"financas/internal/config"
	"financas/internal/log"
	"financas/internal/report"
	"financas/internal/services"
	"financas/internal/storage"
)

type app struct {
	cfg    *config.Config
	logger *log.Logger
	dbPath string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "financas-admin",
		Short:         "Administrative tasks for the financas SQLite database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			a.cfg, a.logger = cli.Bootstrap(log.ComponentAdmin)
			if a.dbPath == "" {
				a.dbPath = a.cfg.SQLiteDBPath
			}
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (defaults to SQLITE_DB_PATH)")

	root.AddCommand(a.migrateCmd(), a.userCmd(), a.reportCmd())
	return root
}

func (a *app) openStore() (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(a.dbPath, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", a.dbPath, err)
	}
	return repo, nil
}

func (a *app) migrateCmd() *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !statusOnly {
				if err := storage.RunMigrations(a.dbPath); err != nil {
					return err
				}
			}
			v, dirty, err := storage.MigrationVersion(a.dbPath)
			if err != nil {
				return err
			}
			if dirty {
				pterm.Warning.Printfln("Schema version %d is dirty", v)
				return nil
			}
			pterm.Success.Printfln("Schema at version %d (%s)", v, a.dbPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "Only print the current schema version")
	return cmd
}

func (a *app) userCmd() *cobra.Command {
	user := &cobra.Command{Use: "user", Short: "Manage users"}

	var email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("FINANCAS_ADMIN_PASSWORD")
			}
			repo, err := a.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()

			svc := auth.NewService(repo, auth.Config{SessionTTL: a.cfg.SessionTTL}, a.logger)
			id, err := svc.CreateUser(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Created user %s (%s)", id.Email, id.UID)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "User email")
	create.Flags().StringVar(&password, "password", "", "User password (or FINANCAS_ADMIN_PASSWORD)")
	_ = create.MarkFlagRequired("email")

	user.AddCommand(create)
	return user
}

func (a *app) reportCmd() *cobra.Command {
	rep := &cobra.Command{Use: "report", Short: "Render reports"}

	var email, format, output string
	budgets := &cobra.Command{
		Use:   "budgets",
		Short: "Show the budgets of a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch format {
			case "table", "yaml", "pdf":
			default:
				return fmt.Errorf("unknown format %q (table, yaml or pdf)", format)
			}

			repo, err := a.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			normalized, err := auth.NormalizeEmail(email)
			if err != nil {
				return err
			}
			u, err := repo.GetUserByEmail(ctx, normalized)
			if err != nil {
				return fmt.Errorf("find user %s: %w", normalized, err)
			}
			list, err := services.NewBudgetService(repo, nil, a.logger).List(ctx, u.ID)
			if err != nil {
				return err
			}
			r := report.Build(u.Email, list, time.Now())

			switch format {
			case "yaml":
				return r.WriteYAML(cmd.OutOrStdout())
			case "pdf":
				path, err := r.WritePDF(output)
				if err != nil {
					return err
				}
				pterm.Success.Printfln("Report written to %s", path)
				return nil
			default:
				return r.RenderTable()
			}
		},
	}
	budgets.Flags().StringVar(&email, "email", "", "Owner email")
	budgets.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, yaml or pdf")
	budgets.Flags().StringVarP(&output, "output", "o", "budgets.pdf", "PDF output path")
	_ = budgets.MarkFlagRequired("email")

	rep.AddCommand(budgets)
	return rep
}
