// Package cli is the operator command line: schema migration, demo seeding,
// company registration, listings and one-shot document actions.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"trade-docs/internal/app"
	"trade-docs/internal/config"
	"trade-docs/internal/core"
	"trade-docs/internal/db"
	"trade-docs/internal/logger"
	"trade-docs/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// runtime holds what commands need once the root command has started.
type runtime struct {
	cfg     *config.Config
	pool    *pgxpool.Pool
	svc     app.ApplicationService
	closers []func() error
}

var rt = &runtime{}

var rootCmd = &cobra.Command{
	Use:   "trade-docs",
	Short: "Operate the trade document service",
	Long: `trade-docs manages the lifecycle of trade documents exchanged between
buyer and seller companies: RFQs, quotations, contracts, purchase and sales
orders, delivery notes, packing lists and invoices.

Configuration comes from the environment (and .env when present).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := logger.Setup(logger.Config{Level: cfg.LogLevel, Format: "console", Output: os.Stderr}); err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		rt.cfg = cfg
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		for _, c := range rt.closers {
			_ = c()
		}
		if rt.pool != nil {
			rt.pool.Close()
		}
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	log := logger.WithComponent("cli")
	if err := rootCmd.Execute(); err != nil {
		log.Debug().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("company", "", "acting company id")
	rootCmd.AddCommand(migrateCmd, seedCmd, companiesCmd, documentsCmd, invoicesCmd)
}

// connect opens the database pool on first use.
func (r *runtime) connect(ctx context.Context) (*pgxpool.Pool, error) {
	if r.pool != nil {
		return r.pool, nil
	}
	pool, err := db.NewPool(ctx, r.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	r.pool = pool
	return pool, nil
}

// service wires the application service over Postgres.
func (r *runtime) service(ctx context.Context) (app.ApplicationService, error) {
	if r.svc != nil {
		return r.svc, nil
	}
	pool, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := r.cfg.DeletePolicy()
	if err != nil {
		return nil, err
	}
	files, closeFiles, err := storage.Open(ctx, r.cfg.StorageProvider, r.cfg.UploadDir, r.cfg.GCSBucket, r.cfg.GCSCredentialsJSON)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, closeFiles)

	store := db.NewStore(pool)
	r.svc = app.NewAppService(core.NewDocumentService(store, policy), core.NewCompanyService(store), files)
	return r.svc, nil
}

// actor resolves the --company flag into an Actor.
func actor(cmd *cobra.Command, svc app.ApplicationService) (core.Actor, error) {
	raw, _ := cmd.Flags().GetString("company")
	if raw == "" {
		return core.Actor{}, fmt.Errorf("--company is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return core.Actor{}, fmt.Errorf("--company: %w", err)
	}
	c, err := svc.GetCompany(cmd.Context(), id)
	if err != nil {
		return core.Actor{}, err
	}
	return core.Actor{CompanyID: c.ID, Kind: c.Kind}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDocuments(result *app.DocumentListResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 96))
	fmt.Printf("  %-20s %-22s %-26s %15s\n", "CODE", "STATUS", "COUNTER-PARTY", "TOTAL")
	fmt.Println(strings.Repeat("-", 96))
	for _, d := range result.Documents {
		fmt.Printf("  %-20s %-22s %-26s %15s\n", d.Code, d.Status, truncate(d.Counter.Name, 26), d.TotalAmount.StringFixed(2))
	}
	fmt.Println(strings.Repeat("=", 96))
	fmt.Printf("  %d %s document(s)\n", len(result.Documents), strings.ToLower(string(result.Type)))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
