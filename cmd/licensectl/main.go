// Command licensectl runs maintenance tasks against the license database:
// schema migration, folio inspection and back-fill, and test tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"medleave/internal/config"
	"medleave/internal/database"
	"medleave/internal/domain/access"
	"medleave/internal/metrics"
	folioalloc "medleave/internal/modules/folio"
	jwtsvc "medleave/internal/pkg/jwt"
	"medleave/internal/pkg/logger"
	"medleave/internal/repository"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

type env struct {
	cfg *config.Config
	log zerolog.Logger
}

func (e *env) openDB() (*gorm.DB, error) {
	db, err := database.Connect(e.cfg.DatabaseURL, database.Options{
		MaxOpenConns: e.cfg.DBMaxOpenConns,
		MaxIdleConns: e.cfg.DBMaxIdleConns,
	}, e.log)
	if err != nil {
		return nil, err
	}
	if err := repository.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (e *env) allocator() (*folioalloc.Allocator, error) {
	db, err := e.openDB()
	if err != nil {
		return nil, err
	}
	return folioalloc.NewAllocator(db, e.cfg.FolioMaxAttempts, e.log, metrics.New()), nil
}

func newRootCmd() *cobra.Command {
	e := &env{}
	rootCmd := &cobra.Command{
		Use:          "licensectl",
		Short:        "Maintenance commands for the medical leave license service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log = logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, "console")
			return nil
		},
	}

	rootCmd.AddCommand(newMigrateCmd(e), newFolioCmd(e), newTokenCmd(e))
	return rootCmd
}

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.openDB(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newFolioCmd(e *env) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "folio",
		Short: "Inspect and manage folio sequences",
	}
	cmd.PersistentFlags().IntVar(&year, "year", time.Now().Year(), "Folio year")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "next",
			Short: "Show the folio the next submission would receive",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.allocator()
				if err != nil {
					return err
				}
				f, err := a.Peek(cmd.Context(), year)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), f)
				return nil
			},
		},
		&cobra.Command{
			Use:   "allocate",
			Short: "Reserve the next folio without a license, for paper back-fill",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.allocator()
				if err != nil {
					return err
				}
				f, err := a.Allocate(cmd.Context(), time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), nil)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), f)
				return nil
			},
		},
		&cobra.Command{
			Use:   "reseed",
			Short: "Align the year counter with the highest stored folio",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := e.allocator()
				if err != nil {
					return err
				}
				seq, err := a.Reseed(cmd.Context(), year)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "counter for %d set to %d\n", year, seq)
				return nil
			},
		},
	)
	return cmd
}

func newTokenCmd(e *env) *cobra.Command {
	var (
		userID int64
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg.ProdLike() {
				return fmt.Errorf("refusing to mint tokens in %s", e.cfg.AppEnv)
			}
			if userID <= 0 {
				return fmt.Errorf("--user must be a positive id")
			}
			r, ok := access.NormalizeRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			if ttl <= 0 {
				ttl = e.cfg.JWTTTL
			}
			tok, err := jwtsvc.New(e.cfg.JWTSecret, ttl).GenerateToken(userID, string(r))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "User id (required)")
	cmd.Flags().StringVar(&role, "role", "student", "Role: student, reviewer or admin (aliases accepted)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: MEDLEAVE_JWT_TTL)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
