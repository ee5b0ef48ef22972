package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"lidercheck/internal/checklist"
	"lidercheck/internal/clock"
	"lidercheck/internal/config"
	"lidercheck/internal/logging"
	"lidercheck/internal/store"
	"lidercheck/internal/week"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cli struct {
	envFile string
	cfg     config.Config
	logger  *zap.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "lidercheck",
		Short:         "Shift leader checklist and compliance server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.envFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file read before the environment")

	root.AddCommand(c.serveCommand(), c.migrateCommand(), c.exportCommand())
	return root
}

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate, seed and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.cfg.RequireSessionSecret(); err != nil {
				return err
			}
			ctx := cmd.Context()
			a, closeDB, err := c.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			srv := newServer(a, serverConfig{
				SessionSecret: c.cfg.SessionSecret,
				SessionIdle:   c.cfg.SessionIdle,
				SecureCookies: c.cfg.SecureCookies,
				CSRFKey:       c.cfg.CSRFKey,
			})
			httpSrv := &http.Server{
				Addr:              c.cfg.Addr,
				Handler:           srv.routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- httpSrv.ListenAndServe()
			}()
			c.logger.Info("server starting", zap.String("addr", c.cfg.Addr), zap.String("db_driver", c.cfg.DBDriver))

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				c.logger.Info("server stopping")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			}
		},
	}
}

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and seed defaults, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, closeDB, err := c.bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			closeDB()
			c.logger.Info("database ready", zap.String("db_driver", c.cfg.DBDriver))
			return nil
		},
	}
}

func (c *cli) exportCommand() *cobra.Command {
	var line, shift, weekID, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the weekly checklist workbook of one line and shift",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, closeDB, err := c.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			if weekID == "" {
				weekID = week.IdentifierOf(a.clock.Now())
			}
			file, err := a.weeklyReport(ctx, line, shift, weekID)
			if err != nil {
				return err
			}
			if out == "" {
				out = file.Name
			}
			if err := os.WriteFile(out, file.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			c.logger.Info("weekly report written", zap.String("file", out), zap.String("week", weekID))
			return nil
		},
	}
	cmd.Flags().StringVar(&line, "line", "", "production line")
	cmd.Flags().StringVar(&shift, "shift", checklist.Shift1, "shift (1 or 2)")
	cmd.Flags().StringVar(&weekID, "week", "", "week identifier, e.g. 2024-W01 (default: current week)")
	cmd.Flags().StringVar(&out, "out", "", "output path (default: generated file name)")
	_ = cmd.MarkFlagRequired("line")
	return cmd
}

// bootstrap opens the database, applies migrations, seeds an empty database
// and wires the application services.
func (c *cli) bootstrap(ctx context.Context) (*app, func(), error) {
	seed, err := config.LoadSeed(c.cfg.SeedFile)
	if err != nil {
		return nil, nil, err
	}

	db, err := store.Open(ctx, c.cfg.DBDriver, c.cfg.DBDSN)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			c.logger.Warn("close database", zap.Error(err))
		}
	}

	biz := clock.NewBusiness(c.cfg.UTCOffset)
	st, err := store.New(store.Config{
		DB:           db,
		Location:     biz.Location(),
		LogLimit:     c.cfg.LogLimit,
		MeetingLimit: c.cfg.MeetingLimit,
	})
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		closeDB()
		return nil, nil, err
	}
	if err := seedStore(ctx, st, seed); err != nil {
		closeDB()
		return nil, nil, err
	}

	a, err := newApp(appConfig{
		Store:     st,
		Clock:     biz,
		Seed:      seed,
		TieBreak:  c.cfg.Tie(),
		Logger:    c.logger,
		BackupDir: c.cfg.BackupDir,
	})
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return a, closeDB, nil
}

func seedStore(ctx context.Context, st *store.Store, seed config.Seed) error {
	d := store.Defaults{Lines: seed.Lines, Roles: seed.Roles}
	if seed.Admin.Matricula != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Admin.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		d.Admin = checklist.User{
			Matricula: seed.Admin.Matricula,
			Name:      seed.Admin.Name,
			Role:      seed.Admin.Role,
			Shift:     seed.Admin.Shift,
			Email:     seed.Admin.Email,
			IsAdmin:   true,
		}
		d.AdminPasswordHash = string(hash)
	}
	return st.Seed(ctx, d)
}
