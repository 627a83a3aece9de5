package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/keyxmakerx/sproutfound/internal/config"
	"github.com/keyxmakerx/sproutfound/internal/kvstore"
	"github.com/keyxmakerx/sproutfound/internal/plugins/auth"
	"github.com/keyxmakerx/sproutfound/internal/plugins/credentials"
	"github.com/keyxmakerx/sproutfound/internal/plugins/missions"
)

// env is what every subcommand works against. It is built in the root's
// PersistentPreRunE; the returned closer releases it whether or not the
// command succeeded.
type env struct {
	cfg       *config.Config
	store     *kvstore.Store
	creds     credentials.Repository
	authority *auth.Authority
	ledger    *missions.Ledger
	scheduler *missions.Scheduler
}

func newRootCmd() (*cobra.Command, func() error) {
	e := &env{}
	var verbose bool

	root := &cobra.Command{
		Use:   "sproutctl",
		Short: "Inspect and maintain the Sprout Found client store",
		Long: `sproutctl opens the key/value store configured through the usual
environment variables (STORE_BACKEND, STORE_PATH, REDIS_URL, ...) and
operates on it directly.

Available commands:
  session  - Show or clear the stored session
  missions - Show or rotate the mission board
  store    - List or wipe raw keys`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return e.open(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newSessionCmd(e), newMissionsCmd(e), newStoreCmd(e))
	return root, e.close
}

func (e *env) open(notices io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := kvstore.Open(cfg)
	if err != nil {
		return err
	}

	catalog := missions.DefaultCatalog()
	if cfg.Missions.CatalogFile != "" {
		if catalog, err = missions.LoadCatalogFile(cfg.Missions.CatalogFile); err != nil {
			store.Close()
			return err
		}
	}

	e.cfg = cfg
	e.store = store
	e.creds = credentials.NewRepository(store)
	e.authority = auth.NewAuthority(e.creds)
	e.ledger = missions.NewLedger(store)
	e.scheduler = missions.NewScheduler(store, catalog, e.ledger, printNotifier{w: notices}, cfg.Missions)
	return nil
}

func (e *env) close() error {
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}

// printNotifier writes scheduler notices to the terminal.
type printNotifier struct {
	w io.Writer
}

func (p printNotifier) Info(msg string)    { fmt.Fprintln(p.w, msg) }
func (p printNotifier) Success(msg string) { fmt.Fprintln(p.w, msg) }
func (p printNotifier) Error(msg string)   { fmt.Fprintln(p.w, "error:", msg) }
