package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mindshard/workspace/pkg/config"
	"github.com/mindshard/workspace/pkg/conversation"
	"github.com/mindshard/workspace/pkg/dispatch"
	"github.com/mindshard/workspace/pkg/files"
	"github.com/mindshard/workspace/pkg/store"
	"github.com/mindshard/workspace/pkg/stream"
	"github.com/mindshard/workspace/pkg/workspace"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "mindshard",
	Short: "Client runtime for the Mindshard assistant workspace",
	Long: `mindshard talks to a Mindshard backend: it submits prompts to the
reasoning orchestrator, follows the streamed thought process, and lets
agent tool calls edit the files you have open.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return cfg.SetupLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.mindshard/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, ".mindshard", "config.yaml")
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// runtime bundles the wired subsystems behind one conversation.
type runtime struct {
	cfg       *config.Config
	session   *conversation.Session
	workspace *workspace.Session
	history   *store.SQLiteKV
}

func newRuntime(sessionID string, confirmer workspace.Confirmer) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	fileStore := files.NewClient(cfg.Server.BaseURL, cfg.Server.FileTimeout)
	ws := workspace.NewSession(fileStore, confirmer)
	dispatcher := dispatch.New(fileStore, ws)
	transport := stream.NewTransport(cfg.Server.BaseURL, cfg.Server.RequestTimeout)

	var history *store.SQLiteKV
	var kv store.KV
	if cfg.Session.HistoryDB != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Session.HistoryDB), 0755); err != nil {
			slog.Warn("transcript history unavailable", "error", err)
		} else if history, err = store.Open(cfg.Session.HistoryDB); err != nil {
			slog.Warn("transcript history unavailable", "error", err)
			history = nil
		}
	}
	if history != nil {
		kv = history
	}

	return &runtime{
		cfg:       cfg,
		session:   conversation.NewSession(sessionID, transport, dispatcher, kv),
		workspace: ws,
		history:   history,
	}, nil
}

func (r *runtime) close() {
	r.session.Abort()
	if r.history != nil {
		r.history.Close()
	}
}
