package shared

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/fan-yu0/autoupdater/internal/config"
	apperrors "github.com/fan-yu0/autoupdater/internal/errors"
	"github.com/fan-yu0/autoupdater/internal/logging"
	"github.com/fan-yu0/autoupdater/internal/update"
	"github.com/spf13/cobra"
)

// LoadConfig loads the effective configuration for cmd, honoring the
// --config flag.
func LoadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, apperrors.ConfigFileNotFound(path)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		source := path
		if source == "" {
			source, _ = config.GlobalConfigPath()
		}
		return nil, apperrors.ConfigParseError(source, err)
	}
	return cfg, nil
}

// DebugEnabled reports whether --debug was passed.
func DebugEnabled(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}

// NewLogger returns the stderr logger for interactive commands. The terminal
// display carries progress, so the logger stays at warn unless --debug is set
// or log_level asks for less.
func NewLogger(cmd *cobra.Command, cfg *config.Configuration) (*log.Logger, error) {
	level := cfg.LogLevel
	if DebugEnabled(cmd) {
		level = "debug"
	} else if lvl, err := log.ParseLevel(level); err == nil && lvl < log.WarnLevel {
		level = "warn"
	}
	return logging.New(cmd.ErrOrStderr(), level, cfg.LogFormat, AppName)
}

// NewFetcher builds the release fetcher described by cfg.
func NewFetcher(cfg *config.Configuration) *update.Fetcher {
	fetcher := update.NewFetcher(cfg.ReleaseURL, cfg.ReadTimeoutDuration())
	fetcher.SetToken(cfg.GitHubToken)
	fetcher.SetUserAgent(cfg.UserAgent)
	return fetcher
}

// NewOptions maps cfg onto orchestrator options for the binary at exe
// running version.
func NewOptions(cfg *config.Configuration, exe, version string) update.Options {
	return update.Options{
		CurrentVersion: version,
		InstallDir:     cfg.ResolveInstallDir(exe),
		TempDir:        cfg.ResolveTempDir(),
		LogDir:         cfg.LogDir(),
		Relaunch: update.RelaunchSpec{
			Path: cfg.ResolveEntryPoint(exe),
			Args: cfg.EntryArgs,
		},
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelayDuration(),
	}
}

// NewOrchestrator wires the update pipeline from cfg. installer may be nil
// for commands that only check.
func NewOrchestrator(cfg *config.Configuration, exe, version string, installer update.Installer, logger *log.Logger, reporter update.Reporter) *update.Orchestrator {
	downloader := update.NewDownloader(update.NewHTTPClient(cfg.ConnectTimeoutDuration()), cfg.ReadTimeoutDuration())
	return update.NewOrchestrator(
		NewOptions(cfg, exe, version),
		NewFetcher(cfg),
		downloader,
		installer,
		update.WithLogger(logger),
		update.WithReporter(reporter),
	)
}
