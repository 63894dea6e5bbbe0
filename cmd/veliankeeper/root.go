package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/redsunink/veliankeeper/internal/api"
	"github.com/redsunink/veliankeeper/internal/catalog"
	"github.com/redsunink/veliankeeper/internal/config"
	"github.com/redsunink/veliankeeper/internal/gateway"
	"github.com/redsunink/veliankeeper/internal/logging"
	"github.com/redsunink/veliankeeper/internal/presentation"
	"github.com/redsunink/veliankeeper/internal/repository/sqlite"
	"github.com/redsunink/veliankeeper/internal/scraper"
	"github.com/redsunink/veliankeeper/internal/tasks"
)

// RootCommand is the base command for the keeper service.
type RootCommand struct {
	cmd        *cobra.Command
	configPath string
}

// NewRootCommand creates the root cobra command with global flags.
func NewRootCommand() *RootCommand {
	root := &RootCommand{}

	root.cmd = &cobra.Command{
		Use:   "veliankeeper",
		Short: "Community operations keeper for production task tracking",
		Long: `veliankeeper tracks production tasks for a game community: members
create tasks against a shared item catalog, sign up for them, submit
progress, and see live renderings kept in sync in the community's
channels.

CONFIGURATION:
  Configuration follows this priority order: environment variables > config file > defaults

  VK_CONFIG                       Config file path (YAML)
  VK_DB_DIR                       Database directory (default: ~/.veliankeeper)
  VK_DB_FILENAME                  Database filename (default: main_data.db)
  VK_GATEWAY_BASE_URL             Chat gateway base URL
  VK_GATEWAY_TOKEN                Chat gateway bot token
  VK_GATEWAY_TASKS_CHANNEL_ID     Channel for live task renderings
  VK_GATEWAY_ARCHIVE_CHANNEL_ID   Channel for archived task records
  VK_TASKS_UPDATE_RETRY_LIMIT     Conditional write retry bound (default: 5)
  VK_SERVER_LISTEN_ADDR           Command API listen address (default: :8080)
  VK_LOG_LEVEL                    Log level (default: info)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.runServe()
		},
	}

	root.cmd.PersistentFlags().StringVar(&root.configPath, "config", "", "Config file path (overrides VK_CONFIG)")
	return root
}

// Execute runs the root command.
func (r *RootCommand) Execute() error {
	return r.cmd.Execute()
}

func (r *RootCommand) runServe() error {
	cfg, err := config.NewLoader().Load(r.configPath)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.Application.LogLevel)

	if err := os.MkdirAll(cfg.Database.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", cfg.GetDatabasePath(), cfg.Database.WriteTimeout.Milliseconds())
	repo, err := sqlite.New(dsn)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := context.Background()
	healthCtx, cancel := context.WithTimeout(ctx, cfg.Database.QueryTimeout)
	defer cancel()
	if err := repo.HealthCheck(healthCtx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	logger.Info("database ready", "path", cfg.GetDatabasePath())

	channel, err := gateway.NewClient(gateway.ClientConfig{
		BaseURL:    cfg.Gateway.BaseURL,
		Token:      cfg.Gateway.Token,
		HTTPClient: &http.Client{Timeout: cfg.Gateway.RequestTimeout},
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	presenter := presentation.NewPresenter(presentation.PresenterConfig{
		Channel:          channel,
		Repository:       repo,
		Logger:           logger,
		TasksChannelID:   cfg.Gateway.TasksChannelID,
		ArchiveChannelID: cfg.Gateway.ArchiveChannelID,
		HistoryLimit:     cfg.Presentation.ReconcileHistoryLimit,
		FooterQuotes:     cfg.Presentation.FooterQuotes,
	})

	if err := presenter.Reconcile(ctx); err != nil {
		logger.Warn("startup reconciliation incomplete", "error", err)
	}

	wikiClient := scraper.NewWikiClient(cfg.Wiki.BaseURL, &http.Client{Timeout: cfg.Wiki.RequestTimeout})
	catalogSvc := catalog.NewService(repo, wikiClient, logger)
	taskSvc := tasks.NewService(repo, catalogSvc, presenter, cfg.Tasks.UpdateRetryLimit, logger)

	server := api.NewServer(taskSvc, catalogSvc, repo, cfg.Server.RequestTimeout, logger)
	logger.Info("command server listening", "addr", cfg.Server.ListenAddr)
	return server.Run(cfg.Server.ListenAddr)
}
