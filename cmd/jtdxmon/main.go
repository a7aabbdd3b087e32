package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jtdxmon/internal/config"
	"jtdxmon/internal/constants"
	"jtdxmon/internal/filter"
	"jtdxmon/internal/history"
	"jtdxmon/internal/models"
	"jtdxmon/internal/privacy"
	"jtdxmon/internal/retry"
	"jtdxmon/internal/service"
	"jtdxmon/internal/tailer"
	"jtdxmon/internal/tracing"
	"jtdxmon/pkg/serverchan"
	"jtdxmon/pkg/wechatwork"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("jtdxmon %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting jtdxmon")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	configureLogLevel(logger, cfg)

	tracingManager := tracing.NewManager(tracing.Config{
		ServiceName:    "jtdxmon",
		ServiceVersion: Version,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
		UseStdout:      cfg.Tracing.UseStdout,
	}, logger)

	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	callFilter, err := filter.New(cfg.Monitor.IgnoreCalls)
	if err != nil {
		return fmt.Errorf("invalid ignore list: %w", err)
	}
	if patterns := callFilter.Patterns(); len(patterns) > 0 {
		logger.WithField("patterns", patterns).Info("Ignoring callsigns matching patterns")
	}

	var store service.ContactStore
	var historyStore *history.Store
	if cfg.History.Path != "" {
		historyStore, err = history.New(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer historyStore.Close()
		store = historyStore
		logger.WithField("path", cfg.History.Path).Info("Contact history enabled")
	}

	notifier, stopNotifier, err := buildNotifier(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build notifier: %w", err)
	}
	defer stopNotifier()

	queue := service.NewNotificationQueue(
		cfg.Monitor.Name,
		notifier,
		time.Duration(cfg.Queue.SendIntervalSec)*time.Second,
		logger,
	)
	go queue.Run(ctx)

	monitor := service.NewMonitor(callFilter, queue, store, logger)

	t := tailer.New(cfg.Tailer.LogDir, cfg.Tailer.FileSuffix, logger)
	stopTailing, err := startTailing(ctx, cfg, t, monitor.HandleLine, logger)
	if err != nil {
		return fmt.Errorf("failed to start tailing: %w", err)
	}
	defer stopTailing()

	logger.WithFields(logrus.Fields{
		"dir":          cfg.Tailer.LogDir,
		"mode":         cfg.Tailer.Mode,
		"name":         cfg.Monitor.Name,
		"sendInterval": cfg.Queue.SendIntervalSec,
	}).Info("Monitoring started")

	serverErrCh := make(chan error, 1)
	var server *Server
	if cfg.Server.Enabled {
		server = NewServer(cfg.Server, historyStore, logger)
		go func() {
			if err := server.Start(); err != nil {
				serverErrCh <- fmt.Errorf("status server error: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	// Best-effort drain of whatever is still pending.
	flushCtx, cancel := context.WithTimeout(context.Background(), time.Duration(constants.DefaultGracefulShutdownSec)*time.Second)
	defer cancel()
	logger.Info("Flushing pending notifications")
	queue.Flush(flushCtx)

	if server != nil {
		if err := server.Shutdown(flushCtx); err != nil {
			return fmt.Errorf("failed to shutdown status server gracefully: %w", err)
		}
	}

	logger.Info("Shutdown completed")
	return nil
}

func configureLogLevel(logger *logrus.Logger, cfg *models.Config) {
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Info("Verbose logging enabled")
		return
	}
	if cfg.LogLevel == "" {
		logger.SetLevel(logrus.InfoLevel)
		return
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Invalid log level %q, defaulting to info", cfg.LogLevel)
		logger.SetLevel(logrus.InfoLevel)
		return
	}
	logger.SetLevel(level)
}

// buildNotifier constructs the configured backend once and returns it
// along with a stop function for its background lifecycle, if any.
func buildNotifier(ctx context.Context, cfg *models.Config, logger *logrus.Logger) (service.Notifier, func(), error) {
	timeout := time.Duration(cfg.Notifier.HTTPTimeoutSec) * time.Second

	switch cfg.Notifier.Backend {
	case "wechatwork":
		backoff := retry.NewBackoff(retry.BackoffConfig{
			InitialDelay: time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
			MaxDelay:     time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond,
			Multiplier:   2.0,
			MaxAttempts:  cfg.Retry.MaxAttempts,
			Jitter:       true,
		})
		client := wechatwork.NewClient(wechatwork.ClientConfig{
			BaseURL:      cfg.Notifier.WeChatWork.BaseURL,
			CorpID:       cfg.Notifier.WeChatWork.CorpID,
			AgentID:      cfg.Notifier.WeChatWork.AgentID,
			Secret:       cfg.Notifier.WeChatWork.Secret,
			ToUser:       cfg.Notifier.WeChatWork.ToUser,
			Timeout:      timeout,
			TokenRefresh: time.Duration(cfg.Notifier.WeChatWork.TokenRefreshSec) * time.Second,
		}, backoff, logger)
		if err := client.StartTokenRefresh(ctx); err != nil {
			return nil, nil, err
		}
		logger.WithFields(logrus.Fields{
			"corpId": privacy.MaskCorpID(cfg.Notifier.WeChatWork.CorpID),
			"toUser": cfg.Notifier.WeChatWork.ToUser,
		}).Info("WeChat Work notifications enabled")
		return client, client.Stop, nil

	case "serverchan":
		client := serverchan.NewClient(serverchan.ClientConfig{
			BaseURL: cfg.Notifier.ServerChan.BaseURL,
			SendKey: cfg.Notifier.ServerChan.SendKey,
			Tags:    cfg.Notifier.ServerChan.Tags,
			Timeout: timeout,
		}, logger)
		logger.WithField("sendKey", privacy.MaskSecret(cfg.Notifier.ServerChan.SendKey)).Info("ServerChan notifications enabled")
		return client, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown notifier backend %q", cfg.Notifier.Backend)
	}
}

// startTailing wires the monitor into the configured scheduling
// discipline and returns a stop function.
func startTailing(ctx context.Context, cfg *models.Config, t *tailer.Tailer, handler tailer.LineHandler, logger *logrus.Logger) (func(), error) {
	switch cfg.Tailer.Mode {
	case "watch":
		watcher := tailer.NewWatcher(t, handler, logger)
		if err := watcher.Start(ctx); err != nil {
			return nil, err
		}
		return watcher.Stop, nil
	default:
		poller := tailer.NewPoller(t, handler, time.Duration(cfg.Tailer.PollIntervalSec)*time.Second, logger)
		if err := poller.Start(ctx); err != nil {
			return nil, err
		}
		return poller.Stop, nil
	}
}
