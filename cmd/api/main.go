package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/justsurfingit/jobhunt-tracker/internal/auth"
	"github.com/justsurfingit/jobhunt-tracker/internal/config"
	"github.com/justsurfingit/jobhunt-tracker/internal/handlers"
	"github.com/justsurfingit/jobhunt-tracker/internal/logger"
	"github.com/justsurfingit/jobhunt-tracker/internal/services"
	"github.com/justsurfingit/jobhunt-tracker/internal/store"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML/TOML/JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped with error")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Storage
	st, err := store.Open(cfg.Database, store.WithLogger(log), store.WithResumeDir(cfg.Resumes.Dir))
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.WithError(err).Warn("closing store")
		}
	}()
	log.WithField("driver", cfg.Database.Driver).Info("✅ database ready")

	// 2. Core services
	llmService, err := services.NewLLMService(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		log.WithError(err).Warn("⚠️  LLM disabled, extraction unavailable")
		llmService = nil
	}

	var classifier services.Classifier = services.KeywordClassifier{}
	if cfg.Classifier.Kind == "llm" {
		if llmService != nil {
			classifier = services.NewLLMClassifier(llmService, log)
		} else {
			log.Warn("⚠️  llm classifier requested without an API key, using keywords")
		}
	}

	var notifier services.Notifier = services.LogNotifier{Log: log}
	if cfg.Notify.WebhookURL != "" {
		notifier = services.NewWebhookNotifier(cfg.Notify.WebhookURL)
	}

	jobService := services.NewJobService(st)
	matcher := services.NewMatcherService(st)
	emailService := services.NewEmailService(st, matcher, classifier, notifier, cfg.Notify, log)
	scanService := services.NewScanService(st, services.SourcesFromConfig(cfg.Scan.Sources), cfg.Scan.Preferences, log)

	// 3. HTTP
	router := handlers.NewRouter(handlers.Handlers{
		Jobs:         handlers.NewJobHandler(llmService, jobService),
		Applications: handlers.NewApplicationHandler(st, jobService),
		Resumes:      handlers.NewResumeHandler(services.NewResumeService(st)),
		Stats:        handlers.NewStatsHandler(services.NewStatsService(st)),
		Emails:       handlers.NewEmailHandler(emailService),
		Scan:         handlers.NewScanHandler(scanService),
	}, log)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.Server.Addr).Info("🚀 server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// 4. Background workers
	if cfg.Scan.Enabled && len(cfg.Scan.Sources) > 0 {
		g.Go(func() error { return scanService.Run(gctx, cfg.Scan.Interval) })
	}
	if cfg.Gmail.Enabled {
		watcher, err := newGmailWatcher(gctx, cfg.Gmail, st, emailService, log)
		if err != nil {
			log.WithError(err).Warn("⚠️  Gmail watcher disabled")
		} else {
			g.Go(func() error { return watcher.Run(gctx, cfg.Gmail.PollInterval) })
		}
	}

	err = g.Wait()
	emailService.Wait()
	log.Info("👋 shut down")
	return err
}

func newGmailWatcher(ctx context.Context, cfg config.GmailConfig, st *store.Store, emails *services.EmailService, log logrus.FieldLogger) (*services.GmailWatcher, error) {
	httpClient, err := auth.GetGmailClient(ctx, cfg.CredentialsFile, cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	gmailService, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	log.Info("✅ Gmail Service connected successfully.")
	return services.NewGmailWatcher(gmailService, st, emails, cfg.Query, cfg.MaxResults, log), nil
}
