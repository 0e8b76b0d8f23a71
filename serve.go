package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/n2digital-pt/lead-lens-n2/config"
	"github.com/n2digital-pt/lead-lens-n2/handlers"
	"github.com/n2digital-pt/lead-lens-n2/middleware"
	"github.com/n2digital-pt/lead-lens-n2/routes"
	ai "github.com/n2digital-pt/lead-lens-n2/services/intelligence"
	"github.com/n2digital-pt/lead-lens-n2/services/speech"
	"github.com/n2digital-pt/lead-lens-n2/utils"
	"github.com/n2digital-pt/lead-lens-n2/web"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const healthCheckInterval = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server with the browser UI and JSON API",
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() {
	cfg := config.AppConfig
	logger := utils.GetLogger()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	redisClient, err := utils.InitCache()
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	var store ai.Store
	if redisClient != nil {
		defer redisClient.Close()
		store = ai.NewRedisStore(redisClient, cfg.ResultTTL())
	} else {
		logger.Info("REDIS_ADDR is empty, keeping sessions and results in memory")
		store = ai.NewMemoryStore(cfg.ResultTTL())
	}

	leadService, cleanup := newLeadService(ctx, cfg, store, logger)
	defer cleanup()

	var transcriber speech.Transcriber
	if cfg.GoogleServiceAccountFile != "" {
		cloud, err := speech.NewCloudTranscriber(ctx, cfg.GoogleServiceAccountFile)
		if err != nil {
			logger.Warn("server dictation disabled", zap.Error(err))
		} else {
			defer cloud.Close()
			transcriber = cloud
		}
	}

	monitor := utils.NewHealthMonitor(redisClient, leadService.Vision != nil, transcriber != nil)
	monitor.Start(ctx, healthCheckInterval)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Proxies()); err != nil {
		logger.Sugar().Fatalf("main: invalid TRUSTED_PROXIES: %v", err)
	}
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))
	router.Use(middleware.SessionMiddleware(config.IsProduction()))

	tmpl, err := web.Templates()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to parse page templates: %v", err)
	}
	router.SetHTMLTemplate(tmpl)

	leadHandler := handlers.NewLeadHandler(leadService, cfg.MaxImageBytes)
	pageHandler := handlers.NewPageHandler(leadService, transcriber != nil, cfg.DefaultLanguage)
	dictationHandler := handlers.NewDictationHandler(transcriber, cfg.SpeechLanguage)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		// Page endpoints.
		IndexPageHandler: pageHandler.IndexPageHandler,
		LeadPageHandler:  pageHandler.LeadPageHandler,

		// Lead endpoints.
		AnalyzeImageHandler:    leadHandler.AnalyzeImageHandler,
		SearchMapsHandler:      leadHandler.SearchMapsHandler,
		AuditTextHandler:       leadHandler.AuditTextHandler,
		GetAnalysisHandler:     leadHandler.GetAnalysisHandler,
		ExportCitationsHandler: leadHandler.ExportCitationsHandler,
		PitchHandler:           leadHandler.PitchHandler,

		// Dictation endpoint.
		DictationHandler: dictationHandler.TranscribeHandler,

		// Operations.
		HealthHandler:  handlers.HealthHandler(monitor),
		MetricsHandler: gin.WrapH(promhttp.Handler()),
	}

	routes.RegisterRoutes(router, handlerBundle, cfg.Origins())

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout() + 30*time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
