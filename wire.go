package main

import (
	"context"
	"errors"

	"github.com/n2digital-pt/lead-lens-n2/config"
	ai "github.com/n2digital-pt/lead-lens-n2/services/intelligence"
	"github.com/n2digital-pt/lead-lens-n2/services/storage"

	"go.uber.org/zap"
)

// newLeadService wires the Gemini clients, website fetcher and optional photo
// archive around store. The returned cleanup closes the clients.
func newLeadService(ctx context.Context, cfg config.Config, store ai.Store, logger *zap.Logger) (*ai.DefaultLeadService, func()) {
	svc := &ai.DefaultLeadService{
		Store: store,
		Prompts: ai.PromptBuilder{
			DefaultLanguage: cfg.DefaultLanguage,
			MaxImageBytes:   cfg.MaxImageBytes,
		},
		Website: ai.NewWebsiteFetcher(cfg.WebsiteFetchTimeout()),
		Timeout: cfg.RequestTimeout(),
		Logger:  logger.Named("leads"),
	}
	cleanup := func() {}

	visionModel := cfg.GeminiVisionModel
	if visionModel == "" {
		visionModel = cfg.GeminiModel
	}
	vision, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, visionModel)
	switch {
	case err == nil:
		svc.Vision = vision
		cleanup = func() {
			if err := vision.Close(); err != nil {
				logger.Warn("failed to close Gemini client", zap.Error(err))
			}
		}
	case errors.Is(err, ai.ErrMissingCredential):
		logger.Warn("GEMINI_API_KEY is empty, every analysis will fail until it is set")
	default:
		logger.Error("failed to initialize Gemini client", zap.Error(err))
	}

	grounded, err := ai.NewGroundedClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err == nil {
		svc.Grounded = grounded
	} else if !errors.Is(err, ai.ErrMissingCredential) {
		logger.Error("failed to initialize grounded Gemini client", zap.Error(err))
	}

	if cfg.ArchivePhotos {
		archiver, err := storage.NewCloudinaryArchiver(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err != nil {
			logger.Warn("photo archive disabled", zap.Error(err))
		} else {
			svc.Archiver = archiver
		}
	}

	return svc, cleanup
}
