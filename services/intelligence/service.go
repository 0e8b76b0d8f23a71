package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/n2digital-pt/lead-lens-n2/metrics"
	"github.com/n2digital-pt/lead-lens-n2/models"
	"github.com/n2digital-pt/lead-lens-n2/services/render"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// lockMargin keeps the busy flag alive slightly past the request timeout.
const lockMargin = 15 * time.Second

// LeadService is what the handlers and the CLI depend on.
type LeadService interface {
	AnalyzeImage(ctx context.Context, sessionID string, req models.ImageLeadRequest) (*models.Analysis, error)
	SearchMaps(ctx context.Context, sessionID string, req models.MapSearchRequest) (*models.Analysis, error)
	AuditText(ctx context.Context, sessionID string, req models.TextAuditRequest) (*models.Analysis, error)
	GetAnalysis(ctx context.Context, id string) (*models.Analysis, error)
}

// PhotoArchiver keeps a copy of analysed photos.
type PhotoArchiver interface {
	ArchivePhoto(ctx context.Context, name, mimeType string, data []byte) (string, error)
}

// SiteFetcher reads a business website for text audits.
type SiteFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*WebsiteSnapshot, error)
}

// DefaultLeadService wires prompt building, generation and caching.
// Vision and Grounded may be nil when no API key is configured.
type DefaultLeadService struct {
	Vision   Generator
	Grounded Generator
	Store    Store
	Prompts  PromptBuilder
	Website  SiteFetcher
	Archiver PhotoArchiver
	Timeout  time.Duration
	Logger   *zap.Logger
	Now      func() time.Time
}

func (s *DefaultLeadService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultLeadService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *DefaultLeadService) AnalyzeImage(ctx context.Context, sessionID string, req models.ImageLeadRequest) (*models.Analysis, error) {
	p, err := s.Prompts.BuildImagePrompt(req)
	if err != nil {
		return nil, s.fail(models.ModeImage, err)
	}
	fileName := zap.String("file_name", req.FileName)
	analysis, err := s.run(ctx, sessionID, s.Vision, p, fileName)
	if err != nil {
		return nil, err
	}
	if s.Archiver != nil {
		url, err := s.Archiver.ArchivePhoto(ctx, analysis.ID, p.Image.MIMEType, req.Image)
		if err != nil {
			s.logger().Warn("photo archive failed", zap.String("analysis_id", analysis.ID), fileName, zap.Error(err))
		} else {
			analysis.PhotoURL = url
		}
	}
	return s.save(ctx, analysis)
}

func (s *DefaultLeadService) SearchMaps(ctx context.Context, sessionID string, req models.MapSearchRequest) (*models.Analysis, error) {
	p, err := s.Prompts.BuildSearchPrompt(req)
	if err != nil {
		return nil, s.fail(models.ModeSearch, err)
	}
	analysis, err := s.run(ctx, sessionID, s.Grounded, p)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, analysis)
}

func (s *DefaultLeadService) AuditText(ctx context.Context, sessionID string, req models.TextAuditRequest) (*models.Analysis, error) {
	website, err := NormalizeWebsite(req.Website)
	if err != nil {
		return nil, s.fail(models.ModeAudit, err)
	}
	// Validate before touching the network.
	if _, err := s.Prompts.BuildAuditPrompt(req, nil); err != nil {
		return nil, s.fail(models.ModeAudit, err)
	}

	var site *WebsiteSnapshot
	if website != "" && s.Website != nil {
		snap, err := s.Website.Fetch(ctx, website)
		if err != nil {
			s.logger().Info("website snapshot failed", zap.String("website", website), zap.Error(err))
		}
		site = snap
	}

	p, err := s.Prompts.BuildAuditPrompt(req, site)
	if err != nil {
		return nil, s.fail(models.ModeAudit, err)
	}
	analysis, err := s.run(ctx, sessionID, s.Grounded, p)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, analysis)
}

func (s *DefaultLeadService) GetAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.Store.GetAnalysis(ctx, id)
}

// run holds the session busy flag for the duration of one generation.
// Extra fields are appended to the completion log line.
func (s *DefaultLeadService) run(ctx context.Context, sessionID string, gen Generator, p Prompt, fields ...zap.Field) (*models.Analysis, error) {
	if gen == nil {
		return nil, s.fail(p.Mode, ErrMissingCredential)
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	if sessionID != "" {
		ok, err := s.Store.AcquireSession(ctx, sessionID, timeout+lockMargin)
		if err != nil {
			return nil, s.fail(p.Mode, fmt.Errorf("acquire session: %w", err))
		}
		if !ok {
			return nil, s.fail(p.Mode, ErrBusy)
		}
		defer func() {
			// The request context may already be cancelled; release regardless.
			if err := s.Store.ReleaseSession(context.Background(), sessionID); err != nil {
				s.logger().Error("release session failed", zap.String("session", sessionID), zap.Error(err))
			}
		}()
	}

	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	mode := string(p.Mode)
	metrics.LeadsInFlight.WithLabelValues(mode).Inc()
	start := time.Now()
	out, err := gen.Generate(genCtx, p)
	metrics.LeadDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	metrics.LeadsInFlight.WithLabelValues(mode).Dec()
	if err != nil {
		var vendorErr *VendorError
		if !errors.As(err, &vendorErr) && !errors.Is(err, ErrMissingCredential) {
			err = &VendorError{Op: "generate", Err: err}
		}
		return nil, s.fail(p.Mode, err)
	}

	text, err := FormatText(out.Text)
	if err != nil {
		return nil, s.fail(p.Mode, &VendorError{Op: "format", Err: err})
	}
	html, err := render.Markdown(text)
	if err != nil {
		return nil, s.fail(p.Mode, err)
	}
	citations := DedupeCitations(out.Citations)
	for _, c := range citations {
		metrics.CitationsReturned.WithLabelValues(string(c.Kind)).Inc()
	}

	analysis := &models.Analysis{
		ID:        uuid.NewString(),
		Mode:      p.Mode,
		Text:      text,
		HTML:      html,
		Citations: citations,
		Model:     out.Model,
		Language:  p.Language,
		CreatedAt: s.now().UTC(),
	}
	s.logger().Info("lead analysis completed", append([]zap.Field{
		zap.String("analysis_id", analysis.ID),
		zap.String("mode", mode),
		zap.String("language", p.Language),
		zap.Int("citations", len(citations)),
		zap.Duration("elapsed", time.Since(start)),
	}, fields...)...)
	metrics.LeadRequests.WithLabelValues(mode, "ok").Inc()
	return analysis, nil
}

// save caches the analysis. A cache failure only costs the share link.
func (s *DefaultLeadService) save(ctx context.Context, a *models.Analysis) (*models.Analysis, error) {
	if err := s.Store.SaveAnalysis(ctx, a); err != nil {
		s.logger().Error("cache analysis failed", zap.String("analysis_id", a.ID), zap.Error(err))
	}
	return a, nil
}

func (s *DefaultLeadService) fail(mode models.Mode, err error) error {
	metrics.LeadRequests.WithLabelValues(string(mode), outcome(err)).Inc()
	return err
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedImage), errors.Is(err, ErrImageTooLarge):
		return "invalid"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrMissingCredential):
		return "unconfigured"
	default:
		return "error"
	}
}
