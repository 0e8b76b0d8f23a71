package handlers

import (
	"html/template"
	"net/http"

	"github.com/n2digital-pt/lead-lens-n2/models"
	ai "github.com/n2digital-pt/lead-lens-n2/services/intelligence"
	"github.com/n2digital-pt/lead-lens-n2/services/export"

	"github.com/gin-gonic/gin"
)

const pageTemplate = "index.html"

// PageData drives index.html. Exactly one of the idle, error and result
// states is shown; loading is entered by the browser while a request runs.
type PageData struct {
	Mode             models.Mode
	Analysis         *models.Analysis
	ResultHTML       template.HTML
	Pitch            string
	Error            string
	DictationEnabled bool
	DefaultLanguage  string
}

// State names the visible section of the page.
func (d PageData) State() string {
	switch {
	case d.Error != "":
		return "error"
	case d.Analysis != nil:
		return "result"
	default:
		return "idle"
	}
}

type PageHandler struct {
	Svc              ai.LeadService
	DictationEnabled bool
	DefaultLanguage  string
}

func NewPageHandler(svc ai.LeadService, dictationEnabled bool, defaultLanguage string) *PageHandler {
	return &PageHandler{Svc: svc, DictationEnabled: dictationEnabled, DefaultLanguage: defaultLanguage}
}

func (h *PageHandler) data(mode models.Mode) PageData {
	if !mode.Valid() {
		mode = models.ModeImage
	}
	return PageData{Mode: mode, DictationEnabled: h.DictationEnabled, DefaultLanguage: h.DefaultLanguage}
}

// IndexPageHandler renders the idle page. ?mode= picks the open tab.
func (h *PageHandler) IndexPageHandler(c *gin.Context) {
	c.HTML(http.StatusOK, pageTemplate, h.data(models.Mode(c.Query("mode"))))
}

// LeadPageHandler renders a cached analysis for share links.
func (h *PageHandler) LeadPageHandler(c *gin.Context) {
	analysis, err := h.Svc.GetAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		data := h.data(models.ModeImage)
		data.Error = "This analysis is no longer available. Run a new one below."
		c.HTML(http.StatusNotFound, pageTemplate, data)
		return
	}

	data := h.data(analysis.Mode)
	data.Analysis = analysis
	// HTML was sanitized when the analysis was rendered.
	data.ResultHTML = template.HTML(analysis.HTML)
	data.Pitch = export.Pitch(analysis.Text)
	c.HTML(http.StatusOK, pageTemplate, data)
}
