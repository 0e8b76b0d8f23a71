package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Page endpoints
	IndexPageHandler gin.HandlerFunc
	LeadPageHandler  gin.HandlerFunc

	// Lead endpoints
	AnalyzeImageHandler    gin.HandlerFunc
	SearchMapsHandler      gin.HandlerFunc
	AuditTextHandler       gin.HandlerFunc
	GetAnalysisHandler     gin.HandlerFunc
	ExportCitationsHandler gin.HandlerFunc
	PitchHandler           gin.HandlerFunc

	// Dictation endpoint
	DictationHandler gin.HandlerFunc

	// Operations
	HealthHandler  gin.HandlerFunc
	MetricsHandler gin.HandlerFunc
}
