package routes

import (
	"net/http"
	"time"

	"github.com/n2digital-pt/lead-lens-n2/handlers"
	"github.com/n2digital-pt/lead-lens-n2/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterPageRoutes registers the browser UI.
func RegisterPageRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.StaticFS("/static", http.FS(web.Static()))
	r.GET("/", hb.IndexPageHandler)
	r.GET("/leads/:id", hb.LeadPageHandler)
}

// RegisterLeadRoutes registers the lead analysis API.
func RegisterLeadRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/leads")
	{
		api.POST("/image", hb.AnalyzeImageHandler)
		api.POST("/search", hb.SearchMapsHandler)
		api.POST("/audit", hb.AuditTextHandler)

		api.GET("/:id", hb.GetAnalysisHandler)
		api.GET("/:id/citations.csv", hb.ExportCitationsHandler)
		api.GET("/:id/pitch", hb.PitchHandler)
	}
}

// RegisterDictationRoute registers the server-side dictation fallback.
func RegisterDictationRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/dictation", hb.DictationHandler)
}

// RegisterHealthRoute registers the health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
	r.GET("/metrics", hb.MetricsHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, allowedOrigins []string) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: !allowsAll(allowedOrigins),
		MaxAge:           12 * time.Hour,
	}))

	RegisterPageRoutes(r, hb)
	RegisterLeadRoutes(r, hb)
	RegisterDictationRoute(r, hb)
	RegisterHealthRoute(r, hb)
}

// allowsAll reports whether the wildcard origin is configured.
func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
