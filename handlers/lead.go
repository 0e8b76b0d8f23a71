package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/n2digital-pt/lead-lens-n2/middleware"
	"github.com/n2digital-pt/lead-lens-n2/models"
	ai "github.com/n2digital-pt/lead-lens-n2/services/intelligence"
	"github.com/n2digital-pt/lead-lens-n2/services/export"
	"github.com/n2digital-pt/lead-lens-n2/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipartOverhead is the room left for form fields next to the image.
const multipartOverhead = 1 << 20

// LeadHandler exposes the three analysis modes and their exports.
type LeadHandler struct {
	Svc           ai.LeadService
	MaxImageBytes int64
}

func NewLeadHandler(svc ai.LeadService, maxImageBytes int64) *LeadHandler {
	return &LeadHandler{Svc: svc, MaxImageBytes: maxImageBytes}
}

// AnalyzeImageHandler handles multipart photo uploads.
func (h *LeadHandler) AnalyzeImageHandler(c *gin.Context) {
	if h.MaxImageBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxImageBytes+multipartOverhead)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, ai.ErrImageTooLarge)
			return
		}
		utils.JSONError(c, http.StatusBadRequest, "Please choose a photo to analyse", err.Error())
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "The photo could not be read", err.Error())
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	limit := h.MaxImageBytes
	if limit <= 0 {
		limit = fileHeader.Size
	}
	if _, err := io.Copy(&buf, io.LimitReader(file, limit+1)); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "The photo could not be read", err.Error())
		return
	}

	req := models.ImageLeadRequest{
		Image:        buf.Bytes(),
		MIMEType:     fileHeader.Header.Get("Content-Type"),
		FileName:     fileHeader.Filename,
		BusinessName: c.PostForm("businessName"),
		Notes:        c.PostForm("notes"),
		Language:     c.PostForm("language"),
	}
	analysis, err := h.Svc.AnalyzeImage(c.Request.Context(), middleware.SessionID(c), req)
	if err != nil {
		getLogger(c).Info("image analysis failed", zap.String("file", fileHeader.Filename), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// SearchMapsHandler handles JSON map searches.
func (h *LeadHandler) SearchMapsHandler(c *gin.Context) {
	var req models.MapSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}
	analysis, err := h.Svc.SearchMaps(c.Request.Context(), middleware.SessionID(c), req)
	if err != nil {
		getLogger(c).Info("map search failed", zap.String("query", req.Query), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// AuditTextHandler handles JSON text audits.
func (h *LeadHandler) AuditTextHandler(c *gin.Context) {
	var req models.TextAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}
	analysis, err := h.Svc.AuditText(c.Request.Context(), middleware.SessionID(c), req)
	if err != nil {
		getLogger(c).Info("text audit failed", zap.String("website", req.Website), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// GetAnalysisHandler returns a cached analysis by ID.
func (h *LeadHandler) GetAnalysisHandler(c *gin.Context) {
	analysis, err := h.Svc.GetAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// ExportCitationsHandler downloads the citation list as CSV.
func (h *LeadHandler) ExportCitationsHandler(c *gin.Context) {
	analysis, err := h.Svc.GetAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCitationsCSV(&buf, analysis.Citations); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Export failed", err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.CitationsFileName(analysis)+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// PitchHandler returns the pitch section as plain text for copy and share.
func (h *LeadHandler) PitchHandler(c *gin.Context) {
	analysis, err := h.Svc.GetAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.String(http.StatusOK, export.Pitch(analysis.Text))
}

// respondError turns a service error into the single user-visible message.
func respondError(c *gin.Context, err error) {
	var inputErr *ai.InputError
	var vendorErr *ai.VendorError

	switch {
	case errors.As(err, &inputErr):
		utils.JSONError(c, http.StatusBadRequest, "Please check the form", inputErr.Error())
	case errors.Is(err, ai.ErrUnsupportedImage):
		utils.JSONError(c, http.StatusUnsupportedMediaType, "Please upload a JPEG, PNG, WebP or HEIC photo", err.Error())
	case errors.Is(err, ai.ErrImageTooLarge):
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "The photo is too large", err.Error())
	case errors.Is(err, ai.ErrBusy):
		utils.JSONError(c, http.StatusConflict, "Please wait for the current analysis to finish", "")
	case errors.Is(err, ai.ErrMissingCredential):
		utils.JSONError(c, http.StatusServiceUnavailable, "The AI service is not configured", err.Error())
	case errors.Is(err, ai.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "This analysis is no longer available", "")
	case errors.Is(err, context.DeadlineExceeded):
		utils.JSONError(c, http.StatusGatewayTimeout, "The AI service took too long to answer", "")
	case errors.As(err, &vendorErr):
		utils.JSONError(c, http.StatusBadGateway, "The AI service could not complete the request", vendorErr.Err.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Something went wrong", err.Error())
	}
}
