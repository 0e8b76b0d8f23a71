package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/n2digital-pt/lead-lens-n2/metrics"
	"github.com/n2digital-pt/lead-lens-n2/services/speech"
	"github.com/n2digital-pt/lead-lens-n2/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DictationHandler is the server-side fallback for browsers without the
// Web Speech API. A nil Transcriber means dictation is not configured.
type DictationHandler struct {
	Transcriber     speech.Transcriber
	DefaultLanguage string
}

func NewDictationHandler(t speech.Transcriber, defaultLanguage string) *DictationHandler {
	return &DictationHandler{Transcriber: t, DefaultLanguage: defaultLanguage}
}

func (h *DictationHandler) TranscribeHandler(c *gin.Context) {
	logger := getLogger(c)

	if h.Transcriber == nil {
		metrics.DictationRequests.WithLabelValues("unconfigured").Inc()
		utils.JSONError(c, http.StatusServiceUnavailable, "Server dictation is not configured", "")
		return
	}

	language := c.PostForm("language")
	if language == "" {
		language = h.DefaultLanguage
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, speech.MaxFileSize+multipartOverhead)
	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		metrics.DictationRequests.WithLabelValues("invalid").Inc()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.JSONError(c, http.StatusRequestEntityTooLarge, "The recording is too large", "")
			return
		}
		utils.JSONError(c, http.StatusBadRequest, "audio file is required", err.Error())
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !speech.AllowedExtensions[ext] {
		metrics.DictationRequests.WithLabelValues("invalid").Inc()
		utils.JSONError(c, http.StatusBadRequest, "invalid file type", fmt.Sprintf("expected .wav, .webm or .ogg, got %q", ext))
		return
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(file, speech.MaxFileSize+1)); err != nil {
		metrics.DictationRequests.WithLabelValues("invalid").Inc()
		utils.JSONError(c, http.StatusBadRequest, "failed to read audio file", err.Error())
		return
	}
	if buf.Len() > speech.MaxFileSize {
		metrics.DictationRequests.WithLabelValues("invalid").Inc()
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "The recording is too large", "")
		return
	}

	text, err := h.Transcriber.Transcribe(c.Request.Context(), buf.Bytes(), ext, language)
	if err != nil {
		if errors.Is(err, speech.ErrAudioTooLong) {
			metrics.DictationRequests.WithLabelValues("invalid").Inc()
			utils.JSONError(c, http.StatusBadRequest, "The recording is too long", err.Error())
			return
		}
		metrics.DictationRequests.WithLabelValues("error").Inc()
		logger.Error("transcription failed", zap.String("file", header.Filename), zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "transcription failed", err.Error())
		return
	}

	metrics.DictationRequests.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{"transcription": text})
}
