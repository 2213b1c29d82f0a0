// Package server exposes the conversation pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bfindeiss/handwerker-app/internal/conversation"
	"github.com/bfindeiss/handwerker-app/internal/llm"
	"github.com/bfindeiss/handwerker-app/internal/pricing"
	"github.com/bfindeiss/handwerker-app/pkg/provider/stt"
)

// Handlers contains all HTTP request handlers.
type Handlers struct {
	engine      *conversation.Engine
	transcriber stt.Provider
	logger      *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(engine *conversation.Engine, transcriber stt.Provider, logger *zap.Logger) *Handlers {
	return &Handlers{engine: engine, transcriber: transcriber, logger: logger}
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "handwerker-app",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// ConversationText handles POST /conversation-text/: one text-only turn.
func (h *Handlers) ConversationText(c *gin.Context) {
	sessionID := c.PostForm("session_id")
	text := c.PostForm("text")
	if sessionID == "" || text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and text are required"})
		return
	}
	h.runTurn(c, sessionID, text, nil)
}

// Conversation handles POST /conversation/: one audio turn.
func (h *Handlers) Conversation(c *gin.Context) {
	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	audio, ok := h.readAudio(c)
	if !ok {
		return
	}

	text, err := h.transcriber.Transcribe(c.Request.Context(), audio)
	if err != nil {
		h.logger.Error("Transcription failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "transcription backend unavailable"})
		return
	}
	h.runTurn(c, sessionID, text, audio)
}

// ProcessAudio handles POST /process-audio/: a one-shot turn without an
// existing session; a fresh session id is generated per request.
func (h *Handlers) ProcessAudio(c *gin.Context) {
	audio, ok := h.readAudio(c)
	if !ok {
		return
	}

	text, err := h.transcriber.Transcribe(c.Request.Context(), audio)
	if err != nil {
		h.logger.Error("Transcription failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "transcription backend unavailable"})
		return
	}
	h.runTurn(c, uuid.NewString(), text, audio)
}

func (h *Handlers) readAudio(c *gin.Context) ([]byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return nil, false
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open audio file"})
		return nil, false
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read audio file"})
		return nil, false
	}
	return audio, true
}

func (h *Handlers) runTurn(c *gin.Context, sessionID, text string, audio []byte) {
	// Slow local inference backends need more headroom than the default
	// request deadline.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Minute)
	defer cancel()

	resp, err := h.engine.HandleTurn(ctx, sessionID, text, audio)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// respondError maps domain errors to HTTP status codes: pricing gaps are
// client errors, unreachable backends are 503s.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pricing.ErrMissingMaterialPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, llm.ErrBackendUnavailable), errors.Is(err, llm.ErrUnknownModel):
		h.logger.Error("Annotator backend failure", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Turn failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
