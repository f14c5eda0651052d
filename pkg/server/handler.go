// Package server exposes the search pipeline over HTTP as a
// newline-delimited JSON event stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/modootree/searchstream/pkg/cache"
	"github.com/modootree/searchstream/pkg/history"
	"github.com/modootree/searchstream/pkg/pipeline"
	"github.com/modootree/searchstream/pkg/quota"
)

// Runner produces the pipeline event stream for one query.
type Runner interface {
	Run(ctx context.Context, rawQuery string) iter.Seq2[pipeline.Event, error]
}

// QuotaService guards per-user daily usage.
type QuotaService interface {
	CheckAndConsume(ctx context.Context, uid string) error
	Refund(uid string)
}

// HistoryService records and lists answered queries.
type HistoryService interface {
	Record(ctx context.Context, msg history.Message)
	Recent(ctx context.Context, uid string, limit int) ([]history.Message, error)
}

const (
	msgQuotaExceeded    = "일일 대화 한도를 초과했습니다."
	msgQuotaUnavailable = "일시적인 오류가 발생했습니다."
)

type Handler struct {
	Pipeline  Runner
	Cache     *cache.Cache
	Quota     QuotaService
	History   HistoryService
	Providers []string
	Logger    *slog.Logger
}

func NewHandler(p Runner, c *cache.Cache, q QuotaService, h HistoryService, providers []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Pipeline: p, Cache: c, Quota: q, History: h, Providers: providers, Logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.POST("/search/stream", h.streamSearch)
		api.GET("/health", h.health)
		api.GET("/history", h.getHistory)
		api.GET("/cache/stats", h.cacheStats)
		api.POST("/cache/clear", h.cacheClear)
	}
}

type searchRequest struct {
	Query string `json:"query"`
	UID   string `json:"uid"`
}

func (h *Handler) streamSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	setStreamHeaders(c)

	if h.Quota != nil {
		if err := h.Quota.CheckAndConsume(c.Request.Context(), req.UID); err != nil {
			// Fail closed either way, but only an exhausted limit gets
			// the limit message; a broken quota store is a generic error.
			msg := msgQuotaExceeded
			if !errors.Is(err, quota.ErrLimitExceeded) {
				h.Logger.Error("quota check failed", "uid", req.UID, "error", err)
				msg = msgQuotaUnavailable
			}
			writeEvent(c, pipeline.Event{
				Stage:   pipeline.StageError,
				Status:  pipeline.StatusFinished,
				Message: msg,
				Error:   msg,
			})
			return
		}
	}

	var final pipeline.Event
	for event, err := range h.Pipeline.Run(c.Request.Context(), req.Query) {
		if err != nil {
			h.Logger.Warn("pipeline failed", "query", req.Query, "error", err)
			writeEvent(c, event)
			if h.Quota != nil {
				h.Quota.Refund(req.UID)
			}
			return
		}
		if !writeEvent(c, event) {
			return
		}
		if event.Stage == pipeline.StageComplete {
			final = event
		}
	}

	if h.History != nil && final.Stage == pipeline.StageComplete {
		// Fire and forget; the stream is already complete.
		go h.History.Record(context.Background(), history.Message{
			UID:       req.UID,
			Query:     req.Query,
			Category:  string(final.Category),
			Answer:    answerText(final),
			FromCache: final.FromCache,
		})
	}
}

// writeEvent marshals one frame and flushes it to the client.
func writeEvent(c *gin.Context, event pipeline.Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		return false
	}
	if _, err := c.Writer.Write(data); err != nil {
		return false
	}
	if _, err := c.Writer.Write([]byte("\n")); err != nil {
		return false
	}
	c.Writer.Flush()
	return true
}

func setStreamHeaders(c *gin.Context) {
	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// answerText flattens the complete event into the text stored in
// history: the prose summary, or the item list serialized as JSON.
func answerText(e pipeline.Event) string {
	if e.Summary != "" {
		return e.Summary
	}
	if len(e.Items) == 0 {
		return ""
	}
	data, err := json.Marshal(e.Items)
	if err != nil {
		return ""
	}
	return string(data)
}

func (h *Handler) getHistory(c *gin.Context) {
	uid := c.Query("uid")
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid is required"})
		return
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	if h.History == nil {
		c.JSON(http.StatusOK, []history.Message{})
		return
	}
	msgs, err := h.History.Recent(c.Request.Context(), uid, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// Return empty list instead of null
	if msgs == nil {
		msgs = []history.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handler) health(c *gin.Context) {
	resp := gin.H{
		"status":    "ok",
		"providers": h.Providers,
	}
	if h.Cache != nil {
		resp["cache"] = h.Cache.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) cacheStats(c *gin.Context) {
	if h.Cache == nil {
		c.JSON(http.StatusOK, cache.Stats{})
		return
	}
	c.JSON(http.StatusOK, h.Cache.Stats())
}

func (h *Handler) cacheClear(c *gin.Context) {
	if h.Cache != nil {
		h.Cache.Clear()
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
