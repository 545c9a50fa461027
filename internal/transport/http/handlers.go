package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"levelwatch/internal/health"
	"levelwatch/internal/monitor"
	"levelwatch/internal/publish"
	"levelwatch/internal/store"
)

type handlers struct {
	publish *publish.Service
	health  *health.Reporter
	monitor *monitor.Monitor
	storage store.Store
	job     string
}

type reportRequest struct {
	Date  string `json:"date"`
	Text  string `json:"text" binding:"required"`
	Force bool   `json:"force"`
}

func (h *handlers) previewReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.publish.Preview(req.Text))
}

func (h *handlers) publishReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	force := req.Force || c.Query("force") == "1"
	res, err := h.publish.Publish(c.Request.Context(), req.Date, req.Text, force)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if res.Gated {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) latestReport(c *gin.Context) {
	rec, ok, err := h.storage.LatestReport(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report published yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           rec.ID,
		"date":         rec.Date,
		"extracted":    rec.Extracted,
		"warnings":     rec.Warnings,
		"published_at": rec.PublishedAt,
	})
}

func (h *handlers) listLevels(c *gin.Context) {
	ctx := c.Request.Context()
	var levels []store.LevelRecord
	var err error
	if raw := c.Query("report_id"); raw != "" {
		id, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad report_id"})
			return
		}
		levels, err = h.storage.LevelsForReport(ctx, id)
	} else {
		rec, ok, latestErr := h.storage.LatestReport(ctx)
		if latestErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": latestErr.Error()})
			return
		}
		if !ok {
			c.JSON(http.StatusOK, gin.H{"levels": []store.LevelRecord{}})
			return
		}
		levels, err = h.storage.LevelsForReport(ctx, rec.ID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	switch c.Query("status") {
	case "pending":
		levels = filterLevels(levels, false)
	case "triggered":
		levels = filterLevels(levels, true)
	}
	c.JSON(http.StatusOK, gin.H{"levels": levels})
}

func filterLevels(levels []store.LevelRecord, triggered bool) []store.LevelRecord {
	out := make([]store.LevelRecord, 0, len(levels))
	for _, l := range levels {
		if l.Triggered() == triggered {
			out = append(out, l)
		}
	}
	return out
}

func (h *handlers) healthReport(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "health reporter not configured"})
		return
	}
	rep, err := h.health.Report(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *handlers) listNotifications(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}
	entries, err := h.storage.RecentNotifications(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": entries})
}

// runMonitor triggers one tick out of schedule. The tick is idempotent, so a
// manual run racing a scheduled one is harmless.
func (h *handlers) runMonitor(c *gin.Context) {
	if h.monitor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "monitor not configured"})
		return
	}
	res, err := h.monitor.Tick(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "elapsed": res.Elapsed.Truncate(time.Millisecond).String()})
}

type enabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *handlers) setMonitorEnabled(c *gin.Context) {
	var req enabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.storage.SetJobEnabled(c.Request.Context(), h.job, *req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": h.job, "enabled": *req.Enabled})
}
