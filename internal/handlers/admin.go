package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"villamedia/internal/appinfo"
	"villamedia/internal/media"
	"villamedia/pkg/utils"
)

type ExtendedStatsDTO struct {
	appinfo.Stats
	TotalSizeHuman string       `json:"total_size_human"`
	Uptime         string       `json:"uptime"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	RamUsage       uint64       `json:"ram_usage"`
	NumGoroutines  int          `json:"num_goroutines"`
	CachedFiles    int          `json:"cached_files"`
	EmailBreaker   string       `json:"email_breaker,omitempty"`
	RecentUploads  []media.View `json:"recent_uploads"`
	MaxUploadSize  string       `json:"max_upload_size"`
}

// GetStats returns server health, memory metrics, and recent activity.
// GET /api/admin/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	snap := appinfo.Snapshot()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	recent := []media.View{}
	records, _, err := h.reconciler.List(r.Context(), media.ListQuery{Page: 1, Limit: 5})
	if err != nil {
		h.log.Warn("stats: listing recent uploads failed: %v", err)
	}
	for i := range records {
		recent = append(recent, h.reconciler.Present(&records[i], ""))
	}

	stats := ExtendedStatsDTO{
		Stats:          snap,
		TotalSizeHuman: utils.FormatBytes(snap.Bytes),
		Uptime:         time.Since(appinfo.StartTime).Round(time.Second).String(),
		UptimeSeconds:  int64(time.Since(appinfo.StartTime).Seconds()),
		RamUsage:       m.Alloc,
		NumGoroutines:  runtime.NumGoroutine(),
		RecentUploads:  recent,
		MaxUploadSize:  h.cfg.Media.MaxUploadSize,
	}
	if h.cache != nil {
		stats.CachedFiles = h.cache.Len()
	}
	if h.relay != nil {
		stats.EmailBreaker = h.relay.State()
	}

	utils.WriteJSON(w, http.StatusOK, stats)
}

// Healthz reports liveness and database reachability.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			h.log.Error("health check: %v", err)
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	utils.WriteJSON(w, code, map[string]string{
		"status":  status,
		"version": h.cfg.App.Version,
		"uptime":  fmt.Sprintf("%ds", int64(time.Since(appinfo.StartTime).Seconds())),
	})
}

// Helper to construct dynamic base URLs (http vs https)
func getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}
