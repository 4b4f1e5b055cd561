package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"villamedia/internal/database"
	"villamedia/pkg/utils"
)

// BackupHandler streams a point-in-time snapshot of the SQLite database.
// GET /api/admin/backup
func (h *Handler) BackupHandler(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, utils.ErrServerUnavailable, "Database is not configured.")
		return
	}

	// Ensure only one backup runs at a time to prevent resource exhaustion.
	if !h.backupMutex.TryLock() {
		utils.WriteError(w, http.StatusTooManyRequests, utils.ErrBackupConcurrencyLimit, "Another backup is currently in progress.")
		return
	}
	defer h.backupMutex.Unlock()

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("villa_media_%s.db", timestamp)

	tempDir, err := os.MkdirTemp("", "villa-backup-*")
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, utils.ErrServerInternal, "Could not prepare backup.")
		return
	}
	defer os.RemoveAll(tempDir)

	tempPath := filepath.Join(tempDir, filename)

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	if err := database.Snapshot(ctx, h.db, tempPath); err != nil {
		h.log.Error("backup snapshot: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, utils.ErrServerInternal, "Internal database snapshot failed.")
		return
	}

	info, err := os.Stat(tempPath)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, utils.ErrServerInternal, "Failed to verify backup integrity.")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Type", "application/x-sqlite3")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
	w.Header().Set("Pragma", "no-cache")

	http.ServeFile(w, r, tempPath)
}
