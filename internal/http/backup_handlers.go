package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"sentry-gate/internal/backup"
)

func (h *Handler) listBackups(c *gin.Context) {
	infos, err := h.backups.List()
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(infos))
}

func (h *Handler) createBackup(c *gin.Context) {
	handle, err := h.backups.Backup(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	if max := h.config.Backup.MaxBackups; max > 0 {
		if err := h.backups.CleanupOld(max); err != nil {
			h.log.Warn().Err(err).Msg("backup retention cleanup failed")
		}
	}
	h.appendBackupAudit(c, "backup", handle)
	c.JSON(http.StatusCreated, successResponse(gin.H{"handle": handle}))
}

func (h *Handler) restoreBackup(c *gin.Context) {
	handle := backup.Handle(c.Param("handle"))
	if err := h.backups.Restore(c.Request.Context(), handle); err != nil {
		h.handleError(c, err)
		return
	}
	h.log.Info().Str("actor", actor(c)).Str("handle", string(handle)).Msg("store restored")
	// After the restore transaction: the row must land in the trail
	// the restore just installed, not in the one it replaced.
	h.appendBackupAudit(c, "restore", handle)
	c.JSON(http.StatusOK, successResponse(gin.H{"handle": handle}))
}

func (h *Handler) appendBackupAudit(c *gin.Context, action string, handle backup.Handle) {
	details := datatypes.JSONMap{"handle": string(handle)}
	if _, err := h.store.AccessLogs.Append(c.Request.Context(), actor(c), action, nil, nil, details); err != nil {
		h.log.Warn().Err(err).Str("action", action).Msg("failed to log backup operation")
	}
}

func (h *Handler) deleteBackup(c *gin.Context) {
	handle := backup.Handle(c.Param("handle"))
	if err := h.backups.Delete(handle); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
