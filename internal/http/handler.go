package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"sentry-gate/internal/backup"
	"sentry-gate/internal/config"
	"sentry-gate/internal/domain"
	"sentry-gate/internal/pipeline"
	"sentry-gate/internal/repository"
	"sentry-gate/internal/service"
	"sentry-gate/internal/vision"
)

type Handler struct {
	gateService *service.GateService
	store       *repository.Store
	backups     *backup.Manager
	notifier    *pipeline.Notifier
	frames      *vision.PushSource
	config      *config.Config
	log         zerolog.Logger
}

func NewHandler(
	gateService *service.GateService,
	store *repository.Store,
	backups *backup.Manager,
	notifier *pipeline.Notifier,
	frames *vision.PushSource,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		gateService: gateService,
		store:       store,
		backups:     backups,
		notifier:    notifier,
		frames:      frames,
		config:      cfg,
		log:         log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Read-only endpoints for the presentation and export layers.
	public := r.Group("/api/v1")
	{
		public.GET("/vehicles", h.listVehicles)
		public.GET("/vehicles/:id", h.getVehicle)
		public.GET("/carriers", h.listCarriers)
		public.GET("/carriers/:id", h.getCarrier)
		public.GET("/merchandise", h.listMerchandise)
		public.GET("/merchandise/:id", h.getMerchandise)
		public.GET("/ocr-records", h.listOCRRecords)
		public.GET("/ocr-records/:id", h.getOCRRecord)
		public.GET("/access-logs", h.listAccessLogs)
		public.GET("/events/stream", h.streamOutcomes)
	}

	// Mutations go through the repository/backup contracts only.
	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/vehicles", h.createVehicle)
		protected.PUT("/vehicles/:id", h.updateVehicle)
		protected.DELETE("/vehicles/:id", h.deleteVehicle)
		protected.POST("/carriers", h.createCarrier)
		protected.PUT("/carriers/:id", h.updateCarrier)
		protected.DELETE("/carriers/:id", h.deleteCarrier)
		protected.POST("/merchandise", h.createMerchandise)
		protected.PUT("/merchandise/:id", h.updateMerchandise)
		protected.DELETE("/merchandise/:id", h.deleteMerchandise)
		protected.POST("/frames", h.pushFrame)
		protected.POST("/ocr-records/:id/resolution", h.resolveOCRRecord)
		protected.GET("/backups", h.listBackups)
		protected.POST("/backups", h.createBackup)
		protected.POST("/backups/:handle/restore", h.restoreBackup)
		protected.DELETE("/backups/:handle", h.deleteBackup)
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrBackupNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, domain.ErrDuplicateKey),
		errors.Is(err, domain.ErrReferentialIntegrity),
		errors.Is(err, domain.ErrImmutableRecord),
		errors.Is(err, domain.ErrIncompatibleSchema):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse("invalid id"))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			return parsed
		}
	}
	return fallback
}

// actor returns the authenticated subject set by the auth middleware,
// or "anonymous" on public routes.
func actor(c *gin.Context) string {
	if v, ok := c.Get(actorContextKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "anonymous"
}
