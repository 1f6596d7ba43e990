package http

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sentry-gate/internal/domain"
	"sentry-gate/internal/repository"
)

func (h *Handler) getOCRRecord(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rec, err := h.store.OCRRecords.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(rec))
}

func (h *Handler) listOCRRecords(c *gin.Context) {
	filter := repository.FindFilter{
		Plate:      strings.TrimSpace(c.Query("plate")),
		Resolution: domain.Outcome(strings.TrimSpace(c.Query("resolution"))),
		Limit:      queryInt(c, "limit", 50),
		Offset:     queryInt(c, "offset", 0),
	}
	if raw := strings.TrimSpace(c.Query("vehicle_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid vehicle_id"))
			return
		}
		filter.VehicleID = &id
	}
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	filter.From = from
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	filter.To = to
	if filter.Resolution != "" && !filter.Resolution.Valid() {
		c.JSON(http.StatusBadRequest, errorResponse("invalid resolution filter"))
		return
	}

	records, err := h.store.OCRRecords.Find(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(records))
}

type resolveRequest struct {
	Resolution domain.Outcome `json:"resolution"`
}

func (h *Handler) resolveOCRRecord(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	rec, err := h.gateService.ResolveRecord(c.Request.Context(), actor(c), id, req.Resolution)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(rec))
}

func (h *Handler) listAccessLogs(c *gin.Context) {
	filter := repository.AccessLogFilter{
		Actor:      strings.TrimSpace(c.Query("actor")),
		Action:     strings.TrimSpace(c.Query("action")),
		EntityType: domain.EntityType(strings.TrimSpace(c.Query("entity_type"))),
		Limit:      queryInt(c, "limit", 50),
		Offset:     queryInt(c, "offset", 0),
	}
	if raw := strings.TrimSpace(c.Query("entity_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid entity_id"))
			return
		}
		filter.EntityID = &id
	}
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	filter.From = from
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	filter.To = to

	entries, err := h.store.AccessLogs.Find(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(entries))
}

// streamOutcomes pushes recognition outcomes to the client as
// server-sent events until it disconnects.
func (h *Handler) streamOutcomes(c *gin.Context) {
	events, cancel := h.notifier.Subscribe()
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("outcome", event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid "+name+" time format"))
		return nil, false
	}
	return &t, true
}
