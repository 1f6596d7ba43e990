package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sentry-gate/internal/domain"
	"sentry-gate/internal/utils"
)

func (h *Handler) createVehicle(c *gin.Context) {
	var v domain.Vehicle
	if err := c.ShouldBindJSON(&v); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	v.ID = 0
	if err := h.gateService.RegisterVehicle(c.Request.Context(), actor(c), &v); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(v))
}

func (h *Handler) getVehicle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	v, err := h.store.Vehicles.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(v))
}

func (h *Handler) listVehicles(c *gin.Context) {
	var (
		vehicles []domain.Vehicle
		err      error
	)
	if plate := strings.TrimSpace(c.Query("plate")); plate != "" {
		vehicles, err = h.store.Vehicles.Find(c.Request.Context(), "plate = ?", utils.NormalizePlate(plate))
	} else if carrier := strings.TrimSpace(c.Query("carrier_id")); carrier != "" {
		vehicles, err = h.store.Vehicles.Find(c.Request.Context(), "carrier_id = ?", carrier)
	} else {
		vehicles, err = h.store.Vehicles.Find(c.Request.Context(), "")
	}
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(vehicles))
}

func (h *Handler) updateVehicle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var v domain.Vehicle
	if err := c.ShouldBindJSON(&v); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	v.ID = id
	if err := h.store.Vehicles.Update(c.Request.Context(), actor(c), &v); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(v))
}

func (h *Handler) deleteVehicle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.store.Vehicles.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createCarrier(c *gin.Context) {
	var carrier domain.Carrier
	if err := c.ShouldBindJSON(&carrier); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	carrier.ID = 0
	if err := h.gateService.RegisterCarrier(c.Request.Context(), actor(c), &carrier); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(carrier))
}

func (h *Handler) getCarrier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	carrier, err := h.store.Carriers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(carrier))
}

func (h *Handler) listCarriers(c *gin.Context) {
	var (
		carriers []domain.Carrier
		err      error
	)
	if name := strings.TrimSpace(c.Query("name")); name != "" {
		carriers, err = h.store.Carriers.Find(c.Request.Context(), "name LIKE ?", "%"+name+"%")
	} else {
		carriers, err = h.store.Carriers.Find(c.Request.Context(), "")
	}
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(carriers))
}

func (h *Handler) updateCarrier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var carrier domain.Carrier
	if err := c.ShouldBindJSON(&carrier); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	carrier.ID = id
	if err := h.store.Carriers.Update(c.Request.Context(), actor(c), &carrier); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(carrier))
}

func (h *Handler) deleteCarrier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.store.Carriers.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createMerchandise(c *gin.Context) {
	var m domain.Merchandise
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	m.ID = 0
	if err := h.gateService.RegisterMerchandise(c.Request.Context(), actor(c), &m); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(m))
}

func (h *Handler) getMerchandise(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	m, err := h.store.Merchandise.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(m))
}

func (h *Handler) listMerchandise(c *gin.Context) {
	var (
		goods []domain.Merchandise
		err   error
	)
	if vehicle := strings.TrimSpace(c.Query("vehicle_id")); vehicle != "" {
		goods, err = h.store.Merchandise.Find(c.Request.Context(), "vehicle_id = ?", vehicle)
	} else {
		goods, err = h.store.Merchandise.Find(c.Request.Context(), "")
	}
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(goods))
}

func (h *Handler) updateMerchandise(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var m domain.Merchandise
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	m.ID = id
	if err := h.store.Merchandise.Update(c.Request.Context(), actor(c), &m); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(m))
}

func (h *Handler) deleteMerchandise(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.store.Merchandise.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
