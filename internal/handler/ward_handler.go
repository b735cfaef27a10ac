package handler

import (
	"encoding/json"
	"net/http"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/middleware"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/service"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/geo"

	"github.com/gin-gonic/gin"
)

type WardHandler struct {
	svc   *service.WardService
	audit *service.AuditService
}

func NewWardHandler(svc *service.WardService, audit *service.AuditService) *WardHandler {
	return &WardHandler{svc: svc, audit: audit}
}

type createAreaRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type boundariesRequest struct {
	Boundaries json.RawMessage `json:"boundaries" binding:"required"`
}

type detectAreaRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// List returns wards with their sub-zones. ?all=true includes inactive ones.
func (h *WardHandler) List(c *gin.Context) {
	wards, err := h.svc.List(c.Query("all") != "true", true)
	if err != nil {
		respondError(c, err, "failed to list wards")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": wards})
}

func (h *WardHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	w, err := h.svc.Get(id)
	if err != nil {
		respondError(c, err, "failed to load ward")
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WardHandler) Create(c *gin.Context) {
	var req createAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.svc.Create(req.Name, req.Description)
	if err != nil {
		respondError(c, err, "failed to create ward")
		return
	}
	recordAudit(c, h.audit, service.AuditCreate, "ward", w.ID, map[string]interface{}{"name": w.Name})
	c.JSON(http.StatusCreated, w)
}

func (h *WardHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.WardInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.svc.Update(id, req)
	if err != nil {
		respondError(c, err, "failed to update ward")
		return
	}
	recordAudit(c, h.audit, service.AuditUpdate, "ward", id, nil)
	c.JSON(http.StatusOK, w)
}

func (h *WardHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(id); err != nil {
		respondError(c, err, "failed to delete ward")
		return
	}
	recordAudit(c, h.audit, service.AuditDelete, "ward", id, nil)
	c.JSON(http.StatusOK, gin.H{"message": "ward deleted"})
}

func (h *WardHandler) SetBoundaries(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	poly, ok := bindPolygon(c)
	if !ok {
		return
	}
	w, err := h.svc.SetBoundaries(middleware.GetRole(c), id, poly)
	if err != nil {
		respondError(c, err, "failed to update boundaries")
		return
	}
	recordAudit(c, h.audit, service.AuditUpdate, "ward_boundaries", id, map[string]interface{}{"points": len(poly)})
	c.JSON(http.StatusOK, w)
}

func (h *WardHandler) CreateSubZone(c *gin.Context) {
	wardID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req createAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sz, err := h.svc.CreateSubZone(wardID, req.Name, req.Description)
	if err != nil {
		respondError(c, err, "failed to create sub-zone")
		return
	}
	recordAudit(c, h.audit, service.AuditCreate, "sub_zone", sz.ID, map[string]interface{}{"ward_id": wardID, "name": sz.Name})
	c.JSON(http.StatusCreated, sz)
}

func (h *WardHandler) UpdateSubZone(c *gin.Context) {
	wardID, ok := paramID(c, "id")
	if !ok {
		return
	}
	id, ok := paramID(c, "subZoneId")
	if !ok {
		return
	}
	var req service.SubZoneInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sz, err := h.svc.UpdateSubZone(wardID, id, req)
	if err != nil {
		respondError(c, err, "failed to update sub-zone")
		return
	}
	recordAudit(c, h.audit, service.AuditUpdate, "sub_zone", id, nil)
	c.JSON(http.StatusOK, sz)
}

func (h *WardHandler) DeleteSubZone(c *gin.Context) {
	wardID, ok := paramID(c, "id")
	if !ok {
		return
	}
	id, ok := paramID(c, "subZoneId")
	if !ok {
		return
	}
	if err := h.svc.DeleteSubZone(wardID, id); err != nil {
		respondError(c, err, "failed to delete sub-zone")
		return
	}
	recordAudit(c, h.audit, service.AuditDelete, "sub_zone", id, nil)
	c.JSON(http.StatusOK, gin.H{"message": "sub-zone deleted"})
}

func (h *WardHandler) SetSubZoneBoundaries(c *gin.Context) {
	wardID, ok := paramID(c, "id")
	if !ok {
		return
	}
	id, ok := paramID(c, "subZoneId")
	if !ok {
		return
	}
	poly, ok := bindPolygon(c)
	if !ok {
		return
	}
	sz, err := h.svc.SetSubZoneBoundaries(middleware.GetRole(c), wardID, id, poly)
	if err != nil {
		respondError(c, err, "failed to update boundaries")
		return
	}
	recordAudit(c, h.audit, service.AuditUpdate, "sub_zone_boundaries", id, map[string]interface{}{"points": len(poly)})
	c.JSON(http.StatusOK, sz)
}

func (h *WardHandler) DetectArea(c *gin.Context) {
	var req detectAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}
	m, err := h.svc.DetectArea(geo.Point{Lat: *req.Lat, Lng: *req.Lng})
	if err != nil {
		respondError(c, err, "failed to detect area")
		return
	}
	c.JSON(http.StatusOK, m)
}

func bindPolygon(c *gin.Context) (geo.Polygon, bool) {
	var req boundariesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "boundaries required"})
		return nil, false
	}
	poly, err := geo.ParsePolygon(req.Boundaries)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return poly, true
}
