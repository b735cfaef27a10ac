package handler

import (
	"net/http"
	"strings"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/service"

	"github.com/gin-gonic/gin"
)

type ComplaintHandler struct {
	svc *service.ComplaintService
}

func NewComplaintHandler(svc *service.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{svc: svc}
}

type AssignRequest struct {
	AssignedToID uint   `json:"assigned_to_id" binding:"required"`
	Comment      string `json:"comment"`
}

type StatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Comment string `json:"comment"`
}

type FeedbackRequest struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Feedback string `json:"feedback"`
}

func (h *ComplaintHandler) List(c *gin.Context) {
	f, err := parseComplaintFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, limit := parsePagination(c)
	list, total, err := h.svc.List(actor(c), f, page, limit)
	if err != nil {
		respondError(c, err, "failed to list complaints")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

func (h *ComplaintHandler) Create(c *gin.Context) {
	var req service.CreateComplaintInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a := actor(c)
	cm, err := h.svc.Create(c.Request.Context(), &a, req)
	if err != nil {
		respondError(c, err, "failed to create complaint")
		return
	}
	c.JSON(http.StatusCreated, cm)
}

func (h *ComplaintHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	cm, err := h.svc.Get(actor(c), id)
	if err != nil {
		respondError(c, err, "failed to load complaint")
		return
	}
	c.JSON(http.StatusOK, cm)
}

func (h *ComplaintHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateComplaintInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cm, err := h.svc.Update(actor(c), id, req)
	if err != nil {
		respondError(c, err, "failed to update complaint")
		return
	}
	c.JSON(http.StatusOK, cm)
}

func (h *ComplaintHandler) Assign(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cm, err := h.svc.Assign(c.Request.Context(), actor(c), id, req.AssignedToID, req.Comment)
	if err != nil {
		respondError(c, err, "failed to assign complaint")
		return
	}
	c.JSON(http.StatusOK, cm)
}

func (h *ComplaintHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cm, err := h.svc.UpdateStatus(c.Request.Context(), actor(c), id, strings.ToUpper(strings.TrimSpace(req.Status)), req.Comment)
	if err != nil {
		respondError(c, err, "failed to update status")
		return
	}
	c.JSON(http.StatusOK, cm)
}

func (h *ComplaintHandler) Feedback(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 5"})
		return
	}
	cm, err := h.svc.Feedback(actor(c), id, req.Rating, req.Feedback)
	if err != nil {
		respondError(c, err, "failed to save feedback")
		return
	}
	c.JSON(http.StatusOK, cm)
}

func (h *ComplaintHandler) StatusLogs(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	logs, err := h.svc.StatusLogs(actor(c), id)
	if err != nil {
		respondError(c, err, "failed to load status history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}
