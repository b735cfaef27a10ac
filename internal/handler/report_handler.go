package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/service"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/export"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	svc   *service.ReportService
	audit *service.AuditService
}

func NewReportHandler(svc *service.ReportService, audit *service.AuditService) *ReportHandler {
	return &ReportHandler{svc: svc, audit: audit}
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	f, err := parseComplaintFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.svc.Dashboard(actor(c), f)
	if err != nil {
		respondError(c, err, "failed to build dashboard")
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *ReportHandler) Analytics(c *gin.Context) {
	f, err := parseComplaintFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	days, _ := strconv.Atoi(c.Query("days"))
	a, err := h.svc.Analytics(actor(c), f, days)
	if err != nil {
		respondError(c, err, "failed to build analytics")
		return
	}
	c.JSON(http.StatusOK, a)
}

// Export renders the whole file before writing headers so failures still
// produce a JSON error.
func (h *ReportHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", export.FormatCSV)
	mimeType, ext, err := export.ContentType(format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv, excel or pdf"})
		return
	}
	f, err := parseComplaintFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var buf bytes.Buffer
	rows, err := h.svc.Export(&buf, actor(c), f, format)
	if err != nil {
		respondError(c, err, "export failed")
		return
	}
	recordAudit(c, h.audit, service.AuditExport, "complaints", 0, map[string]interface{}{"format": format, "rows": rows})
	name := fmt.Sprintf("complaints-%s%s", time.Now().Format("20060102-1504"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("X-Total-Rows", strconv.Itoa(rows))
	c.Data(http.StatusOK, mimeType, buf.Bytes())
}
