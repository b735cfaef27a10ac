package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/auth"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/middleware"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/service"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/export"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// statusFor maps service errors to HTTP status codes; zero means unknown.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrNoPassword),
		errors.Is(err, service.ErrWardRequired),
		errors.Is(err, service.ErrOTPInvalid),
		errors.Is(err, service.ErrOTPExpired),
		errors.Is(err, service.ErrOTPAttemptsExceeded),
		errors.Is(err, service.ErrFeedbackNotAllowed),
		errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCreds),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrAccountInactive),
		errors.Is(err, service.ErrReopenWindowClosed),
		errors.Is(err, service.ErrGuestSubmissionDisabled):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrWardInUse),
		errors.Is(err, service.ErrTypeInUse),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrOTPCooldown),
		errors.Is(err, service.ErrOTPRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return 0
}

// respondError writes {"error": ...} with the status matching err. Unknown
// errors are logged and reported as a generic 500 with fallback as message.
func respondError(c *gin.Context, err error, fallback string) {
	if status := statusFor(err); status != 0 {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	zap.L().Error(fallback, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// paramID parses a positive numeric path parameter, writing a 400 on failure.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func actor(c *gin.Context) service.Actor {
	return service.Actor{
		UserID: middleware.GetUserID(c),
		Role:   middleware.GetRole(c),
		WardID: middleware.GetWardID(c),
	}
}

func queryUint(c *gin.Context, key string) uint {
	v, _ := strconv.ParseUint(c.Query(key), 10, 64)
	return uint(v)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseComplaintFilter reads the listing filters shared by complaint lists,
// reports and exports.
func parseComplaintFilter(c *gin.Context) (repository.ComplaintFilter, error) {
	f := repository.ComplaintFilter{
		Priority:        strings.ToUpper(c.Query("priority")),
		ComplaintTypeID: queryUint(c, "type_id"),
		WardID:          queryUint(c, "ward_id"),
		SubZoneID:       queryUint(c, "sub_zone_id"),
		AssignedToID:    queryUint(c, "assigned_to"),
		SLAStatus:       strings.ToUpper(c.Query("sla_status")),
		Search:          c.Query("search"),
	}
	if s := c.Query("status"); s != "" {
		for _, st := range strings.Split(s, ",") {
			if st = strings.ToUpper(strings.TrimSpace(st)); st != "" {
				f.Statuses = append(f.Statuses, st)
			}
		}
	}
	var err error
	if f.From, err = parseDate(c.Query("from")); err != nil {
		return f, errors.New("from must be YYYY-MM-DD or RFC3339")
	}
	if f.To, err = parseDate(c.Query("to")); err != nil {
		return f, errors.New("to must be YYYY-MM-DD or RFC3339")
	}
	if f.To != nil && len(c.Query("to")) == len("2006-01-02") {
		end := f.To.AddDate(0, 0, 1)
		f.To = &end
	}
	return f, nil
}

// recordAudit stores an admin mutation made by the authenticated user.
func recordAudit(c *gin.Context, audit *service.AuditService, action, resource string, id uint, meta map[string]interface{}) {
	uid := middleware.GetUserID(c)
	audit.Record(service.AuditEntry{
		UserID:     &uid,
		Action:     action,
		Resource:   resource,
		ResourceID: strconv.FormatUint(uint64(id), 10),
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		Metadata:   meta,
	})
}
