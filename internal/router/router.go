package router

import (
	"time"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/handler"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/metrics"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/middleware"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/service"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/ws"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/mailer"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the process-wide resources the API is built from. Redis and FCM
// are optional.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Redis   *redis.Client
	Store   storage.Store
	Mailer  mailer.Mailer
	FCM     *service.FCMService
	Hub     *ws.Hub
	Logger  *zap.Logger
	Version string
}

// App is the assembled API: the HTTP engine plus the background SLA monitor
// the caller runs alongside it.
type App struct {
	Engine  *gin.Engine
	Monitor *service.SLAMonitor
	stop    []func()
}

// Close releases background resources held by in-memory rate limiters.
func (a *App) Close() {
	for _, f := range a.stop {
		f()
	}
}

func Setup(d Deps) *App {
	cfg := d.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	app := &App{}
	r := gin.New()
	r.Use(middleware.Recovery(d.Logger), middleware.RequestLogger(d.Logger), middleware.Metrics())

	newLimiter := func(prefix string, limit int, window time.Duration) middleware.Limiter {
		if d.Redis != nil {
			return middleware.NewRedisRateLimiter(d.Redis, "ratelimit:"+prefix, limit, window, d.Logger)
		}
		l := middleware.NewInMemoryRateLimiter(limit, window)
		app.stop = append(app.stop, l.Stop)
		return l
	}
	r.Use(middleware.RateLimit(newLimiter("api", cfg.Server.RateLimit, cfg.Server.RateWindow)))
	otpLimit := middleware.RateLimit(newLimiter("otp", cfg.OTP.RequestsPerHour, time.Hour))

	// Repositories
	userRepo := repository.NewUserRepository(d.DB)
	wardRepo := repository.NewWardRepository(d.DB)
	typeRepo := repository.NewComplaintTypeRepository(d.DB)
	complaintRepo := repository.NewComplaintRepository(d.DB)
	settingRepo := repository.NewSettingRepository(d.DB)
	otpRepo := repository.NewOTPRepository(d.DB)
	notificationRepo := repository.NewNotificationRepository(d.DB)
	auditRepo := repository.NewAuditRepository(d.DB)
	reportRepo := repository.NewReportRepository(d.DB)

	// Services
	settingsSvc := service.NewSettingsService(settingRepo)
	otpSvc := service.NewOTPService(&cfg.OTP, otpRepo, d.Mailer, settingsSvc, d.Logger)
	authSvc := service.NewAuthService(cfg, userRepo, otpSvc)
	auditSvc := service.NewAuditService(auditRepo, d.Logger)
	wardSvc := service.NewWardService(wardRepo, settingsSvc)
	typeSvc := service.NewComplaintTypeService(typeRepo)
	userSvc := service.NewUserService(userRepo, wardRepo)
	notifySvc := service.NewNotificationService(notificationRepo, userRepo, d.Hub, d.FCM, d.Mailer, settingsSvc, d.Logger)
	complaintSvc := service.NewComplaintService(cfg, complaintRepo, typeRepo, wardRepo, userRepo, wardSvc, settingsSvc, notifySvc, d.Logger)
	guestSvc := service.NewGuestService(complaintRepo, complaintSvc, authSvc, otpSvc, settingsSvc, d.Logger)
	attachmentSvc := service.NewAttachmentService(complaintRepo, complaintSvc, d.Store, settingsSvc, cfg.Storage.MaxFileSize, d.Logger)
	reportSvc := service.NewReportService(reportRepo, complaintRepo, userRepo, settingsSvc)
	app.Monitor = service.NewSLAMonitor(complaintRepo, userRepo, notifySvc, otpSvc, cfg.SLA.CheckInterval, cfg.SLA.WarnPercent, d.Logger)

	// Handlers
	healthHandler := handler.NewHealthHandler(d.DB, d.Redis, d.Version)
	authHandler := handler.NewAuthHandler(authSvc, auditSvc)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc, auditSvc)
	guestHandler := handler.NewGuestHandler(guestSvc, typeSvc, wardSvc)
	complaintHandler := handler.NewComplaintHandler(complaintSvc)
	attachmentHandler := handler.NewAttachmentHandler(attachmentSvc)
	wardHandler := handler.NewWardHandler(wardSvc, auditSvc)
	typeHandler := handler.NewComplaintTypeHandler(typeSvc, auditSvc)
	userHandler := handler.NewUserHandler(userSvc, auditSvc)
	configHandler := handler.NewConfigHandler(settingsSvc, auditSvc)
	reportHandler := handler.NewReportHandler(reportSvc, auditSvc)
	notificationHandler := handler.NewNotificationHandler(notifySvc)
	auditHandler := handler.NewAuditHandler(auditSvc)

	authMw := []gin.HandlerFunc{middleware.AuthRequired(&cfg.JWT), middleware.ActiveUser(userRepo)}
	adminMw := middleware.AdminRequired()
	staffMw := middleware.RequireRole(domain.RoleAdministrator, domain.RoleWardOfficer)

	api := r.Group("/api")
	{
		api.GET("/health", healthHandler.Health)
		api.GET("/config/public", configHandler.Public)
		api.POST("/wards/detect-area", wardHandler.DetectArea)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/login-otp/request", otpLimit, authHandler.RequestLoginOTP)
			authGroup.POST("/login-otp/verify", otpLimit, authHandler.VerifyLoginOTP)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/forgot-password", otpLimit, authHandler.ForgotPassword)
			authGroup.POST("/reset-password", otpLimit, authHandler.ResetPassword)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)

			me := authGroup.Group("", authMw...)
			me.GET("/me", authHandler.Me)
			me.PUT("/profile", authHandler.UpdateProfile)
			me.PUT("/change-password", authHandler.ChangePassword)
			me.POST("/logout", authHandler.Logout)
		}

		guest := api.Group("/guest")
		{
			guest.POST("/complaint", otpLimit, guestHandler.Submit)
			guest.POST("/verify-otp", otpLimit, guestHandler.VerifyOTP)
			guest.POST("/resend-otp", otpLimit, guestHandler.ResendOTP)
			guest.POST("/track/request-otp", otpLimit, guestHandler.RequestTrackingOTP)
			guest.POST("/track/verify", otpLimit, guestHandler.VerifyTracking)
			guest.GET("/track/:code", guestHandler.Track)
			guest.GET("/complaint-types", guestHandler.ComplaintTypes)
			guest.GET("/wards", guestHandler.Wards)
		}

		authed := api.Group("", authMw...)

		complaints := authed.Group("/complaints")
		{
			complaints.GET("", complaintHandler.List)
			complaints.POST("", complaintHandler.Create)
			complaints.GET("/:id", complaintHandler.Get)
			complaints.PUT("/:id", complaintHandler.Update)
			complaints.PUT("/:id/assign", staffMw, complaintHandler.Assign)
			complaints.PUT("/:id/status", complaintHandler.UpdateStatus)
			complaints.POST("/:id/feedback", middleware.RequireRole(domain.RoleCitizen), complaintHandler.Feedback)
			complaints.GET("/:id/status-logs", complaintHandler.StatusLogs)
			complaints.GET("/:id/attachments", attachmentHandler.List)
			complaints.POST("/:id/attachments", attachmentHandler.Upload)
			complaints.GET("/:id/attachments/:fileId", attachmentHandler.Download)
			complaints.DELETE("/:id/attachments/:fileId", attachmentHandler.Delete)
		}

		types := authed.Group("/complaint-types")
		{
			types.GET("", typeHandler.List)
			types.GET("/:id", typeHandler.Get)
			types.POST("", adminMw, typeHandler.Create)
			types.PUT("/:id", adminMw, typeHandler.Update)
			types.DELETE("/:id", adminMw, typeHandler.Delete)
		}

		wards := authed.Group("/wards")
		{
			wards.GET("", wardHandler.List)
			wards.GET("/:id", wardHandler.Get)
			wards.POST("", adminMw, wardHandler.Create)
			wards.PUT("/:id", adminMw, wardHandler.Update)
			wards.DELETE("/:id", adminMw, wardHandler.Delete)
			wards.PUT("/:id/boundaries", adminMw, wardHandler.SetBoundaries)
			wards.POST("/:id/sub-zones", adminMw, wardHandler.CreateSubZone)
			wards.PUT("/:id/sub-zones/:subZoneId", adminMw, wardHandler.UpdateSubZone)
			wards.DELETE("/:id/sub-zones/:subZoneId", adminMw, wardHandler.DeleteSubZone)
			wards.PUT("/:id/sub-zones/:subZoneId/boundaries", adminMw, wardHandler.SetSubZoneBoundaries)
		}

		users := authed.Group("/users")
		{
			users.POST("/me/fcm-token", authHandler.SetFCMToken)
			users.GET("/maintenance", staffMw, userHandler.Maintenance)
			users.GET("", adminMw, userHandler.List)
			users.POST("", adminMw, userHandler.Create)
			users.GET("/:id", adminMw, userHandler.Get)
			users.PUT("/:id", adminMw, userHandler.Update)
			users.DELETE("/:id", adminMw, userHandler.Deactivate)
		}

		reports := authed.Group("/reports")
		{
			reports.GET("/dashboard", reportHandler.Dashboard)
			reports.GET("/analytics", reportHandler.Analytics)
			reports.GET("/export", staffMw, reportHandler.Export)
		}

		notifications := authed.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.DELETE("/:id", notificationHandler.Delete)
		}

		admin := authed.Group("", adminMw)
		{
			admin.GET("/config", configHandler.List)
			admin.POST("/config", configHandler.Upsert)
			admin.GET("/config/:key", configHandler.Get)
			admin.PUT("/config/:key", configHandler.Upsert)
			admin.DELETE("/config/:key", configHandler.Delete)
			admin.GET("/audit-logs", auditHandler.List)
		}
	}

	r.GET("/ws", ws.ServeNotifications(&cfg.JWT, userRepo, d.Hub, ws.NewUpgrader(cfg.CORS.AllowedOrigins), d.Logger))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	app.Engine = r
	return app
}
