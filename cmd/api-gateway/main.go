package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/doctor-booking-api/api/swagger"
	"github.com/noah-isme/doctor-booking-api/internal/dto"
	"github.com/noah-isme/doctor-booking-api/internal/handler"
	"github.com/noah-isme/doctor-booking-api/internal/middleware"
	"github.com/noah-isme/doctor-booking-api/internal/realtime"
	"github.com/noah-isme/doctor-booking-api/internal/repository"
	"github.com/noah-isme/doctor-booking-api/internal/service"
	"github.com/noah-isme/doctor-booking-api/pkg/cache"
	"github.com/noah-isme/doctor-booking-api/pkg/config"
	"github.com/noah-isme/doctor-booking-api/pkg/database"
	"github.com/noah-isme/doctor-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/doctor-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/doctor-booking-api/pkg/middleware/requestid"
	"github.com/noah-isme/doctor-booking-api/pkg/notify"
)

// @title Doctor Booking API
// @version 1.0.0
// @description Doctor availability and appointment booking. All times are UTC.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		// the API still works without Redis: rule cache and rate limiting are skipped
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	metricsSvc := service.NewMetricsService()
	validate := dto.NewValidator()

	doctorRepo := repository.NewDoctorRepository(db)
	ruleRepo := repository.NewWorkingRuleRepository(db)
	unavailabilityRepo := repository.NewUnavailabilityRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)

	hub := realtime.NewHub(logr.Named("realtime"), metricsSvc.SetRealtimeClients)
	defer hub.CloseAll()

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.RulesTTL, logr, cfg.Cache.Enabled && cacheRepo.Enabled())
	availabilitySvc := service.NewAvailabilityService(ruleRepo, unavailabilityRepo, appointmentRepo, doctorRepo, cacheSvc, metricsSvc, service.AvailabilityConfig{
		SlotLength:    cfg.Booking.SlotLength(),
		MaxWindowDays: cfg.Booking.MaxWindowDays,
		RulesTTL:      cfg.Cache.RulesTTL,
	}, logr)

	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.Notifications.SendGridAPIKey,
		FromEmail: cfg.Notifications.FromEmail,
		FromName:  cfg.Notifications.FromName,
	}, logr); sg != nil {
		emailSender = sg
	}
	notificationSvc := service.NewNotificationService(emailSender, nil, doctorRepo, metricsSvc, service.NotificationConfig{
		Enabled:    cfg.Notifications.Enabled,
		SMSEnabled: cfg.Notifications.SMSEnabled,
		Workers:    cfg.Notifications.Workers,
		Retries:    cfg.Notifications.Retries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, logr.Named("notifications"))
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	bookingSvc := service.NewBookingService(db, availabilitySvc, unavailabilityRepo, appointmentRepo, hub, notificationSvc, metricsSvc, validate,
		service.BookingConfig{AnyWindowDays: cfg.Booking.AnyWindowDays}, logr.Named("booking"))
	scheduleSvc := service.NewScheduleService(db, ruleRepo, unavailabilityRepo, availabilitySvc, hub, validate, logr)
	doctorSvc := service.NewDoctorService(doctorRepo, appointmentRepo, logr)
	exportSvc := service.NewExportService(appointmentRepo, logr)
	captchaSvc := service.NewCaptchaService(service.CaptchaConfig{
		Secret:    cfg.Captcha.Secret,
		VerifyURL: cfg.Captcha.VerifyURL,
		MinScore:  cfg.Captcha.MinScore,
		Timeout:   cfg.Captcha.Timeout,
	}, nil, logr)
	if !captchaSvc.Enabled() {
		logr.Warn("RECAPTCHA_SECRET not set, captcha verification bypassed")
	}
	authSvc := service.NewAuthService(doctorRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		BcryptCost:        cfg.JWT.BcryptRounds,
	})

	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc, captchaSvc)
	doctorHandler := handler.NewDoctorHandler(doctorSvc, exportSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	authHandler := handler.NewAuthHandler(authSvc, handler.CookieConfig{Secure: cfg.Env == config.EnvProduction})
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"database": handler.PingFunc(db.PingContext),
		"redis":    cacheRepo,
	})
	wsOrigins := cfg.Realtime.AllowedOrigins
	if len(wsOrigins) == 0 {
		wsOrigins = cfg.CORS.AllowedOrigins
	}
	realtimeHandler := realtime.NewHandler(hub, wsOrigins, logr.Named("realtime"))

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/ws", realtimeHandler.Connect)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	public := api.Group("/public")
	public.GET("/availability", availabilityHandler.ForDoctor)
	public.GET("/availability/any", availabilityHandler.ForAny)
	public.GET("/doctors", doctorHandler.Search)
	public.GET("/specialties", doctorHandler.Specialties)

	bookLimiter := func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled {
		bookLimiter = middleware.RateLimit(cacheRepo, metricsSvc, middleware.RateLimitConfig{
			Name:   "booking",
			Limit:  cfg.RateLimit.BookingLimit,
			Window: cfg.RateLimit.BookingWindow,
		}, logr)
	}
	public.POST("/book", bookLimiter, bookingHandler.Book)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)

	doctor := api.Group("/doctor")
	doctor.Use(middleware.JWT(authSvc), middleware.RequireDoctor())
	doctor.GET("/me", doctorHandler.Me)
	doctor.GET("/appointments/today", doctorHandler.Today)
	doctor.GET("/appointments", doctorHandler.Range)
	doctor.GET("/appointments/export", doctorHandler.Export)
	doctor.GET("/availability", availabilityHandler.Mine)
	doctor.GET("/working-rules", scheduleHandler.ListWorkingRules)
	doctor.POST("/working-rules", middleware.Audit(logr, "upsert", "working_rules"), scheduleHandler.UpsertWorkingRules)
	doctor.GET("/unavailability", scheduleHandler.ListUnavailability)
	doctor.POST("/unavailability", middleware.Audit(logr, "create", "unavailability"), scheduleHandler.CreateUnavailability)
	doctor.DELETE("/unavailability/:id", middleware.Audit(logr, "delete", "unavailability"), scheduleHandler.DeleteUnavailability)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
}
