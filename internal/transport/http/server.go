package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "courtpulse/internal/app"
	"courtpulse/internal/bootstrap"
	"courtpulse/internal/cache"
	"courtpulse/internal/platform/rabbitmq"
	"courtpulse/internal/repository"
	"courtpulse/internal/transport/http/handler"
	"courtpulse/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	sessionRepo := repository.NewSessionRepository(app.Postgres)
	publisher := rabbitmq.NewEventPublisher(app.MQConn, app.Config.RabbitMQ.AttendanceEventQueue)
	headCountCache := cache.NewHeadCountCache(
		app.Redis,
		time.Duration(app.Config.Redis.HeadCountTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HeadCountDirtyTTLSecond)*time.Second,
	)
	ledgerService := appsvc.NewLedgerService(
		sessionRepo,
		publisher,
		headCountCache,
		time.Duration(app.Config.Ledger.StorageTimeoutSeconds)*time.Second,
	)
	checkinHandler := handler.NewCheckinHandler(ledgerService)
	adminHandler := handler.NewAdminHandler(ledgerService)

	// The mobile client depends on these exact paths and payload shapes.
	router.POST("/check_in", checkinHandler.CheckIn)
	router.POST("/check_out", checkinHandler.CheckOut)
	router.GET("/headcount", checkinHandler.HeadCount)

	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	admin.GET("/courts/:courtId/sessions", adminHandler.OpenSessions)
	admin.POST("/courts/:courtId/close_all", adminHandler.CloseAll)
	admin.GET("/users/:userId/sessions", adminHandler.UserHistory)
	admin.GET("/users/:userId/active", adminHandler.ActiveSession)

	return router
}
