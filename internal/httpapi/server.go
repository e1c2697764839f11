// Package httpapi exposes the reservation core over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MarkoPoloResearchLab/tablebook/pkg/reservation"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	headerRequestID     = "X-Request-ID"
	contextKeyRequestID = "request_id"
)

// Dependencies are the collaborators the router serves.
type Dependencies struct {
	Service        *reservation.Service
	Auth           *reservation.ManagerAuth
	Logger         *zap.Logger
	MetricsHandler http.Handler
	Now            func() time.Time
}

// NewRouter validates cfg and builds the gin engine.
func NewRouter(cfg Config, deps Dependencies) (*gin.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Service == nil || deps.Auth == nil {
		return nil, fmt.Errorf("service and manager auth are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	handler := &httpHandler{
		logger:   deps.Logger,
		service:  deps.Service,
		auth:     deps.Auth,
		sessions: newSessionManager(cfg, deps.Now),
	}
	return setupRouter(cfg, handler, deps.MetricsHandler), nil
}

// Run serves router on cfg.ListenAddr until ctx is cancelled.
func Run(ctx context.Context, cfg Config, router http.Handler, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http api listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func setupRouter(cfg Config, handler *httpHandler, metricsHandler http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware(), accessLogMiddleware(handler.logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", "Authorization", headerRequestID},
		ExposeHeaders:    []string{headerRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := router.Group("/api")
	api.GET("/slots", handler.handleSlots)
	api.POST("/reservations", handler.handleBook)
	api.GET("/reservations/search", handler.handleSearch)
	api.GET("/reservations/history", handler.handleHistory)
	api.POST("/reservations/cancel", handler.handleCancel)
	api.PUT("/reservations/:id", handler.handleUpdate)
	api.POST("/waitlist", handler.handleJoinWaitlist)
	api.GET("/waitlist/position", handler.handleWaitlistPosition)
	api.DELETE("/waitlist/:phone", handler.handleLeaveWaitlist)
	api.POST("/manager/login", handler.handleLogin)
	api.POST("/manager/logout", handler.handleLogout)

	admin := api.Group("/admin")
	admin.Use(handler.sessions.middleware())
	admin.GET("/session", handler.handleSession)
	admin.GET("/reservations", handler.handleAdminReservations)
	admin.GET("/waitlist", handler.handleAdminWaitlist)
	admin.DELETE("/reservations/:phone", handler.handleAdminCancel)
	admin.DELETE("/waitlist/:phone", handler.handleAdminRemoveWaitlist)

	return router
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		ctx.Set(contextKeyRequestID, id)
		ctx.Header(headerRequestID, id)
		ctx.Next()
	}
}

func accessLogMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		started := time.Now()
		ctx.Next()
		logger.Info("http request",
			zap.String("request_id", requestID(ctx)),
			zap.String("method", ctx.Request.Method),
			zap.String("route", ctx.FullPath()),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("latency", time.Since(started)),
		)
	}
}

func requestID(ctx *gin.Context) string {
	return ctx.GetString(contextKeyRequestID)
}
