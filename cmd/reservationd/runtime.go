package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/tablebook/internal/database"
	"github.com/MarkoPoloResearchLab/tablebook/internal/grpcserver"
	"github.com/MarkoPoloResearchLab/tablebook/internal/httpapi"
	"github.com/MarkoPoloResearchLab/tablebook/internal/notify"
	"github.com/MarkoPoloResearchLab/tablebook/internal/oplog"
	"github.com/MarkoPoloResearchLab/tablebook/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/tablebook/internal/store/pgstore"
	"github.com/MarkoPoloResearchLab/tablebook/pkg/reservation"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var errPasswordRequired = errors.New("password is required")

type backend struct {
	store    reservation.Store
	managers reservation.ManagerStore
	close    func() error
}

func openBackend(ctx context.Context, cfg storageConfig, migrateSQLite bool) (*backend, error) {
	target, err := database.Resolve(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.Store == storePgx {
		pool, err := database.OpenPool(ctx, target)
		if err != nil {
			return nil, err
		}
		store := pgstore.New(pool)
		return &backend{store: store, managers: store, close: func() error { pool.Close(); return nil }}, nil
	}
	db, cleanup, err := database.OpenGorm(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}
	if migrateSQLite && target.Driver == database.DriverSQLite {
		if err := database.MigrateGorm(db); err != nil {
			_ = cleanup()
			return nil, err
		}
	}
	store := gormstore.New(db)
	return &backend{store: store, managers: store, close: cleanup}, nil
}

func runServe(ctx context.Context, cfg serveConfig) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	storage, err := openBackend(ctx, cfg.Storage, true)
	if err != nil {
		return err
	}
	defer func() { _ = storage.close() }()

	operationLoggers := oplog.Multi{oplog.NewZapLogger(logger)}
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metricsLogger, err := oplog.NewMetricsLogger(registry)
		if err != nil {
			return fmt.Errorf("metrics init: %w", err)
		}
		operationLoggers = append(operationLoggers, metricsLogger)
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	serviceOptions := []reservation.ServiceOption{reservation.WithOperationLogger(operationLoggers)}
	notifier, err := notify.Open(cfg.Notify, logger)
	if err != nil {
		return fmt.Errorf("notifier init: %w", err)
	}
	if notifier != nil {
		defer func() { _ = notifier.Close() }()
		serviceOptions = append(serviceOptions, reservation.WithNotifier(notifier))
		logger.Info("publishing reservation events", zap.String("backend", string(cfg.Notify.Backend)), zap.String("topic", notifier.Topic()))
	}

	location := cfg.Storage.Location
	clock := func() time.Time { return time.Now().In(location) }
	service, err := reservation.NewService(storage.store, clock, serviceOptions...)
	if err != nil {
		return fmt.Errorf("reservation service init: %w", err)
	}
	auth, err := reservation.NewManagerAuth(storage.managers, reservation.WithAuthLogger(operationLoggers))
	if err != nil {
		return fmt.Errorf("manager auth init: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := httpapi.NewRouter(cfg.HTTP, httpapi.Dependencies{
		Service:        service,
		Auth:           auth,
		Logger:         logger,
		MetricsHandler: metricsHandler,
		Now:            clock,
	})
	if err != nil {
		return fmt.Errorf("router init: %w", err)
	}
	logger.Info("reservation service starting",
		zap.String("store", cfg.Storage.Store),
		zap.String("timezone", location.String()),
	)

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	grpcErrCh := make(chan error, 1)
	if cfg.GRPCListenAddr == "" {
		grpcErrCh <- nil
	} else {
		listener, err := net.Listen("tcp", cfg.GRPCListenAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcServer := grpcserver.NewServer(grpcserver.NewReservationServiceServer(service, logger), logger)
		go func() {
			serveErr := grpcserver.Serve(serveCtx, grpcServer, listener, logger)
			if serveErr != nil {
				cancel()
			}
			grpcErrCh <- serveErr
		}()
	}
	httpErr := httpapi.Run(serveCtx, cfg.HTTP, router, logger)
	cancel()
	return errors.Join(httpErr, <-grpcErrCh)
}

func runMigrate(ctx context.Context, cfg storageConfig) error {
	target, err := database.Resolve(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if cfg.Store == storePgx {
		pool, err := database.OpenPool(ctx, target)
		if err != nil {
			return err
		}
		defer pool.Close()
		return database.MigratePool(ctx, pool)
	}
	db, cleanup, err := database.OpenGorm(ctx, target)
	if err != nil {
		return fmt.Errorf("database open: %w", err)
	}
	defer func() { _ = cleanup() }()
	return database.MigrateGorm(db)
}

func runManagerAdd(ctx context.Context, cfg storageConfig, rawLoginID string, password string, stdin io.Reader) (reservation.LoginID, error) {
	if password == "" && stdin != nil {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return reservation.LoginID{}, fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return reservation.LoginID{}, errPasswordRequired
	}
	storage, err := openBackend(ctx, cfg, true)
	if err != nil {
		return reservation.LoginID{}, err
	}
	defer func() { _ = storage.close() }()

	auth, err := reservation.NewManagerAuth(storage.managers)
	if err != nil {
		return reservation.LoginID{}, err
	}
	return auth.CreateManager(ctx, rawLoginID, password)
}
