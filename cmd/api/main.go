package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/connectus/newcon-mock/internal/auth"
	"github.com/connectus/newcon-mock/internal/config"
	"github.com/connectus/newcon-mock/internal/customer"
	"github.com/connectus/newcon-mock/internal/httpapi"
	"github.com/connectus/newcon-mock/internal/ledger"
	"github.com/connectus/newcon-mock/internal/obs"
	"github.com/connectus/newcon-mock/internal/soap"
	"github.com/connectus/newcon-mock/internal/store/pg"
	"github.com/connectus/newcon-mock/internal/store/redisstore"
	"github.com/connectus/newcon-mock/internal/stream"
	"github.com/connectus/newcon-mock/internal/validation"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	// Инициализация observability (регистрация метрик, JSON-логгер и т.п.)
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Хранилище консультаций
	var (
		store   ledger.Store
		rdb     *redis.Client
		closers []func() error
	)
	switch cfg.Ledger.Backend {
	case config.BackendPostgres:
		s, err := pg.Open(cfg.Ledger.PostgresDSN)
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		store = s
		closers = append(closers, s.Close)
	case config.BackendRedis:
		s, err := redisstore.Open(cfg.Ledger.RedisURL, cfg.Ledger.RedisPrefix)
		if err != nil {
			log.Fatalf("open redis: %v", err)
		}
		store, rdb = s, s.Client()
		closers = append(closers, s.Close)
	default:
		store = ledger.NewInMemory()
	}
	if rdb == nil && cfg.Ledger.RedisURL != "" && cfg.Auth.Revocation {
		opt, err := redis.ParseURL(cfg.Ledger.RedisURL)
		if err != nil {
			log.Fatalf("parse redis url: %v", err)
		}
		rdb = redis.NewClient(opt)
		closers = append(closers, rdb.Close)
	}

	// Сессии
	users, err := auth.NewMemoryStore(cfg.Users, auth.WithHashCost(cfg.Auth.HashCost))
	if err != nil {
		log.Fatalf("users: %v", err)
	}
	authOpts := []auth.ServiceOption{
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithAccessTTL(time.Duration(cfg.Auth.AccessTTL)),
		auth.WithRefreshTTL(time.Duration(cfg.Auth.RefreshTTL)),
	}
	if cfg.Auth.Revocation {
		if rdb != nil {
			authOpts = append(authOpts, auth.WithRevocations(auth.NewRedisRevocations(rdb, "")))
		} else {
			authOpts = append(authOpts, auth.WithRevocations(auth.NewMemoryRevocations(time.Now)))
		}
	}
	authSvc, err := auth.NewService(users, cfg.Auth.Secret, authOpts...)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	clients, err := customer.NewDirectory(cfg.Clients)
	if err != nil {
		log.Fatalf("clients: %v", err)
	}

	consultations := ledger.New(store,
		ledger.WithGracePeriod(time.Duration(cfg.Ledger.GracePeriod)),
		ledger.WithRetention(time.Duration(cfg.Ledger.Retention)))
	events := stream.New()
	probe := httpapi.ReadyProbe{Store: consultations}

	// HTTP API
	api := httpapi.New(httpapi.Deps{
		Auth:       authSvc,
		Validation: validation.New(consultations, validation.WithEvents(events)),
		SOAP:       soap.NewHandler(clients, cfg.PublicBaseURL),
		Stream:     events,
		Ready:      probe,
	}, version,
		httpapi.WithRateLimit(cfg.HTTP.RateBurst, cfg.HTTP.RatePerSec),
		httpapi.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
		httpapi.WithCORSOrigins(cfg.HTTP.CORSOrigins...),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(), // уже обёрнут метриками в httpapi
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// gRPC health
	ctx, stopWatch := context.WithCancel(context.Background())
	healthSrv := httpapi.NewGRPCServer(probe, version)
	grpcServer := grpc.NewServer()
	healthSrv.Register(grpcServer)
	go healthSrv.Watch(ctx, 10*time.Second)

	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		go func() {
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				log.Fatalf("grpc serve: %v", err)
			}
		}()
	}

	obs.Info("starting newcon-mock", map[string]any{
		"version": version,
		"http":    srv.Addr,
		"grpc":    cfg.GRPCAddr,
		"ledger":  cfg.Ledger.Backend,
		"clients": clients.Len(),
	})

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	obs.Info("shutting down", nil)

	stopWatch()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	for _, c := range closers {
		_ = c()
	}
	obs.Info("stopped", nil)
}
