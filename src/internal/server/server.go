package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"stridehub-webhook-svc/src/clients"
	"stridehub-webhook-svc/src/internal/config"
	"stridehub-webhook-svc/src/internal/dependency"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	cfg  *config.Configuration
	deps *dependency.Manager
}

func New(cfg *config.Configuration) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()

	mongodb, err := clients.NewMongoDB(&cfg.Database)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to MongoDB")
	}

	redisClient, err := clients.NewRedisClient(&cfg.Redis)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to Redis")
	}

	rabbitMQ, err := clients.NewRabbitMQ(&cfg.Queue)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}

	if err := rabbitMQ.SetupExchange(); err != nil {
		logrus.WithError(err).Fatal("Failed to declare RabbitMQ exchange")
	}

	deps := dependency.NewDependencyManager(router, mongodb, redisClient, rabbitMQ, cfg)

	initCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.Timeout)*time.Second)
	defer cancel()
	if err := deps.Init(initCtx); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize durable state")
	}

	SetupRoutes(deps)

	return &Server{cfg: cfg, deps: deps}
}

func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s.deps.Router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("HTTP server listening on port %s", s.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logrus.WithField("signal", sig.String()).Info("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Forced server shutdown")
		return err
	}

	s.close(ctx)
	logrus.Info("Server stopped")
	return nil
}

func (s *Server) close(ctx context.Context) {
	if err := s.deps.RabbitMQ.Close(); err != nil {
		logrus.WithError(err).Warn("Error closing RabbitMQ")
	}
	if err := s.deps.Redis.Close(); err != nil {
		logrus.WithError(err).Warn("Error closing Redis")
	}
	if err := s.deps.Mongodb.Close(ctx); err != nil {
		logrus.WithError(err).Warn("Error closing MongoDB")
	}
}
