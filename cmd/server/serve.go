package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"glowfit/config"
	"glowfit/logger"
	"glowfit/middlewares"
	"glowfit/routes"
	"glowfit/services"
	"glowfit/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg config.Config) error {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	deps, err := buildDeps(ctx, cfg, db)
	if err != nil {
		return err
	}
	clerkKey, err := utils.ParseClerkKey(cfg.ClerkJWTKey)
	if err != nil {
		return err
	}
	if clerkKey == nil {
		logger.Warn("CLERK_JWT_KEY not set, only local tokens are accepted")
	}

	svc := services.NewContainer(deps)
	router := routes.SetupRouter(svc, middlewares.NewAuthenticator(svc.Auth, cfg.JWTSecret, clerkKey), routes.Options{
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err = g.Wait()

	if sqlDB, dbErr := db.DB(); dbErr == nil {
		_ = sqlDB.Close()
	}
	return err
}
