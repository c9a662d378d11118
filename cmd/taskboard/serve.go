package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpServer "taskboard/internal/http"
	"taskboard/internal/http/middleware"
	"taskboard/internal/logger"
	"taskboard/internal/service"
	"taskboard/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the board API and change feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx := cmd.Context()
			be, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer be.close()

			if cfg.RedisEnabled() {
				middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
				defer middleware.CloseRedisRateLimiter()
			}

			hub := ws.NewHub()
			defer hub.Close()

			r := httpServer.NewEngine(httpServer.Deps{
				Board:          service.NewBoardService(be.store, hub, be.audit),
				Audit:          be.audit,
				Hub:            hub,
				Health:         be.pinger,
				StoreDriver:    cfg.StoreDriver,
				Version:        cfg.AppVersion,
				RateLimit:      cfg.RateLimit,
				RateWindow:     cfg.RateWindow,
				AllowedOrigins: cfg.AllowedOrigins,
			})

			c := cors.New(cors.Options{
				AllowedOrigins:   cfg.AllowedOrigins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.CorrelationHeader},
				ExposedHeaders:   []string{middleware.CorrelationHeader, "X-RateLimit-Remaining", "Retry-After"},
				AllowCredentials: true,
			})

			srv := &http.Server{
				Addr:              ":" + cfg.AppPort,
				Handler:           c.Handler(r),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				logger.Info("server started", "port", cfg.AppPort, "store", cfg.StoreDriver, "version", cfg.AppVersion)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("listen", "error", err)
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			logger.Info("shutting down server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logger.Info("server exited")
			return nil
		},
	}
}
