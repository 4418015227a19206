package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"session-guard/internal/app"
	"session-guard/internal/config"
	"session-guard/internal/logger"
)

func main() {
	grantAdmin := flag.String("grant-admin", "", "set is_admin=true for this user ID and exit")
	revokeAdmin := flag.String("revoke-admin", "", "set is_admin=false for this user ID and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("info")
		logger.Fatal("invalid configuration", map[string]any{
			"error": err.Error(),
		})
	}
	log := logger.Init(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if userID, isAdmin := adminTarget(*grantAdmin, *revokeAdmin); userID != "" {
		if err := app.GrantAdmin(ctx, cfg, userID, isAdmin); err != nil {
			logger.Fatal("failed to update admin flag", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
		logger.Info("admin flag updated", map[string]any{
			"user_id":  userID,
			"is_admin": isAdmin,
		})
		return
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize app", map[string]any{
			"error": err.Error(),
		})
	}

	go func() {
		if err := application.Run(); err != nil {
			logger.Fatal("http server failed", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	logger.Info("session-guard started", map[string]any{
		"port":          cfg.AppPort,
		"provider":      cfg.AuthProvider,
		"enforce_admin": cfg.EnforceAdmin,
	})

	<-ctx.Done()

	logger.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("graceful shutdown failed", map[string]any{
			"error": err.Error(),
		})
	}

	logger.Info("session-guard stopped cleanly", nil)
}

func adminTarget(grant, revoke string) (string, bool) {
	if grant != "" {
		return grant, true
	}
	return revoke, false
}
