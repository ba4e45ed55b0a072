// Package main is the entry point for the Flinger site server. It reads
// configuration from the environment, warns about missing secrets, and
// hands everything to internal/server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sakif/flinger-site/internal/server"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	cfg := server.Config{
		Port:       port,
		DBPath:     env("DB_PATH", "data/flinger.db"),
		ContentDir: env("CONTENT_DIR", "data/content"),
		BaseURL:    env("BASE_URL", fmt.Sprintf("http://localhost:%d", port)),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripePriceID:       os.Getenv("STRIPE_PRICE_ID"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
		WebhookForwardURL: os.Getenv("WEBHOOK_FORWARD_URL"),
		SheetWebhookURL:   os.Getenv("SHEET_WEBHOOK_URL"),
		BrevoAPIKey:       os.Getenv("BREVO_API_KEY"),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
	}

	// The SQLite file and content dir live under data/ by default; create
	// the parents up front so first boot works on an empty checkout.
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(cfg.DBPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Missing secrets degrade loudly, not silently.
	if cfg.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not set — checkout will fail against the live API")
	}
	if cfg.StripeWebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET not set — payment notifications will NOT be verified")
	}
	if cfg.WebhookSecret == "" {
		logger.Warn("WEBHOOK_SECRET not set — inbound relay authentication is DISABLED")
	}
	if cfg.SessionSecret == "" {
		logger.Error("SESSION_SECRET is required (at least 16 characters)")
		os.Exit(1)
	}
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		logger.Warn("ADMIN_USERNAME/ADMIN_PASSWORD not set — admin login will always fail")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
