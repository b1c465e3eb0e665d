// Package main provides the entry point for the Insight Tracker API server
//
// @title Insight Tracker API
// @version 1.0.0
// @description Insight tracking service with a document store of record and a graph projection kept consistent across stores
// @host localhost:4000
// @BasePath /
// @schemes http https
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/insight-tracker/server-go/domain/graph"
	"github.com/insight-tracker/server-go/domain/health"
	"github.com/insight-tracker/server-go/domain/insights"
	"github.com/insight-tracker/server-go/domain/relationships"
	"github.com/insight-tracker/server-go/domain/scheduler"
	enginesync "github.com/insight-tracker/server-go/domain/sync"
	"github.com/insight-tracker/server-go/domain/tracing"
	"github.com/insight-tracker/server-go/internal/cache"
	"github.com/insight-tracker/server-go/internal/config"
	"github.com/insight-tracker/server-go/internal/database"
	"github.com/insight-tracker/server-go/internal/locks"
	"github.com/insight-tracker/server-go/internal/server"
	"github.com/insight-tracker/server-go/pkg/logger"
)

func main() {
	// Load .env files if present (for local development)
	// Order matters: .env.local overrides .env
	// Note: Load() won't overwrite existing vars, Overload() will
	_ = godotenv.Load("../../.env")
	_ = godotenv.Overload("../../.env.local") // Overload ensures local values take precedence

	fx.New(
		// Logging
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),

		// Infrastructure modules
		logger.Module,
		config.Module,
		database.Module,
		server.Module,
		tracing.Module,
		cache.Module,
		locks.Module,

		// Domain modules
		health.Module,
		graph.Module,
		insights.Module,
		relationships.Module,
		enginesync.Module,

		// Scheduler module (periodic reconciliation sweep)
		scheduler.Module,
	).Run()
}
