package health

import (
	"go.uber.org/fx"

	"github.com/insight-tracker/server-go/internal/config"
	"github.com/insight-tracker/server-go/internal/database"
)

func provideHandler(mongo *database.Mongo, graphStore *database.Graph, kvStore *database.KV, cfg *config.Config) *Handler {
	return NewHandler(mongo, graphStore, kvStore, cfg)
}

var Module = fx.Module("health",
	fx.Provide(provideHandler),
	fx.Invoke(RegisterRoutes),
)
