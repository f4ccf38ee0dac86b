package observability

import (
	"github.com/smallbiznis/procura/internal/config"
	"github.com/smallbiznis/procura/internal/observability/logger"
	"github.com/smallbiznis/procura/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Options(
	logger.Module,
	fx.Module("observability.metrics",
		fx.Provide(func(cfg config.Config) metrics.Config {
			return metrics.Config{ServiceName: cfg.ServiceName, Environment: cfg.Environment}
		}),
		fx.Provide(metrics.NewRegistry),
		fx.Provide(metrics.NewHTTPMetrics),
		fx.Provide(metrics.NewRealtimeMetrics),
	),
)
