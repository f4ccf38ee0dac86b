package procurementmetrics

import (
	"github.com/smallbiznis/procura/internal/procurementmetrics/service"
	"go.uber.org/fx"
)

var Module = fx.Module("procurementmetrics.service",
	fx.Provide(service.NewService),
)
