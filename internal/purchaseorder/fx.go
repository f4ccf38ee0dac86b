package purchaseorder

import (
	"github.com/smallbiznis/procura/internal/purchaseorder/service"
	"go.uber.org/fx"
)

var Module = fx.Module("purchaseorder.service",
	fx.Provide(service.NewService),
)
