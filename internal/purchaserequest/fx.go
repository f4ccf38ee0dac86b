package purchaserequest

import (
	"github.com/smallbiznis/procura/internal/purchaserequest/service"
	"go.uber.org/fx"
)

var Module = fx.Module("purchaserequest.service",
	fx.Provide(service.NewService),
)
