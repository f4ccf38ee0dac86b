package realtime

import (
	"github.com/smallbiznis/procura/internal/events"
	"go.uber.org/fx"
)

var Module = fx.Module("realtime",
	fx.Provide(NewRegistry),
	fx.Provide(NewHub),
	fx.Provide(func(h *Hub) events.Publisher { return h }),
)
