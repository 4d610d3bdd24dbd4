package notification

import (
	"context"

	"github.com/marugo/torioki/internal/notification/domain"
	"github.com/marugo/torioki/internal/notification/repository"
	"github.com/marugo/torioki/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Invoke(registerFlush),
)

// registerFlush drains in-flight async dispatches before shutdown so
// accepted reservations do not lose their confirmations.
func registerFlush(lc fx.Lifecycle, dispatcher domain.Dispatcher) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			dispatcher.Flush()
			return nil
		},
	})
}
