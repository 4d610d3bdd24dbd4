package reservation

import (
	"github.com/marugo/torioki/internal/reservation/repository"
	"github.com/marugo/torioki/internal/reservation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reservation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
