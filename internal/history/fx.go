package history

import (
	"github.com/marugo/torioki/internal/history/repository"
	"github.com/marugo/torioki/internal/history/service"
	"go.uber.org/fx"
)

var Module = fx.Module("history.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
