package catalog

import (
	"github.com/marugo/torioki/internal/catalog/repository"
	"github.com/marugo/torioki/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
