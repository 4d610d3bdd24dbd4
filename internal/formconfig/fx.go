package formconfig

import (
	"github.com/marugo/torioki/internal/formconfig/service"
	"go.uber.org/fx"
)

var Module = fx.Module("formconfig.service",
	fx.Provide(service.New),
)
