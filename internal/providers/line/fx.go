package line

import (
	"github.com/marugo/torioki/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.line",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if !cfg.Line.Enabled || cfg.Line.AccessToken == "" {
		log.Warn("line messaging disabled or unconfigured, using no-op provider")
		return &NoOpProvider{}
	}
	return NewClient(cfg.Line)
}
