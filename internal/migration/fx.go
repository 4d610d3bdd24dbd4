package migration

import (
	catalogdomain "github.com/marugo/torioki/internal/catalog/domain"
	"github.com/marugo/torioki/internal/config"
	historydomain "github.com/marugo/torioki/internal/history/domain"
	notificationdomain "github.com/marugo/torioki/internal/notification/domain"
	reservationdomain "github.com/marugo/torioki/internal/reservation/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module applies the schema on startup. Postgres goes through the
// versioned SQL migrations; sqlite and mysql fall back to AutoMigrate,
// which is enough for local and single-store deployments.
var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		return conn.AutoMigrate(
			&catalogdomain.Preset{},
			&catalogdomain.FormSettings{},
			&catalogdomain.PresetProduct{},
			&catalogdomain.Product{},
			&catalogdomain.PickupWindow{},
			&reservationdomain.Reservation{},
			&reservationdomain.ReservationItem{},
			&historydomain.ReservationHistory{},
			&notificationdomain.NotificationRecord{},
		)
	}),
)
