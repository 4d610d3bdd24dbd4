package domain

import (
	catalogdomain "github.com/marugo/torioki/internal/catalog/domain"
)

// SettingsPick records how the enabled FormSettings row was chosen, so
// the multi-enabled-rows data-quality condition stays observable instead
// of being silently folded into a single row.
type SettingsPick string

const (
	SettingsPickUnique              SettingsPick = "unique"
	SettingsPickAmbiguousPickLatest SettingsPick = "ambiguous_picked_latest"
	SettingsPickNone                SettingsPick = "none"
)

// PickupWindowView is a pickup window with its product attached from the
// resolver's own product set. Product stays nil for preset-level windows
// and for windows whose product is hidden or unlinked.
type PickupWindowView struct {
	catalogdomain.PickupWindow
	Product *catalogdomain.Product `json:"product,omitempty"`
}

// FormConfig is the single renderable unit the chat-bot form consumes.
type FormConfig struct {
	Preset        catalogdomain.Preset       `json:"preset"`
	Settings      catalogdomain.FormSettings `json:"form_settings"`
	SettingsPick  SettingsPick               `json:"-"`
	Products      []catalogdomain.Product    `json:"products"`
	PickupWindows []PickupWindowView         `json:"pickup_windows"`
}
