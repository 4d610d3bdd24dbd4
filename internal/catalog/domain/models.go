package domain

import "time"

// Preset is a named bundle of products a customer can order through
// one chat-bot form. Rows are created by staff and never mutated here.
type Preset struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"column:preset_name;not null" json:"preset_name"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Preset) TableName() string { return "product_presets" }

// FormSettings controls which fields the public form renders and whether
// the form is reachable at all. Historical rows may coexist; only enabled
// rows matter at resolution time.
type FormSettings struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	PresetID        int64     `gorm:"not null;index" json:"preset_id"`
	ShowPrice       bool      `gorm:"not null;default:true" json:"show_price"`
	RequirePhone    bool      `gorm:"not null;default:true" json:"require_phone"`
	RequireFurigana bool      `gorm:"not null;default:false" json:"require_furigana"`
	AllowNote       bool      `gorm:"not null;default:true" json:"allow_note"`
	IsEnabled       bool      `gorm:"not null;default:false;index" json:"is_enabled"`
	CustomMessage   *string   `json:"custom_message,omitempty"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (FormSettings) TableName() string { return "form_settings" }

// PresetProduct links a product into a preset with an explicit display
// position. is_active=false soft-excludes the product without touching
// the product row or losing the ordering.
type PresetProduct struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	PresetID     int64     `gorm:"not null;index" json:"preset_id"`
	ProductID    int64     `gorm:"not null;index" json:"product_id"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PresetProduct) TableName() string { return "preset_products" }

type Product struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Price      int64     `gorm:"not null;default:0" json:"price"`
	CategoryID *int64    `json:"category_id,omitempty"`
	Visible    bool      `gorm:"not null;default:true;index" json:"visible"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// PickupWindow is a pickup time slot for a preset. ProductID nil means a
// preset-level slot; a set ProductID scopes the slot to one product, and
// a non-nil Price then overrides that product's base price for the slot.
type PickupWindow struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	PresetID    int64     `gorm:"not null;index" json:"preset_id"`
	ProductID   *int64    `gorm:"index" json:"product_id,omitempty"`
	PickupStart time.Time `gorm:"not null" json:"pickup_start"`
	PickupEnd   time.Time `gorm:"not null" json:"pickup_end"`
	Price       *int64    `json:"price,omitempty"`
	Comment     *string   `json:"comment,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PickupWindow) TableName() string { return "pickup_windows" }
