package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable pellet SKU with its quality band and list price
// per metric tonne.
type Product struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	SKU             string          `json:"sku" gorm:"type:text;not null;uniqueIndex:ux_products_sku"`
	Name            string          `json:"name" gorm:"type:text;not null"`
	PelletType      string          `json:"pellet_type" gorm:"type:text;not null"`
	Grade           string          `json:"grade" gorm:"type:text;not null"`
	CVMinKcal       int             `json:"cv_min_kcal" gorm:"not null"`
	CVMaxKcal       int             `json:"cv_max_kcal" gorm:"not null"`
	AshPercent      decimal.Decimal `json:"ash_percent" gorm:"type:numeric(5,2);not null"`
	MoisturePercent decimal.Decimal `json:"moisture_percent" gorm:"type:numeric(5,2);not null"`
	PricePMT        decimal.Decimal `json:"price_pmt" gorm:"type:numeric(12,2);not null"`
	Active          bool            `json:"active" gorm:"not null;default:true"`
	CreatedAt       time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

const (
	PelletTypeWood  = "WOOD"
	PelletTypeAgri  = "AGRI"
	PelletTypeTorre = "TORREFIED"
)
