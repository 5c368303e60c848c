package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	FindBySKU(ctx context.Context, db *gorm.DB, sku string) (*Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Product, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) error
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
}

type ListRequest struct {
	PelletType string
	Grade      string
	Active     *bool
}

type CreateRequest struct {
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	PelletType      string          `json:"pellet_type"`
	Grade           string          `json:"grade"`
	CVMinKcal       int             `json:"cv_min_kcal"`
	CVMaxKcal       int             `json:"cv_max_kcal"`
	AshPercent      decimal.Decimal `json:"ash_percent"`
	MoisturePercent decimal.Decimal `json:"moisture_percent"`
	PricePMT        decimal.Decimal `json:"price_pmt"`
	Active          *bool           `json:"active"`
}

type UpdateRequest struct {
	ID       string           `json:"-"`
	Name     *string          `json:"name"`
	PricePMT *decimal.Decimal `json:"price_pmt"`
	Active   *bool            `json:"active"`
}

type Response struct {
	ID              string          `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	PelletType      string          `json:"pellet_type"`
	Grade           string          `json:"grade"`
	CVMinKcal       int             `json:"cv_min_kcal"`
	CVMaxKcal       int             `json:"cv_max_kcal"`
	AshPercent      decimal.Decimal `json:"ash_percent"`
	MoisturePercent decimal.Decimal `json:"moisture_percent"`
	PricePMT        decimal.Decimal `json:"price_pmt"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

var (
	ErrInvalidSKU        = errors.New("invalid_sku")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidPelletType = errors.New("invalid_pellet_type")
	ErrInvalidGrade      = errors.New("invalid_grade")
	ErrInvalidCVRange    = errors.New("invalid_cv_range")
	ErrInvalidQuality    = errors.New("invalid_quality")
	ErrInvalidPrice      = errors.New("invalid_price")
	ErrInvalidID         = errors.New("invalid_id")
	ErrSKUExists         = errors.New("sku_exists")
	ErrNotFound          = errors.New("not_found")
)
