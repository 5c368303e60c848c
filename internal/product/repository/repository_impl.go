package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pelletworks/pelletport/internal/product/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (id, sku, name, pellet_type, grade, cv_min_kcal, cv_max_kcal,
		                       ash_percent, moisture_percent, price_pmt, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.SKU,
		product.Name,
		product.PelletType,
		product.Grade,
		product.CVMinKcal,
		product.CVMaxKcal,
		product.AshPercent,
		product.MoisturePercent,
		product.PricePMT,
		product.Active,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) FindBySKU(ctx context.Context, db *gorm.DB, sku string) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).First(&p, "sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Product, error) {
	stmt := db.WithContext(ctx).Model(&domain.Product{})
	if filter.PelletType != "" {
		stmt = stmt.Where("pellet_type = ?", filter.PelletType)
	}
	if filter.Grade != "" {
		stmt = stmt.Where("grade = ?", filter.Grade)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}

	var items []domain.Product
	if err := stmt.Order("sku ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`UPDATE products
		 SET name = ?, price_pmt = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		product.Name,
		product.PricePMT,
		product.Active,
		product.UpdatedAt,
		product.ID,
	).Error
}
