package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pelletworks/pelletport/internal/organization/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, org *domain.Organization) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO organizations (id, name, gstin, state, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		org.ID,
		org.Name,
		org.GSTIN,
		org.State,
		org.Active,
		org.CreatedAt,
		org.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Organization, error) {
	var org domain.Organization
	if err := db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Organization, error) {
	stmt := db.WithContext(ctx).Model(&domain.Organization{})
	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.State != "" {
		stmt = stmt.Where("state = ?", filter.State)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}

	var items []domain.Organization
	if err := stmt.Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, org *domain.Organization) error {
	return db.WithContext(ctx).Exec(
		`UPDATE organizations
		 SET name = ?, gstin = ?, state = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		org.Name,
		org.GSTIN,
		org.State,
		org.Active,
		org.UpdatedAt,
		org.ID,
	).Error
}

func (r *repo) HasOrders(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM orders WHERE buyer_org_id = ?`, id,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
