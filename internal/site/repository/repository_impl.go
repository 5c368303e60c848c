package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pelletworks/pelletport/internal/site/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, site *domain.Site) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sites (id, name, city, state, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		site.ID,
		site.Name,
		site.City,
		site.State,
		site.Active,
		site.CreatedAt,
		site.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Site, error) {
	var site domain.Site
	if err := db.WithContext(ctx).First(&site, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &site, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Site, error) {
	stmt := db.WithContext(ctx).Model(&domain.Site{})
	if filter.State != "" {
		stmt = stmt.Where("state = ?", filter.State)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}

	var items []domain.Site
	if err := stmt.Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, site *domain.Site) error {
	return db.WithContext(ctx).Exec(
		`UPDATE sites
		 SET name = ?, city = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		site.Name,
		site.City,
		site.Active,
		site.UpdatedAt,
		site.ID,
	).Error
}
