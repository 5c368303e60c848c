package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, org *Organization) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Organization, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Organization, error)
	Update(ctx context.Context, db *gorm.DB, org *Organization) error
	HasOrders(ctx context.Context, db *gorm.DB, id int64) (bool, error)
}
