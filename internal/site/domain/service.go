package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, site *Site) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Site, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Site, error)
	Update(ctx context.Context, db *gorm.DB, site *Site) error
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
}

type ListRequest struct {
	State  string
	Active *bool
}

type CreateRequest struct {
	Name   string `json:"name"`
	City   string `json:"city"`
	State  string `json:"state"`
	Active *bool  `json:"active"`
}

type UpdateRequest struct {
	ID     string  `json:"-"`
	Name   *string `json:"name"`
	City   *string `json:"city"`
	Active *bool   `json:"active"`
}

type Response struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidCity  = errors.New("invalid_city")
	ErrInvalidState = errors.New("invalid_state")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
