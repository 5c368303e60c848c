package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
}

type ListRequest struct {
	Name   string
	State  string
	Active *bool
}

type CreateRequest struct {
	Name   string  `json:"name"`
	GSTIN  *string `json:"gstin"`
	State  string  `json:"state"`
	Active *bool   `json:"active"`
}

type UpdateRequest struct {
	ID     string  `json:"-"`
	Name   *string `json:"name"`
	GSTIN  *string `json:"gstin"`
	State  *string `json:"state"`
	Active *bool   `json:"active"`
}

type Response struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	GSTIN     *string   `json:"gstin,omitempty"`
	State     string    `json:"state"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidState = errors.New("invalid_state")
	ErrInvalidGSTIN = errors.New("invalid_gstin")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
	ErrInUse        = errors.New("organization_in_use")
)
