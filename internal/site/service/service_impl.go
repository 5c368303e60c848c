package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/pelletworks/pelletport/internal/audit/domain"
	"github.com/pelletworks/pelletport/internal/site/domain"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	genID    *snowflake.Node
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("site.service"),
		repo:     p.Repo,
		genID:    p.GenID,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	city := strings.TrimSpace(req.City)
	if city == "" {
		return nil, domain.ErrInvalidCity
	}
	state := strings.ToUpper(strings.TrimSpace(req.State))
	if state == "" {
		return nil, domain.ErrInvalidState
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	site := &domain.Site{
		ID:        s.genID.Generate().Int64(),
		Name:      name,
		City:      city,
		State:     state,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, s.db, site); err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, "site.created", "site", snowflake.ID(site.ID).String(), map[string]any{
		"name":  site.Name,
		"state": site.State,
	})

	resp := toResponse(site)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := domain.ListRequest{
		State:  strings.ToUpper(strings.TrimSpace(req.State)),
		Active: req.Active,
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	siteID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || siteID == 0 {
		return nil, domain.ErrInvalidID
	}

	site, err := s.repo.FindByID(ctx, s.db, siteID.Int64())
	if err != nil {
		return nil, err
	}

	resp := toResponse(site)
	return &resp, nil
}

// Update never touches State: issued invoices derive their tax split from
// the site state at dispatch time.
func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	siteID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || siteID == 0 {
		return nil, domain.ErrInvalidID
	}

	site, err := s.repo.FindByID(ctx, s.db, siteID.Int64())
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		site.Name = name
	}
	if req.City != nil {
		city := strings.TrimSpace(*req.City)
		if city == "" {
			return nil, domain.ErrInvalidCity
		}
		site.City = city
	}
	if req.Active != nil {
		site.Active = *req.Active
	}

	site.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, site); err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, "site.updated", "site", snowflake.ID(site.ID).String(), nil)

	resp := toResponse(site)
	return &resp, nil
}

func toResponse(site *domain.Site) domain.Response {
	return domain.Response{
		ID:        snowflake.ID(site.ID).String(),
		Name:      site.Name,
		City:      site.City,
		State:     site.State,
		Active:    site.Active,
		CreatedAt: site.CreatedAt,
		UpdatedAt: site.UpdatedAt,
	}
}
