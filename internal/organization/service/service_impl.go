package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/pelletworks/pelletport/internal/audit/domain"
	"github.com/pelletworks/pelletport/internal/organization/domain"
)

// GSTIN layout: 2-digit state code, PAN, entity code, Z, checksum.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z]Z[0-9A-Z]$`)

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
		log:      p.Log.Named("organization.service"),
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

	state := strings.ToUpper(strings.TrimSpace(req.State))
	if state == "" {
		return nil, domain.ErrInvalidState
	}

	gstin, err := normalizeGSTIN(req.GSTIN)
	if err != nil {
		return nil, err
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	org := &domain.Organization{
		ID:        s.genID.Generate().Int64(),
		Name:      name,
		GSTIN:     gstin,
		State:     state,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, s.db, org); err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, "organization.created", "organization", snowflake.ID(org.ID).String(), map[string]any{
		"name":  org.Name,
		"state": org.State,
	})

	resp := toResponse(org)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := domain.ListRequest{
		Name:   strings.TrimSpace(req.Name),
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
	orgID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || orgID == 0 {
		return nil, domain.ErrInvalidID
	}

	org, err := s.repo.FindByID(ctx, s.db, orgID.Int64())
	if err != nil {
		return nil, err
	}

	resp := toResponse(org)
	return &resp, nil
}

// Update refuses to touch State or GSTIN once the organization has placed
// orders, since both feed issued tax documents.
func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	orgID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || orgID == 0 {
		return nil, domain.ErrInvalidID
	}

	org, err := s.repo.FindByID(ctx, s.db, orgID.Int64())
	if err != nil {
		return nil, err
	}

	if req.State != nil || req.GSTIN != nil {
		inUse, err := s.repo.HasOrders(ctx, s.db, org.ID)
		if err != nil {
			return nil, err
		}
		if inUse {
			return nil, domain.ErrInUse
		}
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		org.Name = name
	}
	if req.State != nil {
		state := strings.ToUpper(strings.TrimSpace(*req.State))
		if state == "" {
			return nil, domain.ErrInvalidState
		}
		org.State = state
	}
	if req.GSTIN != nil {
		gstin, err := normalizeGSTIN(req.GSTIN)
		if err != nil {
			return nil, err
		}
		org.GSTIN = gstin
	}
	if req.Active != nil {
		org.Active = *req.Active
	}

	org.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, org); err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, "organization.updated", "organization", snowflake.ID(org.ID).String(), nil)

	resp := toResponse(org)
	return &resp, nil
}

func normalizeGSTIN(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	gstin := strings.ToUpper(strings.TrimSpace(*raw))
	if gstin == "" {
		return nil, nil
	}
	if !gstinPattern.MatchString(gstin) {
		return nil, domain.ErrInvalidGSTIN
	}
	return &gstin, nil
}

func toResponse(org *domain.Organization) domain.Response {
	return domain.Response{
		ID:        snowflake.ID(org.ID).String(),
		Name:      org.Name,
		GSTIN:     org.GSTIN,
		State:     org.State,
		Active:    org.Active,
		CreatedAt: org.CreatedAt,
		UpdatedAt: org.UpdatedAt,
	}
}
