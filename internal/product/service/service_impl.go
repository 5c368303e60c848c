package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/pelletworks/pelletport/internal/audit/domain"
	"github.com/pelletworks/pelletport/internal/product/domain"
	"github.com/pelletworks/pelletport/pkg/db"
)

var hundred = decimal.NewFromInt(100)

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
		log:      p.Log.Named("product.service"),
		repo:     p.Repo,
		genID:    p.GenID,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	sku := strings.ToUpper(strings.TrimSpace(req.SKU))
	if sku == "" {
		return nil, domain.ErrInvalidSKU
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	pelletType := strings.ToUpper(strings.TrimSpace(req.PelletType))
	switch pelletType {
	case domain.PelletTypeWood, domain.PelletTypeAgri, domain.PelletTypeTorre:
	default:
		return nil, domain.ErrInvalidPelletType
	}

	grade := strings.ToUpper(strings.TrimSpace(req.Grade))
	if grade == "" {
		return nil, domain.ErrInvalidGrade
	}

	if req.CVMinKcal <= 0 || req.CVMaxKcal < req.CVMinKcal {
		return nil, domain.ErrInvalidCVRange
	}
	if req.AshPercent.IsNegative() || req.AshPercent.GreaterThan(hundred) {
		return nil, domain.ErrInvalidQuality
	}
	if req.MoisturePercent.IsNegative() || req.MoisturePercent.GreaterThan(hundred) {
		return nil, domain.ErrInvalidQuality
	}
	if !req.PricePMT.IsPositive() {
		return nil, domain.ErrInvalidPrice
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:              s.genID.Generate().Int64(),
		SKU:             sku,
		Name:            name,
		PelletType:      pelletType,
		Grade:           grade,
		CVMinKcal:       req.CVMinKcal,
		CVMaxKcal:       req.CVMaxKcal,
		AshPercent:      req.AshPercent,
		MoisturePercent: req.MoisturePercent,
		PricePMT:        req.PricePMT,
		Active:          active,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, s.db, p); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSKUExists
		}
		return nil, err
	}

	s.auditSvc.Record(ctx, "product.created", "product", snowflake.ID(p.ID).String(), map[string]any{
		"sku":       p.SKU,
		"price_pmt": p.PricePMT.String(),
	})

	resp := toResponse(p)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := domain.ListRequest{
		PelletType: strings.ToUpper(strings.TrimSpace(req.PelletType)),
		Grade:      strings.ToUpper(strings.TrimSpace(req.Grade)),
		Active:     req.Active,
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
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || productID == 0 {
		return nil, domain.ErrInvalidID
	}

	p, err := s.repo.FindByID(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}

	resp := toResponse(p)
	return &resp, nil
}

// Update only touches name, list price and active flag. SKU and the
// quality band are fixed at creation; issued invoices snapshot the price.
func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || productID == 0 {
		return nil, domain.ErrInvalidID
	}

	p, err := s.repo.FindByID(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		p.Name = name
	}
	if req.PricePMT != nil {
		if !req.PricePMT.IsPositive() {
			return nil, domain.ErrInvalidPrice
		}
		p.PricePMT = *req.PricePMT
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, p); err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, "product.updated", "product", snowflake.ID(p.ID).String(), map[string]any{
		"price_pmt": p.PricePMT.String(),
	})

	resp := toResponse(p)
	return &resp, nil
}

func toResponse(p *domain.Product) domain.Response {
	return domain.Response{
		ID:              snowflake.ID(p.ID).String(),
		SKU:             p.SKU,
		Name:            p.Name,
		PelletType:      p.PelletType,
		Grade:           p.Grade,
		CVMinKcal:       p.CVMinKcal,
		CVMaxKcal:       p.CVMaxKcal,
		AshPercent:      p.AshPercent,
		MoisturePercent: p.MoisturePercent,
		PricePMT:        p.PricePMT,
		Active:          p.Active,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
