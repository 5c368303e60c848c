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
	"github.com/pelletworks/pelletport/internal/authctx"
	"github.com/pelletworks/pelletport/internal/inventory/domain"
	productdomain "github.com/pelletworks/pelletport/internal/product/domain"
	sitedomain "github.com/pelletworks/pelletport/internal/site/domain"
	"github.com/pelletworks/pelletport/pkg/db"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	AuditSvc auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("inventory.service"),
		genID:    p.GenID,
		auditSvc: p.AuditSvc,
	}
}

// SetAvailable records a physical stock count. It overwrites availableMT
// and leaves reservedMT untouched, upserting the row on first count.
func (s *Service) SetAvailable(ctx context.Context, req domain.SetAvailableRequest) (*domain.Response, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(req.ProductID))
	if err != nil || productID == 0 {
		return nil, domain.ErrInvalidID
	}
	siteID, err := snowflake.ParseString(strings.TrimSpace(req.SiteID))
	if err != nil || siteID == 0 {
		return nil, domain.ErrInvalidID
	}
	if req.AvailableMT.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}

	var actorID *int64
	if identity, ok := authctx.IdentityFromContext(ctx); ok {
		id := identity.UserID.Int64()
		actorID = &id
	}

	var inv *domain.Inventory
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkReferences(ctx, tx, productID.Int64(), siteID.Int64()); err != nil {
			return err
		}

		now := time.Now().UTC()
		existing, err := lockInventory(ctx, tx, productID.Int64(), siteID.Int64())
		if err != nil {
			return err
		}
		if existing == nil {
			existing = &domain.Inventory{
				ID:            s.genID.Generate().Int64(),
				ProductID:     productID.Int64(),
				SiteID:        siteID.Int64(),
				AvailableMT:   req.AvailableMT,
				ReservedMT:    decimal.Zero,
				LastUpdatedBy: actorID,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.WithContext(ctx).Exec(
				`INSERT INTO inventories (id, product_id, site_id, available_mt, reserved_mt, last_updated_by, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				existing.ID,
				existing.ProductID,
				existing.SiteID,
				existing.AvailableMT,
				existing.ReservedMT,
				existing.LastUpdatedBy,
				existing.CreatedAt,
				existing.UpdatedAt,
			).Error; err != nil {
				return err
			}
		} else {
			existing.AvailableMT = req.AvailableMT
			existing.LastUpdatedBy = actorID
			existing.UpdatedAt = now
			if err := tx.WithContext(ctx).Exec(
				`UPDATE inventories
				 SET available_mt = ?, last_updated_by = ?, updated_at = ?
				 WHERE id = ?`,
				existing.AvailableMT,
				existing.LastUpdatedBy,
				existing.UpdatedAt,
				existing.ID,
			).Error; err != nil {
				return err
			}
		}

		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO inventory_history (id, product_id, site_id, available_mt, reserved_mt, change_mt, reason, recorded_by, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.genID.Generate().Int64(),
			existing.ProductID,
			existing.SiteID,
			existing.AvailableMT,
			existing.ReservedMT,
			existing.AvailableMT,
			domain.HistoryReasonStockSet,
			actorID,
			now,
		).Error; err != nil {
			return err
		}

		inv = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, "inventory.stock_set", "inventory", productID.String()+":"+siteID.String(), map[string]any{
		"product_id":   productID.String(),
		"site_id":      siteID.String(),
		"available_mt": req.AvailableMT.String(),
	})

	resp := toResponse(inv)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	stmt := s.db.WithContext(ctx).Model(&domain.Inventory{})
	if trimmed := strings.TrimSpace(req.ProductID); trimmed != "" {
		productID, err := snowflake.ParseString(trimmed)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		stmt = stmt.Where("product_id = ?", productID.Int64())
	}
	if trimmed := strings.TrimSpace(req.SiteID); trimmed != "" {
		siteID, err := snowflake.ParseString(trimmed)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		stmt = stmt.Where("site_id = ?", siteID.Int64())
	}

	var items []domain.Inventory
	if err := stmt.Order("product_id ASC, site_id ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) History(ctx context.Context, req domain.HistoryRequest) ([]domain.HistoryResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	stmt := s.db.WithContext(ctx).Model(&domain.InventoryHistory{})
	if trimmed := strings.TrimSpace(req.ProductID); trimmed != "" {
		productID, err := snowflake.ParseString(trimmed)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		stmt = stmt.Where("product_id = ?", productID.Int64())
	}
	if trimmed := strings.TrimSpace(req.SiteID); trimmed != "" {
		siteID, err := snowflake.ParseString(trimmed)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		stmt = stmt.Where("site_id = ?", siteID.Int64())
	}

	var items []domain.InventoryHistory
	if err := stmt.Order("created_at DESC, id DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}

	resp := make([]domain.HistoryResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toHistoryResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) checkReferences(ctx context.Context, tx *gorm.DB, productID, siteID int64) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&productdomain.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return productdomain.ErrNotFound
	}
	if err := tx.WithContext(ctx).Model(&sitedomain.Site{}).Where("id = ?", siteID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return sitedomain.ErrNotFound
	}
	return nil
}

func lockInventory(ctx context.Context, tx *gorm.DB, productID, siteID int64) (*domain.Inventory, error) {
	var inv domain.Inventory
	err := tx.WithContext(ctx).Raw(
		`SELECT id, product_id, site_id, available_mt, reserved_mt, last_updated_by, created_at, updated_at
		 FROM inventories
		 WHERE product_id = ? AND site_id = ?`+db.ForUpdate(tx),
		productID,
		siteID,
	).Scan(&inv).Error
	if err != nil {
		return nil, err
	}
	if inv.ID == 0 {
		return nil, nil
	}
	return &inv, nil
}

func toResponse(inv *domain.Inventory) domain.Response {
	resp := domain.Response{
		ProductID:   snowflake.ID(inv.ProductID).String(),
		SiteID:      snowflake.ID(inv.SiteID).String(),
		AvailableMT: inv.AvailableMT,
		ReservedMT:  inv.ReservedMT,
		UpdatedAt:   inv.UpdatedAt,
	}
	if inv.LastUpdatedBy != nil {
		actor := snowflake.ID(*inv.LastUpdatedBy).String()
		resp.LastUpdatedBy = &actor
	}
	return resp
}

func toHistoryResponse(h *domain.InventoryHistory) domain.HistoryResponse {
	resp := domain.HistoryResponse{
		ProductID:   snowflake.ID(h.ProductID).String(),
		SiteID:      snowflake.ID(h.SiteID).String(),
		AvailableMT: h.AvailableMT,
		ReservedMT:  h.ReservedMT,
		ChangeMT:    h.ChangeMT,
		Reason:      h.Reason,
		CreatedAt:   h.CreatedAt,
	}
	if h.RecordedBy != nil {
		actor := snowflake.ID(*h.RecordedBy).String()
		resp.RecordedBy = &actor
	}
	return resp
}
