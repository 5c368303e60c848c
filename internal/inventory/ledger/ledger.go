package ledger

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pelletworks/pelletport/internal/inventory/domain"
	"github.com/pelletworks/pelletport/pkg/db"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
}

type Ledger struct {
	log   *zap.Logger
	genID *snowflake.Node
}

func New(p Params) domain.Ledger {
	return &Ledger{
		log:   p.Log.Named("inventory.ledger"),
		genID: p.GenID,
	}
}

// Reserve debits free stock and credits the reserved pool inside the
// caller's transaction. The row is read under a write lock so two
// concurrent reservations cannot both pass the availability check.
func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, productID, siteID int64, quantityMT decimal.Decimal, actorID *int64) (*domain.Inventory, error) {
	if !quantityMT.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}

	inv, err := lockInventory(ctx, tx, productID, siteID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrInventoryNotInitialized
	}
	if inv.AvailableMT.LessThan(quantityMT) {
		return nil, domain.ErrInsufficientInventory
	}

	inv.AvailableMT = inv.AvailableMT.Sub(quantityMT)
	inv.ReservedMT = inv.ReservedMT.Add(quantityMT)
	inv.LastUpdatedBy = actorID
	inv.UpdatedAt = time.Now().UTC()

	if err := updateInventory(ctx, tx, inv); err != nil {
		return nil, err
	}
	if err := l.appendHistory(ctx, tx, inv, quantityMT.Neg(), domain.HistoryReasonReserve, actorID); err != nil {
		return nil, err
	}
	return inv, nil
}

// Release is the compensating move for a failed or cancelled batch. The
// reserved pool is clamped at zero so a double release cannot drive it
// negative.
func (l *Ledger) Release(ctx context.Context, tx *gorm.DB, productID, siteID int64, quantityMT decimal.Decimal, actorID *int64) (*domain.Inventory, error) {
	if !quantityMT.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}

	inv, err := lockInventory(ctx, tx, productID, siteID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrInventoryNotInitialized
	}

	inv.AvailableMT = inv.AvailableMT.Add(quantityMT)
	inv.ReservedMT = inv.ReservedMT.Sub(quantityMT)
	if inv.ReservedMT.IsNegative() {
		inv.ReservedMT = decimal.Zero
	}
	inv.LastUpdatedBy = actorID
	inv.UpdatedAt = time.Now().UTC()

	if err := updateInventory(ctx, tx, inv); err != nil {
		return nil, err
	}
	if err := l.appendHistory(ctx, tx, inv, quantityMT, domain.HistoryReasonRelease, actorID); err != nil {
		return nil, err
	}
	return inv, nil
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

func updateInventory(ctx context.Context, tx *gorm.DB, inv *domain.Inventory) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE inventories
		 SET available_mt = ?, reserved_mt = ?, last_updated_by = ?, updated_at = ?
		 WHERE id = ?`,
		inv.AvailableMT,
		inv.ReservedMT,
		inv.LastUpdatedBy,
		inv.UpdatedAt,
		inv.ID,
	).Error
}

func (l *Ledger) appendHistory(ctx context.Context, tx *gorm.DB, inv *domain.Inventory, changeMT decimal.Decimal, reason string, actorID *int64) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO inventory_history (id, product_id, site_id, available_mt, reserved_mt, change_mt, reason, recorded_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.genID.Generate().Int64(),
		inv.ProductID,
		inv.SiteID,
		inv.AvailableMT,
		inv.ReservedMT,
		changeMT,
		reason,
		actorID,
		time.Now().UTC(),
	).Error
}
