package ledger_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pelletworks/pelletport/internal/inventory/domain"
	"github.com/pelletworks/pelletport/internal/inventory/ledger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE inventories (
			id BIGINT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			site_id BIGINT NOT NULL,
			available_mt NUMERIC NOT NULL,
			reserved_mt NUMERIC NOT NULL,
			last_updated_by BIGINT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_inventories_product_site ON inventories(product_id, site_id)`,
		`CREATE TABLE inventory_history (
			id BIGINT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			site_id BIGINT NOT NULL,
			available_mt NUMERIC NOT NULL,
			reserved_mt NUMERIC NOT NULL,
			change_mt NUMERIC NOT NULL,
			reason TEXT NOT NULL,
			recorded_by BIGINT,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newLedger(t *testing.T) domain.Ledger {
	t.Helper()
	node, err := snowflake.NewNode(21)
	require.NoError(t, err)
	return ledger.New(ledger.Params{Log: zap.NewNop(), GenID: node})
}

func seedInventory(t *testing.T, db *gorm.DB, productID, siteID int64, available string) {
	t.Helper()
	now := time.Now().UTC()
	err := db.Exec(
		`INSERT INTO inventories (id, product_id, site_id, available_mt, reserved_mt, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)`,
		time.Now().UnixNano(), productID, siteID, available, now, now,
	).Error
	require.NoError(t, err)
}

func TestReserveDebitsAvailable(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	l := newLedger(t)

	seedInventory(t, db, 1, 2, "150")

	err := db.Transaction(func(tx *gorm.DB) error {
		inv, err := l.Reserve(ctx, tx, 1, 2, decimal.NewFromInt(100), nil)
		require.NoError(t, err)
		require.True(t, inv.AvailableMT.Equal(decimal.NewFromInt(50)))
		require.True(t, inv.ReservedMT.Equal(decimal.NewFromInt(100)))
		return nil
	})
	require.NoError(t, err)

	var inv domain.Inventory
	require.NoError(t, db.First(&inv, "product_id = ? AND site_id = ?", 1, 2).Error)
	require.True(t, inv.AvailableMT.Equal(decimal.NewFromInt(50)))
	require.True(t, inv.ReservedMT.Equal(decimal.NewFromInt(100)))

	var historyCount int64
	require.NoError(t, db.Model(&domain.InventoryHistory{}).Count(&historyCount).Error)
	require.EqualValues(t, 1, historyCount)
}

func TestReserveInsufficientInventory(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	l := newLedger(t)

	seedInventory(t, db, 1, 2, "10")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := l.Reserve(ctx, tx, 1, 2, decimal.NewFromInt(50), nil)
		return err
	})
	require.ErrorIs(t, err, domain.ErrInsufficientInventory)

	var inv domain.Inventory
	require.NoError(t, db.First(&inv, "product_id = ? AND site_id = ?", 1, 2).Error)
	require.True(t, inv.AvailableMT.Equal(decimal.NewFromInt(10)))
	require.True(t, inv.ReservedMT.IsZero())

	var historyCount int64
	require.NoError(t, db.Model(&domain.InventoryHistory{}).Count(&historyCount).Error)
	require.Zero(t, historyCount)
}

func TestReserveNotInitialized(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	l := newLedger(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := l.Reserve(ctx, tx, 7, 8, decimal.NewFromInt(1), nil)
		return err
	})
	require.ErrorIs(t, err, domain.ErrInventoryNotInitialized)
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	l := newLedger(t)

	seedInventory(t, db, 1, 2, "10")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := l.Reserve(ctx, tx, 1, 2, decimal.Zero, nil)
		return err
	})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestReleaseRestoresAvailable(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	l := newLedger(t)

	seedInventory(t, db, 1, 2, "100")

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := l.Reserve(ctx, tx, 1, 2, decimal.NewFromInt(60), nil); err != nil {
			return err
		}
		inv, err := l.Release(ctx, tx, 1, 2, decimal.NewFromInt(60), nil)
		require.NoError(t, err)
		require.True(t, inv.AvailableMT.Equal(decimal.NewFromInt(100)))
		require.True(t, inv.ReservedMT.IsZero())
		return nil
	})
	require.NoError(t, err)
}

func TestReleaseClampsReservedAtZero(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	l := newLedger(t)

	seedInventory(t, db, 1, 2, "100")

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := l.Reserve(ctx, tx, 1, 2, decimal.NewFromInt(20), nil); err != nil {
			return err
		}
		// Double release must not drive the reserved pool negative.
		if _, err := l.Release(ctx, tx, 1, 2, decimal.NewFromInt(20), nil); err != nil {
			return err
		}
		inv, err := l.Release(ctx, tx, 1, 2, decimal.NewFromInt(20), nil)
		require.NoError(t, err)
		require.True(t, inv.ReservedMT.IsZero())
		return nil
	})
	require.NoError(t, err)
}

func TestConservationAcrossReserveRelease(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	l := newLedger(t)

	seedInventory(t, db, 1, 2, "500")
	total := decimal.NewFromInt(500)

	steps := []struct {
		reserve bool
		qty     int64
	}{
		{true, 120}, {true, 80}, {false, 50}, {true, 200}, {false, 130}, {true, 60},
	}
	for _, step := range steps {
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			if step.reserve {
				_, err = l.Reserve(ctx, tx, 1, 2, decimal.NewFromInt(step.qty), nil)
			} else {
				_, err = l.Release(ctx, tx, 1, 2, decimal.NewFromInt(step.qty), nil)
			}
			return err
		})
		require.NoError(t, err)

		var inv domain.Inventory
		require.NoError(t, db.First(&inv, "product_id = ? AND site_id = ?", 1, 2).Error)
		require.True(t, inv.AvailableMT.Add(inv.ReservedMT).Equal(total),
			"available %s + reserved %s must equal %s", inv.AvailableMT, inv.ReservedMT, total)
		require.False(t, inv.AvailableMT.IsNegative())
		require.False(t, inv.ReservedMT.IsNegative())
	}
}
