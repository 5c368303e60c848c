package authorization_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	authdomain "github.com/pelletworks/pelletport/internal/auth/domain"
	"github.com/pelletworks/pelletport/internal/authorization"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuthz(t *testing.T) authorization.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_authz_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	enforcer, err := authorization.NewEnforcer(db)
	require.NoError(t, err)

	return authorization.NewService(authorization.Params{
		Log:      zap.NewNop(),
		Enforcer: enforcer,
	})
}

func TestBuyerPermissions(t *testing.T) {
	ctx := context.Background()
	svc := newAuthz(t)

	require.NoError(t, svc.Authorize(ctx, authdomain.RoleBuyer, authorization.ObjectOrder, authorization.ActionOrderCreate))
	require.NoError(t, svc.Authorize(ctx, authdomain.RoleBuyer, authorization.ObjectInvoice, authorization.ActionInvoiceDownload))
	require.NoError(t, svc.Authorize(ctx, authdomain.RoleBuyer, authorization.ObjectPayment, authorization.ActionPaymentRecord))

	require.ErrorIs(t, svc.Authorize(ctx, authdomain.RoleBuyer, authorization.ObjectOrder, authorization.ActionOrderAccept), authorization.ErrForbidden)
	require.ErrorIs(t, svc.Authorize(ctx, authdomain.RoleBuyer, authorization.ObjectPayment, authorization.ActionPaymentVerify), authorization.ErrForbidden)
	require.ErrorIs(t, svc.Authorize(ctx, authdomain.RoleBuyer, authorization.ObjectInventory, authorization.ActionInventoryAdjust), authorization.ErrForbidden)
}

func TestOpsPermissions(t *testing.T) {
	ctx := context.Background()
	svc := newAuthz(t)

	require.NoError(t, svc.Authorize(ctx, authdomain.RoleOps, authorization.ObjectOrder, authorization.ActionOrderAccept))
	require.NoError(t, svc.Authorize(ctx, authdomain.RoleOps, authorization.ObjectOrderBatch, authorization.ActionBatchStart))
	require.NoError(t, svc.Authorize(ctx, authdomain.RoleOps, authorization.ObjectInventory, authorization.ActionInventoryAdjust))

	require.ErrorIs(t, svc.Authorize(ctx, authdomain.RoleOps, authorization.ObjectPayment, authorization.ActionPaymentVerify), authorization.ErrForbidden)
	require.ErrorIs(t, svc.Authorize(ctx, authdomain.RoleOps, authorization.ObjectUser, authorization.ActionUserManage), authorization.ErrForbidden)
}

func TestFinancePermissions(t *testing.T) {
	ctx := context.Background()
	svc := newAuthz(t)

	require.NoError(t, svc.Authorize(ctx, authdomain.RoleFinance, authorization.ObjectPayment, authorization.ActionPaymentVerify))
	require.NoError(t, svc.Authorize(ctx, authdomain.RoleFinance, authorization.ObjectAuditLog, authorization.ActionAuditLogView))
	require.NoError(t, svc.Authorize(ctx, authdomain.RoleFinance, authorization.ObjectReport, authorization.ActionReportExport))

	require.ErrorIs(t, svc.Authorize(ctx, authdomain.RoleFinance, authorization.ObjectOrder, authorization.ActionOrderAccept), authorization.ErrForbidden)
	require.ErrorIs(t, svc.Authorize(ctx, authdomain.RoleFinance, authorization.ObjectOrderBatch, authorization.ActionBatchStart), authorization.ErrForbidden)
}

func TestAdminInheritsAllRoles(t *testing.T) {
	ctx := context.Background()
	svc := newAuthz(t)

	require.NoError(t, svc.Authorize(ctx, authdomain.RoleAdmin, authorization.ObjectOrder, authorization.ActionOrderCreate))
	require.NoError(t, svc.Authorize(ctx, authdomain.RoleAdmin, authorization.ObjectOrder, authorization.ActionOrderAccept))
	require.NoError(t, svc.Authorize(ctx, authdomain.RoleAdmin, authorization.ObjectPayment, authorization.ActionPaymentVerify))
	require.NoError(t, svc.Authorize(ctx, authdomain.RoleAdmin, authorization.ObjectUser, authorization.ActionUserManage))
	require.NoError(t, svc.Authorize(ctx, authdomain.RoleAdmin, authorization.ObjectProduct, authorization.ActionProductManage))
}

func TestAuthorizeRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := newAuthz(t)

	require.ErrorIs(t, svc.Authorize(ctx, authdomain.Role("SUPERUSER"), authorization.ObjectOrder, authorization.ActionOrderView), authorization.ErrInvalidRole)
	require.ErrorIs(t, svc.Authorize(ctx, authdomain.RoleAdmin, "", authorization.ActionOrderView), authorization.ErrInvalidObject)
	require.ErrorIs(t, svc.Authorize(ctx, authdomain.RoleAdmin, authorization.ObjectOrder, ""), authorization.ErrInvalidAction)
}
