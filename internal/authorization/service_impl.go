package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/pelletworks/pelletport/internal/audit/domain"
	authdomain "github.com/pelletworks/pelletport/internal/auth/domain"
)

//go:embed model.conf
var modelText string

const (
	ObjectOrder        = "order"
	ObjectOrderBatch   = "order_batch"
	ObjectInvoice      = "invoice"
	ObjectPayment      = "payment"
	ObjectInventory    = "inventory"
	ObjectProduct      = "product"
	ObjectSite         = "site"
	ObjectOrganization = "organization"
	ObjectUser         = "user"
	ObjectAuditLog     = "audit_log"
	ObjectReport       = "report"
)

const (
	ActionOrderCreate   = "order.create"
	ActionOrderView     = "order.view"
	ActionOrderAccept   = "order.accept"
	ActionOrderReject   = "order.reject"
	ActionBatchCreate   = "order_batch.create"
	ActionBatchStart    = "order_batch.start"
	ActionBatchComplete = "order_batch.complete"

	ActionInvoiceView     = "invoice.view"
	ActionInvoiceDownload = "invoice.download"

	ActionPaymentRecord = "payment.record"
	ActionPaymentVerify = "payment.verify"
	ActionPaymentView   = "payment.view"

	ActionInventoryView   = "inventory.view"
	ActionInventoryAdjust = "inventory.adjust"

	ActionProductView   = "product.view"
	ActionProductManage = "product.manage"

	ActionSiteView   = "site.view"
	ActionSiteManage = "site.manage"

	ActionOrganizationView   = "organization.view"
	ActionOrganizationManage = "organization.manage"

	ActionUserManage = "user.manage"

	ActionAuditLogView = "audit_log.view"

	ActionReportExport = "report.export"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role authdomain.Role, object string, action string) error {
	if _, ok := authdomain.ParseRole(string(role)); !ok {
		return ErrInvalidRole
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := roleSubject(role)
	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, object, action)
		return ErrForbidden
	}
	return nil
}

func roleSubject(role authdomain.Role) string {
	return fmt.Sprintf("role:%s", strings.ToLower(string(role)))
}

func (s *ServiceImpl) auditDenied(ctx context.Context, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	s.auditSvc.Record(ctx, "authorization.denied", "authorization", action, map[string]any{
		"object": object,
		"action": action,
	})
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Buyers place orders and settle their invoices.
		{"role:buyer", ObjectOrder, ActionOrderCreate},
		{"role:buyer", ObjectOrder, ActionOrderView},
		{"role:buyer", ObjectInvoice, ActionInvoiceView},
		{"role:buyer", ObjectInvoice, ActionInvoiceDownload},
		{"role:buyer", ObjectPayment, ActionPaymentRecord},
		{"role:buyer", ObjectPayment, ActionPaymentView},
		{"role:buyer", ObjectProduct, ActionProductView},

		// Ops run the order workflow and the stock ledger.
		{"role:ops", ObjectOrder, ActionOrderView},
		{"role:ops", ObjectOrder, ActionOrderAccept},
		{"role:ops", ObjectOrder, ActionOrderReject},
		{"role:ops", ObjectOrderBatch, ActionBatchCreate},
		{"role:ops", ObjectOrderBatch, ActionBatchStart},
		{"role:ops", ObjectOrderBatch, ActionBatchComplete},
		{"role:ops", ObjectInvoice, ActionInvoiceView},
		{"role:ops", ObjectInventory, ActionInventoryView},
		{"role:ops", ObjectInventory, ActionInventoryAdjust},
		{"role:ops", ObjectProduct, ActionProductView},
		{"role:ops", ObjectSite, ActionSiteView},

		// Finance verify payments and read money trails.
		{"role:finance", ObjectOrder, ActionOrderView},
		{"role:finance", ObjectInvoice, ActionInvoiceView},
		{"role:finance", ObjectInvoice, ActionInvoiceDownload},
		{"role:finance", ObjectPayment, ActionPaymentRecord},
		{"role:finance", ObjectPayment, ActionPaymentVerify},
		{"role:finance", ObjectPayment, ActionPaymentView},
		{"role:finance", ObjectAuditLog, ActionAuditLogView},
		{"role:finance", ObjectReport, ActionReportExport},

		// Admin-only surfaces.
		{"role:admin", ObjectProduct, ActionProductManage},
		{"role:admin", ObjectSite, ActionSiteManage},
		{"role:admin", ObjectOrganization, ActionOrganizationView},
		{"role:admin", ObjectOrganization, ActionOrganizationManage},
		{"role:admin", ObjectUser, ActionUserManage},
	}

	grouping := [][]string{
		// Admin inherits every other role.
		{"role:admin", "role:ops"},
		{"role:admin", "role:finance"},
		{"role:admin", "role:buyer"},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	for _, rule := range grouping {
		if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
			return err
		}
	}
	return nil
}
