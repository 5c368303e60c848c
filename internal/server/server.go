package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/pelletworks/pelletport/internal/audit"
	auditdomain "github.com/pelletworks/pelletport/internal/audit/domain"
	"github.com/pelletworks/pelletport/internal/auth"
	authdomain "github.com/pelletworks/pelletport/internal/auth/domain"
	"github.com/pelletworks/pelletport/internal/auth/session"
	"github.com/pelletworks/pelletport/internal/authorization"
	"github.com/pelletworks/pelletport/internal/config"
	"github.com/pelletworks/pelletport/internal/inventory"
	inventorydomain "github.com/pelletworks/pelletport/internal/inventory/domain"
	"github.com/pelletworks/pelletport/internal/invoice"
	invoicedomain "github.com/pelletworks/pelletport/internal/invoice/domain"
	"github.com/pelletworks/pelletport/internal/observability"
	obslogger "github.com/pelletworks/pelletport/internal/observability/logger"
	obstracing "github.com/pelletworks/pelletport/internal/observability/tracing"
	"github.com/pelletworks/pelletport/internal/order"
	orderdomain "github.com/pelletworks/pelletport/internal/order/domain"
	"github.com/pelletworks/pelletport/internal/organization"
	organizationdomain "github.com/pelletworks/pelletport/internal/organization/domain"
	"github.com/pelletworks/pelletport/internal/payment"
	paymentdomain "github.com/pelletworks/pelletport/internal/payment/domain"
	"github.com/pelletworks/pelletport/internal/product"
	productdomain "github.com/pelletworks/pelletport/internal/product/domain"
	"github.com/pelletworks/pelletport/internal/providers"
	"github.com/pelletworks/pelletport/internal/providers/pdf"
	"github.com/pelletworks/pelletport/internal/providers/storage"
	"github.com/pelletworks/pelletport/internal/site"
	sitedomain "github.com/pelletworks/pelletport/internal/site/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	auth.Module,
	organization.Module,
	site.Module,
	product.Module,
	inventory.Module,
	invoice.Module,
	order.Module,
	payment.Module,
	providers.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	db              *gorm.DB
	genID           *snowflake.Node
	sessions        *session.Manager
	authsvc         authdomain.Service
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	organizationSvc organizationdomain.Service
	siteSvc         sitedomain.Service
	productSvc      productdomain.Service
	inventorySvc    inventorydomain.Service
	orderSvc        orderdomain.Service
	invoiceSvc      invoicedomain.Service
	paymentSvc      paymentdomain.Service
	pdfRenderer     pdf.Provider
	proofStore      storage.ProofStore
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	DB              *gorm.DB
	GenID           *snowflake.Node
	Sessions        *session.Manager
	Authsvc         authdomain.Service
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	OrganizationSvc organizationdomain.Service
	SiteSvc         sitedomain.Service
	ProductSvc      productdomain.Service
	InventorySvc    inventorydomain.Service
	OrderSvc        orderdomain.Service
	InvoiceSvc      invoicedomain.Service
	PaymentSvc      paymentdomain.Service
	PDFRenderer     pdf.Provider
	ProofStore      storage.ProofStore
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		db:              p.DB,
		genID:           p.GenID,
		sessions:        p.Sessions,
		authsvc:         p.Authsvc,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		organizationSvc: p.OrganizationSvc,
		siteSvc:         p.SiteSvc,
		productSvc:      p.ProductSvc,
		inventorySvc:    p.InventorySvc,
		orderSvc:        p.OrderSvc,
		invoiceSvc:      p.InvoiceSvc,
		paymentSvc:      p.PaymentSvc,
		pdfRenderer:     p.PDFRenderer,
		proofStore:      p.ProofStore,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")
	api.Use(s.AuthRequired())

	// -------- Users --------
	api.POST("/users", s.Authorize(authorization.ObjectUser, authorization.ActionUserManage), s.CreateUser)
	api.GET("/users", s.Authorize(authorization.ObjectUser, authorization.ActionUserManage), s.ListUsers)
	api.PATCH("/users/:id/active", s.Authorize(authorization.ObjectUser, authorization.ActionUserManage), s.SetUserActive)

	// -------- Organizations --------
	api.POST("/organizations", s.Authorize(authorization.ObjectOrganization, authorization.ActionOrganizationManage), s.CreateOrganization)
	api.GET("/organizations", s.Authorize(authorization.ObjectOrganization, authorization.ActionOrganizationView), s.ListOrganizations)
	api.GET("/organizations/:id", s.Authorize(authorization.ObjectOrganization, authorization.ActionOrganizationView), s.GetOrganizationByID)
	api.PATCH("/organizations/:id", s.Authorize(authorization.ObjectOrganization, authorization.ActionOrganizationManage), s.UpdateOrganization)

	// -------- Sites --------
	api.POST("/sites", s.Authorize(authorization.ObjectSite, authorization.ActionSiteManage), s.CreateSite)
	api.GET("/sites", s.Authorize(authorization.ObjectSite, authorization.ActionSiteView), s.ListSites)
	api.GET("/sites/:id", s.Authorize(authorization.ObjectSite, authorization.ActionSiteView), s.GetSiteByID)
	api.PATCH("/sites/:id", s.Authorize(authorization.ObjectSite, authorization.ActionSiteManage), s.UpdateSite)

	// -------- Products --------
	api.POST("/products", s.Authorize(authorization.ObjectProduct, authorization.ActionProductManage), s.CreateProduct)
	api.GET("/products", s.Authorize(authorization.ObjectProduct, authorization.ActionProductView), s.ListProducts)
	api.GET("/products/:id", s.Authorize(authorization.ObjectProduct, authorization.ActionProductView), s.GetProductByID)
	api.PATCH("/products/:id", s.Authorize(authorization.ObjectProduct, authorization.ActionProductManage), s.UpdateProduct)

	// -------- Inventory --------
	api.PUT("/inventory", s.Authorize(authorization.ObjectInventory, authorization.ActionInventoryAdjust), s.SetInventory)
	api.GET("/inventory", s.Authorize(authorization.ObjectInventory, authorization.ActionInventoryView), s.ListInventory)
	api.GET("/inventory/history", s.Authorize(authorization.ObjectInventory, authorization.ActionInventoryView), s.ListInventoryHistory)

	// -------- Orders --------
	api.POST("/orders", s.Authorize(authorization.ObjectOrder, authorization.ActionOrderCreate), s.CreateOrder)
	api.GET("/orders", s.Authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.ListOrders)
	api.GET("/orders/:id", s.Authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.GetOrderByID)
	api.POST("/orders/:id/accept", s.Authorize(authorization.ObjectOrder, authorization.ActionOrderAccept), s.AcceptOrder)
	api.POST("/orders/:id/reject", s.Authorize(authorization.ObjectOrder, authorization.ActionOrderReject), s.RejectOrder)

	// -------- Batches --------
	api.POST("/orders/:id/batches", s.Authorize(authorization.ObjectOrderBatch, authorization.ActionBatchCreate), s.CreateOrderBatch)
	api.POST("/batches/:id/start", s.Authorize(authorization.ObjectOrderBatch, authorization.ActionBatchStart), s.StartOrderBatch)
	api.POST("/batches/:id/complete", s.Authorize(authorization.ObjectOrderBatch, authorization.ActionBatchComplete), s.CompleteOrderBatch)

	// -------- Invoices --------
	api.GET("/invoices", s.Authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.ListInvoices)
	api.GET("/invoices/:id", s.Authorize(authorization.ObjectInvoice, authorization.ActionInvoiceView), s.GetInvoiceByID)
	api.GET("/invoices/:id/pdf", s.Authorize(authorization.ObjectInvoice, authorization.ActionInvoiceDownload), s.DownloadInvoicePDF)

	// -------- Payments --------
	api.POST("/invoices/:id/payments", s.Authorize(authorization.ObjectPayment, authorization.ActionPaymentRecord), s.RecordPayment)
	api.GET("/payments", s.Authorize(authorization.ObjectPayment, authorization.ActionPaymentView), s.ListPayments)
	api.GET("/payments/:id", s.Authorize(authorization.ObjectPayment, authorization.ActionPaymentView), s.GetPaymentByID)
	api.POST("/payments/:id/verify", s.Authorize(authorization.ObjectPayment, authorization.ActionPaymentVerify), s.VerifyPayment)
	api.POST("/payments/:id/proof", s.Authorize(authorization.ObjectPayment, authorization.ActionPaymentRecord), s.UploadPaymentProof)

	// -------- Audit --------
	api.GET("/audit-logs", s.Authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)

	// -------- Reports --------
	api.GET("/reports/payments.xlsx", s.Authorize(authorization.ObjectReport, authorization.ActionReportExport), s.ExportPaymentsReport)
	api.GET("/reports/orders.xlsx", s.Authorize(authorization.ObjectReport, authorization.ActionReportExport), s.ExportOrdersReport)
}
