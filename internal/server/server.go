package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"claimdesk/internal/config"
	"claimdesk/internal/domain/analytics"
	"claimdesk/internal/domain/chat"
	"claimdesk/internal/domain/checklist"
	"claimdesk/internal/domain/claim"
	"claimdesk/internal/domain/client"
	"claimdesk/internal/domain/dataimport"
	"claimdesk/internal/domain/invoice"
	"claimdesk/internal/domain/product"
	"claimdesk/internal/middleware"
	"claimdesk/internal/pkg/metrics"
	"claimdesk/internal/pkg/response"
)

// Models lists every persisted type, parents before children.
func Models() []any {
	return []any{
		&client.Client{},
		&product.Product{},
		&invoice.Invoice{},
		&invoice.Item{},
		&claim.Claim{},
		&claim.Product{},
		&claim.Document{},
		&checklist.Checklist{},
		&checklist.Item{},
	}
}

// Services is the wired application graph shared by the API and batch jobs.
type Services struct {
	Clients    *client.Service
	Products   *product.Repository
	Invoices   *invoice.Repository
	Store      *claim.Store
	Claims     *claim.Service
	Checklists *checklist.Service
	Import     *dataimport.Service
	Chat       *chat.Service
}

// NewServices wires repositories and services over db. A nil streamer uses
// the OpenAI client from cfg.
func NewServices(cfg *config.Config, db *gorm.DB, streamer chat.Streamer) *Services {
	clientRepo := client.NewRepository(db)
	productRepo := product.NewRepository(db)
	invoiceRepo := invoice.NewRepository(db)
	claimRepo := claim.NewRepository(db)

	store := claim.NewStore(claimRepo, clientRepo, cfg.StoreTimeout)
	evaluator := claim.NewAlertEvaluator(claim.AlertConfig{
		DelayThreshold: cfg.Alerts.DelayThreshold,
		PriceTolerance: cfg.Alerts.PriceTolerance,
	}, invoice.NewResolver(invoiceRepo))

	if streamer == nil {
		streamer = chat.NewClient(cfg.OpenAI)
	}

	return &Services{
		Clients:    client.NewService(clientRepo),
		Products:   productRepo,
		Invoices:   invoiceRepo,
		Store:      store,
		Claims:     claim.NewService(store, claimRepo, evaluator),
		Checklists: checklist.NewService(db, claimRepo),
		Import:     dataimport.NewService(db),
		Chat:       chat.NewService(streamer, store),
	}
}

// NewRouter assembles middleware and every route under /api/v1.
func NewRouter(cfg *config.Config, svc *Services) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorLogger(), middleware.CORS(cfg.CORSOrigins))

	if cfg.MetricsEnabled {
		r.Use(metrics.Middleware())
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		state := svc.Store.State()
		response.Success(c, http.StatusOK, gin.H{
			"status":        "ok",
			"claims_loaded": state.Loaded,
			"claims":        len(state.Claims),
		})
	})

	v1 := r.Group("/api/v1")
	client.RegisterRoutes(v1, client.NewHandler(svc.Clients))
	product.RegisterRoutes(v1, product.NewHandler(svc.Products))
	invoice.RegisterRoutes(v1, invoice.NewHandler(svc.Invoices))
	claim.RegisterRoutes(v1, claim.NewHandler(svc.Claims))
	analytics.RegisterRoutes(v1, analytics.NewHandler(svc.Store))
	checklist.RegisterRoutes(v1, checklist.NewHandler(svc.Checklists))
	dataimport.RegisterRoutes(v1, dataimport.NewHandler(svc.Import))

	limiter := middleware.NewIPRateLimiter(cfg.ChatRateLimit, cfg.ChatRateBurst)
	chat.RegisterRoutes(v1, chat.NewHandler(svc.Chat, cfg.CORSOrigins, limiter), limiter.Middleware())

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})
	return r
}
