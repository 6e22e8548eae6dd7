package main

import (
	"context"
	"time"

	"github.com/apex/log"
	"gorm.io/gorm"

	"claimdesk/internal/config"
	"claimdesk/internal/database"
	"claimdesk/internal/domain/claim"
	"claimdesk/internal/domain/client"
	"claimdesk/internal/domain/invoice"
	"claimdesk/internal/domain/product"
	"claimdesk/internal/pkg/logger"
	"claimdesk/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db connection failed")
	}

	log.Info("running migrations")
	if err := database.Migrate(db, server.Models()...); err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	log.Info("cleaning old data")
	// Children first so foreign keys hold.
	for _, table := range []string{
		"checklist_items", "checklists", "claim_documents", "claim_products", "claims",
		"invoice_items", "invoices", "products", "clients",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.WithError(err).WithField("table", table).Fatal("cleanup failed")
		}
	}

	ctx := context.Background()

	log.Info("creating clients")
	clients := []client.Client{
		{Name: "Acme Flooring", Code: "ACME"},
		{Name: "Bayside Interiors", Code: "BAYS"},
		{Name: "Northwind Contract", Code: "NWND"},
	}
	mustCreate(db, &clients)

	log.Info("creating catalog")
	products := []product.Product{
		{Code: "T-100-GR", Style: "Tundra", StyleNumber: "100", Color: "Granite", ColorNumber: "GR", Description: "Tundra Granite", Format: "24x24 tile"},
		{Code: "T-100-AS", Style: "Tundra", StyleNumber: "100", Color: "Ash", ColorNumber: "AS", Description: "Tundra Ash", Format: "24x24 tile"},
		{Code: "B-200-SA", Style: "Bayside", StyleNumber: "200", Color: "Sand", ColorNumber: "SA", Description: "Bayside Sand", Format: "12ft broadloom"},
	}
	mustCreate(db, &products)

	log.Info("creating invoice")
	rate := 1.0
	inv := invoice.Invoice{
		InvoiceNumber: "INV-2024-0077",
		ClientID:      clients[0].ID,
		InvoiceDate:   time.Now().UTC().AddDate(0, -2, 0),
		Currency:      "USD",
		ExchangeRate:  &rate,
		TotalAmount:   2750,
		Items: []invoice.Item{
			{ProductID: products[0].ID, ItemDescription: "Tundra Granite", UnitSellingPrice: 25, UnitCostPrice: 18, Quantity: 100, TotalPrice: 2500, TotalCost: 1800, TotalProfit: 700, ProfitPercentage: 28},
			{ProductID: products[2].ID, ItemDescription: "Bayside Sand", UnitSellingPrice: 25, UnitCostPrice: 17, Quantity: 10, TotalPrice: 250, TotalCost: 170, TotalProfit: 80, ProfitPercentage: 32},
		},
	}
	if err := invoice.NewRepository(db).Create(ctx, &inv); err != nil {
		log.WithError(err).Fatal("invoice create failed")
	}

	log.Info("creating claims")
	svc := server.NewServices(cfg, db, nil)
	if _, err := svc.Store.FetchAll(ctx); err != nil {
		log.WithError(err).Fatal("claims load failed")
	}

	now := time.Now().UTC()
	link := "https://erp.example.com/invoices/" + inv.InvoiceNumber
	cause := "Adhesive failure"
	installer := "Pro Installs Ltd"
	installedOn := now.AddDate(0, -1, -10)

	seeds := []struct {
		input    claim.ClaimInput
		products []claim.ProductRequest
	}{
		{
			input: claim.ClaimInput{
				ClientID:         clients[0].ID,
				CreationDate:     now.AddDate(0, 0, -45),
				Status:           claim.StatusAnalyzing,
				Department:       claim.DepartmentSales,
				ClaimCategory:    claim.CategoryManufacturingDefect,
				ProductCategory:  claim.ProductCategoryTiles,
				IdentifiedCause:  &cause,
				InvoiceLink:      &link,
				Installed:        true,
				InstallationDate: &installedOn,
				InstallerName:    &installer,
				ClaimedAmount:    2500,
				SolutionAmount:   1200,
			},
			products: []claim.ProductRequest{
				// Invoiced at 25.00: raises a price discrepancy.
				{Description: "Tundra Granite", Style: "Tundra", Color: "Granite", Quantity: 100, PricePerSY: 27.5, TotalPrice: 2750, ClaimedQuantity: 80},
			},
		},
		{
			input: claim.ClaimInput{
				ClientID:        clients[1].ID,
				CreationDate:    now.AddDate(0, 0, -3),
				Status:          claim.StatusNew,
				Department:      claim.DepartmentCustomerService,
				ClaimCategory:   claim.CategoryShippingIssue,
				ProductCategory: claim.ProductCategoryBroadloom,
				ClaimedAmount:   640,
			},
			products: []claim.ProductRequest{
				{Description: "Bayside Sand", Style: "Bayside", Color: "Sand", Quantity: 20, PricePerSY: 32, TotalPrice: 640, ClaimedQuantity: 24},
			},
		},
		{
			input: claim.ClaimInput{
				ClientID:        clients[2].ID,
				CreationDate:    now.AddDate(0, -3, 0),
				Status:          claim.StatusClosed,
				Department:      claim.DepartmentProductionBelleville,
				ClaimCategory:   claim.CategoryAppearanceOrPerformance,
				ProductCategory: claim.ProductCategoryTiles,
				ClaimedAmount:   900,
				SolutionAmount:  450,
			},
		},
	}

	for _, s := range seeds {
		c, err := svc.Store.Create(ctx, s.input)
		if err != nil {
			log.WithError(err).Fatal("claim create failed")
		}
		for i := range s.products {
			if _, err := svc.Claims.AddProduct(ctx, c.ID, &s.products[i]); err != nil {
				log.WithError(err).WithField("claim_number", c.ClaimNumber).Fatal("claim product create failed")
			}
		}
		log.WithField("claim_number", c.ClaimNumber).Info("claim created")
	}

	res, err := svc.Claims.RecomputeAll(ctx)
	if err != nil {
		log.WithError(err).Fatal("alert evaluation failed")
	}
	log.WithFields(log.Fields{
		"clients":     len(clients),
		"products":    len(products),
		"claims":      res.Checked,
		"with_alerts": res.WithAlerts,
	}).Info("seed completed")
}

func mustCreate[T any](db *gorm.DB, rows *[]T) {
	if err := db.Create(rows).Error; err != nil {
		log.WithError(err).Fatal("insert failed")
	}
}
