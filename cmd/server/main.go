package main

import (
	"errors"
	"log"
	"strings"

	"kasa-backend/internal/admin"
	"kasa-backend/internal/auth"
	"kasa-backend/internal/config"
	"kasa-backend/internal/customer"
	"kasa-backend/internal/database"
	"kasa-backend/internal/events"
	"kasa-backend/internal/inventory"
	"kasa-backend/internal/loyalty"
	"kasa-backend/internal/models"
	"kasa-backend/internal/reports"
	"kasa-backend/internal/sales"
	"kasa-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

// errorHandler, domain hatalarını HTTP durum kodlarına çevirir. Stok ve puan
// yetersizliği 5xx değildir; istemcinin düzeltebileceği çakışmalardır.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	var insufficientStock *stock.InsufficientStockError
	if errors.As(err, &insufficientStock) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": insufficientStock.Error()})
	}

	var insufficientPoints *loyalty.InsufficientPointsError
	if errors.As(err, &insufficientPoints) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": insufficientPoints.Error()})
	}

	var lineErr *sales.LineItemError
	if errors.As(err, &lineErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": lineErr.Error()})
	}

	var priceMismatch *sales.PriceMismatchError
	if errors.As(err, &priceMismatch) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": priceMismatch.Error()})
	}

	switch {
	case errors.Is(err, sales.ErrEmptyCart),
		errors.Is(err, sales.ErrCustomerRequired),
		errors.Is(err, sales.ErrCustomerNotFound),
		errors.Is(err, sales.ErrDiscountExceedsTotal):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, stock.ErrVariantRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, sales.ErrSaleNotRefundable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Kayıt bulunamadı"})
	}

	log.Println("Beklenmeyen hata:", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Beklenmeyen sunucu hatası",
	})
}

func main() {
	cfg := config.Load()
	database.Init(cfg)

	relay := events.NewInProcessRelay()
	// Düşük stok uyarısı: satış sonrası bildirimlerin süreç içi tüketicisi.
	relay.Subscribe(func(ev events.Event) {
		payload, ok := ev.Payload.(events.InventoryUpdatedPayload)
		if !ok {
			return
		}
		var product models.Product
		if err := database.DB.First(&product, "id = ?", payload.ProductID).Error; err != nil {
			return
		}
		if product.StockQuantity <= product.MinStockLevel {
			log.Printf("[UYARI] Düşük stok: %s (%s) mevcut %d, minimum %d",
				product.Name, product.SKU, product.StockQuantity, product.MinStockLevel)
		}
	})

	calc := loyalty.NewCalculator(cfg)
	saleService := sales.NewService(database.DB, calc, relay, cfg.TaxRate, cfg.PriceEpsilon)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin: kullanıcı yönetimi
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))
	adminRoutes.Post("/users", admin.CreateUserHandler())
	adminRoutes.Get("/users", admin.ListUsersHandler())
	adminRoutes.Delete("/users/:id", admin.DeactivateUserHandler())

	// Ürün/stok yönetimi (admin + müdür)
	manage := protected.Group("")
	manage.Use(auth.RequireRole(models.RoleAdmin, models.RoleManager))
	manage.Post("/products", inventory.CreateProductHandler())
	manage.Put("/products/:id", inventory.UpdateProductHandler())
	manage.Delete("/products/:id", inventory.DeleteProductHandler())
	manage.Post("/products/:id/variants", inventory.CreateVariantHandler())
	manage.Put("/variants/:id", inventory.UpdateVariantHandler())
	manage.Post("/stock-adjustments", inventory.CreateStockAdjustmentHandler(relay))

	// İade (admin + müdür)
	manage.Post("/sales/:id/refund", sales.RefundSaleHandler(saleService))

	// Raporlar (admin + müdür)
	manage.Get("/reports/sales/daily", reports.DailySalesSummaryHandler())
	manage.Get("/reports/sales/monthly", reports.MonthlySalesSummaryHandler())
	manage.Get("/reports/products/top", reports.TopProductsHandler())
	manage.Get("/reports/sales/export", reports.ExportSalesHandler())

	// Kasa tarafı (tüm roller)
	protected.Get("/products", inventory.ListProductsHandler())
	protected.Get("/products/scan/:barcode", inventory.ScanProductHandler())
	protected.Get("/products/:id", inventory.GetProductHandler())
	protected.Get("/stock-adjustments", inventory.ListStockAdjustmentsHandler())
	protected.Get("/stock/low", inventory.LowStockHandler())

	protected.Post("/customers", customer.CreateCustomerHandler())
	protected.Get("/customers", customer.ListCustomersHandler())
	protected.Get("/customers/:id", customer.GetCustomerHandler())
	protected.Put("/customers/:id", customer.UpdateCustomerHandler())
	protected.Get("/customers/:id/loyalty", customer.LoyaltyHistoryHandler())

	protected.Post("/sales", sales.CreateSaleHandler(saleService))
	protected.Get("/sales", sales.ListSalesHandler())
	protected.Get("/sales/:id", sales.GetSaleHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
