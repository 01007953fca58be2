package sales

import (
	"time"

	"kasa-backend/internal/auth"
	"kasa-backend/internal/database"
	"kasa-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateSaleRequest struct {
	CustomerID *uint      `json:"customer_id"`
	Items      []CartLine `json:"items"`
	// Parasal alanlar istemci gösterimidir; sunucu hepsini kayıtlı
	// fiyatlardan yeniden hesaplar, total_amount sadece tutarlılık kontrolüne girer.
	Subtotal          float64  `json:"subtotal"`
	TaxAmount         float64  `json:"tax_amount"`
	DiscountAmount    float64  `json:"discount_amount"`
	TotalAmount       *float64 `json:"total_amount"`
	PaymentMethod     string   `json:"payment_method"`
	LoyaltyPointsUsed int      `json:"loyalty_points_used"`
	Note              string   `json:"note"`
}

var validPaymentMethods = map[models.PaymentMethod]bool{
	models.PaymentCash:     true,
	models.PaymentCard:     true,
	models.PaymentTransfer: true,
}

// POST /api/sales
func CreateSaleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		method := models.PaymentMethod(body.PaymentMethod)
		if !validPaymentMethods[method] {
			return fiber.NewError(fiber.StatusBadRequest, "payment_method cash, card veya transfer olmalı")
		}
		if body.LoyaltyPointsUsed < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "loyalty_points_used negatif olamaz")
		}

		result, err := svc.CompleteSale(CompleteSaleInput{
			Lines:           body.Items,
			CustomerID:      body.CustomerID,
			CashierID:       userID,
			PaymentMethod:   method,
			DiscountAmount:  body.DiscountAmount,
			PointsRequested: body.LoyaltyPointsUsed,
			ClientTotal:     body.TotalAmount,
			Note:            body.Note,
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"sale":    result.Sale,
			"items":   result.Sale.Items,
			"loyalty": result.Loyalty,
			"receipt": fiber.Map{
				"invoice_number": result.Sale.InvoiceNumber,
				"total_amount":   result.Sale.TotalAmount,
				"payment_method": result.Sale.PaymentMethod,
				"date":           result.Sale.CreatedAt.Format("2006-01-02 15:04:05"),
			},
		})
	}
}

// POST /api/sales/:id/refund
func RefundSaleHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		saleID, err := c.ParamsInt("id")
		if err != nil || saleID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz satış ID")
		}

		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		sale, err := svc.RefundSale(uint(saleID), userID)
		if err != nil {
			return err
		}

		return c.JSON(sale)
	}
}

// GET /api/sales
// Filtreler: from, to ("2006-01-02"), customer_id, status
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Preload("Items").Preload("Customer").Order("created_at DESC")

		if from := c.Query("from"); from != "" {
			d, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from formatı 'YYYY-MM-DD' olmalı")
			}
			q = q.Where("created_at >= ?", d)
		}
		if to := c.Query("to"); to != "" {
			d, err := time.Parse("2006-01-02", to)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to formatı 'YYYY-MM-DD' olmalı")
			}
			q = q.Where("created_at < ?", d.AddDate(0, 0, 1))
		}
		if customerID := c.QueryInt("customer_id"); customerID > 0 {
			q = q.Where("customer_id = ?", customerID)
		}
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}

		limit := c.QueryInt("limit", 100)
		if limit < 1 || limit > 500 {
			limit = 100
		}

		var salesList []models.Sale
		if err := q.Limit(limit).Find(&salesList).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar listelenemedi")
		}

		return c.JSON(salesList)
	}
}

// GET /api/sales/:id
func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		saleID, err := c.ParamsInt("id")
		if err != nil || saleID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz satış ID")
		}

		var sale models.Sale
		if err := database.DB.Preload("Items").Preload("Customer").
			First(&sale, "id = ?", saleID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Satış bulunamadı")
		}

		return c.JSON(sale)
	}
}
