package reports

import (
	"fmt"
	"time"

	"kasa-backend/internal/database"
	"kasa-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type paymentBreakdownRow struct {
	PaymentMethod string  `json:"payment_method"`
	Count         int64   `json:"count"`
	Total         float64 `json:"total"`
}

type salesSummary struct {
	Count          int64   `json:"count"`
	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"tax_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	TotalAmount    float64 `json:"total_amount"`
}

// GET /api/reports/sales/daily?date=2025-12-09
func DailySalesSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dateStr := c.Query("date")
		if dateStr == "" {
			dateStr = time.Now().Format("2006-01-02")
		}
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date formatı 'YYYY-MM-DD' olmalı")
		}
		next := day.AddDate(0, 0, 1)

		var summary salesSummary
		if err := database.DB.Model(&models.Sale{}).
			Select("COUNT(*) as count, COALESCE(SUM(subtotal),0) as subtotal, COALESCE(SUM(tax_amount),0) as tax_amount, COALESCE(SUM(discount_amount),0) as discount_amount, COALESCE(SUM(total_amount),0) as total_amount").
			Where("status = ? AND created_at >= ? AND created_at < ?", models.SaleCompleted, day, next).
			Scan(&summary).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		var breakdown []paymentBreakdownRow
		if err := database.DB.Model(&models.Sale{}).
			Select("payment_method, COUNT(*) as count, COALESCE(SUM(total_amount),0) as total").
			Where("status = ? AND created_at >= ? AND created_at < ?", models.SaleCompleted, day, next).
			Group("payment_method").
			Scan(&breakdown).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ödeme dağılımı hesaplanamadı")
		}

		var refundedCount int64
		database.DB.Model(&models.Sale{}).
			Where("status = ? AND created_at >= ? AND created_at < ?", models.SaleRefunded, day, next).
			Count(&refundedCount)

		return c.JSON(fiber.Map{
			"date":           dateStr,
			"summary":        summary,
			"by_payment":     breakdown,
			"refunded_count": refundedCount,
		})
	}
}

// GET /api/reports/sales/monthly?year=2025&month=12
// Gün bazlı satış toplamları.
func MonthlySalesSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		year := c.QueryInt("year")
		month := c.QueryInt("month")
		if year < 2000 || month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "year ve month zorunlu")
		}

		loc := time.Now().Location()
		firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
		nextMonth := firstDay.AddDate(0, 1, 0)

		type dayRow struct {
			Day         string  `json:"day"`
			Count       int64   `json:"count"`
			TotalAmount float64 `json:"total_amount"`
		}

		var rows []dayRow
		if err := database.DB.Model(&models.Sale{}).
			Select("DATE(created_at) as day, COUNT(*) as count, COALESCE(SUM(total_amount),0) as total_amount").
			Where("status = ? AND created_at >= ? AND created_at < ?", models.SaleCompleted, firstDay, nextMonth).
			Group("DATE(created_at)").
			Order("day ASC").
			Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Aylık özet hesaplanamadı")
		}

		return c.JSON(fiber.Map{
			"year":  year,
			"month": month,
			"rows":  rows,
		})
	}
}

// GET /api/reports/products/top?from=...&to=...&limit=10
// Satış adedine göre en çok satan ürünler.
func TopProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := parseRange(c)
		if err != nil {
			return err
		}

		limit := c.QueryInt("limit", 10)
		if limit < 1 || limit > 100 {
			limit = 10
		}

		type topRow struct {
			ProductID   uint    `json:"product_id"`
			ProductName string  `json:"product_name"`
			SKU         string  `json:"sku"`
			Quantity    int64   `json:"quantity"`
			Revenue     float64 `json:"revenue"`
		}

		var rows []topRow
		if err := database.DB.Model(&models.SaleItem{}).
			Select("sale_items.product_id, products.name as product_name, products.sku, SUM(sale_items.quantity) as quantity, COALESCE(SUM(sale_items.total_price),0) as revenue").
			Joins("JOIN sales ON sales.id = sale_items.sale_id").
			Joins("JOIN products ON products.id = sale_items.product_id").
			Where("sales.status = ? AND sales.created_at >= ? AND sales.created_at < ?", models.SaleCompleted, from, to).
			Group("sale_items.product_id, products.name, products.sku").
			Order("quantity DESC").
			Limit(limit).
			Scan(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün raporu hesaplanamadı")
		}

		return c.JSON(fiber.Map{
			"from": from.Format("2006-01-02"),
			"to":   to.AddDate(0, 0, -1).Format("2006-01-02"),
			"rows": rows,
		})
	}
}

func parseRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "from ve to zorunlu")
	}

	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "from formatı 'YYYY-MM-DD' olmalı")
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "to formatı 'YYYY-MM-DD' olmalı")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "to, from'dan önce olamaz")
	}

	// to gün sonuna kadar dahil
	return from, to.AddDate(0, 0, 1), nil
}

var exportHeaders = []string{"Fatura No", "Tarih", "Müşteri", "Kasiyer", "Ara Toplam", "KDV", "İndirim", "Toplam", "Ödeme", "Durum"}

// GET /api/reports/sales/export?from=...&to=...
// Satış listesini Excel olarak indirir.
func ExportSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := parseRange(c)
		if err != nil {
			return err
		}

		var salesList []models.Sale
		if err := database.DB.Preload("Customer").Preload("User").
			Where("created_at >= ? AND created_at < ?", from, to).
			Order("created_at ASC").
			Find(&salesList).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satışlar okunamadı")
		}

		buf, err := buildSalesWorkbook(salesList)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		filename := fmt.Sprintf("satislar_%s_%s.xlsx", from.Format("20060102"), to.AddDate(0, 0, -1).Format("20060102"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
		return c.Send(buf)
	}
}
