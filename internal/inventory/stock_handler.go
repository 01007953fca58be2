package inventory

import (
	"time"

	"kasa-backend/internal/auth"
	"kasa-backend/internal/database"
	"kasa-backend/internal/events"
	"kasa-backend/internal/models"
	"kasa-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateStockAdjustmentRequest struct {
	ProductID      uint   `json:"product_id"`
	VariantID      *uint  `json:"variant_id"`
	QuantityChange int    `json:"quantity_change"`
	Reason         string `json:"reason"`
	Note           string `json:"note"`
}

// Manuel düzeltmede kullanılabilecek nedenler; "sale" sadece satış akışının yazabildiği nedendir.
var manualReasons = map[models.AdjustmentReason]bool{
	models.ReasonPurchase:   true,
	models.ReasonAdjustment: true,
	models.ReasonReturn:     true,
	models.ReasonDamaged:    true,
	models.ReasonExpired:    true,
	models.ReasonTransfer:   true,
}

// POST /api/stock-adjustments
// Manuel stok hareketi: mutasyon + defter kaydı tek transaction'da.
func CreateStockAdjustmentHandler(relay events.Relay) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateStockAdjustmentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		userID, err := auth.CurrentUserID(c)
		if err != nil {
			return err
		}

		reason := models.AdjustmentReason(body.Reason)
		if !manualReasons[reason] {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz neden (purchase, adjustment, return, damaged, expired, transfer)")
		}
		if body.QuantityChange == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity_change sıfır olamaz")
		}

		ref := stock.TargetRef{ProductID: body.ProductID}
		if body.VariantID != nil {
			if body.ProductID != 0 {
				return fiber.NewError(fiber.StatusBadRequest, "product_id veya variant_id'den sadece biri verilmeli")
			}
			ref = stock.TargetRef{VariantID: *body.VariantID}
		} else if body.ProductID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id veya variant_id zorunlu")
		}

		var adjustmentID uint
		var mres *stock.MutationResult

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var txErr error
			mres, txErr = stock.ApplyDelta(tx, ref, body.QuantityChange)
			if txErr != nil {
				return txErr
			}

			adjustmentID, txErr = stock.Record(tx, stock.RecordOptions{
				ProductID:     mres.ProductID,
				VariantID:     mres.VariantID,
				Delta:         body.QuantityChange,
				PreviousStock: mres.PreviousStock,
				NewStock:      mres.NewStock,
				Reason:        reason,
				Note:          body.Note,
				UserID:        userID,
			})
			return txErr
		})
		if err != nil {
			return err
		}

		if relay != nil {
			relay.Publish(events.New(events.InventoryUpdated, events.InventoryUpdatedPayload{
				ProductID:      mres.ProductID,
				VariantID:      mres.VariantID,
				QuantityChange: body.QuantityChange,
				NewStock:       mres.NewStock,
				Reason:         string(reason),
			}))
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":             adjustmentID,
			"product_id":     mres.ProductID,
			"variant_id":     mres.VariantID,
			"previous_stock": mres.PreviousStock,
			"new_stock":      mres.NewStock,
			"reason":         reason,
		})
	}
}

// GET /api/stock-adjustments
// Filtreler: product_id, reason, from, to
func ListStockAdjustmentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Order("created_at DESC")

		if productID := c.QueryInt("product_id"); productID > 0 {
			q = q.Where("product_id = ?", productID)
		}
		if reason := c.Query("reason"); reason != "" {
			q = q.Where("reason = ?", reason)
		}
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

		limit := c.QueryInt("limit", 200)
		if limit < 1 || limit > 1000 {
			limit = 200
		}

		var adjustments []models.StockAdjustment
		if err := q.Limit(limit).Find(&adjustments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok hareketleri listelenemedi")
		}

		return c.JSON(adjustments)
	}
}

// GET /api/stock/low
// Minimum stok seviyesinin altına düşen aktif ürünler.
func LowStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.
			Where("is_active = ? AND stock_quantity <= min_stock_level", true).
			Order("stock_quantity ASC").
			Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Düşük stok listesi alınamadı")
		}

		return c.JSON(products)
	}
}
