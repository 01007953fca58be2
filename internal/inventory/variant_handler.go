package inventory

import (
	"strings"

	"kasa-backend/internal/database"
	"kasa-backend/internal/models"
	"kasa-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateVariantRequest struct {
	Name          string   `json:"name"`
	SKU           string   `json:"sku"`
	PriceOverride *float64 `json:"price_override"`
	StockQuantity int      `json:"stock_quantity"`
}

type UpdateVariantRequest struct {
	Name          *string  `json:"name"`
	PriceOverride *float64 `json:"price_override"`
	IsActive      *bool    `json:"is_active"`
}

// POST /api/products/:id/variants
// Varyant eklenince üst ürünün toplam stoğu varyant toplamından yeniden
// türetilir; o andan itibaren ürün stoğu tek başına yetkili değildir.
func CreateVariantHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := c.ParamsInt("id")
		if err != nil || productID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var body CreateVariantRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.SKU = strings.TrimSpace(body.SKU)
		if body.Name == "" || body.SKU == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim ve SKU zorunlu")
		}
		if body.StockQuantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Stok negatif olamaz")
		}
		if body.PriceOverride != nil && *body.PriceOverride < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Fiyat negatif olamaz")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", productID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		variant := models.ProductVariant{
			ProductID:     product.ID,
			Name:          body.Name,
			SKU:           body.SKU,
			PriceOverride: body.PriceOverride,
			StockQuantity: body.StockQuantity,
			IsActive:      true,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&variant).Error; err != nil {
				return err
			}
			return stock.RecomputeProductStock(tx, product.ID)
		})
		if err != nil {
			return fiber.NewError(fiber.StatusConflict, "Varyant oluşturulamadı (SKU zaten kayıtlı olabilir)")
		}

		return c.Status(fiber.StatusCreated).JSON(variant)
	}
}

// PUT /api/variants/:id
func UpdateVariantHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz varyant ID")
		}

		var variant models.ProductVariant
		if err := database.DB.First(&variant, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Varyant bulunamadı")
		}

		var body UpdateVariantRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		updates := map[string]interface{}{}
		if body.Name != nil {
			if strings.TrimSpace(*body.Name) == "" {
				return fiber.NewError(fiber.StatusBadRequest, "İsim boş olamaz")
			}
			updates["name"] = strings.TrimSpace(*body.Name)
		}
		if body.PriceOverride != nil {
			if *body.PriceOverride < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Fiyat negatif olamaz")
			}
			updates["price_override"] = *body.PriceOverride
		}
		if body.IsActive != nil {
			updates["is_active"] = *body.IsActive
		}

		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Güncellenecek alan yok")
		}

		// Aktiflik değişimi üst ürünün toplamını etkiler, aynı transaction'da
		// yeniden türet.
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&variant).Updates(updates).Error; err != nil {
				return err
			}
			if body.IsActive != nil {
				return stock.RecomputeProductStock(tx, variant.ProductID)
			}
			return nil
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Varyant güncellenemedi")
		}

		return c.JSON(variant)
	}
}
