package inventory

import (
	"strings"

	"kasa-backend/internal/database"
	"kasa-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateProductRequest struct {
	Name          string  `json:"name"`
	SKU           string  `json:"sku"`
	Barcode       string  `json:"barcode"`
	Category      string  `json:"category"`
	Unit          string  `json:"unit"`
	Price         float64 `json:"price"`
	CostPrice     float64 `json:"cost_price"`
	StockQuantity int     `json:"stock_quantity"`
	MinStockLevel int     `json:"min_stock_level"`
}

type UpdateProductRequest struct {
	Name          *string  `json:"name"`
	Category      *string  `json:"category"`
	Unit          *string  `json:"unit"`
	Price         *float64 `json:"price"`
	CostPrice     *float64 `json:"cost_price"`
	MinStockLevel *int     `json:"min_stock_level"`
	IsActive      *bool    `json:"is_active"`
}

// POST /api/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.SKU = strings.TrimSpace(body.SKU)
		body.Barcode = strings.TrimSpace(body.Barcode)

		if body.Name == "" || body.SKU == "" || body.Barcode == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, SKU ve barkod zorunlu")
		}
		if body.Price < 0 || body.CostPrice < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Fiyat negatif olamaz")
		}
		if body.StockQuantity < 0 || body.MinStockLevel < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Stok değerleri negatif olamaz")
		}

		product := models.Product{
			Name:          body.Name,
			SKU:           body.SKU,
			Barcode:       body.Barcode,
			Category:      body.Category,
			Unit:          body.Unit,
			Price:         body.Price,
			CostPrice:     body.CostPrice,
			StockQuantity: body.StockQuantity,
			MinStockLevel: body.MinStockLevel,
			IsActive:      true,
		}

		if err := database.DB.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Ürün oluşturulamadı (SKU/barkod zaten kayıtlı olabilir)")
		}

		return c.Status(fiber.StatusCreated).JSON(product)
	}
}

// GET /api/products
// Filtreler: q (isim/sku/barkod), category, active_only
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Preload("Variants").Order("name ASC")

		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + q + "%"
			query = query.Where("name LIKE ? OR sku LIKE ? OR barcode LIKE ?", like, like, like)
		}
		if category := c.Query("category"); category != "" {
			query = query.Where("category = ?", category)
		}
		if c.QueryBool("active_only", false) {
			query = query.Where("is_active = ?", true)
		}

		var products []models.Product
		if err := query.Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		return c.JSON(products)
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var product models.Product
		if err := database.DB.Preload("Variants").First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		return c.JSON(product)
	}
}

// GET /api/products/scan/:barcode
// Kasa tarafındaki barkod okuyucu için hızlı arama.
func ScanProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		barcode := strings.TrimSpace(c.Params("barcode"))
		if barcode == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Barkod zorunlu")
		}

		var product models.Product
		if err := database.DB.Preload("Variants").
			First(&product, "barcode = ?", barcode).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Bu barkodla ürün bulunamadı")
		}

		return c.JSON(product)
	}
}

// PUT /api/products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var body UpdateProductRequest
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
		if body.Category != nil {
			updates["category"] = *body.Category
		}
		if body.Unit != nil {
			updates["unit"] = *body.Unit
		}
		if body.Price != nil {
			if *body.Price < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Fiyat negatif olamaz")
			}
			updates["price"] = *body.Price
		}
		if body.CostPrice != nil {
			if *body.CostPrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Maliyet negatif olamaz")
			}
			updates["cost_price"] = *body.CostPrice
		}
		if body.MinStockLevel != nil {
			if *body.MinStockLevel < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Minimum stok negatif olamaz")
			}
			updates["min_stock_level"] = *body.MinStockLevel
		}
		if body.IsActive != nil {
			updates["is_active"] = *body.IsActive
		}

		if len(updates) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Güncellenecek alan yok")
		}

		if err := database.DB.Model(&product).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		return c.JSON(product)
	}
}

// DELETE /api/products/:id
// Satış geçmişi ürüne bağlı olduğu için kayıt silinmez, satışa kapatılır.
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ürün ID")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		if err := database.DB.Model(&product).Update("is_active", false).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün kapatılamadı")
		}

		return c.JSON(fiber.Map{"message": "Ürün satışa kapatıldı", "id": product.ID})
	}
}
