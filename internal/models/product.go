package models

import "time"

// Product: Satılabilir ürün. Varyantı olan ürünlerde StockQuantity
// her zaman aktif varyant stoklarının toplamıdır; tek başına yetkili değildir,
// her stok hareketinde yeniden türetilir.
type Product struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	Name          string           `gorm:"size:100;not null" json:"name"`
	SKU           string           `gorm:"size:50;uniqueIndex;not null" json:"sku"`
	Barcode       string           `gorm:"size:50;uniqueIndex;not null" json:"barcode"`
	Category      string           `gorm:"size:50;index" json:"category"`
	Unit          string           `gorm:"size:20" json:"unit"` // adet, kg, koli vs.
	Price         float64          `gorm:"not null" json:"price"`
	CostPrice     float64          `json:"cost_price"`
	StockQuantity int              `gorm:"not null;default:0" json:"stock_quantity"`
	MinStockLevel int              `gorm:"not null;default:0" json:"min_stock_level"`
	IsActive      bool             `gorm:"not null;default:true" json:"is_active"`
	Variants      []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ProductVariant: Bir ürünün satılabilir alt çeşidi (ör: "500 ml", "Kırmızı / L").
// Fiyatı yoksa üst ürünün fiyatı geçerlidir.
type ProductVariant struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProductID     uint      `gorm:"index;not null" json:"product_id"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	SKU           string    `gorm:"size:50;uniqueIndex;not null" json:"sku"`
	PriceOverride *float64  `json:"price_override"`
	StockQuantity int       `gorm:"not null;default:0" json:"stock_quantity"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
