package models

import "time"

type AdjustmentReason string

const (
	ReasonSale       AdjustmentReason = "sale"       // satış
	ReasonPurchase   AdjustmentReason = "purchase"   // mal alımı
	ReasonAdjustment AdjustmentReason = "adjustment" // manuel düzeltme / sayım farkı
	ReasonReturn     AdjustmentReason = "return"     // iade
	ReasonDamaged    AdjustmentReason = "damaged"    // hasarlı
	ReasonExpired    AdjustmentReason = "expired"    // son kullanma tarihi geçmiş
	ReasonTransfer   AdjustmentReason = "transfer"   // depo transferi
)

// StockAdjustment: Stok hareket defteri. Salt ekleme yapılır, kayıtlar
// hiçbir zaman güncellenmez veya silinmez. NewStock = PreviousStock + QuantityChange
// her kayıtta sağlanır.
type StockAdjustment struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	ProductID      uint             `gorm:"index;not null" json:"product_id"`
	Product        Product          `json:"-"`
	VariantID      *uint            `gorm:"index" json:"variant_id"`
	QuantityChange int              `gorm:"not null" json:"quantity_change"`
	PreviousStock  int              `gorm:"not null" json:"previous_stock"`
	NewStock       int              `gorm:"not null" json:"new_stock"`
	Reason         AdjustmentReason `gorm:"size:20;index;not null" json:"reason"`
	Note           string           `gorm:"size:255" json:"note"`
	UserID         uint             `gorm:"index" json:"user_id"`
	SaleID         *uint            `gorm:"index" json:"sale_id"`
	CreatedAt      time.Time        `json:"created_at"`
}
