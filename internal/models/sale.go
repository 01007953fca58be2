package models

import "time"

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"     // nakit
	PaymentCard     PaymentMethod = "card"     // kredi/banka kartı
	PaymentTransfer PaymentMethod = "transfer" // havale
)

type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleRefunded  SaleStatus = "refunded"
	SaleCancelled SaleStatus = "cancelled"
)

// Sale: Tamamlanmış satış. COMPLETED olduktan sonra tutar alanları değişmez;
// sadece durum geçişi (refunded) ve not eklenmesi yapılabilir.
// TotalAmount = Subtotal + TaxAmount - DiscountAmount.
type Sale struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	InvoiceNumber string        `gorm:"size:30;uniqueIndex;not null" json:"invoice_number"` // INV-YYYYMMDD-NNN
	CustomerID    *uint         `gorm:"index" json:"customer_id"`
	Customer      *Customer     `json:"customer,omitempty"`
	UserID        uint          `gorm:"index;not null" json:"user_id"` // kasiyer
	User          User          `json:"-"`
	Subtotal      float64       `gorm:"not null" json:"subtotal"`
	TaxAmount     float64       `gorm:"not null" json:"tax_amount"`
	DiscountAmount float64      `gorm:"not null" json:"discount_amount"` // satış indirimi + puan indirimi
	TotalAmount   float64       `gorm:"not null" json:"total_amount"`
	PaymentMethod PaymentMethod `gorm:"size:20;not null" json:"payment_method"`
	Status        SaleStatus    `gorm:"size:20;index;not null" json:"status"`
	Note          string        `gorm:"size:255" json:"note"`
	Items         []SaleItem    `gorm:"foreignKey:SaleID" json:"items,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// SaleItem: Satış satırı. UnitPrice satış anındaki fiyatın kopyasıdır,
// sonradan ürün fiyatından yeniden türetilmez.
type SaleItem struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	SaleID     uint    `gorm:"index;not null" json:"sale_id"`
	ProductID  uint    `gorm:"index;not null" json:"product_id"`
	Product    Product `json:"-"`
	VariantID  *uint   `gorm:"index" json:"variant_id"`
	Quantity   int     `gorm:"not null" json:"quantity"`
	UnitPrice  float64 `gorm:"not null" json:"unit_price"`
	Discount   float64 `gorm:"not null;default:0" json:"discount"`
	TotalPrice float64 `gorm:"not null" json:"total_price"` // UnitPrice * Quantity - Discount
}

// InvoiceCounter: Gün bazlı fatura sıra sayacı. Fatura numarası max()+1 ile
// türetilmez; bu satır transaction içinde atomik artırılır.
type InvoiceCounter struct {
	ID  uint   `gorm:"primaryKey"`
	Day string `gorm:"size:8;uniqueIndex;not null"` // YYYYMMDD
	Seq int    `gorm:"not null"`
}
