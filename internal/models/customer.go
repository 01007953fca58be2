package models

import "time"

// Customer: Sadakat programına kayıtlı müşteri. LoyaltyPoints hiçbir zaman
// negatife düşmez; TotalSpent manuel düzeltme dışında azalmaz.
type Customer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	Phone         string    `gorm:"size:20;index" json:"phone"`
	Email         string    `gorm:"size:100;index" json:"email"`
	LoyaltyPoints int       `gorm:"not null;default:0" json:"loyalty_points"`
	TotalSpent    float64   `gorm:"not null;default:0" json:"total_spent"`
	IsActive      bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LoyaltyReward: Bir satışın puan hesabı sonucu. Satış başına en fazla bir kayıt
// oluşur; kazanılan ve kullanılan puanlarla puan indirimi tutarını saklar.
type LoyaltyReward struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	CustomerID   uint       `gorm:"index;not null" json:"customer_id"`
	SaleID       *uint      `gorm:"index" json:"sale_id"`
	PointsEarned int        `gorm:"not null;default:0" json:"points_earned"`
	PointsUsed   int        `gorm:"not null;default:0" json:"points_used"`
	RewardValue  float64    `gorm:"not null;default:0" json:"reward_value"` // puan karşılığı indirim tutarı
	IsRedeemed   bool       `gorm:"not null;default:false" json:"is_redeemed"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
}
