package loyalty

import (
	"fmt"
	"math"

	"kasa-backend/internal/config"
	"kasa-backend/internal/models"
)

// InsufficientPointsError: İstenen puan müşterinin bakiyesini aşıyorsa döner.
// Hesaplama hiçbir şey mutasyona uğratmadığı için bakiye olduğu gibi kalır.
type InsufficientPointsError struct {
	Balance   int
	Requested int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("yetersiz puan: bakiye %d, istenen %d", e.Balance, e.Requested)
}

// Calculator: Sadakat puanı hesabı. Oranlar konfigürasyondan gelir.
type Calculator struct {
	EarnRate            float64 // harcanan 1 para birimi başına kazanılan puan
	RedeemPointsPerUnit int     // 1 birim indirim için gereken puan
	EarnOnNet           bool    // puan indirimi sonrası net tutardan mı kazanılsın
}

func NewCalculator(cfg *config.Config) *Calculator {
	return &Calculator{
		EarnRate:            cfg.LoyaltyEarnRate,
		RedeemPointsPerUnit: cfg.LoyaltyRedeemPointsPerUnit,
		EarnOnNet:           cfg.LoyaltyEarnOnNet,
	}
}

type Settlement struct {
	PointsEarned       int     `json:"points_earned"`
	PointsUsed         int     `json:"points_used"`
	DiscountFromPoints float64 `json:"discount_from_points"`
	NewBalance         int     `json:"new_balance"`
}

// Settle, satış toplamı üzerinden kazanılacak puanı ve istenen puan
// kullanımını hesaplar. Yan etkisi yoktur; bakiye ve ödül kaydını kalıcılaştırmak
// çağıranın işidir. customer nil ise (anonim satış) tüm alanlar sıfır döner;
// anonim satış sadakat programına katılmaz.
func (c *Calculator) Settle(customer *models.Customer, saleTotal float64, pointsRequested int) (Settlement, error) {
	if saleTotal < 0 {
		return Settlement{}, fmt.Errorf("satış toplamı negatif olamaz: %.2f", saleTotal)
	}
	if pointsRequested < 0 {
		return Settlement{}, fmt.Errorf("istenen puan negatif olamaz: %d", pointsRequested)
	}

	if customer == nil {
		return Settlement{}, nil
	}

	if pointsRequested > customer.LoyaltyPoints {
		return Settlement{}, &InsufficientPointsError{Balance: customer.LoyaltyPoints, Requested: pointsRequested}
	}

	discount := float64(pointsRequested) / float64(c.RedeemPointsPerUnit)

	earnBase := saleTotal
	if c.EarnOnNet {
		earnBase = saleTotal - discount
		if earnBase < 0 {
			earnBase = 0
		}
	}
	earned := int(math.Floor(earnBase * c.EarnRate))

	return Settlement{
		PointsEarned:       earned,
		PointsUsed:         pointsRequested,
		DiscountFromPoints: discount,
		NewBalance:         customer.LoyaltyPoints - pointsRequested + earned,
	}, nil
}
