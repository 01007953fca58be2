package sales

import (
	"errors"
	"fmt"
	"math"
	"time"

	"kasa-backend/internal/events"
	"kasa-backend/internal/loyalty"
	"kasa-backend/internal/models"
	"kasa-backend/internal/stock"

	"gorm.io/gorm"
)

// CartLine: Sepetteki bir satır. UnitPrice ve Discount istemcinin gösterdiği
// değerlerdir; fiyat sunucuda kayıtlı ürün fiyatından yeniden hesaplanır,
// istemci fiyatı esas alınmaz.
type CartLine struct {
	ProductID uint    `json:"product_id"`
	VariantID *uint   `json:"variant_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Discount  float64 `json:"discount"`
}

type CompleteSaleInput struct {
	Lines           []CartLine
	CustomerID      *uint
	CashierID       uint
	PaymentMethod   models.PaymentMethod
	DiscountAmount  float64  // satış seviyesi indirim (puan indirimi hariç)
	PointsRequested int      // kullanılmak istenen sadakat puanı
	ClientTotal     *float64 // istemcinin hesapladığı genel toplam, sadece kontrol için
	Note            string
}

type SaleResult struct {
	Sale    models.Sale        `json:"sale"`
	Loyalty loyalty.Settlement `json:"loyalty"`
}

// Service: Satış tamamlama ve iade akışının orkestratörü. Adımların tamamı
// tek veritabanı transaction'ında koşar; kısmi commit ve telafi mantığı yoktur.
type Service struct {
	db      *gorm.DB
	calc    *loyalty.Calculator
	relay   events.Relay
	taxRate float64
	epsilon float64
}

func NewService(db *gorm.DB, calc *loyalty.Calculator, relay events.Relay, taxRate, epsilon float64) *Service {
	return &Service{db: db, calc: calc, relay: relay, taxRate: taxRate, epsilon: epsilon}
}

type pricedLine struct {
	product   models.Product
	variant   *models.ProductVariant
	quantity  int
	unitPrice float64
	discount  float64
	total     float64
}

// CompleteSale: Sepeti doğrular, fiyatları sunucu tarafında yeniden hesaplar,
// stok düşer, defter kaydı yazar, puan hesabını kalıcılaştırır ve satışı
// fatura numarasıyla kaydeder; hepsi tek transaction. Herhangi bir adım
// başarısız olursa hiçbir değişiklik kalmaz. Bildirimler commit'ten sonra
// best-effort yayınlanır.
func (s *Service) CompleteSale(in CompleteSaleInput) (*SaleResult, error) {
	if len(in.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	if in.DiscountAmount < 0 {
		return nil, fmt.Errorf("indirim tutarı negatif olamaz")
	}
	if in.PointsRequested > 0 && in.CustomerID == nil {
		return nil, ErrCustomerRequired
	}

	var result SaleResult
	var pending []events.Event

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 1) Satır doğrulama + fiyatlandırma
		priced, subtotal, err := s.priceLines(tx, in.Lines)
		if err != nil {
			return err
		}

		taxAmount := round2(subtotal * s.taxRate)

		var customer *models.Customer
		if in.CustomerID != nil {
			customer = &models.Customer{}
			if err := tx.First(customer, "id = ?", *in.CustomerID).Error; err != nil {
				return ErrCustomerNotFound
			}
		}

		// 2) Puan hesabı: brüt toplam (puan indirimi öncesi) üzerinden.
		// Kazanım tabanını (brüt/net) Calculator konfigürasyonu belirler.
		gross := round2(subtotal + taxAmount - in.DiscountAmount)
		if gross < 0 {
			return ErrDiscountExceedsTotal
		}

		settlement, err := s.calc.Settle(customer, gross, in.PointsRequested)
		if err != nil {
			return err
		}

		discountTotal := round2(in.DiscountAmount + settlement.DiscountFromPoints)
		totalAmount := round2(subtotal + taxAmount - discountTotal)
		if totalAmount < 0 {
			return ErrDiscountExceedsTotal
		}

		// İstemci toplamı sadece görüntüleme ipucu: epsilon dışı sapma reddedilir
		if in.ClientTotal != nil && math.Abs(*in.ClientTotal-totalAmount) > s.epsilon {
			return &PriceMismatchError{ClientTotal: *in.ClientTotal, ServerTotal: totalAmount}
		}

		// 3) Fatura numarası + satış başlığı
		invoice, err := nextInvoiceNumber(tx, time.Now())
		if err != nil {
			return err
		}

		sale := models.Sale{
			InvoiceNumber:  invoice,
			CustomerID:     in.CustomerID,
			UserID:         in.CashierID,
			Subtotal:       round2(subtotal),
			TaxAmount:      taxAmount,
			DiscountAmount: discountTotal,
			TotalAmount:    totalAmount,
			PaymentMethod:  in.PaymentMethod,
			Status:         models.SaleCompleted,
			Note:           in.Note,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return fmt.Errorf("satış kaydedilemedi: %w", err)
		}

		// 4) Satır başına: stok düş + defter kaydı + satış kalemi
		for _, pl := range priced {
			ref := stock.TargetRef{ProductID: pl.product.ID}
			if pl.variant != nil {
				ref = stock.TargetRef{VariantID: pl.variant.ID}
			}

			mres, err := stock.ApplyDelta(tx, ref, -pl.quantity)
			if err != nil {
				return err
			}

			if _, err := stock.Record(tx, stock.RecordOptions{
				ProductID:     mres.ProductID,
				VariantID:     mres.VariantID,
				Delta:         -pl.quantity,
				PreviousStock: mres.PreviousStock,
				NewStock:      mres.NewStock,
				Reason:        models.ReasonSale,
				Note:          "Satış " + invoice,
				UserID:        in.CashierID,
				SaleID:        &sale.ID,
			}); err != nil {
				return err
			}

			item := models.SaleItem{
				SaleID:     sale.ID,
				ProductID:  pl.product.ID,
				VariantID:  mres.VariantID,
				Quantity:   pl.quantity,
				UnitPrice:  pl.unitPrice,
				Discount:   pl.discount,
				TotalPrice: pl.total,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("satış kalemi kaydedilemedi: %w", err)
			}
			sale.Items = append(sale.Items, item)

			pending = append(pending, events.New(events.InventoryUpdated, events.InventoryUpdatedPayload{
				ProductID:      mres.ProductID,
				VariantID:      mres.VariantID,
				QuantityChange: -pl.quantity,
				NewStock:       mres.NewStock,
				Reason:         string(models.ReasonSale),
				SaleID:         &sale.ID,
			}))
		}

		// 5) Puan bakiyesi ve ödül kaydını kalıcılaştır
		if customer != nil {
			if err := tx.Model(&models.Customer{}).Where("id = ?", customer.ID).Updates(map[string]interface{}{
				"loyalty_points": settlement.NewBalance,
				"total_spent":    round2(customer.TotalSpent + totalAmount),
			}).Error; err != nil {
				return fmt.Errorf("müşteri bakiyesi güncellenemedi: %w", err)
			}

			if settlement.PointsEarned > 0 || settlement.PointsUsed > 0 {
				reward := models.LoyaltyReward{
					CustomerID:   customer.ID,
					SaleID:       &sale.ID,
					PointsEarned: settlement.PointsEarned,
					PointsUsed:   settlement.PointsUsed,
					RewardValue:  settlement.DiscountFromPoints,
					IsRedeemed:   settlement.PointsUsed > 0,
				}
				if err := tx.Create(&reward).Error; err != nil {
					return fmt.Errorf("ödül kaydı oluşturulamadı: %w", err)
				}
			}
		}

		pending = append(pending, events.New(events.SaleCompleted, events.SaleCompletedPayload{
			SaleID:        sale.ID,
			InvoiceNumber: sale.InvoiceNumber,
			TotalAmount:   sale.TotalAmount,
		}))

		result.Sale = sale
		result.Loyalty = settlement
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(pending)
	return &result, nil
}

// RefundSale: Satış iadesinin aynası. Stok pozitif delta ile geri yüklenir,
// RETURN nedenli defter kayıtları eklenir, satışın kazandırdığı net puan
// geri alınır ve durum REFUNDED olur; yine tek transaction.
func (s *Service) RefundSale(saleID uint, userID uint) (*models.Sale, error) {
	var sale models.Sale
	var pending []events.Event

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&sale, "id = ?", saleID).Error; err != nil {
			return err
		}
		if sale.Status != models.SaleCompleted {
			return ErrSaleNotRefundable
		}

		for _, item := range sale.Items {
			ref := stock.TargetRef{ProductID: item.ProductID}
			if item.VariantID != nil {
				ref = stock.TargetRef{VariantID: *item.VariantID}
			}

			mres, err := stock.ApplyDelta(tx, ref, item.Quantity)
			if err != nil {
				return err
			}

			if _, err := stock.Record(tx, stock.RecordOptions{
				ProductID:     mres.ProductID,
				VariantID:     mres.VariantID,
				Delta:         item.Quantity,
				PreviousStock: mres.PreviousStock,
				NewStock:      mres.NewStock,
				Reason:        models.ReasonReturn,
				Note:          "İade " + sale.InvoiceNumber,
				UserID:        userID,
				SaleID:        &sale.ID,
			}); err != nil {
				return err
			}

			pending = append(pending, events.New(events.InventoryUpdated, events.InventoryUpdatedPayload{
				ProductID:      mres.ProductID,
				VariantID:      mres.VariantID,
				QuantityChange: item.Quantity,
				NewStock:       mres.NewStock,
				Reason:         string(models.ReasonReturn),
				SaleID:         &sale.ID,
			}))
		}

		// Satışın puan hareketini geri sar: kazanılan düşülür, kullanılan iade
		// edilir. Bakiye hiçbir durumda negatife inmez. TotalSpent'e dokunulmaz,
		// o alan manuel düzeltme dışında azalmaz.
		if sale.CustomerID != nil {
			var reward models.LoyaltyReward
			err := tx.First(&reward, "sale_id = ?", sale.ID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				// Satış puan hareketi üretmemiş, geri alınacak bir şey yok
			case err != nil:
				return fmt.Errorf("ödül kaydı okunamadı: %w", err)
			default:
				var customer models.Customer
				if err := tx.First(&customer, "id = ?", *sale.CustomerID).Error; err != nil {
					return fmt.Errorf("müşteri okunamadı: %w", err)
				}
				balance := customer.LoyaltyPoints - reward.PointsEarned + reward.PointsUsed
				if balance < 0 {
					balance = 0
				}
				if err := tx.Model(&models.Customer{}).Where("id = ?", customer.ID).
					Update("loyalty_points", balance).Error; err != nil {
					return fmt.Errorf("müşteri bakiyesi güncellenemedi: %w", err)
				}
			}
		}

		if err := tx.Model(&models.Sale{}).Where("id = ?", sale.ID).
			Update("status", models.SaleRefunded).Error; err != nil {
			return fmt.Errorf("satış durumu güncellenemedi: %w", err)
		}
		sale.Status = models.SaleRefunded

		pending = append(pending, events.New(events.SaleRefunded, events.SaleRefundedPayload{
			SaleID:        sale.ID,
			InvoiceNumber: sale.InvoiceNumber,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(pending)
	return &sale, nil
}

// priceLines, her sepet satırını kayıtlı ürün/varyant üzerinden doğrular ve
// fiyatlandırır. Birim fiyat varyant fiyatı (varsa) yoksa ürün fiyatıdır.
func (s *Service) priceLines(tx *gorm.DB, lines []CartLine) ([]pricedLine, float64, error) {
	priced := make([]pricedLine, 0, len(lines))
	subtotal := 0.0

	for _, line := range lines {
		var product models.Product
		if err := tx.First(&product, "id = ?", line.ProductID).Error; err != nil {
			return nil, 0, &LineItemError{SKU: fmt.Sprintf("#%d", line.ProductID), Reason: "ürün bulunamadı"}
		}
		if !product.IsActive {
			return nil, 0, &LineItemError{SKU: product.SKU, Reason: "ürün satışa kapalı"}
		}
		if line.Quantity < 1 {
			return nil, 0, &LineItemError{SKU: product.SKU, Reason: "adet en az 1 olmalı"}
		}
		if line.Discount < 0 {
			return nil, 0, &LineItemError{SKU: product.SKU, Reason: "satır indirimi negatif olamaz"}
		}

		var variant *models.ProductVariant
		if line.VariantID != nil {
			variant = &models.ProductVariant{}
			if err := tx.First(variant, "id = ?", *line.VariantID).Error; err != nil {
				return nil, 0, &LineItemError{SKU: product.SKU, Reason: "varyant bulunamadı"}
			}
			if variant.ProductID != product.ID {
				return nil, 0, &LineItemError{SKU: variant.SKU, Reason: "varyant bu ürüne ait değil"}
			}
			if !variant.IsActive {
				return nil, 0, &LineItemError{SKU: variant.SKU, Reason: "varyant satışa kapalı"}
			}
		} else {
			// Varyantlı ürünün toplamı türetilmiş değer; satır varyant seçmeden
			// satılamaz, yoksa toplam varyant stoklarından kopar.
			var activeVariants int64
			if err := tx.Model(&models.ProductVariant{}).
				Where("product_id = ? AND is_active = ?", product.ID, true).
				Count(&activeVariants).Error; err != nil {
				return nil, 0, fmt.Errorf("varyantlar sayılamadı: %w", err)
			}
			if activeVariants > 0 {
				return nil, 0, &LineItemError{SKU: product.SKU, Reason: "bu ürün için varyant seçilmeli"}
			}
		}

		unitPrice := product.Price
		if variant != nil && variant.PriceOverride != nil {
			unitPrice = *variant.PriceOverride
		}

		total := round2(unitPrice*float64(line.Quantity) - line.Discount)
		if total < 0 {
			return nil, 0, &LineItemError{SKU: product.SKU, Reason: "satır indirimi satır tutarını aşıyor"}
		}

		priced = append(priced, pricedLine{
			product:   product,
			variant:   variant,
			quantity:  line.Quantity,
			unitPrice: unitPrice,
			discount:  line.Discount,
			total:     total,
		})
		subtotal += total
	}

	return priced, round2(subtotal), nil
}

func (s *Service) publish(evs []events.Event) {
	if s.relay == nil {
		return
	}
	for _, ev := range evs {
		s.relay.Publish(ev)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
