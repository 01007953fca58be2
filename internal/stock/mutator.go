package stock

import (
	"fmt"

	"kasa-backend/internal/models"

	"gorm.io/gorm"
)

// TargetRef: Hareketin hedefi. ProductID veya VariantID'den tam olarak biri
// dolu olmalı.
type TargetRef struct {
	ProductID uint
	VariantID uint
}

// MutationResult: Uygulanan hareketin defter kaydı için gereken değerleri.
// Varyant hedeflendiğinde ProductID üst ürünü gösterir.
type MutationResult struct {
	ProductID     uint
	VariantID     *uint
	PreviousStock int
	NewStock      int
}

// ApplyDelta, hedef satıra işaretli stok farkını uygular. Çağıranın
// transaction'ı içinde çalışır; kendi transaction'ını açmaz ve defter kaydı
// yazmaz (o, çağıranın sorumluluğu). Stok güncellemesi koşullu tek UPDATE ile
// yapılır ki eşzamanlı iki satış aynı eski değeri okuyup birlikte eksiye
// düşüremesin.
func ApplyDelta(tx *gorm.DB, ref TargetRef, delta int) (*MutationResult, error) {
	if (ref.ProductID == 0) == (ref.VariantID == 0) {
		return nil, fmt.Errorf("hedef olarak ürün veya varyanttan tam biri verilmeli")
	}
	if ref.VariantID != 0 {
		return applyVariantDelta(tx, ref.VariantID, delta)
	}
	return applyProductDelta(tx, ref.ProductID, delta)
}

func applyProductDelta(tx *gorm.DB, productID uint, delta int) (*MutationResult, error) {
	var product models.Product
	if err := tx.First(&product, "id = ?", productID).Error; err != nil {
		return nil, fmt.Errorf("ürün bulunamadı (ID: %d): %w", productID, err)
	}

	// Aktif varyantı olan ürünün toplamı türetilmiş değerdir; doğrudan hareket
	// aggregate'i varyant toplamından koparır.
	var activeVariants int64
	if err := tx.Model(&models.ProductVariant{}).
		Where("product_id = ? AND is_active = ?", productID, true).
		Count(&activeVariants).Error; err != nil {
		return nil, fmt.Errorf("varyantlar sayılamadı: %w", err)
	}
	if activeVariants > 0 {
		return nil, fmt.Errorf("%s: %w", product.SKU, ErrVariantRequired)
	}

	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity + ? >= 0", productID, delta).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return nil, fmt.Errorf("stok güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Koşul tutmadıysa mevcut değer eşzamanlı bir hareketle değişmiş
		// olabilir; hata güncel değeri taşısın diye yeniden oku.
		tx.First(&product, "id = ?", productID)
		return nil, &InsufficientStockError{SKU: product.SKU, Available: product.StockQuantity, Requested: -delta}
	}

	// Güncel değeri aynı transaction içinden oku; koşullu UPDATE satırı
	// kilitlediği için PreviousStock = NewStock - delta tutarlıdır.
	var after models.Product
	if err := tx.First(&after, "id = ?", productID).Error; err != nil {
		return nil, fmt.Errorf("stok yeniden okunamadı: %w", err)
	}

	return &MutationResult{
		ProductID:     productID,
		PreviousStock: after.StockQuantity - delta,
		NewStock:      after.StockQuantity,
	}, nil
}

func applyVariantDelta(tx *gorm.DB, variantID uint, delta int) (*MutationResult, error) {
	var variant models.ProductVariant
	if err := tx.First(&variant, "id = ?", variantID).Error; err != nil {
		return nil, fmt.Errorf("varyant bulunamadı (ID: %d): %w", variantID, err)
	}

	res := tx.Model(&models.ProductVariant{}).
		Where("id = ? AND stock_quantity + ? >= 0", variantID, delta).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return nil, fmt.Errorf("varyant stoğu güncellenemedi: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.First(&variant, "id = ?", variantID)
		return nil, &InsufficientStockError{SKU: variant.SKU, Available: variant.StockQuantity, Requested: -delta}
	}

	var after models.ProductVariant
	if err := tx.First(&after, "id = ?", variantID).Error; err != nil {
		return nil, fmt.Errorf("varyant stoğu yeniden okunamadı: %w", err)
	}

	// Üst ürünün toplam stoğu her zaman aktif varyantların toplamı;
	// aynı transaction içinde yeniden türet.
	if err := RecomputeProductStock(tx, variant.ProductID); err != nil {
		return nil, err
	}

	vid := variantID
	return &MutationResult{
		ProductID:     variant.ProductID,
		VariantID:     &vid,
		PreviousStock: after.StockQuantity - delta,
		NewStock:      after.StockQuantity,
	}, nil
}

// RecomputeProductStock, ürünün toplam stoğunu aktif varyantlarından yeniden
// türetip yazar. Varyant eklenince/silinince ve her varyant hareketinde çağrılır.
func RecomputeProductStock(tx *gorm.DB, productID uint) error {
	var total int64
	if err := tx.Model(&models.ProductVariant{}).
		Where("product_id = ? AND is_active = ?", productID, true).
		Select("COALESCE(SUM(stock_quantity), 0)").
		Scan(&total).Error; err != nil {
		return fmt.Errorf("varyant toplamı hesaplanamadı: %w", err)
	}

	if err := tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock_quantity", total).Error; err != nil {
		return fmt.Errorf("ürün toplam stoğu yazılamadı: %w", err)
	}
	return nil
}
