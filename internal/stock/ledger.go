package stock

import (
	"fmt"

	"kasa-backend/internal/models"

	"gorm.io/gorm"
)

type RecordOptions struct {
	ProductID     uint
	VariantID     *uint
	Delta         int
	PreviousStock int
	NewStock      int
	Reason        models.AdjustmentReason
	Note          string
	UserID        uint
	SaleID        *uint
}

// Record, stok hareket defterine tek bir kayıt ekler. Defter salt eklemedir;
// sıralama garantisi yalnızca zaman damgasıdır, her kayıt kendi anlık
// önce/sonra değerlerini taşır.
func Record(tx *gorm.DB, opts RecordOptions) (uint, error) {
	if opts.PreviousStock+opts.Delta != opts.NewStock {
		return 0, fmt.Errorf("tutarsız defter kaydı: %d + %d != %d", opts.PreviousStock, opts.Delta, opts.NewStock)
	}
	if opts.NewStock < 0 {
		return 0, fmt.Errorf("defter kaydı negatif stok üretemez: %d", opts.NewStock)
	}

	adj := models.StockAdjustment{
		ProductID:      opts.ProductID,
		VariantID:      opts.VariantID,
		QuantityChange: opts.Delta,
		PreviousStock:  opts.PreviousStock,
		NewStock:       opts.NewStock,
		Reason:         opts.Reason,
		Note:           opts.Note,
		UserID:         opts.UserID,
		SaleID:         opts.SaleID,
	}

	if err := tx.Create(&adj).Error; err != nil {
		return 0, fmt.Errorf("stok hareketi kaydedilemedi: %w", err)
	}

	return adj.ID, nil
}
