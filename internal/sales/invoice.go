package sales

import (
	"fmt"
	"time"

	"kasa-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// nextInvoiceNumber, gün bazlı sayaç satırını atomik upsert ile artırıp
// "INV-YYYYMMDD-NNN" üretir. Günün en büyük fatura numarasını sorgulayıp
// bir artırmak eşzamanlı satışlarda çakışır; sayaç satırı transaction içinde
// artırıldığı için aynı güne iki kez aynı sıra verilmez.
func nextInvoiceNumber(tx *gorm.DB, now time.Time) (string, error) {
	day := now.Format("20060102")

	counter := models.InvoiceCounter{Day: day, Seq: 1}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"seq": gorm.Expr("seq + 1")}),
	}).Create(&counter).Error
	if err != nil {
		return "", fmt.Errorf("fatura sayacı güncellenemedi: %w", err)
	}

	// Artırılmış değeri aynı transaction içinden oku
	if err := tx.First(&counter, "day = ?", day).Error; err != nil {
		return "", fmt.Errorf("fatura sayacı okunamadı: %w", err)
	}

	return fmt.Sprintf("INV-%s-%03d", day, counter.Seq), nil
}
