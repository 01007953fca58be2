package stock

import (
	"testing"

	"kasa-backend/internal/database"
	"kasa-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, quantity int) models.Product {
	t.Helper()
	product := models.Product{
		Name:          "Test Ürün " + sku,
		SKU:           sku,
		Barcode:       "BC-" + sku,
		Price:         10,
		StockQuantity: quantity,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func TestApplyDeltaProduct(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "P1", 5)

	var result *MutationResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = ApplyDelta(tx, TargetRef{ProductID: product.ID}, -2)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, product.ID, result.ProductID)
	assert.Nil(t, result.VariantID)
	assert.Equal(t, 5, result.PreviousStock)
	assert.Equal(t, 3, result.NewStock)

	var after models.Product
	require.NoError(t, db.First(&after, "id = ?", product.ID).Error)
	assert.Equal(t, 3, after.StockQuantity)
}

func TestApplyDeltaInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "P1", 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := ApplyDelta(tx, TargetRef{ProductID: product.ID}, -2)
		return err
	})
	require.Error(t, err)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "P1", insufficient.SKU)
	assert.Equal(t, 1, insufficient.Available)
	assert.Equal(t, 2, insufficient.Requested)

	// Satır değişmemiş olmalı
	var after models.Product
	require.NoError(t, db.First(&after, "id = ?", product.ID).Error)
	assert.Equal(t, 1, after.StockQuantity)
}

func TestApplyDeltaVariantUpdatesAggregate(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "P1", 0)

	v1 := models.ProductVariant{ProductID: product.ID, Name: "500 ml", SKU: "P1-V1", StockQuantity: 3, IsActive: true}
	v2 := models.ProductVariant{ProductID: product.ID, Name: "1 lt", SKU: "P1-V2", StockQuantity: 4, IsActive: true}
	require.NoError(t, db.Create(&v1).Error)
	require.NoError(t, db.Create(&v2).Error)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return RecomputeProductStock(tx, product.ID)
	}))

	var result *MutationResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = ApplyDelta(tx, TargetRef{VariantID: v1.ID}, -2)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, product.ID, result.ProductID)
	require.NotNil(t, result.VariantID)
	assert.Equal(t, v1.ID, *result.VariantID)
	assert.Equal(t, 3, result.PreviousStock)
	assert.Equal(t, 1, result.NewStock)

	// Üst ürünün toplamı aktif varyantların toplamına eşit kalmalı
	var parent models.Product
	require.NoError(t, db.First(&parent, "id = ?", product.ID).Error)
	assert.Equal(t, 5, parent.StockQuantity) // 1 + 4
}

func TestApplyDeltaProductLevelRejectedWhenVariantsExist(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "P1", 0)

	v1 := models.ProductVariant{ProductID: product.ID, Name: "500 ml", SKU: "P1-V1", StockQuantity: 3, IsActive: true}
	v2 := models.ProductVariant{ProductID: product.ID, Name: "1 lt", SKU: "P1-V2", StockQuantity: 4, IsActive: true}
	require.NoError(t, db.Create(&v1).Error)
	require.NoError(t, db.Create(&v2).Error)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return RecomputeProductStock(tx, product.ID)
	}))

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := ApplyDelta(tx, TargetRef{ProductID: product.ID}, -2)
		return err
	})
	require.ErrorIs(t, err, ErrVariantRequired)

	// Toplam, varyant toplamından kopmamış olmalı
	var parent models.Product
	require.NoError(t, db.First(&parent, "id = ?", product.ID).Error)
	assert.Equal(t, 7, parent.StockQuantity)

	var variantSum int64
	require.NoError(t, db.Model(&models.ProductVariant{}).
		Where("product_id = ? AND is_active = ?", product.ID, true).
		Select("COALESCE(SUM(stock_quantity), 0)").
		Scan(&variantSum).Error)
	assert.Equal(t, int64(7), variantSum)
}

func TestApplyDeltaRequiresExactlyOneTarget(t *testing.T) {
	db := newTestDB(t)

	_, err := ApplyDelta(db, TargetRef{}, -1)
	assert.Error(t, err)

	_, err = ApplyDelta(db, TargetRef{ProductID: 1, VariantID: 1}, -1)
	assert.Error(t, err)
}

func TestRecordConsistency(t *testing.T) {
	db := newTestDB(t)
	product := seedProduct(t, db, "P1", 5)

	// Önce/sonra değerleri delta ile tutmuyorsa kayıt reddedilir
	_, err := Record(db, RecordOptions{
		ProductID: product.ID, Delta: -2, PreviousStock: 5, NewStock: 4,
		Reason: models.ReasonSale, UserID: 1,
	})
	assert.Error(t, err)

	// Defter kaydı negatif stok gösteremez
	_, err = Record(db, RecordOptions{
		ProductID: product.ID, Delta: -6, PreviousStock: 5, NewStock: -1,
		Reason: models.ReasonSale, UserID: 1,
	})
	assert.Error(t, err)

	id, err := Record(db, RecordOptions{
		ProductID: product.ID, Delta: -2, PreviousStock: 5, NewStock: 3,
		Reason: models.ReasonSale, Note: "test", UserID: 1,
	})
	require.NoError(t, err)

	var adj models.StockAdjustment
	require.NoError(t, db.First(&adj, "id = ?", id).Error)
	assert.Equal(t, -2, adj.QuantityChange)
	assert.Equal(t, 5, adj.PreviousStock)
	assert.Equal(t, 3, adj.NewStock)
	assert.Equal(t, models.ReasonSale, adj.Reason)
}
