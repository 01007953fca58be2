package sales

import (
	"testing"

	"kasa-backend/internal/database"
	"kasa-backend/internal/events"
	"kasa-backend/internal/loyalty"
	"kasa-backend/internal/models"
	"kasa-backend/internal/stock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type captureRelay struct {
	events []events.Event
}

func (r *captureRelay) Publish(ev events.Event) {
	r.events = append(r.events, ev)
}

func (r *captureRelay) countByType(t events.EventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

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

func newTestService(t *testing.T, taxRate float64) (*Service, *gorm.DB, *captureRelay) {
	t.Helper()
	db := newTestDB(t)
	relay := &captureRelay{}
	calc := &loyalty.Calculator{EarnRate: 1, RedeemPointsPerUnit: 100, EarnOnNet: true}
	return NewService(db, calc, relay, taxRate, 0.01), db, relay
}

func seedCashier(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		Name: "Kasiyer", Email: "kasiyer@test.local",
		PasswordHash: "x", Role: models.RoleCashier, IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, price float64, quantity int) models.Product {
	t.Helper()
	product := models.Product{
		Name: "Ürün " + sku, SKU: sku, Barcode: "BC-" + sku,
		Price: price, StockQuantity: quantity, IsActive: true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func seedCustomer(t *testing.T, db *gorm.DB, points int) models.Customer {
	t.Helper()
	customer := models.Customer{Name: "Müşteri", LoyaltyPoints: points, IsActive: true}
	require.NoError(t, db.Create(&customer).Error)
	return customer
}

func floatPtr(v float64) *float64 { return &v }

func TestCompleteSaleCommitsAllEffects(t *testing.T) {
	svc, db, relay := newTestService(t, 0.08)
	cashier := seedCashier(t, db)
	product := seedProduct(t, db, "P1", 10.00, 5)

	result, err := svc.CompleteSale(CompleteSaleInput{
		Lines:         []CartLine{{ProductID: product.ID, Quantity: 2}},
		CashierID:     cashier.ID,
		PaymentMethod: models.PaymentCash,
		ClientTotal:   floatPtr(21.60),
	})
	require.NoError(t, err)

	assert.Regexp(t, `^INV-\d{8}-001$`, result.Sale.InvoiceNumber)
	assert.InDelta(t, 20.00, result.Sale.Subtotal, 0.001)
	assert.InDelta(t, 1.60, result.Sale.TaxAmount, 0.001)
	assert.InDelta(t, 21.60, result.Sale.TotalAmount, 0.001)
	assert.Equal(t, models.SaleCompleted, result.Sale.Status)

	var after models.Product
	require.NoError(t, db.First(&after, "id = ?", product.ID).Error)
	assert.Equal(t, 3, after.StockQuantity)

	var adjustments []models.StockAdjustment
	require.NoError(t, db.Find(&adjustments).Error)
	require.Len(t, adjustments, 1)
	assert.Equal(t, -2, adjustments[0].QuantityChange)
	assert.Equal(t, 5, adjustments[0].PreviousStock)
	assert.Equal(t, 3, adjustments[0].NewStock)
	assert.Equal(t, models.ReasonSale, adjustments[0].Reason)
	require.NotNil(t, adjustments[0].SaleID)
	assert.Equal(t, result.Sale.ID, *adjustments[0].SaleID)

	var items []models.SaleItem
	require.NoError(t, db.Find(&items, "sale_id = ?", result.Sale.ID).Error)
	require.Len(t, items, 1)
	assert.InDelta(t, 10.00, items[0].UnitPrice, 0.001)
	assert.InDelta(t, 20.00, items[0].TotalPrice, 0.001)

	assert.Equal(t, 1, relay.countByType(events.InventoryUpdated))
	assert.Equal(t, 1, relay.countByType(events.SaleCompleted))
}

func TestCompleteSaleInsufficientStockAborts(t *testing.T) {
	svc, db, relay := newTestService(t, 0.08)
	cashier := seedCashier(t, db)
	product := seedProduct(t, db, "P1", 10.00, 1)

	_, err := svc.CompleteSale(CompleteSaleInput{
		Lines:         []CartLine{{ProductID: product.ID, Quantity: 2}},
		CashierID:     cashier.ID,
		PaymentMethod: models.PaymentCash,
	})
	require.Error(t, err)

	var insufficient *stock.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	var after models.Product
	require.NoError(t, db.First(&after, "id = ?", product.ID).Error)
	assert.Equal(t, 1, after.StockQuantity)

	var saleCount, adjCount int64
	db.Model(&models.Sale{}).Count(&saleCount)
	db.Model(&models.StockAdjustment{}).Count(&adjCount)
	assert.Zero(t, saleCount)
	assert.Zero(t, adjCount)
	assert.Empty(t, relay.events)
}

func TestCompleteSaleMultiLineAtomicity(t *testing.T) {
	svc, db, _ := newTestService(t, 0)
	cashier := seedCashier(t, db)
	ok := seedProduct(t, db, "P1", 10.00, 5)
	empty := seedProduct(t, db, "P2", 4.00, 0)

	_, err := svc.CompleteSale(CompleteSaleInput{
		Lines: []CartLine{
			{ProductID: ok.ID, Quantity: 2},
			{ProductID: empty.ID, Quantity: 1},
		},
		CashierID:     cashier.ID,
		PaymentMethod: models.PaymentCard,
	})
	require.Error(t, err)

	// İlk satırın düştüğü stok da geri alınmış olmalı
	var first models.Product
	require.NoError(t, db.First(&first, "id = ?", ok.ID).Error)
	assert.Equal(t, 5, first.StockQuantity)

	var saleCount, itemCount, adjCount int64
	db.Model(&models.Sale{}).Count(&saleCount)
	db.Model(&models.SaleItem{}).Count(&itemCount)
	db.Model(&models.StockAdjustment{}).Count(&adjCount)
	assert.Zero(t, saleCount)
	assert.Zero(t, itemCount)
	assert.Zero(t, adjCount)
}

func TestCompleteSaleAccruesLoyalty(t *testing.T) {
	svc, db, _ := newTestService(t, 0)
	cashier := seedCashier(t, db)
	product := seedProduct(t, db, "P1", 45.00, 10)
	customer := seedCustomer(t, db, 0)

	result, err := svc.CompleteSale(CompleteSaleInput{
		Lines:         []CartLine{{ProductID: product.ID, Quantity: 1}},
		CustomerID:    &customer.ID,
		CashierID:     cashier.ID,
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	assert.Equal(t, 45, result.Loyalty.PointsEarned)

	var after models.Customer
	require.NoError(t, db.First(&after, "id = ?", customer.ID).Error)
	assert.Equal(t, 45, after.LoyaltyPoints)
	assert.InDelta(t, 45.00, after.TotalSpent, 0.001)

	var reward models.LoyaltyReward
	require.NoError(t, db.First(&reward, "customer_id = ?", customer.ID).Error)
	assert.Equal(t, 45, reward.PointsEarned)
	assert.Equal(t, 0, reward.PointsUsed)
	require.NotNil(t, reward.SaleID)
	assert.Equal(t, result.Sale.ID, *reward.SaleID)
}

func TestCompleteSaleInsufficientPointsAborts(t *testing.T) {
	svc, db, _ := newTestService(t, 0)
	cashier := seedCashier(t, db)
	product := seedProduct(t, db, "P1", 20.00, 10)
	customer := seedCustomer(t, db, 50)

	_, err := svc.CompleteSale(CompleteSaleInput{
		Lines:           []CartLine{{ProductID: product.ID, Quantity: 1}},
		CustomerID:      &customer.ID,
		CashierID:       cashier.ID,
		PaymentMethod:   models.PaymentCash,
		PointsRequested: 100,
	})
	require.Error(t, err)

	var insufficient *loyalty.InsufficientPointsError
	require.ErrorAs(t, err, &insufficient)

	var after models.Customer
	require.NoError(t, db.First(&after, "id = ?", customer.ID).Error)
	assert.Equal(t, 50, after.LoyaltyPoints)
	assert.InDelta(t, 0, after.TotalSpent, 0.001)

	var product2 models.Product
	require.NoError(t, db.First(&product2, "id = ?", product.ID).Error)
	assert.Equal(t, 10, product2.StockQuantity)

	var saleCount int64
	db.Model(&models.Sale{}).Count(&saleCount)
	assert.Zero(t, saleCount)
}

func TestCompleteSaleRedeemsPoints(t *testing.T) {
	svc, db, _ := newTestService(t, 0)
	cashier := seedCashier(t, db)
	product := seedProduct(t, db, "P1", 50.00, 10)
	customer := seedCustomer(t, db, 200)

	result, err := svc.CompleteSale(CompleteSaleInput{
		Lines:           []CartLine{{ProductID: product.ID, Quantity: 1}},
		CustomerID:      &customer.ID,
		CashierID:       cashier.ID,
		PaymentMethod:   models.PaymentCard,
		PointsRequested: 100,
	})
	require.NoError(t, err)

	// 100 puan = 1 birim indirim, kazanım net 49 üzerinden
	assert.InDelta(t, 1.00, result.Sale.DiscountAmount, 0.001)
	assert.InDelta(t, 49.00, result.Sale.TotalAmount, 0.001)
	assert.Equal(t, 100, result.Loyalty.PointsUsed)
	assert.Equal(t, 49, result.Loyalty.PointsEarned)

	var after models.Customer
	require.NoError(t, db.First(&after, "id = ?", customer.ID).Error)
	assert.Equal(t, 149, after.LoyaltyPoints)

	var reward models.LoyaltyReward
	require.NoError(t, db.First(&reward, "customer_id = ?", customer.ID).Error)
	assert.True(t, reward.IsRedeemed)
	assert.InDelta(t, 1.00, reward.RewardValue, 0.001)
}

func TestCompleteSalePriceMismatch(t *testing.T) {
	svc, db, _ := newTestService(t, 0.08)
	cashier := seedCashier(t, db)
	product := seedProduct(t, db, "P1", 10.00, 5)

	_, err := svc.CompleteSale(CompleteSaleInput{
		Lines:         []CartLine{{ProductID: product.ID, Quantity: 2}},
		CashierID:     cashier.ID,
		PaymentMethod: models.PaymentCash,
		ClientTotal:   floatPtr(99.00),
	})
	require.Error(t, err)

	var mismatch *PriceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.InDelta(t, 99.00, mismatch.ClientTotal, 0.001)
	assert.InDelta(t, 21.60, mismatch.ServerTotal, 0.001)

	var after models.Product
	require.NoError(t, db.First(&after, "id = ?", product.ID).Error)
	assert.Equal(t, 5, after.StockQuantity)

	var saleCount int64
	db.Model(&models.Sale{}).Count(&saleCount)
	assert.Zero(t, saleCount)
}

func TestCompleteSaleLineValidation(t *testing.T) {
	svc, db, _ := newTestService(t, 0)
	cashier := seedCashier(t, db)

	_, err := svc.CompleteSale(CompleteSaleInput{
		CashierID:     cashier.ID,
		PaymentMethod: models.PaymentCash,
	})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = svc.CompleteSale(CompleteSaleInput{
		Lines:           []CartLine{{ProductID: 1, Quantity: 1}},
		CashierID:       cashier.ID,
		PaymentMethod:   models.PaymentCash,
		PointsRequested: 10,
	})
	assert.ErrorIs(t, err, ErrCustomerRequired)

	inactive := seedProduct(t, db, "P1", 10.00, 5)
	require.NoError(t, db.Model(&inactive).Update("is_active", false).Error)

	_, err = svc.CompleteSale(CompleteSaleInput{
		Lines:         []CartLine{{ProductID: inactive.ID, Quantity: 1}},
		CashierID:     cashier.ID,
		PaymentMethod: models.PaymentCash,
	})
	var lineErr *LineItemError
	require.ErrorAs(t, err, &lineErr)
}

func TestCompleteSaleVariantLine(t *testing.T) {
	svc, db, _ := newTestService(t, 0)
	cashier := seedCashier(t, db)
	product := seedProduct(t, db, "P1", 10.00, 0)

	variant := models.ProductVariant{
		ProductID: product.ID, Name: "500 ml", SKU: "P1-V1",
		PriceOverride: floatPtr(8.00), StockQuantity: 4, IsActive: true,
	}
	require.NoError(t, db.Create(&variant).Error)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return stock.RecomputeProductStock(tx, product.ID)
	}))

	result, err := svc.CompleteSale(CompleteSaleInput{
		Lines:         []CartLine{{ProductID: product.ID, VariantID: &variant.ID, Quantity: 2}},
		CashierID:     cashier.ID,
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	// Varyant fiyatı geçerli
	assert.InDelta(t, 16.00, result.Sale.TotalAmount, 0.001)

	var afterVariant models.ProductVariant
	require.NoError(t, db.First(&afterVariant, "id = ?", variant.ID).Error)
	assert.Equal(t, 2, afterVariant.StockQuantity)

	// Üst ürün toplamı varyantla birlikte güncellenir
	var parent models.Product
	require.NoError(t, db.First(&parent, "id = ?", product.ID).Error)
	assert.Equal(t, 2, parent.StockQuantity)

	var adj models.StockAdjustment
	require.NoError(t, db.First(&adj).Error)
	require.NotNil(t, adj.VariantID)
	assert.Equal(t, variant.ID, *adj.VariantID)
	assert.Equal(t, product.ID, adj.ProductID)
}

func TestCompleteSaleRejectsProductLineWithVariants(t *testing.T) {
	svc, db, _ := newTestService(t, 0)
	cashier := seedCashier(t, db)
	product := seedProduct(t, db, "P1", 10.00, 0)

	v1 := models.ProductVariant{ProductID: product.ID, Name: "500 ml", SKU: "P1-V1", StockQuantity: 3, IsActive: true}
	v2 := models.ProductVariant{ProductID: product.ID, Name: "1 lt", SKU: "P1-V2", StockQuantity: 4, IsActive: true}
	require.NoError(t, db.Create(&v1).Error)
	require.NoError(t, db.Create(&v2).Error)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return stock.RecomputeProductStock(tx, product.ID)
	}))

	// Varyant seçmeden ürün seviyesinde satış toplamı varyant stoklarından koparır
	_, err := svc.CompleteSale(CompleteSaleInput{
		Lines:         []CartLine{{ProductID: product.ID, Quantity: 2}},
		CashierID:     cashier.ID,
		PaymentMethod: models.PaymentCash,
	})
	require.Error(t, err)

	var lineErr *LineItemError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, "P1", lineErr.SKU)

	var parent models.Product
	require.NoError(t, db.First(&parent, "id = ?", product.ID).Error)
	assert.Equal(t, 7, parent.StockQuantity)

	var variantSum int64
	require.NoError(t, db.Model(&models.ProductVariant{}).
		Where("product_id = ? AND is_active = ?", product.ID, true).
		Select("COALESCE(SUM(stock_quantity), 0)").
		Scan(&variantSum).Error)
	assert.Equal(t, int64(7), variantSum)

	var saleCount int64
	db.Model(&models.Sale{}).Count(&saleCount)
	assert.Zero(t, saleCount)
}

func TestRefundSaleWithoutLoyaltyReward(t *testing.T) {
	svc, db, _ := newTestService(t, 0)
	cashier := seedCashier(t, db)
	product := seedProduct(t, db, "P1", 10.00, 5)

	// Anonim satış ödül kaydı üretmez; iade yine de sorunsuz tamamlanmalı
	result, err := svc.CompleteSale(CompleteSaleInput{
		Lines:         []CartLine{{ProductID: product.ID, Quantity: 2}},
		CashierID:     cashier.ID,
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	var rewardCount int64
	db.Model(&models.LoyaltyReward{}).Count(&rewardCount)
	require.Zero(t, rewardCount)

	refunded, err := svc.RefundSale(result.Sale.ID, cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SaleRefunded, refunded.Status)

	var after models.Product
	require.NoError(t, db.First(&after, "id = ?", product.ID).Error)
	assert.Equal(t, 5, after.StockQuantity)
}

func TestRefundSaleMirrorsSale(t *testing.T) {
	svc, db, relay := newTestService(t, 0.08)
	cashier := seedCashier(t, db)
	product := seedProduct(t, db, "P1", 10.00, 5)
	customer := seedCustomer(t, db, 0)

	result, err := svc.CompleteSale(CompleteSaleInput{
		Lines:         []CartLine{{ProductID: product.ID, Quantity: 2}},
		CustomerID:    &customer.ID,
		CashierID:     cashier.ID,
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	// 21.60 toplamdan 21 puan kazanıldı
	var midCustomer models.Customer
	require.NoError(t, db.First(&midCustomer, "id = ?", customer.ID).Error)
	assert.Equal(t, 21, midCustomer.LoyaltyPoints)

	refunded, err := svc.RefundSale(result.Sale.ID, cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SaleRefunded, refunded.Status)

	var after models.Product
	require.NoError(t, db.First(&after, "id = ?", product.ID).Error)
	assert.Equal(t, 5, after.StockQuantity)

	var adjustments []models.StockAdjustment
	require.NoError(t, db.Order("id ASC").Find(&adjustments).Error)
	require.Len(t, adjustments, 2)
	assert.Equal(t, -2, adjustments[0].QuantityChange)
	assert.Equal(t, models.ReasonSale, adjustments[0].Reason)
	assert.Equal(t, 2, adjustments[1].QuantityChange)
	assert.Equal(t, models.ReasonReturn, adjustments[1].Reason)

	// Kazanılan puan geri alındı, TotalSpent'e dokunulmadı
	var afterCustomer models.Customer
	require.NoError(t, db.First(&afterCustomer, "id = ?", customer.ID).Error)
	assert.Equal(t, 0, afterCustomer.LoyaltyPoints)
	assert.InDelta(t, 21.60, afterCustomer.TotalSpent, 0.001)

	assert.Equal(t, 1, relay.countByType(events.SaleRefunded))

	// Aynı satış ikinci kez iade edilemez
	_, err = svc.RefundSale(result.Sale.ID, cashier.ID)
	assert.ErrorIs(t, err, ErrSaleNotRefundable)
}

func TestInvoiceNumbersIncrementWithinDay(t *testing.T) {
	svc, db, _ := newTestService(t, 0)
	cashier := seedCashier(t, db)
	product := seedProduct(t, db, "P1", 10.00, 10)

	first, err := svc.CompleteSale(CompleteSaleInput{
		Lines:         []CartLine{{ProductID: product.ID, Quantity: 1}},
		CashierID:     cashier.ID,
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	second, err := svc.CompleteSale(CompleteSaleInput{
		Lines:         []CartLine{{ProductID: product.ID, Quantity: 1}},
		CashierID:     cashier.ID,
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	assert.Regexp(t, `^INV-\d{8}-001$`, first.Sale.InvoiceNumber)
	assert.Regexp(t, `^INV-\d{8}-002$`, second.Sale.InvoiceNumber)
	assert.NotEqual(t, first.Sale.InvoiceNumber, second.Sale.InvoiceNumber)
}
