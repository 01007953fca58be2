package loyalty

import (
	"testing"

	"kasa-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCalculator() *Calculator {
	return &Calculator{EarnRate: 1, RedeemPointsPerUnit: 100, EarnOnNet: true}
}

func TestSettleAnonymousSale(t *testing.T) {
	calc := testCalculator()

	settlement, err := calc.Settle(nil, 100, 0)
	require.NoError(t, err)

	assert.Equal(t, Settlement{}, settlement)
}

func TestSettleEarnsPoints(t *testing.T) {
	calc := testCalculator()
	customer := &models.Customer{LoyaltyPoints: 0}

	settlement, err := calc.Settle(customer, 45, 0)
	require.NoError(t, err)

	assert.Equal(t, 45, settlement.PointsEarned)
	assert.Equal(t, 0, settlement.PointsUsed)
	assert.Equal(t, 0.0, settlement.DiscountFromPoints)
	assert.Equal(t, 45, settlement.NewBalance)
}

func TestSettleFloorsFractionalPoints(t *testing.T) {
	calc := testCalculator()
	customer := &models.Customer{LoyaltyPoints: 0}

	settlement, err := calc.Settle(customer, 21.60, 0)
	require.NoError(t, err)

	assert.Equal(t, 21, settlement.PointsEarned)
}

func TestSettleInsufficientPoints(t *testing.T) {
	calc := testCalculator()
	customer := &models.Customer{LoyaltyPoints: 50}

	_, err := calc.Settle(customer, 100, 100)
	require.Error(t, err)

	var insufficient *InsufficientPointsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 50, insufficient.Balance)
	assert.Equal(t, 100, insufficient.Requested)

	// Hesaplama yan etkisizdir, bakiye değişmemeli
	assert.Equal(t, 50, customer.LoyaltyPoints)
}

func TestSettleRedemption(t *testing.T) {
	calc := testCalculator()
	customer := &models.Customer{LoyaltyPoints: 200}

	// 100 puan = 1 birim indirim; kazanım net tutardan (50 - 1 = 49)
	settlement, err := calc.Settle(customer, 50, 100)
	require.NoError(t, err)

	assert.Equal(t, 100, settlement.PointsUsed)
	assert.InDelta(t, 1.00, settlement.DiscountFromPoints, 0.001)
	assert.Equal(t, 49, settlement.PointsEarned)
	assert.Equal(t, 149, settlement.NewBalance) // 200 - 100 + 49
}

func TestSettleEarnOnGross(t *testing.T) {
	calc := testCalculator()
	calc.EarnOnNet = false
	customer := &models.Customer{LoyaltyPoints: 200}

	settlement, err := calc.Settle(customer, 50, 100)
	require.NoError(t, err)

	// Brüt tabanda kazanım puan indiriminden etkilenmez
	assert.Equal(t, 50, settlement.PointsEarned)
	assert.Equal(t, 150, settlement.NewBalance)
}

func TestSettleRejectsNegativeInputs(t *testing.T) {
	calc := testCalculator()
	customer := &models.Customer{LoyaltyPoints: 10}

	_, err := calc.Settle(customer, -1, 0)
	assert.Error(t, err)

	_, err = calc.Settle(customer, 10, -5)
	assert.Error(t, err)
}
