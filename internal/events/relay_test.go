package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcessRelayFanOut(t *testing.T) {
	relay := NewInProcessRelay()

	var first, second []Event
	relay.Subscribe(func(ev Event) { first = append(first, ev) })
	relay.Subscribe(func(ev Event) { second = append(second, ev) })

	ev := New(SaleCompleted, SaleCompletedPayload{SaleID: 1, InvoiceNumber: "INV-20251209-001", TotalAmount: 21.60})
	relay.Publish(ev)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, ev.ID, first[0].ID)
	assert.Equal(t, SaleCompleted, second[0].Type)
}

func TestInProcessRelayPanicIsolation(t *testing.T) {
	relay := NewInProcessRelay()

	var received []Event
	relay.Subscribe(func(Event) { panic("bozuk abone") })
	relay.Subscribe(func(ev Event) { received = append(received, ev) })

	// Panikleyen abone yayını ve diğer aboneleri etkilememeli
	relay.Publish(New(InventoryUpdated, InventoryUpdatedPayload{ProductID: 1, QuantityChange: -2, NewStock: 3}))
	relay.Publish(New(SaleRefunded, SaleRefundedPayload{SaleID: 1, InvoiceNumber: "INV-20251209-001"}))

	require.Len(t, received, 2)
	assert.Equal(t, InventoryUpdated, received[0].Type)
	assert.Equal(t, SaleRefunded, received[1].Type)
}

func TestNewEventAssignsIdentity(t *testing.T) {
	a := New(SaleCompleted, nil)
	b := New(SaleCompleted, nil)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.OccurredAt.IsZero())
}
