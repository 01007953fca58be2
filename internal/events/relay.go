package events

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	SaleCompleted    EventType = "saleCompleted"
	SaleRefunded     EventType = "saleRefunded"
	InventoryUpdated EventType = "inventoryUpdated"
)

type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func New(t EventType, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now(),
		Payload:    payload,
	}
}

type SaleCompletedPayload struct {
	SaleID        uint    `json:"sale_id"`
	InvoiceNumber string  `json:"invoice_number"`
	TotalAmount   float64 `json:"total_amount"`
}

type SaleRefundedPayload struct {
	SaleID        uint   `json:"sale_id"`
	InvoiceNumber string `json:"invoice_number"`
}

type InventoryUpdatedPayload struct {
	ProductID      uint   `json:"product_id"`
	VariantID      *uint  `json:"variant_id"`
	QuantityChange int    `json:"quantity_change"`
	NewStock       int    `json:"new_stock"`
	Reason         string `json:"reason"`
	SaleID         *uint  `json:"sale_id"`
}

// Relay: Commit sonrası bildirimlerin yayınlandığı arayüz. Yayın best-effort'tur;
// başarısızlık loglanır, commit edilmiş satışın sonucunu asla etkilemez.
type Relay interface {
	Publish(ev Event)
}

// InProcessRelay: Süreç içi fan-out. Aboneler (dashboard soketi, düşük stok
// uyarısı vs.) callback olarak kaydolur; bir abonenin panic'i diğerlerini ve
// yayını etkilemez.
type InProcessRelay struct {
	mu          sync.RWMutex
	subscribers []func(Event)
}

func NewInProcessRelay() *InProcessRelay {
	return &InProcessRelay{}
}

func (r *InProcessRelay) Subscribe(fn func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

func (r *InProcessRelay) Publish(ev Event) {
	r.mu.RLock()
	subs := make([]func(Event), len(r.subscribers))
	copy(subs, r.subscribers)
	r.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("Bildirim aboneliği hata verdi (%s %s): %v", ev.Type, ev.ID, rec)
				}
			}()
			fn(ev)
		}()
	}
}
