package stock

import (
	"errors"
	"fmt"
)

// ErrVariantRequired: Aktif varyantı olan ürünün toplam stoğu türetilmiş
// değerdir, doğrudan hareket kabul etmez; hareket varyant üzerinden yapılmalı.
var ErrVariantRequired = errors.New("varyantlı ürünün stoğu varyant üzerinden hareket görür")

// InsufficientStockError: Uygulanacak hareket stoğu negatife düşürecekse döner.
// Stok hiçbir zaman eksiye kırpılmaz; satış akışında bu hata tüm
// transaction'ı iptal ettirir.
type InsufficientStockError struct {
	SKU       string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("yetersiz stok: %s (mevcut %d, istenen %d)", e.SKU, e.Available, e.Requested)
}
