package sales

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart            = errors.New("sepet boş")
	ErrCustomerRequired     = errors.New("puan kullanmak için müşteri seçilmeli")
	ErrCustomerNotFound     = errors.New("müşteri bulunamadı")
	ErrSaleNotRefundable    = errors.New("satış iade edilebilir durumda değil")
	ErrDiscountExceedsTotal = errors.New("indirim tutarı satış toplamını aşıyor")
)

// LineItemError: Sepet satırı geçersiz (ürün/varyant yok, pasif, adet hatalı).
// Hangi satırın sorunlu olduğu SKU ile raporlanır.
type LineItemError struct {
	SKU    string
	Reason string
}

func (e *LineItemError) Error() string {
	return fmt.Sprintf("satır hatası (%s): %s", e.SKU, e.Reason)
}

// PriceMismatchError: İstemcinin gösterdiği toplam, sunucuda kanonik
// fiyatlardan yeniden hesaplanan toplamdan epsilon'dan fazla sapıyor.
// İstemci toplamı yalnızca görüntüleme ipucudur, asla esas alınmaz.
type PriceMismatchError struct {
	ClientTotal float64
	ServerTotal float64
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("tutar uyuşmazlığı: istemci %.2f, sunucu %.2f", e.ClientTotal, e.ServerTotal)
}
