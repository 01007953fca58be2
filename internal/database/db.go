package database

import (
	"log"

	"kasa-backend/internal/config"
	"kasa-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate, şemayı verilen bağlantı üzerinde kurar. Testler sqlite
// bağlantısıyla da çağırabilsin diye Init'ten ayrı tutuluyor.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Customer{},
		&models.LoyaltyReward{},
		&models.Sale{},
		&models.SaleItem{},
		&models.StockAdjustment{},
		&models.InvoiceCounter{},
	)
}
