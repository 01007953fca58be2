package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	// Fiyatlandırma
	TaxRate      float64 // KDV oranı (ör: 0.08)
	PriceEpsilon float64 // istemci toplamı ile sunucu toplamı arasındaki tolerans

	// Sadakat programı. Oranlar bilinçli olarak sabit değil, konfigürasyon:
	// aynı katsayıların kod içinde tekrar tekrar yazılması istenmiyor.
	LoyaltyEarnRate            float64 // harcanan 1 para birimi başına kazanılan puan
	LoyaltyRedeemPointsPerUnit int     // 1 birim indirim için gereken puan
	LoyaltyEarnOnNet           bool    // puan, puan indirimi düşüldükten sonraki tutardan mı kazanılsın
}

func Load() *Config {
	// .env varsa yükle, yoksa ortam değişkenleriyle devam et
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] .env dosyası bulunamadı, ortam değişkenleri kullanılıyor")
	}

	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=kasa port=5432 sslmode=disable"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		TaxRate:      getEnvFloat("TAX_RATE", 0.08),
		PriceEpsilon: getEnvFloat("PRICE_EPSILON", 0.01),

		LoyaltyEarnRate:            getEnvFloat("LOYALTY_EARN_RATE", 1),
		LoyaltyRedeemPointsPerUnit: getEnvInt("LOYALTY_REDEEM_POINTS_PER_UNIT", 100),
		LoyaltyEarnOnNet:           getEnvBool("LOYALTY_EARN_ON_NET", true),
	}

	// Production güvenlik kontrolleri
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.TaxRate < 0 || cfg.TaxRate > 1 {
		log.Fatal("[FATAL] TAX_RATE 0 ile 1 arasında olmalıdır (ör: 0.08)")
	}
	if cfg.LoyaltyRedeemPointsPerUnit <= 0 {
		log.Fatal("[FATAL] LOYALTY_REDEEM_POINTS_PER_UNIT pozitif olmalıdır")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("[WARN] %s sayı olarak okunamadı, varsayılan kullanılıyor: %v", key, def)
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[WARN] %s tam sayı olarak okunamadı, varsayılan kullanılıyor: %v", key, def)
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("[WARN] %s bool olarak okunamadı, varsayılan kullanılıyor: %v", key, def)
	}
	return def
}
