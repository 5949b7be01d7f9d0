package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DB       DBConfig
	Telegram TelegramConfig
	Pricing  PricingConfig
	Payout   PayoutConfig
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type TelegramConfig struct {
	Token string // bot token for order/payout notifications; empty disables sends
}

// FeeTier maps a distance band to a delivery fee and a customer-facing label.
type FeeTier struct {
	UpToKm float64 // inclusive upper bound; the last tier ignores this
	Fee    int64
	Label  string
}

// BonusTier maps a minimum distance to an extra driver bonus.
type BonusTier struct {
	FromKm float64
	Bonus  int64
}

// PeakWindow is a daily time window (minutes since midnight, local time)
// during which deliveries earn the peak-hour bonus.
type PeakWindow struct {
	StartMin int
	EndMin   int
}

type PricingConfig struct {
	MinCommissionBps int64 // lowest restaurant commission rate allowed (basis points)
	MaxCommissionBps int64
	DriverShareBps   int64 // driver's cut of the delivery fee
	FeeTiers         []FeeTier
	DistanceBonuses  []BonusTier
	PeakWindows      []PeakWindow
	PeakBonus        int64
}

type PayoutConfig struct {
	DriverMinBalance     int64 // auto payout threshold for drivers
	RestaurantMinBalance int64 // auto payout threshold for restaurants
	GenerateEveryMinutes int   // background payout generation interval, 0 disables
}

// DefaultPricing returns the platform's pricing tunables. Tier boundaries
// and bonus magnitudes are configuration, not derived constants.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		MinCommissionBps: 1500,
		MaxCommissionBps: 2000,
		DriverShareBps:   7000,
		FeeTiers: []FeeTier{
			{UpToKm: 3, Fee: 500, Label: "Proximité (0–3 km)"},
			{UpToKm: 7, Fee: 1000, Label: "Zone intermédiaire (3–7 km)"},
			{UpToKm: 12, Fee: 1500, Label: "Zone éloignée (7–12 km)"},
			{Fee: 2500, Label: "Grande distance (12+ km)"},
		},
		PeakWindows: []PeakWindow{
			{StartMin: 11*60 + 30, EndMin: 13*60 + 30},
			{StartMin: 19 * 60, EndMin: 21*60 + 30},
		},
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))

	pricing := DefaultPricing()
	pricing.MinCommissionBps = getEnvInt64("MIN_COMMISSION_BPS", pricing.MinCommissionBps)
	pricing.MaxCommissionBps = getEnvInt64("MAX_COMMISSION_BPS", pricing.MaxCommissionBps)
	pricing.DriverShareBps = getEnvInt64("DRIVER_SHARE_BPS", pricing.DriverShareBps)
	if b := getEnvInt64("DISTANCE_BONUS_10KM", 0); b > 0 {
		pricing.DistanceBonuses = []BonusTier{{FromKm: 10, Bonus: b}}
	}
	pricing.PeakBonus = getEnvInt64("PEAK_BONUS", 0)

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "baibebalo"),
		},
		Telegram: TelegramConfig{
			Token: getEnv("TOKEN", ""),
		},
		Pricing: pricing,
		Payout: PayoutConfig{
			DriverMinBalance:     getEnvInt64("DRIVER_PAYOUT_MIN", 1000),
			RestaurantMinBalance: getEnvInt64("RESTAURANT_PAYOUT_MIN", 10000),
			GenerateEveryMinutes: int(getEnvInt64("PAYOUT_INTERVAL_MIN", 0)),
		},
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
