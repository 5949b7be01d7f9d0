package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BBKML/BaibebaloProjets-sub007/config"
	"github.com/BBKML/BaibebaloProjets-sub007/db"
	"github.com/BBKML/BaibebaloProjets-sub007/logger"
	"github.com/BBKML/BaibebaloProjets-sub007/models"
	"github.com/BBKML/BaibebaloProjets-sub007/notify"
	"github.com/BBKML/BaibebaloProjets-sub007/services"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger.Init(strings.EqualFold(os.Getenv("ENV"), "development"))
	defer logger.Sync()

	// Check for migrate subcommand
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrate(cfg)
		return
	}

	if err := db.Init(cfg.DB); err != nil {
		fmt.Fprintln(os.Stderr, "db:", err)
		os.Exit(1)
	}
	defer db.Close()

	// Optional auto-migration (useful in production and for fresh DBs).
	// Set AUTO_MIGRATE=1 (or "true") to enable.
	if v := strings.TrimSpace(os.Getenv("AUTO_MIGRATE")); v == "1" || strings.EqualFold(v, "true") {
		if err := applyMigrations(context.Background(), false); err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
	}

	services.SetPricingConfig(cfg.Pricing)
	services.SetPayoutConfig(cfg.Payout)

	if cfg.Telegram.Token != "" {
		n, err := notify.NewTelegramNotifier(cfg.Telegram.Token)
		if err != nil {
			fmt.Fprintln(os.Stderr, "notifier:", err)
			os.Exit(1)
		}
		services.SetNotifier(n)
	} else {
		logger.L().Warn("TOKEN not set, notifications disabled")
	}

	if cfg.Payout.GenerateEveryMinutes > 0 {
		go runPayoutGeneration(cfg.Payout.GenerateEveryMinutes)
	}

	logger.L().Info("settlement engine started")
	select {}
}

// runPayoutGeneration periodically books payable balances into pending
// payout requests for both beneficiary types.
func runPayoutGeneration(everyMinutes int) {
	ticker := time.NewTicker(time.Duration(everyMinutes) * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		for _, t := range []string{models.BeneficiaryDriver, models.BeneficiaryRestaurant} {
			created, err := services.GeneratePayouts(ctx, t)
			if err != nil {
				logger.L().Error("payout generation", zap.String("beneficiary_type", t), zap.Error(err))
				continue
			}
			if len(created) > 0 {
				logger.L().Info("payouts generated",
					zap.String("beneficiary_type", t),
					zap.Int("count", len(created)))
			}
		}
		cancel()
	}
}

func runMigrate(cfg *config.Config) {
	if err := db.Init(cfg.DB); err != nil {
		fmt.Fprintln(os.Stderr, "db:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := applyMigrations(context.Background(), true); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
