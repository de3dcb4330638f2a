// Command wallet_seed sets a wallet balance in the configured store and
// prints a bearer token for its owner.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"walletd/internal/config"
	"walletd/internal/logger"
	"walletd/internal/middleware"
	"walletd/internal/repositories"
	"walletd/internal/services/wallet"

	"github.com/google/uuid"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	log := logger.Init(logger.Config{Level: cfg.LogLevel, Format: "console", Output: os.Stderr})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	owner := os.Getenv("SEED_OWNER")
	if owner == "" {
		owner = uuid.NewString()
	}
	role := config.GetEnv("SEED_ROLE", "user")
	target := wallet.ParseAmountString(os.Getenv("SEED_BALANCE"))
	ttl := config.GetDurationEnv("SEED_TOKEN_TTL", 24*time.Hour)

	store, closeStore, err := repositories.OpenStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open balance store")
	}
	defer closeStore()

	registry, err := wallet.NewRegistry(store, cfg.Wallet.LedgerConfig(), wallet.WithLogger(log))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid wallet configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ledger, err := registry.Get(ctx, owner)
	if err != nil {
		log.Fatal().Err(err).Str("owner", owner).Msg("failed to load wallet")
	}

	// Move toward the target through the ledger so the ceiling and floor apply.
	current := ledger.Balance()
	switch {
	case target > current:
		_, err = ledger.AddFunds(ctx, target-current)
	case target < current:
		_, err = ledger.Deduct(ctx, current-target)
	}
	if err != nil {
		log.Fatal().Err(err).Str("owner", owner).Msg("failed to persist seeded balance")
	}

	token, err := middleware.IssueToken(cfg.JWTSecret, owner, role, ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to sign token")
	}

	log.Info().
		Str("owner", owner).
		Str("key", registry.KeyFor(owner)).
		Int64("balance", ledger.Balance()).
		Int64("max_balance", ledger.MaxBalance()).
		Msg("wallet seeded")
	fmt.Println(token)
}
