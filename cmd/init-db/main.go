// init-db aplica o schema e garante a existência do usuário padrão.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
	"github.com/radieske/nba-betting-engine/internal/betting/repo"
	"github.com/radieske/nba-betting-engine/internal/shared/config"
	"github.com/radieske/nba-betting-engine/internal/shared/db"
	"github.com/radieske/nba-betting-engine/internal/shared/logger"
)

func main() {
	username := flag.String("user", "default", "username of the seed user")
	flag.Parse()

	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "init-db"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	store := repo.NewPostgres(pg)
	if err := store.Migrate(ctx); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("schema applied")

	var user domain.User
	created := false
	err = store.WithinTx(ctx, func(ctx context.Context, tx repo.Tx) error {
		u, err := tx.Users().FindByUsername(ctx, *username)
		if err == nil {
			user = *u
			return nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		user = domain.User{Username: *username, Balance: cfg.DefaultUserBalance}
		created = true
		return tx.Users().Create(ctx, &user)
	})
	if err != nil {
		log.Fatal("seed user failed", zap.Error(err))
	}

	log.Info("seed user ready",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("balance", user.Balance.StringFixed(2)),
		zap.Bool("created", created),
	)
}
