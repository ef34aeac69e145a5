// Package consumer mantém o cache da API coerente com os eventos do worker.
package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/nba-betting-engine/internal/betting/domain"
	"github.com/radieske/nba-betting-engine/pkg/contracts/events"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, statuses ...string) error
}

// Invalidator consome games_changed e derruba as listagens de jogos em
// cache, para que /games reflita syncs e placares antes do TTL.
type Invalidator struct {
	Log    *zap.Logger
	Reader messageReader
	Cache  cacheInvalidator

	OnError func(string) // métricas por fase
}

// o evento não diz quais status mudaram; todas as listagens caem
var affected = []string{
	domain.GameUpcoming.String(),
	domain.GameInProgress.String(),
	domain.GameCompleted.String(),
}

// Run consome até o contexto ser cancelado.
func (p *Invalidator) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}

		var ev events.GamesChanged
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			p.fail("decode")
			continue
		}

		if err := p.Cache.Invalidate(ctx, affected...); err != nil {
			p.Log.Warn("cache invalidation failed", zap.String("source", ev.Source), zap.Error(err))
			p.fail("cache")
			continue
		}
		p.Log.Debug("games cache invalidated", zap.String("source", ev.Source))
	}
}

func (p *Invalidator) fail(phase string) {
	if p.OnError != nil {
		p.OnError(phase)
	}
}
