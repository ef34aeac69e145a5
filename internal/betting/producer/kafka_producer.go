// Package producer publica os eventos de domínio no Kafka.
package producer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	skafka "github.com/radieske/nba-betting-engine/internal/shared/kafka"
	"github.com/radieske/nba-betting-engine/pkg/contracts/events"
)

// messageWriter é o subconjunto de *kafka.Writer usado aqui.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Topics struct {
	BetPlaced     string
	BetSettled    string
	GameCompleted string
	GamesChanged  string
}

// KafkaPublisher mantém um writer por tópico. A chave da mensagem é o id da
// aposta ou do jogo, mantendo a ordem por entidade dentro da partição.
type KafkaPublisher struct {
	placed    messageWriter
	settled   messageWriter
	completed messageWriter
	changed   messageWriter
	log       *zap.Logger
}

func NewKafkaPublisher(brokers string, t Topics, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		placed:    skafka.NewWriter(brokers, t.BetPlaced),
		settled:   skafka.NewWriter(brokers, t.BetSettled),
		completed: skafka.NewWriter(brokers, t.GameCompleted),
		changed:   skafka.NewWriter(brokers, t.GamesChanged),
		log:       log,
	}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	return p.publish(ctx, p.placed, e.BetID, e)
}

func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	return p.publish(ctx, p.settled, e.BetID, e)
}

func (p *KafkaPublisher) PublishGameCompleted(ctx context.Context, e events.GameCompleted) error {
	return p.publish(ctx, p.completed, e.GameID, e)
}

func (p *KafkaPublisher) PublishGamesChanged(ctx context.Context, e events.GamesChanged) error {
	return p.publish(ctx, p.changed, e.Source, e)
}

func (p *KafkaPublisher) publish(ctx context.Context, w messageWriter, key string, e any) error {
	value, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := skafka.WriteJSON(ctx, w, key, value); err != nil {
		return err
	}
	p.log.Debug("event published", zap.String("key", key))
	return nil
}

// Close finaliza os writers e libera recursos associados.
func (p *KafkaPublisher) Close() error {
	return errors.Join(p.placed.Close(), p.settled.Close(), p.completed.Close(), p.changed.Close())
}
