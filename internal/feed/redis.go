package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultChannel — канал Redis pub/sub для событий.
const DefaultChannel = "notekeeper:events"

// RedisBroker передаёт события между экземплярами сервиса через Redis pub/sub.
type RedisBroker struct {
	client  *redis.Client
	channel string
	logger  *zap.SugaredLogger
}

// NewRedisBroker подключается к Redis и проверяет соединение.
func NewRedisBroker(ctx context.Context, addr, password string, db int, logger *zap.SugaredLogger) (*RedisBroker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisBrokerWithClient(client, DefaultChannel, logger), nil
}

// NewRedisBrokerWithClient создаёт брокер поверх готового клиента.
func NewRedisBrokerWithClient(client *redis.Client, channel string, logger *zap.SugaredLogger) *RedisBroker {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroker{client: client, channel: channel, logger: logger}
}

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan Event, func()) {
	ctx, stop := context.WithCancel(ctx)
	ps := b.client.Subscribe(ctx, b.channel)
	out := make(chan Event, subscriberBuffer)

	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := decode([]byte(msg.Payload))
				if err != nil {
					b.logger.Warnw("feed: skip malformed event", "error", err)
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()

	var once sync.Once
	return out, func() { once.Do(stop) }
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
