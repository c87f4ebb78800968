package feed

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Publisher подписывает события идентификатором экземпляра и отправляет в брокер.
// Нулевой *Publisher ничего не делает.
type Publisher struct {
	broker Broker
	origin string
	logger *zap.SugaredLogger
}

func NewPublisher(b Broker, origin string, logger *zap.SugaredLogger) *Publisher {
	return &Publisher{broker: b, origin: origin, logger: logger}
}

// Origin — идентификатор экземпляра, от имени которого публикуются события.
func (p *Publisher) Origin() string {
	if p == nil {
		return ""
	}
	return p.origin
}

// Publish отправляет событие. Ошибка брокера только логируется:
// запись в хранилище уже состоялась и откатывать её нельзя.
func (p *Publisher) Publish(ctx context.Context, kind Kind, ownerID int64, entityID, noteID string) {
	if p == nil || p.broker == nil {
		return
	}
	ev := Event{
		Kind:     kind,
		OwnerID:  ownerID,
		EntityID: entityID,
		NoteID:   noteID,
		Origin:   p.origin,
		At:       time.Now().UTC(),
	}
	if err := p.broker.Publish(ctx, ev); err != nil {
		p.logger.Warnw("feed: publish failed", "kind", kind, "entity_id", entityID, "error", err)
	}
}
