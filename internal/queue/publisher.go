package queue

import "context"

// Exchange — topic exchange сервиса; объявляется паблишером, слушают консюмеры.
const Exchange = "taskboard.events"

type Publisher interface {
	Publish(ctx context.Context, exchange, key string, event any, reqID string) error
	Close() error
}

// NoopPub — для окружений без брокера (в проде используйте Noop вместо nil).
type NoopPub struct{}

func NewNoop() Publisher { return NoopPub{} }

func (NoopPub) Publish(ctx context.Context, exchange, key string, event any, reqID string) error {
	return nil
}
func (NoopPub) Close() error { return nil }

type TaskCreated struct {
	UserID string `json:"user_id"`
	Label  string `json:"label"`
	Money  int64  `json:"money"`
	Status string `json:"status"`
}
