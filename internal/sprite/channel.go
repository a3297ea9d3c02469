package sprite

import (
	"context"

	"overworld-server/internal/domain"
)

// Proposal - состояние, которое игрок предлагает по итогам своих событий
type Proposal struct {
	Seq    uint64          `json:"seq"`
	Sprite string          `json:"sprite"`
	Pos    domain.Position `json:"pos"`
	Rotate int             `json:"rotate"`
}

// Ack - подтверждённое (или исправленное) клиентом состояние
type Ack struct {
	Seq    uint64          `json:"seq"`
	Pos    domain.Position `json:"pos"`
	Rotate int             `json:"rotate"`
}

// Channel - синхронный обмен с клиентом: отправили предложение, получили ответ.
// Реализация не хранит состояния симуляции и не должна вызываться повторно,
// пока не завершился предыдущий обмен.
type Channel interface {
	Exchange(ctx context.Context, p Proposal) (Ack, error)
}

// EchoChannel подтверждает предложение как есть.
// Используется для безголовых игроков и в тестах.
type EchoChannel struct{}

func (EchoChannel) Exchange(_ context.Context, p Proposal) (Ack, error) {
	return Ack{Seq: p.Seq, Pos: p.Pos, Rotate: p.Rotate}, nil
}
