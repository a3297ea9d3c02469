package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"overworld-server/internal/domain"
	"overworld-server/internal/sprite"
	"overworld-server/pkg/api"
	"overworld-server/pkg/logger"

	"github.com/sirupsen/logrus"
)

var (
	errBusy   = errors.New("exchange already in progress")
	errClosed = errors.New("connection closed")
	errFull   = errors.New("send queue full")
)

// SendFunc кладёт сообщение в очередь записи соединения.
// false - сообщение не принято.
type SendFunc func(msg api.ServerResponse) bool

// Conn - канал обмена игрока поверх websocket-клиента.
// PROPOSAL уходит через SendFunc (writePump клиента), ACK приходит через Deliver
// из readPump. Одновременно идёт не больше одного обмена.
type Conn struct {
	sprite  string
	send    SendFunc
	timeout time.Duration

	mu   sync.Mutex
	acks chan api.AckPayload

	closeOnce sync.Once
	closed    chan struct{}
}

func NewConn(spriteName string, send SendFunc, timeout time.Duration) *Conn {
	return &Conn{
		sprite:  spriteName,
		send:    send,
		timeout: timeout,
		acks:    make(chan api.AckPayload, 8),
		closed:  make(chan struct{}),
	}
}

// Exchange реализует sprite.Channel
func (c *Conn) Exchange(ctx context.Context, p sprite.Proposal) (sprite.Ack, error) {
	if !c.mu.TryLock() {
		return sprite.Ack{}, fmt.Errorf("%w: %v", domain.ErrChannel, errBusy)
	}
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return sprite.Ack{}, fmt.Errorf("%w: %v", domain.ErrChannel, errClosed)
	default:
	}

	// Ответы на прошлые (просроченные) предложения больше не нужны
	c.drain()

	msg := api.ServerResponse{
		Type:     api.TypeProposal,
		Tick:     p.Seq,
		MySprite: c.sprite,
		Proposal: &api.ProposalView{
			Seq:    p.Seq,
			Pos:    api.Vec2{X: p.Pos.X, Y: p.Pos.Y},
			Rotate: p.Rotate,
		},
	}
	if !c.send(msg) {
		return sprite.Ack{}, fmt.Errorf("%w: %v", domain.ErrChannel, errFull)
	}

	var timeout <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case ack := <-c.acks:
			if ack.Seq != p.Seq {
				logger.Log.WithFields(logrus.Fields{
					"component": "conn",
					"sprite":    c.sprite,
					"want":      p.Seq,
					"got":       ack.Seq,
				}).Debug("Stale ack skipped")
				continue
			}
			return sprite.Ack{
				Seq:    ack.Seq,
				Pos:    domain.Position{X: ack.Pos.X, Y: ack.Pos.Y},
				Rotate: ack.Rotate,
			}, nil

		case <-timeout:
			return sprite.Ack{}, fmt.Errorf("%w: no ack for seq %d within %s", domain.ErrChannel, p.Seq, c.timeout)

		case <-ctx.Done():
			return sprite.Ack{}, fmt.Errorf("%w: %w", domain.ErrChannel, ctx.Err())

		case <-c.closed:
			return sprite.Ack{}, fmt.Errorf("%w: %v", domain.ErrChannel, errClosed)
		}
	}
}

// Deliver передаёт ACK от клиента. Не блокируется: лишние ответы отбрасываются.
func (c *Conn) Deliver(ack api.AckPayload) {
	select {
	case c.acks <- ack:
	default:
		logger.For("conn").WithField("sprite", c.sprite).Warn("Ack queue full, dropping")
	}
}

// Close прерывает текущий и все будущие обмены
func (c *Conn) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

func (c *Conn) drain() {
	for {
		select {
		case <-c.acks:
		default:
			return
		}
	}
}
