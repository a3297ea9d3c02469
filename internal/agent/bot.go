// Package agent - безголовый игрок (Headless Agent).
//
// Бот подключается к серверу так же, как обычный клиент: по websocket,
// с LOGIN, INPUT и ACK. Он принимает любое предложение сервера как есть
// и с заданным интервалом проигрывает свой сценарий ввода по кругу.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"overworld-server/pkg/api"
	"overworld-server/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type Bot struct {
	URL      string
	Sprite   string
	Script   []string      // ввод по кругу: "d", "s", "a", "w"
	Interval time.Duration // пауза между вводами

	writeMu sync.Mutex
	conn    *websocket.Conn

	mu     sync.RWMutex
	last   api.ServerResponse
	seen   bool
	acked  uint64
	errors []string
}

func NewBot(url, sprite string, script ...string) *Bot {
	return &Bot{
		URL:      url,
		Sprite:   sprite,
		Script:   script,
		Interval: 500 * time.Millisecond,
	}
}

// Run подключается и работает до отмены ctx или разрыва соединения
func (b *Bot) Run(ctx context.Context) error {
	log := logger.For("bot").WithField("sprite", b.Sprite)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, b.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("bot %q dial: %w", b.Sprite, err)
	}
	b.conn = conn
	defer conn.Close()

	if err := b.write(api.ActionLogin, api.LoginPayload{Sprite: b.Sprite}); err != nil {
		return err
	}
	log.Info("Bot connected")

	// ctx отменён - закрываем соединение, чтобы разблокировать чтение
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	if len(b.Script) > 0 {
		go b.play(ctx, stop)
	}

	for {
		var msg api.ServerResponse
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				log.Info("Bot stopped")
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("bot %q read: %w", b.Sprite, err)
		}
		if err := b.handle(msg); err != nil {
			return err
		}
	}
}

func (b *Bot) handle(msg api.ServerResponse) error {
	switch msg.Type {
	case api.TypeProposal:
		if msg.Proposal == nil {
			return errors.New("proposal without payload")
		}
		// Бот согласен со всем, что предлагает сервер
		p := msg.Proposal
		if err := b.write(api.ActionAck, api.AckPayload{Seq: p.Seq, Pos: p.Pos, Rotate: p.Rotate}); err != nil {
			return err
		}
		b.mu.Lock()
		b.acked++
		b.mu.Unlock()

	case api.TypeUpdate:
		b.mu.Lock()
		b.last, b.seen = msg, true
		b.mu.Unlock()

	case api.TypeError:
		logger.Log.WithFields(logrus.Fields{
			"component": "bot",
			"sprite":    b.Sprite,
		}).Warn("Server error: " + msg.Error)
		b.mu.Lock()
		b.errors = append(b.errors, msg.Error)
		b.mu.Unlock()
	}
	return nil
}

// play отправляет сценарий по кругу
func (b *Bot) play(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			input := b.Script[i%len(b.Script)]
			if err := b.write(api.ActionInput, api.InputPayload{Input: input}); err != nil {
				logger.For("bot").WithError(err).Debug("Input not sent")
				return
			}
		}
	}
}

// write - gorilla допускает только одного писателя
func (b *Bot) write(action string, payload any) error {
	cmd, err := api.Encode(action, payload)
	if err != nil {
		return err
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if err := b.conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("bot %q write %s: %w", b.Sprite, action, err)
	}
	return nil
}

// LastUpdate - последний снимок карты, полученный ботом
func (b *Bot) LastUpdate() (api.ServerResponse, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.seen
}

// Acked - сколько предложений бот подтвердил
func (b *Bot) Acked() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.acked
}

// Errors - тексты ERROR от сервера
func (b *Bot) Errors() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.errors...)
}
