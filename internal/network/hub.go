// Package network доставляет сообщения сервера клиентам: рассылка снимков
// подписчикам и синхронный канал обмена с игроком поверх websocket.
package network

import (
	"sort"
	"sync"

	"overworld-server/pkg/api"
	"overworld-server/pkg/logger"
)

// Broadcaster занимается только рассылкой сообщений подписчикам.
// Подписчик - имя спрайта, которым управляет клиент (или бот).
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan api.ServerResponse
	dropped     uint64
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]chan api.ServerResponse),
	}
}

// Register создает личный канал для спрайта.
// Повторная регистрация закрывает старый канал (клиент переподключился).
func (b *Broadcaster) Register(sprite string) chan api.ServerResponse {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.subscribers[sprite]; ok {
		close(old)
	}

	ch := make(chan api.ServerResponse, 100)
	b.subscribers[sprite] = ch
	return ch
}

// Unregister удаляет подписчика
func (b *Broadcaster) Unregister(sprite string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[sprite]; ok {
		close(ch)
		delete(b.subscribers, sprite)
	}
}

// UnregisterChan удаляет подписчика, только если его канал всё ещё ch.
// Нужен старому соединению, чтобы не отписать уже переподключившегося клиента.
func (b *Broadcaster) UnregisterChan(sprite string, ch chan api.ServerResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cur, ok := b.subscribers[sprite]; ok && cur == ch {
		close(cur)
		delete(b.subscribers, sprite)
	}
}

// SendTo отправляет сообщение конкретному спрайту (Unicast).
// Медленный подписчик теряет сообщение, тик никого не ждёт.
func (b *Broadcaster) SendTo(sprite string, msg api.ServerResponse) bool {
	b.mu.RLock()
	ch, ok := b.subscribers[sprite]
	if !ok {
		b.mu.RUnlock()
		return false
	}
	select {
	case ch <- msg:
		b.mu.RUnlock()
		return true
	default:
		b.mu.RUnlock()
	}

	b.mu.Lock()
	b.dropped++
	b.mu.Unlock()
	logger.For("hub").WithField("sprite", sprite).Debug("Channel full, message dropped")
	return false
}

// Broadcast отправляет всем
func (b *Broadcaster) Broadcast(msg api.ServerResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
}

// HasSubscriber проверяет, управляется ли спрайт кем-то
func (b *Broadcaster) HasSubscriber(sprite string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[sprite]
	return ok
}

// Subscribers возвращает имена подписчиков в алфавитном порядке
func (b *Broadcaster) Subscribers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.subscribers))
	for name := range b.subscribers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SubscriberCount возвращает количество активных подписчиков.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped - сколько сообщений потеряно из-за переполненных каналов
func (b *Broadcaster) Dropped() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}
