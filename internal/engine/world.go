package engine

import (
	"fmt"
	"sort"
	"sync"

	"overworld-server/internal/domain"
	"overworld-server/internal/door"
	"overworld-server/internal/sprite"
	"overworld-server/pkg/logger"

	"github.com/sirupsen/logrus"
)

// SpawnPoint - куда ставить нового игрока
type SpawnPoint struct {
	Map     domain.MapHandle     `json:"map"`
	Pos     domain.Position      `json:"pos"`
	Size    domain.Size          `json:"size"`
	Texture domain.TextureHandle `json:"texture"`
}

// membership - отложенное изменение состава спрайтов
type membership struct {
	add    *sprite.Sprite
	remove string
}

// World - всё состояние overworld'а: реестр ассетов, арена дверей и спрайты.
// Спрайты меняются только диспетчером в фазе коммита. Появление и удаление
// ставятся в очередь и применяются на границе тиков.
type World struct {
	Registry *domain.Registry
	Linkage  *door.Linkage

	mu      sync.RWMutex
	sprites map[string]*sprite.Sprite
	pending []membership
	spawn   SpawnPoint
}

func NewWorld(registry *domain.Registry, linkage *door.Linkage) *World {
	return &World{
		Registry: registry,
		Linkage:  linkage,
		sprites:  make(map[string]*sprite.Sprite),
	}
}

// Place сразу ставит спрайт на карту. Только для загрузки мира, до первого тика.
func (w *World) Place(s *sprite.Sprite) error {
	if err := w.check(s); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, dup := w.sprites[s.Name]; dup {
		return fmt.Errorf("sprite %q already placed", s.Name)
	}
	w.sprites[s.Name] = s
	return nil
}

// QueueSpawn проверяет спрайт сейчас, а добавляет на границе тика
func (w *World) QueueSpawn(s *sprite.Sprite) error {
	if err := w.check(s); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, membership{add: s})
	return nil
}

// QueueDespawn удаляет спрайт на границе тика
func (w *World) QueueDespawn(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, membership{remove: name})
}

func (w *World) check(s *sprite.Sprite) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if !w.Registry.HasMap(s.Map) {
		return fmt.Errorf("sprite %q: %w: %v", s.Name, domain.ErrUnknownMap, s.Map)
	}
	s.Image.SetRotation(s.Image.Rotate)
	return nil
}

// applyPendingLocked применяет очередь. Вызывается под w.mu.
func (w *World) applyPendingLocked() (spawned, despawned []string) {
	for _, m := range w.pending {
		if m.add != nil {
			if cur, dup := w.sprites[m.add.Name]; dup {
				log := logger.Log.WithFields(logrus.Fields{
					"component": "world",
					"sprite":    m.add.Name,
				})
				// Два входа под одним именем до границы тика: канал у последнего
				if cur.Player != nil && m.add.Player != nil {
					cur.Player.Channel = m.add.Player.Channel
					log.Warn("Spawn merged into existing player: channel replaced")
					continue
				}
				log.Warn("Spawn skipped: name already taken")
				continue
			}
			w.sprites[m.add.Name] = m.add
			spawned = append(spawned, m.add.Name)
			continue
		}
		if _, ok := w.sprites[m.remove]; ok {
			delete(w.sprites, m.remove)
			despawned = append(despawned, m.remove)
		}
	}
	w.pending = nil
	return spawned, despawned
}

// snapshot - копии всех спрайтов на начало тика
func (w *World) snapshot() sprite.Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	snap := make(sprite.Snapshot, len(w.sprites))
	for name, s := range w.sprites {
		snap[name] = s.Clone()
	}
	return snap
}

// Sprite возвращает копию спрайта
func (w *World) Sprite(name string) (sprite.Sprite, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s, ok := w.sprites[name]
	if !ok {
		return sprite.Sprite{}, false
	}
	return s.Clone(), true
}

// Sprites возвращает копии всех спрайтов, по имени
func (w *World) Sprites() []sprite.Sprite {
	return w.filter(func(*sprite.Sprite) bool { return true })
}

// OnMap возвращает копии спрайтов одной карты, по имени
func (w *World) OnMap(m domain.MapHandle) []sprite.Sprite {
	return w.filter(func(s *sprite.Sprite) bool { return s.Map == m })
}

func (w *World) filter(keep func(*sprite.Sprite) bool) []sprite.Sprite {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]sprite.Sprite, 0, len(w.sprites))
	for _, s := range w.sprites {
		if keep(s) {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len - количество спрайтов (без очереди)
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.sprites)
}

// Pending - размер очереди появления/удаления
func (w *World) Pending() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.pending)
}

func (w *World) SetSpawn(p SpawnPoint) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.spawn = p
}

func (w *World) Spawn() SpawnPoint {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.spawn
}

// MapByName ищет карту в реестре по имени
func (w *World) MapByName(name string) (domain.MapHandle, domain.Map, bool) {
	for _, h := range w.Registry.MapHandles() {
		if m, ok := w.Registry.Map(h); ok && m.Name == name {
			return h, m, true
		}
	}
	return 0, domain.Map{}, false
}

// BindChannel подключает клиентский канал к игроку.
// replaced - у игрока был другой живой канал, и он отобран.
func (w *World) BindChannel(name string, ch sprite.Channel) (replaced bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.sprites[name]
	if !ok {
		return false, fmt.Errorf("sprite %q not found", name)
	}
	if s.Player == nil {
		return false, fmt.Errorf("sprite %q is %s, not a player", name, s.Kind)
	}
	replaced = s.Player.Channel != nil && s.Player.Channel != ch
	s.Player.Channel = ch
	return replaced, nil
}

// Release убирает игрока, если к нему всё ещё подключён канал ch.
// Спрайт удаляется на границе тика. Игрок, ещё ждущий появления,
// снимается из очереди.
func (w *World) Release(name string, ch sprite.Channel) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.sprites[name]
	if !ok {
		return w.cancelSpawnLocked(name, ch)
	}
	if s.Player == nil || s.Player.Channel != ch {
		return false
	}
	s.Player.Channel = nil
	w.pending = append(w.pending, membership{remove: name})
	return true
}

// cancelSpawnLocked убирает из очереди появление игрока name с каналом ch
func (w *World) cancelSpawnLocked(name string, ch sprite.Channel) bool {
	for i, m := range w.pending {
		if m.add == nil || m.add.Name != name || m.add.Player == nil || m.add.Player.Channel != ch {
			continue
		}
		w.pending = append(w.pending[:i], w.pending[i+1:]...)
		return true
	}
	return false
}
