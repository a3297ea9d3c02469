package engine

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"overworld-server/internal/core/types/enums"
	"overworld-server/internal/domain"
	"overworld-server/internal/door"
	"overworld-server/internal/sprite"
	"overworld-server/pkg/logger"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Relocation - спрайт прошёл через дверь
type Relocation struct {
	Sprite string           `json:"sprite"`
	Door   door.DoorID      `json:"door"`
	From   domain.MapHandle `json:"from"`
	To     domain.MapHandle `json:"to"`
	Pos    domain.Position  `json:"pos"`
}

// Report - итог одного тика
type Report struct {
	Tick        uint64             `json:"tick"`
	Changed     []string           `json:"changed,omitempty"`
	Relocations []Relocation       `json:"relocations,omitempty"`
	Blocked     []string           `json:"blocked,omitempty"`
	Errors      map[string]error   `json:"-"`
	Spawned     []string           `json:"spawned,omitempty"`
	Despawned   []string           `json:"despawned,omitempty"`
	Maps        []domain.MapHandle `json:"-"` // карты, где что-то изменилось
}

// Dispatcher проводит тики над миром в две фазы:
// вычисление по снимку, затем коммит всех дельт разом.
type Dispatcher struct {
	World    *World
	Dispatch sprite.Dispatch

	cfg  Config
	tick atomic.Uint64
}

func NewDispatcher(world *World, cfg Config) *Dispatcher {
	return &Dispatcher{
		World:    world,
		Dispatch: sprite.NewDispatch(),
		cfg:      cfg.normalized(),
	}
}

// CurrentTick - номер последнего завершённого тика
func (d *Dispatcher) CurrentTick() uint64 {
	return d.tick.Load()
}

// Tick выполняет один шаг симуляции.
//
// Ошибка означает, что тик отменён целиком и мир не изменился.
// Ошибки каналов отдельных игроков в ошибку тика не превращаются,
// они лежат в Report.Errors.
func (d *Dispatcher) Tick(ctx context.Context, events []domain.Event) (Report, error) {
	tick := d.tick.Load() + 1
	log := logger.Log.WithFields(logrus.Fields{"component": "dispatcher", "tick": tick})

	// --- ФАЗА 1: ВЫЧИСЛЕНИЕ ---
	frozen := append([]domain.Event(nil), events...)
	snap := d.World.snapshot()

	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	deltas := make([]sprite.Delta, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)

	for i, name := range names {
		g.Go(func() error {
			sc := sprite.Context{
				Ctx:      gctx,
				Tick:     tick,
				Snapshot: snap,
				Linkage:  d.World.Linkage,
			}
			delta, err := d.Dispatch.Update(sc, snap[name], frozen)
			if err != nil {
				return fmt.Errorf("sprite %q: %w", name, err)
			}
			deltas[i] = delta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Tick aborted in compute phase")
		return Report{}, err
	}

	// --- ФАЗА 2: КОММИТ ---
	report := Report{Tick: tick, Errors: make(map[string]error)}

	own := make(map[string]sprite.Delta, len(deltas))
	// mover -> здания и двери-тайлы, которые на него отреагировали
	involved := make(map[string][]string)

	for _, delta := range deltas {
		own[delta.Sprite] = delta
		if delta.Err != nil {
			report.Errors[delta.Sprite] = delta.Err
			log.WithField("sprite", delta.Sprite).WithError(delta.Err).Warn("Sprite update failed")
		}
		for _, name := range delta.Blocks {
			involved[name] = append(involved[name], delta.Sprite)
		}
		for _, req := range delta.Transitions {
			involved[req.Mover] = append(involved[req.Mover], delta.Sprite)
		}
	}

	// Исправленный клиентом ход мог задеть то, чего не задевал сырой
	for _, name := range names {
		if own[name].Corrected {
			involved[name] = portalsOn(snap, names, snap[name].Map)
		}
	}

	// Решения зданий приняты по сырым MOVE. Клиент мог поправить позицию,
	// поэтому каждое перепроверяется по подтверждённой.
	blocked := make(map[string]bool)
	requests := make(map[string]sprite.TransitionRequest)
	for mover, owners := range involved {
		acked := own[mover].Pos
		if acked == nil {
			continue
		}
		from, size := snap[mover].Image.Pos, snap[mover].Image.Size
		for _, owner := range owners {
			c, err := sprite.Cross(d.World.Linkage, snap[owner], from, *acked, size)
			if err != nil {
				log.WithError(err).Error("Tick aborted: crossing recheck failed")
				return Report{}, fmt.Errorf("recheck of %q: %w", mover, err)
			}
			switch {
			case c.Entered:
				// Спорные запросы: побеждает дверь с меньшим ID
				if cur, ok := requests[mover]; !ok || c.Door.ID < cur.Door {
					requests[mover] = c.Request(mover)
				}
			case c.Blocked:
				blocked[mover] = true
			}
		}
	}

	// Переходы считаются до любых изменений: ошибка отменяет весь тик
	exits := make(map[string]Relocation, len(requests))
	for mover, req := range requests {
		exit, err := d.World.Linkage.Transition(req.Door, req.Entry)
		if err != nil {
			log.WithError(err).Error("Tick aborted: transition failed")
			return Report{}, fmt.Errorf("transition of %q: %w", mover, err)
		}
		pos, err := d.World.Linkage.Emerge(exit, snap[mover].Image.Size)
		if err != nil {
			log.WithError(err).Error("Tick aborted: emerge failed")
			return Report{}, fmt.Errorf("emerge of %q: %w", mover, err)
		}
		exits[mover] = Relocation{
			Sprite: mover,
			Door:   req.Door,
			From:   snap[mover].Map,
			To:     exit.Map,
			Pos:    pos,
		}
		// Разворачиваем по направлению выхода
		rot := exit.Rotation
		delta := own[mover]
		delta.Rotate = &rot
		own[mover] = delta
	}

	d.World.mu.Lock()
	touched := make(map[domain.MapHandle]bool)

	for _, name := range names {
		delta, ok := own[name]
		if !ok {
			continue
		}
		s, ok := d.World.sprites[name]
		if !ok {
			continue
		}
		changed := false

		if rel, ok := exits[name]; ok {
			touched[s.Map] = true
			s.Map = rel.To
			s.Image.Pos = rel.Pos
			report.Relocations = append(report.Relocations, rel)
			changed = true
		} else if delta.Pos != nil {
			if blocked[name] {
				report.Blocked = append(report.Blocked, name)
			} else {
				s.Image.Pos = d.clampToMap(s.Map, *delta.Pos, s.Image.Size)
				changed = true
			}
		}
		if delta.Rotate != nil && *delta.Rotate != s.Image.Rotate {
			s.Image.SetRotation(*delta.Rotate)
			changed = true
		}
		if delta.Dialog != nil && s.Trainer != nil {
			s.Trainer.Cursor = delta.Dialog.Cursor
			s.Trainer.Partner = delta.Dialog.Partner
			changed = true
		}

		if changed {
			touched[s.Map] = true
			report.Changed = append(report.Changed, name)
		}
	}

	// Граница тика: состав спрайтов меняется только здесь
	pendingMaps := make(map[string]domain.MapHandle)
	for _, m := range d.World.pending {
		if m.add != nil {
			pendingMaps[m.add.Name] = m.add.Map
		} else if s, ok := d.World.sprites[m.remove]; ok {
			pendingMaps[m.remove] = s.Map
		}
	}
	report.Spawned, report.Despawned = d.World.applyPendingLocked()
	for _, name := range append(append([]string(nil), report.Spawned...), report.Despawned...) {
		if h, ok := pendingMaps[name]; ok {
			touched[h] = true
		}
	}
	d.World.mu.Unlock()

	for h := range touched {
		report.Maps = append(report.Maps, h)
	}
	sort.Slice(report.Maps, func(i, j int) bool { return report.Maps[i] < report.Maps[j] })

	d.tick.Store(tick)
	if len(report.Relocations) > 0 || len(report.Errors) > 0 {
		log.WithFields(logrus.Fields{
			"relocations": len(report.Relocations),
			"errors":      len(report.Errors),
			"blocked":     len(report.Blocked),
		}).Debug("Tick committed")
	}
	return report, nil
}

// portalsOn - здания и двери-тайлы карты m
func portalsOn(snap sprite.Snapshot, names []string, m domain.MapHandle) []string {
	var out []string
	for _, name := range names {
		s := snap[name]
		if s.Map == m && (s.Kind == enums.SpriteKindBuilding || s.Kind == enums.SpriteKindDoor) {
			out = append(out, name)
		}
	}
	return out
}

// clampToMap держит спрайт в пределах карты
func (d *Dispatcher) clampToMap(h domain.MapHandle, p domain.Position, size domain.Size) domain.Position {
	m, ok := d.World.Registry.Map(h)
	if !ok {
		return p
	}
	return m.Bounds().Clamp(p, size)
}
