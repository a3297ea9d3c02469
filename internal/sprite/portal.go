package sprite

import (
	"fmt"

	"overworld-server/internal/core/types/enums"
	"overworld-server/internal/domain"
	"overworld-server/internal/door"
)

// move - итог движения одного спрайта за тик, посчитанный по снимку
type move struct {
	name     string
	from, to domain.Position
	size     domain.Size
}

// collectMoves суммирует MOVE каждого игрока на карте self.
// Порядок - по первому появлению в событиях.
func collectMoves(ctx Context, self Sprite, events []domain.Event) []move {
	var moves []move
	index := make(map[string]int)

	for _, ev := range events {
		if ev.Kind != domain.EventMove || ev.Actor == self.Name {
			continue
		}
		if i, ok := index[ev.Actor]; ok {
			moves[i].to = moves[i].to.Add(ev.Delta)
			continue
		}
		mover, ok := ctx.Snapshot.Find(ev.Actor)
		if !ok || mover.Kind != enums.SpriteKindPlayer || mover.Map != self.Map {
			continue
		}
		index[ev.Actor] = len(moves)
		moves = append(moves, move{
			name: ev.Actor,
			from: mover.Image.Pos,
			to:   mover.Image.Pos.Add(ev.Delta),
			size: mover.Image.Size,
		})
	}
	return moves
}

// Crossing - что движение сделало относительно здания или двери-тайла
type Crossing struct {
	Entered bool
	Door    door.Door // если Entered
	Entry   float64   // координата входа вдоль пролёта
	Blocked bool
}

// Cross проверяет движение спрайта размера size из from в to мимо owner.
// Вход в дверь важнее стены. Стеной считается футпринт здания: спрайт,
// задевший его на пути (в том числе насквозь длинным шагом), блокируется.
// Уже стоящий в футпринте может из него выйти.
func Cross(linkage *door.Linkage, owner Sprite, from, to domain.Position, size domain.Size) (Crossing, error) {
	for _, id := range owner.DoorIDs() {
		d, ok := linkage.Door(id)
		if !ok {
			return Crossing{}, fmt.Errorf("%s %q: %w: %v", owner.Kind, owner.Name, domain.ErrUnknownDoor, id)
		}
		if d.EnteredBy(from, to, size) {
			return Crossing{
				Entered: true,
				Door:    d,
				Entry:   to.Along(d.Orientation.SpanAxis()),
			}, nil
		}
	}

	if owner.Building == nil {
		return Crossing{}, nil
	}
	fp := owner.Image.Footprint()
	start := domain.Rect{Pos: from, Size: size}
	if !start.Overlaps(fp) && fp.Sweep(from, to, size) {
		return Crossing{Blocked: true}, nil
	}
	return Crossing{}, nil
}

// Request - запрос перехода для mover
func (c Crossing) Request(mover string) TransitionRequest {
	return TransitionRequest{Mover: mover, Door: c.Door.ID, Entry: c.Entry}
}

// updatePortal - общая часть здания и двери-тайла: по каждому чужому
// движению на карте либо запрос перехода, либо блокировка.
// Диспетчер перепроверяет оба решения по подтверждённой клиентом позиции.
func updatePortal(ctx Context, self Sprite, events []domain.Event) (Delta, error) {
	var delta Delta
	for _, m := range collectMoves(ctx, self, events) {
		c, err := Cross(ctx.Linkage, self, m.from, m.to, m.size)
		if err != nil {
			return Delta{}, err
		}
		switch {
		case c.Entered:
			delta.Transitions = append(delta.Transitions, c.Request(m.name))
		case c.Blocked:
			delta.Blocks = append(delta.Blocks, m.name)
		}
	}
	return delta, nil
}

// UpdateBuilding: вход в пролёт двери - запрос перехода,
// попытка пройти сквозь стены - блокировка.
func UpdateBuilding(ctx Context, self Sprite, events []domain.Event) (Delta, error) {
	return updatePortal(ctx, self, events)
}

// UpdateDoorTile - как у здания, но дверь одна и стен нет
func UpdateDoorTile(ctx Context, self Sprite, events []domain.Event) (Delta, error) {
	return updatePortal(ctx, self, events)
}
