package door

import (
	"fmt"
	"math"
	"sync"

	"overworld-server/internal/core/types"
	"overworld-server/internal/domain"
	"overworld-server/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Linkage - арена дверей. Двери создаются только парами и не удаляются.
type Linkage struct {
	mu       sync.RWMutex
	registry *domain.Registry
	doors    []Door
}

func NewLinkage(registry *domain.Registry) *Linkage {
	return &Linkage{registry: registry}
}

// Validate проверяет спецификацию двери относительно реестра карт
func (l *Linkage) Validate(s Spec) error {
	m, ok := l.registry.Map(s.Map)
	if !ok {
		return fmt.Errorf("%w: %v", domain.ErrUnknownMap, s.Map)
	}
	if s.Orientation != Horizontal && s.Orientation != Vertical {
		return fmt.Errorf("%w: orientation %d", domain.ErrInvalidDoor, s.Orientation)
	}
	if s.Side != Near && s.Side != Far {
		return fmt.Errorf("%w: side %d", domain.ErrInvalidDoor, s.Side)
	}
	if s.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", domain.ErrInvalidDoor, s.Size)
	}

	extent := m.Extent(s.Orientation.SpanAxis())
	if s.Pos < 0 || float64(s.Pos+s.Size) > extent {
		return fmt.Errorf("%w: span [%d,%d) outside %q (%.0f along %s)",
			domain.ErrInvalidDoor, s.Pos, s.Pos+s.Size, m.Name, extent, s.Orientation.SpanAxis())
	}

	cross := m.Extent(s.Orientation.MoveAxis())
	if s.Line < 0 || s.Line > cross {
		return fmt.Errorf("%w: line %.1f outside %q (%.0f along %s)",
			domain.ErrInvalidDoor, s.Line, m.Name, cross, s.Orientation.MoveAxis())
	}
	return nil
}

// CreatePair проверяет обе стороны и связывает их друг с другом.
// При ошибке в арене ничего не появляется.
func (l *Linkage) CreatePair(a, b Spec) (DoorID, DoorID, error) {
	if err := l.Validate(a); err != nil {
		return 0, 0, fmt.Errorf("door A: %w", err)
	}
	if err := l.Validate(b); err != nil {
		return 0, 0, fmt.Errorf("door B: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	idA, idB := l.createPairLocked(a, b)
	return idA, idB, nil
}

func (l *Linkage) createPairLocked(a, b Spec) (DoorID, DoorID) {
	idA := DoorID(types.PackHandle(types.KindDoor, uint32(len(l.doors))))
	idB := DoorID(types.PackHandle(types.KindDoor, uint32(len(l.doors)+1)))

	l.doors = append(l.doors,
		Door{Spec: a, ID: idA, Destination: idB},
		Door{Spec: b, ID: idB, Destination: idA},
	)

	logger.Log.WithFields(logrus.Fields{
		"component": "door",
		"door_a":    idA,
		"door_b":    idB,
	}).Debug("Door pair linked")
	return idA, idB
}

// NamedSpec - дверь из файла мира: своё имя и имя парной двери
type NamedSpec struct {
	Name string
	Dest string
	Spec
}

// LinkNamed связывает набор именованных дверей. Каждая дверь обязана
// указывать на ту, что указывает на неё обратно. Весь набор проверяется
// до создания первой пары.
func (l *Linkage) LinkNamed(specs []NamedSpec) (map[string]DoorID, error) {
	byName := make(map[string]NamedSpec, len(specs))
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: door without a name", domain.ErrInvalidDoor)
		}
		if _, dup := byName[s.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate door %q", domain.ErrInvalidDoor, s.Name)
		}
		byName[s.Name] = s
	}

	for _, s := range specs {
		dest, ok := byName[s.Dest]
		if !ok {
			return nil, fmt.Errorf("%w: door %q leads to unknown door %q", domain.ErrInvalidDoor, s.Name, s.Dest)
		}
		if dest.Name == s.Name {
			return nil, fmt.Errorf("%w: door %q leads to itself", domain.ErrInvalidDoor, s.Name)
		}
		if dest.Dest != s.Name {
			return nil, fmt.Errorf("%w: door %q leads to %q, but %q leads to %q",
				domain.ErrInvalidDoor, s.Name, s.Dest, dest.Name, dest.Dest)
		}
		if err := l.Validate(s.Spec); err != nil {
			return nil, fmt.Errorf("door %q: %w", s.Name, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make(map[string]DoorID, len(specs))
	for _, s := range specs {
		if _, done := ids[s.Name]; done {
			continue
		}
		dest := byName[s.Dest]
		ids[s.Name], ids[dest.Name] = l.createPairLocked(s.Spec, dest.Spec)
	}
	return ids, nil
}

// Door возвращает запись арены
func (l *Linkage) Door(id DoorID) (Door, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.doorLocked(id)
}

func (l *Linkage) doorLocked(id DoorID) (Door, bool) {
	h := types.Handle(id)
	if !h.Is(types.KindDoor) || int(h.Index()) >= len(l.doors) {
		return Door{}, false
	}
	return l.doors[h.Index()], true
}

// All возвращает копию всех дверей (для debug-эндпоинта)
func (l *Linkage) All() []Door {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Door, len(l.doors))
	copy(out, l.doors)
	return out
}

// Len - количество дверей в арене (всегда чётное)
func (l *Linkage) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.doors)
}

// Transition отображает координату входа на пролёт парной двери.
//
// ratio = (entry - pos) / size, прижатый к [0, 1]; выход = dest.pos + ratio*dest.size,
// прижатый к [dest.pos, dest.pos+dest.size). Для валидной двери не падает.
func (l *Linkage) Transition(id DoorID, entry float64) (Exit, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	src, ok := l.doorLocked(id)
	if !ok {
		return Exit{}, fmt.Errorf("%w: %v", domain.ErrUnknownDoor, id)
	}
	dst, ok := l.doorLocked(src.Destination)
	if !ok {
		return Exit{}, fmt.Errorf("%w: destination %v of %v", domain.ErrUnknownDoor, src.Destination, id)
	}

	ratio := clamp01((entry - float64(src.Pos)) / float64(src.Size))

	lo, hi := dst.Span()
	coord := lo + ratio*float64(dst.Size)
	// Правая граница пролёта не входит в него
	coord = math.Max(lo, math.Min(coord, math.Nextafter(hi, lo)))

	return Exit{
		Map:         dst.Map,
		Door:        dst.ID,
		Coord:       coord,
		Orientation: dst.Orientation,
		Side:        dst.Side,
		AxisFlipped: src.Orientation != dst.Orientation,
		Axis:        dst.Orientation.MoveAxis(),
		Rotation:    dst.Facing(),
	}, nil
}

// Emerge возвращает позицию для спрайта размера size, вышедшего через exit:
// вдоль пролёта - координата выхода, поперёк - сразу снаружи грани,
// с прижатием к границам карты назначения.
func (l *Linkage) Emerge(exit Exit, size domain.Size) (domain.Position, error) {
	d, ok := l.Door(exit.Door)
	if !ok {
		return domain.Position{}, fmt.Errorf("%w: %v", domain.ErrUnknownDoor, exit.Door)
	}
	m, ok := l.registry.Map(d.Map)
	if !ok {
		return domain.Position{}, fmt.Errorf("%w: %v", domain.ErrUnknownMap, d.Map)
	}

	cross := d.Line
	if d.Side == Near {
		cross -= size.Along(d.Orientation.MoveAxis())
	}

	var p domain.Position
	p = p.With(d.Orientation.SpanAxis(), exit.Coord)
	p = p.With(d.Orientation.MoveAxis(), cross)
	return m.Bounds().Clamp(p, size), nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(v, 1))
}
