// Package door хранит пары порталов между картами и отображает координаты
// при переходе через них.
//
// Двери живут в арене (Linkage) и ссылаются друг на друга по DoorID,
// поэтому у пары нет цикла владения: владелец всех записей - арена.
package door

import (
	"encoding/json"

	"overworld-server/internal/core/types"
	"overworld-server/internal/domain"
)

// DoorID - хэндл двери в арене
type DoorID types.Handle

func (id DoorID) String() string { return types.Handle(id).String() }

func (id DoorID) MarshalJSON() ([]byte, error) { return types.Handle(id).MarshalJSON() }

// Orientation - вдоль какой границы лежит дверь
type Orientation uint8

const (
	// Horizontal - дверь на горизонтальной границе (верх/низ), пролёт вдоль X
	Horizontal Orientation = iota
	// Vertical - дверь на вертикальной границе (лево/право), пролёт вдоль Y
	Vertical
)

// SpanAxis - ось, вдоль которой отложены Pos/Size
func (o Orientation) SpanAxis() domain.Axis {
	if o == Horizontal {
		return domain.AxisX
	}
	return domain.AxisY
}

// MoveAxis - ось движения сквозь дверь (перпендикуляр к границе)
func (o Orientation) MoveAxis() domain.Axis {
	return o.SpanAxis().Other()
}

func (o Orientation) String() string {
	if o == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

func (o Orientation) MarshalJSON() ([]byte, error) { return json.Marshal(o.String()) }

// Side - на какой грани владельца стоит дверь
type Side uint8

const (
	// Near - грань с меньшей координатой (верх или лево)
	Near Side = iota
	// Far - грань с большей координатой (низ или право)
	Far
)

func (s Side) String() string {
	if s == Near {
		return "near"
	}
	return "far"
}

func (s Side) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// Spec - описание одной стороны пары до связывания
type Spec struct {
	Map         domain.MapHandle `json:"map"`
	Orientation Orientation      `json:"orientation"`
	Side        Side             `json:"side"`
	Pos         int              `json:"pos"`  // начало пролёта вдоль SpanAxis
	Size        int              `json:"size"` // длина пролёта, > 0
	Line        float64          `json:"line"` // координата грани по MoveAxis
}

// Door - запись арены: спецификация плюс ссылка на парную дверь
type Door struct {
	Spec
	ID          DoorID `json:"id"`
	Destination DoorID `json:"destination"`
}

// Span возвращает полуинтервал [Pos, Pos+Size) вдоль SpanAxis
func (d Door) Span() (lo, hi float64) {
	return float64(d.Pos), float64(d.Pos + d.Size)
}

// InSpan - попадает ли координата в [Pos, Pos+Size)
func (d Door) InSpan(coord float64) bool {
	lo, hi := d.Span()
	return coord >= lo && coord < hi
}

// Entered сообщает, входит ли движение from -> to в дверь: путь пересекает
// линию грани снаружи внутрь владельца, а точка to лежит в пролёте.
func (d Door) Entered(from, to domain.Position) bool {
	if !d.InSpan(to.Along(d.Orientation.SpanAxis())) {
		return false
	}
	axis := d.Orientation.MoveAxis()
	a, b := from.Along(axis), to.Along(axis)
	if d.Side == Near {
		return a < d.Line && b >= d.Line
	}
	return a >= d.Line && b < d.Line
}

// EnteredBy - как Entered, но для спрайта размера size: через грань Near
// проходит его дальний край (Pos+Size), через Far - ближний (Pos).
// Спрайт, вышедший из двери Near, стоит дальним краем ровно на линии и
// снаружи.
func (d Door) EnteredBy(from, to domain.Position, size domain.Size) bool {
	if d.Side == Far {
		return d.Entered(from, to)
	}
	if !d.InSpan(to.Along(d.Orientation.SpanAxis())) {
		return false
	}
	axis := d.Orientation.MoveAxis()
	extent := size.Along(axis)
	a, b := from.Along(axis)+extent, to.Along(axis)+extent
	return a <= d.Line && b > d.Line
}

// Facing - угол поворота спрайта, выходящего из этой двери наружу.
// 0 - вверх, 90 - вправо, 180 - вниз, 270 - влево.
func (d Door) Facing() int {
	switch {
	case d.Orientation == Horizontal && d.Side == Near:
		return 0
	case d.Orientation == Horizontal && d.Side == Far:
		return 180
	case d.Orientation == Vertical && d.Side == Near:
		return 270
	default:
		return 90
	}
}

// Exit - результат перехода через дверь
type Exit struct {
	Map         domain.MapHandle `json:"map"`
	Door        DoorID           `json:"door"`
	Coord       float64          `json:"coord"` // вдоль SpanAxis двери назначения
	Orientation Orientation      `json:"orientation"`
	Side        Side             `json:"side"`
	// AxisFlipped - ориентации пары различаются: вертикальное движение
	// превращается в горизонтальное и наоборот.
	AxisFlipped bool        `json:"axisFlipped"`
	Axis        domain.Axis `json:"axis"`     // ось движения после перехода
	Rotation    int         `json:"rotation"` // куда смотрит спрайт после выхода
}
