package domain

import "math"

// Position - точка в координатах карты
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size - ширина и высота
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Shift возвращает новую позицию со смещением (не меняя текущую)
func (p Position) Shift(dx, dy float64) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Add складывает два вектора
func (p Position) Add(d Position) Position {
	return p.Shift(d.X, d.Y)
}

// IsZero - нулевой ли вектор
func (p Position) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

// Along возвращает координату вдоль оси
func (p Position) Along(axis Axis) float64 {
	if axis == AxisX {
		return p.X
	}
	return p.Y
}

// With возвращает копию с заменённой координатой вдоль оси
func (p Position) With(axis Axis, v float64) Position {
	if axis == AxisX {
		p.X = v
	} else {
		p.Y = v
	}
	return p
}

// Along возвращает размер вдоль оси
func (s Size) Along(axis Axis) float64 {
	if axis == AxisX {
		return s.W
	}
	return s.H
}

// Axis - ось движения/размещения
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

// Other возвращает перпендикулярную ось
func (a Axis) Other() Axis {
	if a == AxisX {
		return AxisY
	}
	return AxisX
}

func (a Axis) String() string {
	if a == AxisX {
		return "X"
	}
	return "Y"
}

// Rect - прямоугольник [Pos, Pos+Size)
type Rect struct {
	Pos  Position `json:"pos"`
	Size Size     `json:"size"`
}

// Contains проверяет попадание точки. Левая/верхняя граница включительно,
// правая/нижняя - нет.
func (r Rect) Contains(p Position) bool {
	return p.X >= r.Pos.X && p.X < r.Pos.X+r.Size.W &&
		p.Y >= r.Pos.Y && p.Y < r.Pos.Y+r.Size.H
}

// Overlaps - пересекаются ли прямоугольники. Касание гранями не считается.
func (r Rect) Overlaps(o Rect) bool {
	return r.Pos.X < o.Pos.X+o.Size.W && o.Pos.X < r.Pos.X+r.Size.W &&
		r.Pos.Y < o.Pos.Y+o.Size.H && o.Pos.Y < r.Pos.Y+r.Size.H
}

// Sweep сообщает, задевает ли прямоугольник размера size, сдвигаясь по
// отрезку from -> to, прямоугольник r в какой-либо точке пути.
// Длинный шаг сквозь r тоже считается касанием.
func (r Rect) Sweep(from, to Position, size Size) bool {
	t0, t1 := 0.0, 1.0
	for _, axis := range []Axis{AxisX, AxisY} {
		p := from.Along(axis)
		d := to.Along(axis) - p
		// Левый верхний угол движущегося в (lo, hi) <=> пересечение по оси
		lo := r.Pos.Along(axis) - size.Along(axis)
		hi := r.Pos.Along(axis) + r.Size.Along(axis)

		if d == 0 {
			if p <= lo || p >= hi {
				return false
			}
			continue
		}
		a, b := (lo-p)/d, (hi-p)/d
		if a > b {
			a, b = b, a
		}
		t0, t1 = math.Max(t0, a), math.Min(t1, b)
		if t0 >= t1 {
			return false
		}
	}
	return true
}

// Clamp прижимает позицию объекта размера size так, чтобы он целиком
// оставался внутри прямоугольника.
func (r Rect) Clamp(p Position, size Size) Position {
	p.X = clamp(p.X, r.Pos.X, r.Pos.X+r.Size.W-size.W)
	p.Y = clamp(p.Y, r.Pos.Y, r.Pos.Y+r.Size.H-size.H)
	return p
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Max(lo, math.Min(v, hi))
}

// NormalizeRotation приводит угол в градусах к [0, 360).
// Отрицательные значения тоже: -10 -> 350.
func NormalizeRotation(deg int) int {
	r := deg % 360
	if r < 0 {
		r += 360
	}
	return r
}
