package domain

import "overworld-server/internal/core/types"

// Хэндлы канонических ассетов. Разные типы, чтобы карту нельзя было
// передать туда, где ждут текстуру.
type (
	MapHandle       types.Handle
	TextureHandle   types.Handle
	ArchetypeHandle types.Handle
)

func (h MapHandle) String() string       { return types.Handle(h).String() }
func (h TextureHandle) String() string   { return types.Handle(h).String() }
func (h ArchetypeHandle) String() string { return types.Handle(h).String() }

func (h MapHandle) MarshalJSON() ([]byte, error)       { return types.Handle(h).MarshalJSON() }
func (h TextureHandle) MarshalJSON() ([]byte, error)   { return types.Handle(h).MarshalJSON() }
func (h ArchetypeHandle) MarshalJSON() ([]byte, error) { return types.Handle(h).MarshalJSON() }

// --- КАНОНИЧЕСКИЕ АССЕТЫ ---
//
// Ключ канонизации - полное структурное равенство всех полей.
// Поэтому все ассеты остаются comparable (никаких слайсов и map внутри).

// Map - прямоугольная карта overworld'а
type Map struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Bounds возвращает прямоугольник карты в мировых координатах
func (m Map) Bounds() Rect {
	return Rect{Size: Size{W: float64(m.Width), H: float64(m.Height)}}
}

// Extent возвращает размер карты вдоль оси
func (m Map) Extent(axis Axis) float64 {
	if axis == AxisX {
		return float64(m.Width)
	}
	return float64(m.Height)
}

// Texture - непрозрачный ресурс отрисовки. Декодирование - не наша забота,
// здесь только то, что отличает одну текстуру от другой.
type Texture struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// TrainerArchetype - категория NPC ("Рыбак", "Гимнаст")
type TrainerArchetype struct {
	Name string `json:"name"`
}

// Trainer - конкретный NPC. Сам не канонизируется, ссылается на архетип.
type Trainer struct {
	Archetype ArchetypeHandle `json:"archetype"`
	Name      string          `json:"name"`
	Dialog    []string        `json:"dialog"`
}
