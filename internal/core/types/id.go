package types

import (
	"fmt"
	"strconv"
)

// Handle - 64-битный непрозрачный идентификатор канонического объекта
// (карта, текстура, архетип тренера, дверь).
//
// Handle является value-type: дешёво копируется, сравнивается через ==
// и может быть ключом map. Два хэндла равны тогда и только тогда, когда
// ссылаются на один и тот же хранимый экземпляр.
//
// Формат битов (от старших к младшим):
//
//	[ Kind (8) | Reserved (24) | Index (32) ]
//
// Где:
//   - Kind - вид объекта (Map, Texture, ...), не даёт перепутать пулы
//   - Index - позиция объекта в арене/пуле владельца
type Handle uint64

// NilHandle - нулевой хэндл. Ни один выданный хэндл с ним не совпадает,
// потому что KindNone никогда не выдаётся.
const NilHandle Handle = 0

// Kind - вид объекта, на который указывает хэндл.
type Kind uint8

const (
	KindNone Kind = iota
	KindMap
	KindTexture
	KindArchetype
	KindDoor
)

var kindNames = map[Kind]string{
	KindNone:      "none",
	KindMap:       "map",
	KindTexture:   "texture",
	KindArchetype: "archetype",
	KindDoor:      "door",
}

// String реализует интерфейс Stringer
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Конфигурация битов Handle.
const (
	bitsIndex = 32
	bitsKind  = 8

	shiftKind = 64 - bitsKind

	maskIndex = (1 << bitsIndex) - 1
	maskKind  = (1 << bitsKind) - 1
)

// PackHandle собирает Handle из вида и индекса.
//
// Функция не проверяет диапазоны и предполагает, что индекс
// помещается в 32 бита (пулы столько не хранят).
func PackHandle(kind Kind, index uint32) Handle {
	return Handle((uint64(kind) << shiftKind) | uint64(index))
}

// Index возвращает позицию объекта в пуле владельца.
func (h Handle) Index() uint32 {
	return uint32(h & maskIndex)
}

// Kind возвращает вид объекта.
func (h Handle) Kind() Kind {
	return Kind((h >> shiftKind) & maskKind)
}

// IsNil проверяет, является ли хэндл нулевым.
func (h Handle) IsNil() bool {
	return h == NilHandle
}

// Is проверяет, что хэндл выдан пулом нужного вида.
func (h Handle) Is(kind Kind) bool {
	return !h.IsNil() && h.Kind() == kind
}

// String возвращает человекочитаемое представление для логов.
func (h Handle) String() string {
	if h.IsNil() {
		return "<nil>"
	}
	return fmt.Sprintf("[%s:%d]", h.Kind(), h.Index())
}

// MarshalJSON сериализует Handle в JSON как строку.
//
// JavaScript теряет точность на uint64, поэтому отдаём строку.
func (h Handle) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(h), 10) + `"`), nil
}

// UnmarshalJSON десериализует Handle из строки или числа.
func (h *Handle) UnmarshalJSON(data []byte) error {
	s := string(data)

	if len(s) > 1 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}

	if s == "" || s == "null" {
		*h = NilHandle
		return nil
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}

	*h = Handle(v)
	return nil
}
