package domain

import "strings"

// EventKind - Внутренний числовой идентификатор события
type EventKind uint8

const (
	EventUnknown EventKind = iota
	EventMove
	EventTurn
	EventInteract
	EventEndInteraction
	EventTimer
)

// Маппинг для конвертации JSON -> Domain
var eventStringToKind = map[string]EventKind{
	"MOVE":            EventMove,
	"TURN":            EventTurn,
	"INTERACT":        EventInteract,
	"END_INTERACTION": EventEndInteraction,
	"TIMER":           EventTimer,
}

// Маппинг для логов Domain -> String
var eventKindToString = map[EventKind]string{
	EventMove:           "MOVE",
	EventTurn:           "TURN",
	EventInteract:       "INTERACT",
	EventEndInteraction: "END_INTERACTION",
	EventTimer:          "TIMER",
}

// ParseEvent конвертирует строку из JSON в EventKind
func ParseEvent(s string) EventKind {
	upper := strings.ToUpper(s)
	if val, ok := eventStringToKind[upper]; ok {
		return val
	}
	return EventUnknown
}

// String реализует интерфейс Stringer (для fmt.Printf)
func (k EventKind) String() string {
	if val, ok := eventKindToString[k]; ok {
		return val
	}
	return "UNKNOWN"
}

// Event - одно происшествие за тик. Ядро читает только те поля,
// которые нужны конкретному виду спрайта, остальное игнорируется.
type Event struct {
	Kind  EventKind `json:"kind"`
	Actor string    `json:"actor,omitempty"` // Имя спрайта-инициатора

	Delta   Position `json:"delta,omitempty"`   // MOVE: смещение
	Target  Position `json:"target,omitempty"`  // INTERACT: точка взаимодействия
	Degrees int      `json:"degrees,omitempty"` // TURN: поворот
}

// Binding - шаблон события для именованного ввода ("w", "a", "use").
// Набор биндингов задаёт встраивающее приложение (файл мира).
type Binding struct {
	Kind    EventKind `json:"kind"`
	Delta   Position  `json:"delta,omitempty"`
	Degrees int       `json:"degrees,omitempty"`
}

// Bindings - таблица ввода: имя -> шаблон события
type Bindings map[string]Binding

// Resolve строит событие для ввода от конкретного актора.
// Для INTERACT точку взаимодействия передаёт вызывающий (клиент знает, куда смотрит).
func (b Bindings) Resolve(input, actor string, target Position) (Event, bool) {
	bind, ok := b[strings.ToLower(input)]
	if !ok || bind.Kind == EventUnknown {
		return Event{}, false
	}
	return Event{
		Kind:    bind.Kind,
		Actor:   actor,
		Delta:   bind.Delta,
		Target:  target,
		Degrees: bind.Degrees,
	}, true
}

// DefaultBindings - раскладка как в прототипе: w/a/s/d и шаг 50
func DefaultBindings(step float64) Bindings {
	return Bindings{
		"w":   {Kind: EventMove, Delta: Position{Y: -step}},
		"s":   {Kind: EventMove, Delta: Position{Y: step}},
		"a":   {Kind: EventMove, Delta: Position{X: -step}},
		"d":   {Kind: EventMove, Delta: Position{X: step}},
		"q":   {Kind: EventTurn, Degrees: -90},
		"e":   {Kind: EventTurn, Degrees: 90},
		"use": {Kind: EventInteract},
		"bye": {Kind: EventEndInteraction},
	}
}
