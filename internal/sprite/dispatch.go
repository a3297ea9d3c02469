package sprite

import (
	"context"
	"fmt"

	"overworld-server/internal/core/types/enums"
	"overworld-server/internal/domain"
	"overworld-server/internal/door"
)

// Snapshot - состояние всех спрайтов на начало тика (копии, по имени).
// В фазе вычисления читается только он.
type Snapshot map[string]Sprite

// Find ищет спрайт в снимке
func (s Snapshot) Find(name string) (Sprite, bool) {
	sp, ok := s[name]
	return sp, ok
}

// Context передаёт обработчику вида всё, что ему можно читать.
// Мутировать что-либо через Context нельзя: результат только в Delta.
type Context struct {
	Ctx      context.Context
	Tick     uint64
	Snapshot Snapshot
	Linkage  *door.Linkage
}

// TransitionRequest - просьба переместить спрайт через дверь.
// Сам переход выполняет диспетчер в фазе коммита.
type TransitionRequest struct {
	Mover string      `json:"mover"`
	Door  door.DoorID `json:"door"`
	Entry float64     `json:"entry"` // координата входа вдоль пролёта
}

// DialogState - новое положение курсора диалога тренера
type DialogState struct {
	Cursor  int    `json:"cursor"`
	Partner string `json:"partner,omitempty"`
}

// Delta - описание изменений одного спрайта за тик.
// nil-поля означают "без изменений".
type Delta struct {
	Sprite string

	Pos    *domain.Position
	Rotate *int
	Dialog *DialogState
	// Corrected - клиент подтвердил не ту позицию, что ему предложили
	Corrected bool

	// Запросы по чужим спрайтам (здания и двери)
	Transitions []TransitionRequest
	Blocks      []string

	// Ошибка обмена с клиентом. Касается только этого спрайта.
	Err error
}

// IsEmpty - ничего не поменялось
func (d Delta) IsEmpty() bool {
	return d.Pos == nil && d.Rotate == nil && d.Dialog == nil &&
		len(d.Transitions) == 0 && len(d.Blocks) == 0 && d.Err == nil
}

// UpdateFunc - обработчик одного вида спрайтов.
// Получает копию спрайта из снимка и полный (неизменяемый) набор событий тика.
type UpdateFunc func(ctx Context, self Sprite, events []domain.Event) (Delta, error)

// Dispatch - таблица "вид -> обработчик"
type Dispatch map[enums.SpriteKind]UpdateFunc

// NewDispatch возвращает таблицу со всеми стандартными видами
func NewDispatch() Dispatch {
	d := make(Dispatch)
	d[enums.SpriteKindPlayer] = UpdatePlayer
	d[enums.SpriteKindTrainer] = UpdateTrainer
	d[enums.SpriteKindBuilding] = UpdateBuilding
	d[enums.SpriteKindDoor] = UpdateDoorTile
	return d
}

// Update вызывает обработчик по виду спрайта
func (d Dispatch) Update(ctx Context, self Sprite, events []domain.Event) (Delta, error) {
	handler, ok := d[self.Kind]
	if !ok {
		return Delta{}, fmt.Errorf("%w: %s (sprite %q)", domain.ErrUnknownKind, self.Kind, self.Name)
	}
	if err := self.Validate(); err != nil {
		return Delta{}, err
	}

	delta, err := handler(ctx, self, events)
	if err != nil {
		return Delta{}, err
	}

	delta.Sprite = self.Name
	if delta.Rotate != nil {
		r := domain.NormalizeRotation(*delta.Rotate)
		delta.Rotate = &r
	}
	return delta, nil
}
