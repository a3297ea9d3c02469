// Package sprite описывает объекты на картах и их реакцию на события тика.
//
// Вид спрайта закрыт: Player, Trainer, Building, Door. Поведение выбирается
// таблицей диспетчеризации по виду (см. dispatch.go), а не наследованием.
// Update ничего не меняет на месте: он возвращает Delta, которую применяет
// диспетчер тика в фазе коммита.
package sprite

import (
	"fmt"

	"overworld-server/internal/core/types/enums"
	"overworld-server/internal/domain"
	"overworld-server/internal/door"
)

// Image - позиция и отрисовка спрайта
type Image struct {
	Texture domain.TextureHandle `json:"texture"`
	Pos     domain.Position      `json:"pos"`
	Size    domain.Size          `json:"size"`
	Rotate  int                  `json:"rotate"` // всегда в [0, 360)
}

// Footprint - занимаемый прямоугольник
func (i Image) Footprint() domain.Rect {
	return domain.Rect{Pos: i.Pos, Size: i.Size}
}

// SetRotation - единственный способ менять угол
func (i *Image) SetRotation(deg int) {
	i.Rotate = domain.NormalizeRotation(deg)
}

// --- КОМПОНЕНТЫ ВИДОВ ---

// PlayerComponent - спрайт под управлением клиента
type PlayerComponent struct {
	Channel Channel `json:"-"`
}

// TrainerComponent - NPC с диалогом.
// Cursor == -1: сессии нет. Иначе индекс текущей реплики.
type TrainerComponent struct {
	Trainer domain.Trainer `json:"trainer"`
	Cursor  int            `json:"cursor"`
	Partner string         `json:"partner,omitempty"`
}

// CurrentLine возвращает текущую реплику, если идёт разговор
func (t *TrainerComponent) CurrentLine() (string, bool) {
	if t == nil || t.Cursor < 0 || t.Cursor >= len(t.Trainer.Dialog) {
		return "", false
	}
	return t.Trainer.Dialog[t.Cursor], true
}

// BuildingComponent - здание со входами. Сквозь стены не пройти.
type BuildingComponent struct {
	Doors []door.DoorID `json:"doors"`
}

// DoorComponent - отдельно стоящий портал, ровно одна дверь
type DoorComponent struct {
	Door door.DoorID `json:"door"`
}

// Sprite - объект на карте. Заполнен ровно один компонент, соответствующий Kind.
type Sprite struct {
	Name  string           `json:"name"`
	Kind  enums.SpriteKind `json:"kind"`
	Map   domain.MapHandle `json:"map"`
	Image Image            `json:"image"`

	Player   *PlayerComponent   `json:"player,omitempty"`
	Trainer  *TrainerComponent  `json:"trainer,omitempty"`
	Building *BuildingComponent `json:"building,omitempty"`
	Door     *DoorComponent     `json:"door,omitempty"`
}

func NewPlayer(name string, m domain.MapHandle, img Image, ch Channel) *Sprite {
	return &Sprite{
		Name:   name,
		Kind:   enums.SpriteKindPlayer,
		Map:    m,
		Image:  img,
		Player: &PlayerComponent{Channel: ch},
	}
}

func NewTrainer(name string, m domain.MapHandle, img Image, t domain.Trainer) *Sprite {
	return &Sprite{
		Name:    name,
		Kind:    enums.SpriteKindTrainer,
		Map:     m,
		Image:   img,
		Trainer: &TrainerComponent{Trainer: t, Cursor: -1},
	}
}

func NewBuilding(name string, m domain.MapHandle, img Image, doors ...door.DoorID) *Sprite {
	return &Sprite{
		Name:     name,
		Kind:     enums.SpriteKindBuilding,
		Map:      m,
		Image:    img,
		Building: &BuildingComponent{Doors: doors},
	}
}

func NewDoorTile(name string, m domain.MapHandle, img Image, id door.DoorID) *Sprite {
	return &Sprite{
		Name:  name,
		Kind:  enums.SpriteKindDoor,
		Map:   m,
		Image: img,
		Door:  &DoorComponent{Door: id},
	}
}

// Validate проверяет, что вид и компоненты согласованы
func (s *Sprite) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("sprite without a name")
	}

	set := 0
	for _, present := range []bool{s.Player != nil, s.Trainer != nil, s.Building != nil, s.Door != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("sprite %q: expected exactly one class component, got %d", s.Name, set)
	}

	var ok bool
	switch s.Kind {
	case enums.SpriteKindPlayer:
		ok = s.Player != nil
	case enums.SpriteKindTrainer:
		ok = s.Trainer != nil
	case enums.SpriteKindBuilding:
		ok = s.Building != nil
	case enums.SpriteKindDoor:
		ok = s.Door != nil
	default:
		return fmt.Errorf("%w: sprite %q kind %s", domain.ErrUnknownKind, s.Name, s.Kind)
	}
	if !ok {
		return fmt.Errorf("sprite %q: component does not match kind %s", s.Name, s.Kind)
	}
	return nil
}

// Clone - глубокая копия. Канал игрока общий: он не хранит состояния.
func (s *Sprite) Clone() Sprite {
	c := *s
	if s.Player != nil {
		p := *s.Player
		c.Player = &p
	}
	if s.Trainer != nil {
		t := *s.Trainer
		t.Trainer.Dialog = append([]string(nil), s.Trainer.Trainer.Dialog...)
		c.Trainer = &t
	}
	if s.Building != nil {
		c.Building = &BuildingComponent{Doors: append([]door.DoorID(nil), s.Building.Doors...)}
	}
	if s.Door != nil {
		d := *s.Door
		c.Door = &d
	}
	return c
}

// DoorIDs - двери, которыми владеет спрайт (пусто для Player/Trainer)
func (s *Sprite) DoorIDs() []door.DoorID {
	switch {
	case s.Building != nil:
		return s.Building.Doors
	case s.Door != nil:
		return []door.DoorID{s.Door.Door}
	}
	return nil
}
