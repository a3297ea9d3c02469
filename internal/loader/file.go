// Package loader читает файл мира: карты, спрайты, двери, точку входа и биндинги.
//
// Любая строка "reuse NAME" в файле заменяется фрагментом NAME из секции
// "reusable" до разбора в структуры, поэтому ссылкой может быть что угодно:
// текстура, диалог, целый спрайт.
package loader

// Vec - пара [x, y] или [w, h]
type Vec [2]float64

// WorldFile - корень файла мира (после подстановки reuse-ссылок)
type WorldFile struct {
	Caption  string                 `json:"caption,omitempty" jsonschema:"title=Caption,description=Human readable world name"`
	Step     float64                `json:"step,omitempty" jsonschema:"title=Step,description=Movement step of the default w/a/s/d bindings,minimum=0"`
	Reusable map[string]any         `json:"reusable,omitempty" jsonschema:"title=Reusable fragments,description=Groups of named fragments referenced as \"reuse NAME\""`
	Maps     []MapFile              `json:"maps" jsonschema:"title=Maps,minItems=1,required"`
	Player   PlayerFile             `json:"player" jsonschema:"title=Player spawn,required"`
	Bindings map[string]BindingFile `json:"bindings,omitempty" jsonschema:"title=Input bindings,description=Input name to event template; defaults to w/a/s/d/q/e/use/bye"`
}

// TextureFile - описание текстуры. Одинаковые описания дают один хэндл.
type TextureFile struct {
	Source string `json:"source" jsonschema:"description=Opaque render resource reference,required"`
	Width  int    `json:"width,omitempty" jsonschema:"minimum=0"`
	Height int    `json:"height,omitempty" jsonschema:"minimum=0"`
}

type MapFile struct {
	Name    string       `json:"name" jsonschema:"description=Unique map name,minLength=1,required"`
	Size    [2]int       `json:"size" jsonschema:"description=Map width and height,required"`
	Sprites []SpriteFile `json:"sprites,omitempty"`
}

// SpriteFile - один спрайт карты. Заполняется блок, соответствующий type.
type SpriteFile struct {
	Type    string       `json:"type" jsonschema:"enum=Building,enum=Door,enum=Trainer,enum=Player,required"`
	Name    string       `json:"name" jsonschema:"description=Unique sprite name across the world,minLength=1,required"`
	Pos     Vec          `json:"pos" jsonschema:"required"`
	Size    Vec          `json:"size" jsonschema:"required"`
	Rotate  int          `json:"rotate,omitempty" jsonschema:"description=Degrees normalized into 0..359"`
	Texture *TextureFile `json:"texture,omitempty"`

	Doors   []DoorFile   `json:"doors,omitempty" jsonschema:"description=Building only: doors on the footprint faces"`
	Door    *DoorFile    `json:"door,omitempty" jsonschema:"description=Door only: the single door of this tile"`
	Trainer *TrainerFile `json:"trainer,omitempty" jsonschema:"description=Trainer only"`
}

// DoorFile - дверь на грани футпринта владельца
type DoorFile struct {
	Name string `json:"name" jsonschema:"description=Unique door name,minLength=1,required"`
	Dest string `json:"dest" jsonschema:"description=Name of the paired door; it must point back,minLength=1,required"`
	Face string `json:"face" jsonschema:"enum=top,enum=bottom,enum=left,enum=right,required"`
	// Pos и Size по умолчанию - вся грань владельца
	Pos  *int `json:"pos,omitempty" jsonschema:"description=Span start along the face in map coordinates"`
	Size *int `json:"size,omitempty" jsonschema:"description=Span length,minimum=1"`
}

type TrainerFile struct {
	Archetype string   `json:"archetype" jsonschema:"description=Trainer category; interned"`
	Name      string   `json:"name"`
	Dialog    []string `json:"dialog,omitempty"`
}

// PlayerFile - где появляются новые игроки
type PlayerFile struct {
	Map     string       `json:"map" jsonschema:"minLength=1,required"`
	Pos     Vec          `json:"pos"`
	Size    Vec          `json:"size,omitempty" jsonschema:"description=Defaults to 50x50"`
	Texture *TextureFile `json:"texture,omitempty"`
}

type BindingFile struct {
	Kind    string `json:"kind" jsonschema:"enum=MOVE,enum=TURN,enum=INTERACT,enum=END_INTERACTION,enum=TIMER,required"`
	Delta   Vec    `json:"delta,omitempty"`
	Degrees int    `json:"degrees,omitempty"`
}
