package enums

import "strings"

// SpriteKind - закрытый набор видов спрайтов.
// Новый вид добавляется только вместе с обработчиком в таблице диспетчеризации.
type SpriteKind uint8

const (
	SpriteKindUnknown SpriteKind = iota
	SpriteKindPlayer
	SpriteKindTrainer
	SpriteKindBuilding
	SpriteKindDoor
)

var spriteKindToString = map[SpriteKind]string{
	SpriteKindPlayer:   "PLAYER",
	SpriteKindTrainer:  "TRAINER",
	SpriteKindBuilding: "BUILDING",
	SpriteKindDoor:     "DOOR",
}

var spriteKindStringToKind = map[string]SpriteKind{
	"PLAYER":   SpriteKindPlayer,
	"TRAINER":  SpriteKindTrainer,
	"BUILDING": SpriteKindBuilding,
	"DOOR":     SpriteKindDoor,
}

// AllSpriteKinds перечисляет все известные виды (для проверки полноты таблиц)
func AllSpriteKinds() []SpriteKind {
	return []SpriteKind{SpriteKindPlayer, SpriteKindTrainer, SpriteKindBuilding, SpriteKindDoor}
}

// String возвращает строковое представление (для логов и дебага)
func (k SpriteKind) String() string {
	if val, ok := spriteKindToString[k]; ok {
		return val
	}
	return "UNKNOWN"
}

// ParseSpriteKind конвертирует строку в Enum (нужно для загрузки мира из файла)
func ParseSpriteKind(s string) SpriteKind {
	upper := strings.ToUpper(s)
	if val, ok := spriteKindStringToKind[upper]; ok {
		return val
	}
	return SpriteKindUnknown
}

// MarshalJSON отдаёт вид строкой ("PLAYER"), как его пишут в файле мира
func (k SpriteKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}
