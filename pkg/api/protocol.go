package api

import (
	"encoding/json"
)

// Типы сообщений сервера
const (
	TypeUpdate   = "UPDATE"   // снимок карты после тика
	TypeProposal = "PROPOSAL" // предложение состояния игроку, ждём ACK
	TypeWelcome  = "WELCOME"  // ответ на LOGIN
	TypeError    = "ERROR"
)

// Действия клиента
const (
	ActionLogin = "LOGIN"
	ActionInput = "INPUT"
	ActionAck   = "ACK"
)

// --- СЕРВЕР -> КЛИЕНТ ---

// ServerResponse это корневой объект, который сервер отправляет клиенту.
// Какие поля заполнены, зависит от Type.
type ServerResponse struct {
	// Type тип сообщения: UPDATE, PROPOSAL, WELCOME, ERROR.
	Type string `json:"type"`

	// Tick номер тика, после которого сделан снимок (или к которому относится предложение).
	Tick uint64 `json:"tick"`

	// MySprite имя спрайта, которым управляет данный клиент.
	MySprite string `json:"mySprite,omitempty"`

	// Map имя карты снимка.
	Map string `json:"map,omitempty"`

	// Grid размеры карты.
	Grid *GridMeta `json:"grid,omitempty"`

	// Sprites все спрайты карты после коммита тика.
	Sprites []SpriteView `json:"sprites,omitempty"`

	// Proposal предложенное состояние. Клиент обязан ответить ACK с тем же Seq.
	Proposal *ProposalView `json:"proposal,omitempty"`

	// Error текст ошибки для Type == ERROR.
	Error string `json:"error,omitempty"`
}

// GridMeta содержит размеры карты
type GridMeta struct {
	Width  int `json:"w"`
	Height int `json:"h"`
}

// Vec2 - точка или размер на карте
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SpriteView это DTO для спрайта.
type SpriteView struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"` // PLAYER, TRAINER, BUILDING, DOOR
	Pos    Vec2   `json:"pos"`
	Size   Vec2   `json:"size"`
	Rotate int    `json:"rotate"`

	// Texture источник текстуры. Декодирует и рисует клиент.
	Texture string `json:"texture,omitempty"`

	// Line текущая реплика тренера, если идёт разговор.
	Line string `json:"line,omitempty"`
}

// ProposalView - предложенное состояние игрока
type ProposalView struct {
	Seq    uint64 `json:"seq"`
	Pos    Vec2   `json:"pos"`
	Rotate int    `json:"rotate"`
}

// --- КЛИЕНТ -> СЕРВЕР ---

// ClientCommand это корневой объект для всех сообщений от клиента к серверу.
type ClientCommand struct {
	// Action: LOGIN, INPUT, ACK.
	Action string `json:"action"`

	// Payload JSON-объект с данными для действия. Его структура зависит от Action.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// --- Payloads ---

// LoginPayload - первое сообщение: какой спрайт-игрок занимает клиент.
// Если спрайта нет, сервер создаёт его на точке появления.
// Без имени клиент входит гостем под сгенерированным именем.
type LoginPayload struct {
	Sprite string `json:"sprite"`
}

// InputPayload - именованный ввод ("w", "use"), переводится в событие по таблице биндингов.
type InputPayload struct {
	Input string `json:"input"`
	// Target точка взаимодействия для INTERACT
	Target *Vec2 `json:"target,omitempty"`
}

// AckPayload - ответ на PROPOSAL
type AckPayload struct {
	Seq    uint64 `json:"seq"`
	Pos    Vec2   `json:"pos"`
	Rotate int    `json:"rotate"`
}
