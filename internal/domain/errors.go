package domain

import "errors"

// Ошибки ядра. Контекст добавляется через fmt.Errorf("...: %w", err),
// проверять через errors.Is.
var (
	// ErrInvalidDoor - нулевой размер, пролёт вне карты или несимметричная пара.
	ErrInvalidDoor = errors.New("invalid door")
	// ErrUnknownMap - дверь ссылается на карту, которой нет в реестре.
	ErrUnknownMap = errors.New("unknown map")
	// ErrUnknownDoor - хэндл двери не из этой арены.
	ErrUnknownDoor = errors.New("unknown door")
	// ErrChannel - обмен с клиентом не удался или истёк по таймауту.
	ErrChannel = errors.New("client channel failed")
	// ErrUnknownKind - у спрайта вид, для которого нет обработчика.
	ErrUnknownKind = errors.New("unknown sprite kind")
)
