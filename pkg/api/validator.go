package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

// Пустое имя допустимо: сервер выдаст гостевое
func (p LoginPayload) Validate() error {
	if len(p.Sprite) > 64 {
		return errors.New("sprite name too long")
	}
	return nil
}

func (p InputPayload) Validate() error {
	if p.Input == "" {
		return errors.New("input is required")
	}
	return nil
}

func (p AckPayload) Validate() error {
	if p.Seq == 0 {
		return errors.New("seq is required")
	}
	return nil
}

// Decode распаковывает payload в T и, если T умеет, валидирует его
func Decode[T any](raw json.RawMessage) (T, error) {
	var payload T

	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("invalid payload format: %w", err)
	}

	if v, ok := any(payload).(Validator); ok {
		if err := v.Validate(); err != nil {
			return payload, fmt.Errorf("validation failed: %w", err)
		}
	}
	return payload, nil
}

// Encode собирает команду клиента (для ботов и тестов)
func Encode(action string, payload any) (ClientCommand, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ClientCommand{}, fmt.Errorf("encode %s payload: %w", action, err)
	}
	return ClientCommand{Action: action, Payload: raw}, nil
}
