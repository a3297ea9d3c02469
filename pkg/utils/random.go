package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GuestPrefix - префикс имён, которые сервер выдаёт клиентам без имени
const GuestPrefix = "guest-"

// GenerateID создает простой уникальный ID (замена UUID для снижения зависимостей)
func GenerateID() string {
	b := make([]byte, 8) // 16 символов hex
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate random ID: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// GuestName - имя спрайта для анонимного входа
func GuestName() string {
	return GuestPrefix + GenerateID()
}
