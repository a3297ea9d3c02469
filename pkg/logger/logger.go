package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log - глобальный логгер приложения.
var Log = logrus.New()

// Init настраивает глобальный логгер из окружения и пишет в stdout.
// Вызывается один раз в main.go (и в TestMain пакетов с тестами).
func Init() {
	InitWithOutput(os.Stdout)
}

// InitWithOutput то же, что Init, но с произвольным приёмником (тесты, файлы).
//
// LOG_LEVEL - уровень (по умолчанию "info").
// LOG_FORMAT - "json" для продакшена, иначе цветной текст для разработки.
func InitWithOutput(out io.Writer) {
	level, err := logrus.ParseLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	Log.SetOutput(out)
}

// For возвращает логгер с полем component - так проще фильтровать логи подсистем.
func For(component string) *logrus.Entry {
	return Log.WithField("component", component)
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
