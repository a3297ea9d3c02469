package engine

import "time"

// Config хранит параметры запуска движка
type Config struct {
	// TickInterval - период тика игрового цикла
	TickInterval time.Duration
	// Workers - сколько спрайтов считается параллельно в фазе вычисления.
	// 1 - строго последовательно.
	Workers int
	// ChannelTimeout - сколько ждать ACK от клиента на одно предложение
	ChannelTimeout time.Duration
}

// NewConfig создает конфиг по умолчанию
func NewConfig() Config {
	return Config{
		TickInterval:   100 * time.Millisecond,
		Workers:        1,
		ChannelTimeout: 50 * time.Millisecond,
	}
}

// normalized подставляет значения по умолчанию вместо нулей
func (c Config) normalized() Config {
	def := NewConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	return c
}
