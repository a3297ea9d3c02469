package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"overworld-server/internal/agent"
	"overworld-server/internal/engine"
	"overworld-server/internal/loader"
	"overworld-server/internal/server"
	"overworld-server/internal/version"
	"overworld-server/pkg/logger"
)

func init() {
	logger.Init()
}

func main() {
	// 1. Парсинг конфигурации
	cfg := engine.NewConfig()
	var (
		worldPath   string
		printSchema bool
		botName     string
	)
	flag.StringVar(&worldPath, "world", "saves/world.json", "Path to the world file")
	flag.BoolVar(&printSchema, "schema", false, "Print the world file JSON Schema and exit")
	flag.DurationVar(&cfg.TickInterval, "tick", cfg.TickInterval, "Tick interval")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "Sprites updated in parallel during a tick")
	flag.DurationVar(&cfg.ChannelTimeout, "ack-timeout", cfg.ChannelTimeout, "How long a tick waits for a player ACK")
	flag.StringVar(&botName, "bot", "", "Spawn a headless bot player with this name")
	flag.Parse()

	if printSchema {
		data, err := loader.SchemaJSON()
		if err != nil {
			logger.Log.Fatal("Schema error: ", err)
		}
		os.Stdout.Write(data)
		return
	}

	logger.Log.Info("Starting overworld server...")
	logger.Log.Info(version.String())

	port := envOr("OW_PORT", "8080")
	debugPort := envOr("OW_DEBUG_PORT", "8081")

	// 2. Загрузка мира
	world, bindings, err := loader.LoadFile(worldPath)
	if err != nil {
		logger.Log.Fatal("Failed to load world: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Игровой цикл
	svc := engine.NewService(world, bindings, cfg)
	go func() {
		if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.WithError(err).Error("Game loop stopped")
		}
	}()

	// 4. Сетевые входы
	srv := server.New(svc, port)
	go func() {
		if err := srv.Run(); err != nil {
			logger.Log.Fatal("Server start error: ", err)
		}
	}()

	dbg := server.NewDebug(svc, debugPort)
	go func() {
		if err := dbg.Run(); err != nil {
			logger.Log.WithError(err).Error("Debug API stopped")
		}
	}()

	if botName != "" {
		bot := agent.NewBot("ws://localhost:"+port+"/ws", botName, "d", "s", "a", "w")
		go func() {
			// Даём серверу подняться
			time.Sleep(200 * time.Millisecond)
			if err := bot.Run(ctx); err != nil {
				logger.Log.WithError(err).Warn("Bot stopped")
			}
		}()
	}

	<-ctx.Done()
	logger.Log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Warn("Server shutdown")
	}
	if err := dbg.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Warn("Debug API shutdown")
	}

	logger.Log.Info("Done.")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
