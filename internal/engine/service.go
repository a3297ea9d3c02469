package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"overworld-server/internal/core/types/enums"
	"overworld-server/internal/domain"
	"overworld-server/internal/network"
	"overworld-server/internal/sprite"
	"overworld-server/pkg/api"
	"overworld-server/pkg/logger"

	"github.com/sirupsen/logrus"
)

var (
	ErrBusy      = errors.New("service queue full")
	ErrNotPlayer = errors.New("sprite is not a player")
	ErrUnbound   = errors.New("input is not bound")
)

// LeaveRequest - клиент отключился. Канал нужен, чтобы старое соединение
// не выгнало уже переподключившегося игрока.
type LeaveRequest struct {
	Sprite  string
	Channel sprite.Channel
}

// Service - игровой цикл: собирает ввод, раз в TickInterval проводит тик
// и рассылает снимки изменившихся карт подписчикам.
type Service struct {
	World      *World
	Dispatcher *Dispatcher
	Hub        *network.Broadcaster
	Bindings   domain.Bindings

	// Каналы коммуникации
	EventChan chan domain.Event   // Ввод игроков
	JoinChan  chan *sprite.Sprite // Новые игроки
	LeaveChan chan LeaveRequest   // Отключения

	cfg Config

	mu   sync.RWMutex
	last Report
}

func NewService(world *World, bindings domain.Bindings, cfg Config) *Service {
	cfg = cfg.normalized()
	if bindings == nil {
		bindings = domain.DefaultBindings(50)
	}
	return &Service{
		World:      world,
		Dispatcher: NewDispatcher(world, cfg),
		Hub:        network.NewBroadcaster(),
		Bindings:   bindings,
		EventChan:  make(chan domain.Event, 256),
		JoinChan:   make(chan *sprite.Sprite, 16),
		LeaveChan:  make(chan LeaveRequest, 16),
		cfg:        cfg,
	}
}

func (s *Service) Config() Config { return s.cfg }

// LastReport - отчёт последнего успешного тика
func (s *Service) LastReport() Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Submit кладёт событие в очередь следующего тика
func (s *Service) Submit(ev domain.Event) error {
	select {
	case s.EventChan <- ev:
		return nil
	default:
		return ErrBusy
	}
}

// Input переводит именованный ввод игрока в событие
func (s *Service) Input(spriteName, input string, target domain.Position) error {
	ev, ok := s.Bindings.Resolve(input, spriteName, target)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnbound, input)
	}
	return s.Submit(ev)
}

// Login привязывает канал к игроку. Если такого спрайта нет, игрок
// появится на точке входа на границе следующего тика.
func (s *Service) Login(name string, ch sprite.Channel) (created bool, err error) {
	if existing, ok := s.World.Sprite(name); ok {
		if existing.Kind != enums.SpriteKindPlayer {
			return false, fmt.Errorf("%w: %q is %s", ErrNotPlayer, name, existing.Kind)
		}
		replaced, err := s.World.BindChannel(name, ch)
		if err != nil {
			return false, err
		}
		if replaced {
			logger.For("service").WithField("sprite", name).Warn("Active channel replaced by a new login")
		}
		return false, nil
	}

	spawn := s.World.Spawn()
	p := sprite.NewPlayer(name, spawn.Map, sprite.Image{
		Texture: spawn.Texture,
		Pos:     spawn.Pos,
		Size:    spawn.Size,
	}, ch)

	select {
	case s.JoinChan <- p:
		return true, nil
	default:
		return false, ErrBusy
	}
}

// Leave - клиент ушёл
func (s *Service) Leave(name string, ch sprite.Channel) {
	select {
	case s.LeaveChan <- LeaveRequest{Sprite: name, Channel: ch}:
	default:
		logger.For("service").WithField("sprite", name).Warn("Leave queue full")
	}
}

// Run запускает игровой цикл. Возвращается по отмене ctx.
func (s *Service) Run(ctx context.Context) error {
	log := logger.For("service")
	log.WithFields(logrus.Fields{
		"tick":    s.cfg.TickInterval,
		"workers": s.cfg.Workers,
		"sprites": s.World.Len(),
	}).Info("Game loop started")

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Game loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Step(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("Tick failed")
			}
		}
	}
}

// Step забирает всё накопленное из каналов и проводит один тик
func (s *Service) Step(ctx context.Context) (Report, error) {
	events := s.drain()

	report, err := s.Dispatcher.Tick(ctx, events)
	if err != nil {
		return Report{}, err
	}

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	s.publish(report)
	return report, nil
}

// drain - неблокирующее чтение всех каналов.
// Перед каждым выходом забираются входы: Leave, отправленный после Login,
// всегда застаёт появление уже в очереди мира.
func (s *Service) drain() []domain.Event {
	s.drainJoins()

leaves:
	for {
		select {
		case req := <-s.LeaveChan:
			s.drainJoins()
			s.World.Release(req.Sprite, req.Channel)
		default:
			break leaves
		}
	}

	var events []domain.Event
	for {
		select {
		case ev := <-s.EventChan:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func (s *Service) drainJoins() {
	for {
		select {
		case p := <-s.JoinChan:
			if err := s.World.QueueSpawn(p); err != nil {
				logger.For("service").WithError(err).WithField("sprite", p.Name).Warn("Join rejected")
			}
		default:
			return
		}
	}
}

// publish рассылает снимок карты каждому подписчику, чья карта изменилась
func (s *Service) publish(report Report) {
	if s.Hub.SubscriberCount() == 0 {
		return
	}

	touched := make(map[domain.MapHandle]bool, len(report.Maps))
	for _, h := range report.Maps {
		touched[h] = true
	}
	fresh := make(map[string]bool, len(report.Spawned))
	for _, name := range report.Spawned {
		fresh[name] = true
	}

	views := make(map[domain.MapHandle]api.ServerResponse)
	for _, name := range s.Hub.Subscribers() {
		me, ok := s.World.Sprite(name)
		if !ok || (!touched[me.Map] && !fresh[name]) {
			continue
		}
		view, ok := views[me.Map]
		if !ok {
			view = s.MapView(me.Map)
			views[me.Map] = view
		}
		view.MySprite = name
		s.Hub.SendTo(name, view)
	}
}

// MapView строит снимок карты для клиента
func (s *Service) MapView(h domain.MapHandle) api.ServerResponse {
	resp := api.ServerResponse{
		Type: api.TypeUpdate,
		Tick: s.Dispatcher.CurrentTick(),
	}
	if m, ok := s.World.Registry.Map(h); ok {
		resp.Map = m.Name
		resp.Grid = &api.GridMeta{Width: m.Width, Height: m.Height}
	}
	for _, sp := range s.World.OnMap(h) {
		resp.Sprites = append(resp.Sprites, s.SpriteView(sp))
	}
	return resp
}

// SpriteView - DTO спрайта
func (s *Service) SpriteView(sp sprite.Sprite) api.SpriteView {
	v := api.SpriteView{
		Name:   sp.Name,
		Kind:   sp.Kind.String(),
		Pos:    api.Vec2{X: sp.Image.Pos.X, Y: sp.Image.Pos.Y},
		Size:   api.Vec2{X: sp.Image.Size.W, Y: sp.Image.Size.H},
		Rotate: sp.Image.Rotate,
	}
	if tex, ok := s.World.Registry.Texture(sp.Image.Texture); ok {
		v.Texture = tex.Source
	}
	if line, ok := sp.Trainer.CurrentLine(); ok {
		v.Line = line
	}
	return v
}
