package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"overworld-server/internal/domain"
	"overworld-server/internal/sprite"
	"overworld-server/pkg/api"
	"overworld-server/pkg/logger"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// Helper: сервис поверх тестового мира с точкой входа в городе
func setupService(t *testing.T) (*Service, testWorld) {
	t.Helper()
	tw := setupWorld(t)
	tw.world.SetSpawn(SpawnPoint{
		Map:  tw.town,
		Pos:  domain.Position{X: 500, Y: 500},
		Size: domain.Size{W: 20, H: 20},
	})
	return NewService(tw.world, nil, NewConfig()), tw
}

func TestService_LoginSpawnsAtBoundary(t *testing.T) {
	svc, tw := setupService(t)

	created, err := svc.Login("red", sprite.EchoChannel{})
	if err != nil || !created {
		t.Fatalf("Login() = %v, %v; want created", created, err)
	}
	if _, ok := tw.world.Sprite("red"); ok {
		t.Fatalf("player appeared before the tick")
	}

	report, err := svc.Step(context.Background())
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if len(report.Spawned) != 1 || report.Spawned[0] != "red" {
		t.Errorf("spawned = %v", report.Spawned)
	}
	red := mustSprite(t, tw.world, "red")
	if red.Map != tw.town || red.Image.Pos != (domain.Position{X: 500, Y: 500}) {
		t.Errorf("red at %v %v, want spawn point", red.Map, red.Image.Pos)
	}

	// Повторный вход того же имени только перепривязывает канал
	created, err = svc.Login("red", sprite.EchoChannel{})
	if err != nil || created {
		t.Errorf("second Login() = %v, %v; want rebind", created, err)
	}
}

func TestService_LoginRejectsNonPlayer(t *testing.T) {
	svc, _ := setupService(t)

	if _, err := svc.Login("house", sprite.EchoChannel{}); !errors.Is(err, ErrNotPlayer) {
		t.Errorf("Login(house) error = %v, want ErrNotPlayer", err)
	}
}

func TestService_InputMovesPlayer(t *testing.T) {
	svc, tw := setupService(t)
	mustPlace(t, tw.world, newPlayer("red", tw.town, 500, 500, nil))

	if err := svc.Input("red", "D", domain.Position{}); err != nil {
		t.Fatalf("Input() error = %v", err)
	}
	if err := svc.Input("red", "jump", domain.Position{}); !errors.Is(err, ErrUnbound) {
		t.Errorf("Input(jump) error = %v, want ErrUnbound", err)
	}

	if _, err := svc.Step(context.Background()); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if pos := mustSprite(t, tw.world, "red").Image.Pos; pos.X != 550 {
		t.Errorf("pos = %v, want x=550", pos)
	}
	if svc.LastReport().Tick != 1 {
		t.Errorf("LastReport().Tick = %d, want 1", svc.LastReport().Tick)
	}
}

func TestService_SubmitFullQueue(t *testing.T) {
	svc, _ := setupService(t)

	for i := 0; i < cap(svc.EventChan); i++ {
		if err := svc.Submit(domain.Event{Kind: domain.EventTimer}); err != nil {
			t.Fatalf("Submit #%d error = %v", i, err)
		}
	}
	if err := svc.Submit(domain.Event{Kind: domain.EventTimer}); !errors.Is(err, ErrBusy) {
		t.Errorf("Submit on full queue = %v, want ErrBusy", err)
	}
}

func TestService_PublishesTouchedMaps(t *testing.T) {
	svc, tw := setupService(t)
	mustPlace(t, tw.world, newPlayer("red", tw.town, 500, 500, nil))
	mustPlace(t, tw.world, newPlayer("blue", tw.inside, 50, 50, nil))

	redCh := svc.Hub.Register("red")
	blueCh := svc.Hub.Register("blue")

	if err := svc.Input("red", "w", domain.Position{}); err != nil {
		t.Fatalf("Input() error = %v", err)
	}
	if _, err := svc.Step(context.Background()); err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	select {
	case msg := <-redCh:
		if msg.Type != api.TypeUpdate || msg.MySprite != "red" || msg.Map != "town" {
			t.Errorf("unexpected update %+v", msg)
		}
		if msg.Grid == nil || msg.Grid.Width != 1000 {
			t.Errorf("grid = %+v", msg.Grid)
		}
		// house + red
		if len(msg.Sprites) != 2 {
			t.Errorf("sprites on town = %d, want 2", len(msg.Sprites))
		}
	case <-time.After(time.Second):
		t.Fatal("red got no update")
	}

	select {
	case msg := <-blueCh:
		t.Errorf("blue got an update for an untouched map: %+v", msg)
	default:
	}
}

func TestService_LeaveDespawnsOnlyCurrentChannel(t *testing.T) {
	svc, tw := setupService(t)

	oldConn := &recordingChannel{}
	newConn := &recordingChannel{}
	mustPlace(t, tw.world, newPlayer("red", tw.town, 500, 500, oldConn))

	// Клиент переподключился: старое соединение уходит позже нового входа
	if _, err := svc.Login("red", newConn); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	svc.Leave("red", oldConn)
	if _, err := svc.Step(context.Background()); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if _, ok := tw.world.Sprite("red"); !ok {
		t.Fatalf("stale leave removed a reconnected player")
	}

	svc.Leave("red", newConn)
	report, err := svc.Step(context.Background())
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if len(report.Despawned) != 1 {
		t.Errorf("despawned = %v, want [red]", report.Despawned)
	}
}

func TestService_LeaveBeforeSpawnCancelsIt(t *testing.T) {
	svc, tw := setupService(t)
	conn := &recordingChannel{}

	if _, err := svc.Login("ghost", conn); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	svc.Leave("ghost", conn)

	for i := 0; i < 3; i++ {
		report, err := svc.Step(context.Background())
		if err != nil {
			t.Fatalf("Step() error = %v", err)
		}
		if len(report.Spawned) != 0 {
			t.Errorf("tick %d spawned %v", report.Tick, report.Spawned)
		}
	}
	if _, ok := tw.world.Sprite("ghost"); ok {
		t.Errorf("player who left before spawning is still in the world")
	}
	if tw.world.Pending() != 0 {
		t.Errorf("pending = %d, want 0", tw.world.Pending())
	}
}

func TestService_ReloginBeforeSpawnKeepsLatestChannel(t *testing.T) {
	svc, tw := setupService(t)
	oldConn := &recordingChannel{}
	newConn := &recordingChannel{}

	for _, ch := range []*recordingChannel{oldConn, newConn} {
		if _, err := svc.Login("red", ch); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
	}
	if _, err := svc.Step(context.Background()); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if red := mustSprite(t, tw.world, "red"); red.Player.Channel != sprite.Channel(newConn) {
		t.Fatalf("red bound to %v, want the latest connection", red.Player.Channel)
	}

	svc.Leave("red", oldConn)
	if _, err := svc.Step(context.Background()); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if _, ok := tw.world.Sprite("red"); !ok {
		t.Errorf("stale leave removed the player")
	}
}

func TestService_LoginTakeoverWarns(t *testing.T) {
	svc, tw := setupService(t)
	hook := test.NewLocal(logger.Log)
	t.Cleanup(func() { logger.Log.ReplaceHooks(make(logrus.LevelHooks)) })

	oldConn := &recordingChannel{}
	newConn := &recordingChannel{}
	mustPlace(t, tw.world, newPlayer("red", tw.town, 500, 500, oldConn))

	if _, err := svc.Login("red", newConn); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel || !strings.Contains(entry.Message, "replaced") {
		t.Fatalf("takeover not logged: %+v", entry)
	}
	if entry.Data["sprite"] != "red" {
		t.Errorf("warning fields = %v", entry.Data)
	}

	// Тот же канал повторно - не захват
	hook.Reset()
	if _, err := svc.Login("red", newConn); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			t.Errorf("rebinding the same channel warned: %s", e.Message)
		}
	}
}

func TestService_RunStopsOnCancel(t *testing.T) {
	svc, _ := setupService(t)

	cfg := svc.Config()
	if cfg.TickInterval <= 0 || cfg.Workers < 1 {
		t.Fatalf("normalized config = %+v", cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop")
	}
}

// recordingChannel - подтверждает всё и запоминает предложения
type recordingChannel struct {
	proposals []sprite.Proposal
}

func (c *recordingChannel) Exchange(_ context.Context, p sprite.Proposal) (sprite.Ack, error) {
	c.proposals = append(c.proposals, p)
	return sprite.Ack{Seq: p.Seq, Pos: p.Pos, Rotate: p.Rotate}, nil
}
