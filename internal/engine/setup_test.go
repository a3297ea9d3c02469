package engine

import (
	"os"
	"testing"

	"overworld-server/internal/domain"
	"overworld-server/internal/door"
	"overworld-server/internal/sprite"
	"overworld-server/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// testWorld: город 1000x1000 с домом (100,100)+(200x150), вход снизу.
// Внутри дома карта 400x300, выход - дверь-тайл у нижнего края.
type testWorld struct {
	world  *World
	town   domain.MapHandle
	inside domain.MapHandle
	front  door.DoorID
	back   door.DoorID
}

func setupWorld(t *testing.T) testWorld {
	t.Helper()

	reg := domain.NewRegistry()
	linkage := door.NewLinkage(reg)
	tw := testWorld{
		world:  NewWorld(reg, linkage),
		town:   reg.InternMap(domain.Map{Name: "town", Width: 1000, Height: 1000}),
		inside: reg.InternMap(domain.Map{Name: "house", Width: 400, Height: 300}),
	}

	var err error
	tw.front, tw.back, err = linkage.CreatePair(
		door.Spec{Map: tw.town, Orientation: door.Horizontal, Side: door.Far, Pos: 180, Size: 40, Line: 250},
		door.Spec{Map: tw.inside, Orientation: door.Horizontal, Side: door.Near, Pos: 180, Size: 40, Line: 280},
	)
	if err != nil {
		t.Fatalf("CreatePair() error = %v", err)
	}

	mustPlace(t, tw.world, sprite.NewBuilding("house", tw.town, sprite.Image{
		Pos:  domain.Position{X: 100, Y: 100},
		Size: domain.Size{W: 200, H: 150},
	}, tw.front))
	mustPlace(t, tw.world, sprite.NewDoorTile("house_exit", tw.inside, sprite.Image{
		Pos:  domain.Position{X: 180, Y: 280},
		Size: domain.Size{W: 40, H: 20},
	}, tw.back))

	return tw
}

func mustPlace(t *testing.T, w *World, s *sprite.Sprite) {
	t.Helper()
	if err := w.Place(s); err != nil {
		t.Fatalf("Place(%s) error = %v", s.Name, err)
	}
}

func newPlayer(name string, m domain.MapHandle, x, y float64, ch sprite.Channel) *sprite.Sprite {
	return sprite.NewPlayer(name, m, sprite.Image{
		Pos:  domain.Position{X: x, Y: y},
		Size: domain.Size{W: 20, H: 20},
	}, ch)
}

func move(actor string, dx, dy float64) domain.Event {
	return domain.Event{Kind: domain.EventMove, Actor: actor, Delta: domain.Position{X: dx, Y: dy}}
}

func mustSprite(t *testing.T, w *World, name string) sprite.Sprite {
	t.Helper()
	s, ok := w.Sprite(name)
	if !ok {
		t.Fatalf("sprite %q not in world", name)
	}
	return s
}
