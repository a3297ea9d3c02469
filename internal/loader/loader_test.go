package loader

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"overworld-server/internal/domain"
	"overworld-server/internal/engine"
	"overworld-server/internal/sprite"
	"overworld-server/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestLoad_Testdata(t *testing.T) {
	world, bindings, err := LoadFile("testdata/world.json")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	stats := world.Registry.Stats()
	if stats.Maps != 2 || stats.Textures != 2 || stats.Archetypes != 1 {
		t.Errorf("registry stats = %+v, want 2 maps, 2 textures, 1 archetype", stats)
	}
	if world.Len() != 4 {
		t.Errorf("sprites = %d, want 4", world.Len())
	}
	if world.Linkage.Len() != 2 {
		t.Errorf("doors = %d, want 2", world.Linkage.Len())
	}

	joey, ok := world.Sprite("joey")
	if !ok {
		t.Fatalf("joey not loaded")
	}
	dialog := joey.Trainer.Trainer.Dialog
	if len(dialog) != 2 || dialog[1] != "See you around." {
		t.Errorf("joey dialog = %q, want nested reuse resolved", dialog)
	}
	ben, _ := world.Sprite("ben")
	if ben.Image.Rotate != 270 {
		t.Errorf("ben rotate = %d, want 270", ben.Image.Rotate)
	}
	if joey.Image.Texture != ben.Image.Texture {
		t.Errorf("identical textures got different handles")
	}
	if joey.Trainer.Trainer.Archetype != ben.Trainer.Trainer.Archetype {
		t.Errorf("identical archetypes got different handles")
	}

	town, _, ok := world.MapByName("town")
	if !ok {
		t.Fatalf("town not in registry")
	}
	spawn := world.Spawn()
	if spawn.Map != town || spawn.Size != (domain.Size{W: 20, H: 20}) {
		t.Errorf("spawn = %+v", spawn)
	}

	if b := bindings["w"]; b.Kind != domain.EventMove || b.Delta.Y != -50 {
		t.Errorf("default binding w = %+v", b)
	}
}

func TestLoad_DoorsDerivedFromFaces(t *testing.T) {
	world, _, err := LoadFile("testdata/world.json")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	house, _ := world.Sprite("house")
	front, ok := world.Linkage.Door(house.Building.Doors[0])
	if !ok {
		t.Fatalf("front door not in linkage")
	}
	if front.Line != 250 || front.Pos != 180 || front.Size != 40 {
		t.Errorf("front door = %+v, want bottom face line 250 span [180,220)", front.Spec)
	}

	exit, _ := world.Sprite("house_exit")
	back, _ := world.Linkage.Door(exit.Door.Door)
	if back.Line != 280 || back.Size != 40 {
		t.Errorf("back door = %+v, want top face line 280 full width", back.Spec)
	}
	if front.Destination != back.ID || back.Destination != front.ID {
		t.Errorf("doors not paired")
	}
}

// Загруженный мир сразу рабочий: игрок проходит в дом
func TestLoad_WalkIntoHouse(t *testing.T) {
	world, _, err := LoadFile("testdata/world.json")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	town, _, _ := world.MapByName("town")
	inside, _, _ := world.MapByName("house")

	red := sprite.NewPlayer("red", town, sprite.Image{
		Pos:  domain.Position{X: 190, Y: 260},
		Size: domain.Size{W: 20, H: 20},
	}, nil)
	if err := world.Place(red); err != nil {
		t.Fatalf("Place() error = %v", err)
	}

	d := engine.NewDispatcher(world, engine.NewConfig())
	ev := domain.Event{Kind: domain.EventMove, Actor: "red", Delta: domain.Position{Y: -50}}
	if _, err := d.Tick(context.Background(), []domain.Event{ev}); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}

	got, _ := world.Sprite("red")
	if got.Map != inside || got.Image.Pos != (domain.Position{X: 190, Y: 260}) {
		t.Errorf("red at %v %v, want inside the house at (190,260)", got.Map, got.Image.Pos)
	}
}

func TestDecode_Reuse(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "direct cycle",
			doc:     `{"reusable": {"g": {"a": "reuse a"}}, "caption": "reuse a", "maps": []}`,
			wantErr: ErrReuseCycle,
		},
		{
			name:    "indirect cycle",
			doc:     `{"reusable": {"g": {"a": ["reuse b"], "b": {"x": "reuse a"}}}, "caption": "reuse a", "maps": []}`,
			wantErr: ErrReuseCycle,
		},
		{
			name:    "unknown fragment",
			doc:     `{"reusable": {"g": {"a": 1}}, "caption": "reuse nope", "maps": []}`,
			wantErr: ErrReuseUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecode_SharedFragmentAcrossGroupsRejected(t *testing.T) {
	doc := `{"reusable": {"a": {"x": 1}, "b": {"x": 2}}, "maps": [{"name": "m", "size": [10, 10]}], "player": {"map": "m"}}`
	if _, err := Decode(strings.NewReader(doc)); err == nil {
		t.Errorf("expected error for fragment defined in two groups")
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name: "asymmetric doors",
			doc: `{"maps": [
				{"name": "a", "size": [100, 100], "sprites": [
					{"type": "Door", "name": "d1", "pos": [10, 10], "size": [10, 10], "door": {"name": "x", "dest": "y", "face": "top"}},
					{"type": "Door", "name": "d2", "pos": [40, 10], "size": [10, 10], "door": {"name": "z", "dest": "y", "face": "top"}}
				]},
				{"name": "b", "size": [100, 100], "sprites": [
					{"type": "Door", "name": "d3", "pos": [10, 10], "size": [10, 10], "door": {"name": "y", "dest": "x", "face": "top"}}
				]}
			], "player": {"map": "a"}}`,
			wantErr: domain.ErrInvalidDoor,
		},
		{
			name: "unknown face",
			doc: `{"maps": [{"name": "a", "size": [100, 100], "sprites": [
				{"type": "Door", "name": "d1", "pos": [10, 10], "size": [10, 10], "door": {"name": "x", "dest": "y", "face": "up"}}
			]}], "player": {"map": "a"}}`,
			wantErr: domain.ErrInvalidDoor,
		},
		{
			name: "door span outside the map",
			doc: `{"maps": [{"name": "a", "size": [100, 100], "sprites": [
				{"type": "Door", "name": "d1", "pos": [10, 10], "size": [10, 10], "door": {"name": "x", "dest": "y", "face": "top", "pos": 95}},
				{"type": "Door", "name": "d2", "pos": [40, 10], "size": [10, 10], "door": {"name": "y", "dest": "x", "face": "top"}}
			]}], "player": {"map": "a"}}`,
			wantErr: domain.ErrInvalidDoor,
		},
		{
			name: "unknown sprite type",
			doc: `{"maps": [{"name": "a", "size": [100, 100], "sprites": [
				{"type": "Pokeball", "name": "p", "pos": [10, 10], "size": [10, 10]}
			]}], "player": {"map": "a"}}`,
			wantErr: domain.ErrUnknownKind,
		},
		{
			name:    "spawn on unknown map",
			doc:     `{"maps": [{"name": "a", "size": [100, 100]}], "player": {"map": "nowhere"}}`,
			wantErr: domain.ErrUnknownMap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Ошибки без сентинелов: достаточно, что мир не собран
	plain := map[string]string{
		"unknown field":    `{"maps": [{"name": "a", "size": [100, 100], "colour": "red"}], "player": {"map": "a"}}`,
		"duplicate map":    `{"maps": [{"name": "a", "size": [100, 100]}, {"name": "a", "size": [50, 50]}], "player": {"map": "a"}}`,
		"no maps":          `{"maps": [], "player": {"map": "a"}}`,
		"zero size map":    `{"maps": [{"name": "a", "size": [0, 100]}], "player": {"map": "a"}}`,
		"doors on trainer": `{"maps": [{"name": "a", "size": [100, 100], "sprites": [{"type": "Trainer", "name": "t", "pos": [0, 0], "size": [10, 10], "trainer": {"name": "T"}, "doors": [{"name": "x", "dest": "y", "face": "top"}]}]}], "player": {"map": "a"}}`,
		"duplicate sprite": `{"maps": [{"name": "a", "size": [100, 100], "sprites": [{"type": "Player", "name": "p", "pos": [0, 0], "size": [10, 10]}, {"type": "Player", "name": "p", "pos": [5, 5], "size": [10, 10]}]}], "player": {"map": "a"}}`,
		"bad binding":      `{"maps": [{"name": "a", "size": [100, 100]}], "player": {"map": "a"}, "bindings": {"x": {"kind": "FLY"}}}`,
		"reusable as list": `{"reusable": ["brick"], "maps": [{"name": "a", "size": [100, 100]}], "player": {"map": "a"}}`,
		"reusable as text": `{"reusable": "brick", "maps": [{"name": "a", "size": [100, 100]}], "player": {"map": "a"}}`,
		"group as number":  `{"reusable": {"g": 5}, "maps": [{"name": "a", "size": [100, 100]}], "player": {"map": "a"}}`,
	}
	for name, doc := range plain {
		t.Run(name, func(t *testing.T) {
			if _, _, err := Load(strings.NewReader(doc)); err == nil {
				t.Errorf("Load() succeeded, want error")
			}
		})
	}
}

func TestDecode_ReusableShape(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"reusable": [1, 2], "maps": [{"name": "a", "size": [10, 10]}], "player": {"map": "a"}}`))
	if err == nil || !strings.Contains(err.Error(), "array") {
		t.Errorf("Decode() error = %v, want it to name the array", err)
	}

	// null равносилен отсутствию секции
	if _, err := Decode(strings.NewReader(`{"reusable": null, "maps": [{"name": "a", "size": [10, 10]}], "player": {"map": "a"}}`)); err != nil {
		t.Errorf("Decode() with null reusable: %v", err)
	}
}

func TestLoad_CustomBindings(t *testing.T) {
	doc := `{"maps": [{"name": "a", "size": [100, 100]}], "player": {"map": "a"},
		"bindings": {"Jump": {"kind": "move", "delta": [0, -100]}, "spin": {"kind": "TURN", "degrees": 180}}}`

	_, bindings, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(bindings) != 2 {
		t.Fatalf("bindings = %v, want only the file's two", bindings)
	}
	if b := bindings["jump"]; b.Kind != domain.EventMove || b.Delta.Y != -100 {
		t.Errorf("jump = %+v", b)
	}
	if b := bindings["spin"]; b.Kind != domain.EventTurn || b.Degrees != 180 {
		t.Errorf("spin = %+v", b)
	}
}

func TestSchema(t *testing.T) {
	data, err := SchemaJSON()
	if err != nil {
		t.Fatalf("SchemaJSON() error = %v", err)
	}
	s := string(data)
	for _, want := range []string{"Overworld world file", "SpriteFile", "DoorFile", "bottom"} {
		if !strings.Contains(s, want) {
			t.Errorf("schema has no %q", want)
		}
	}
}
