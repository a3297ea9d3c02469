package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"overworld-server/internal/core/types/enums"
	"overworld-server/internal/domain"
	"overworld-server/internal/door"
	"overworld-server/internal/engine"
	"overworld-server/internal/sprite"
	"overworld-server/pkg/logger"

	"github.com/sirupsen/logrus"
)

const (
	defaultStep       = 50
	defaultPlayerSide = 50
)

// LoadFile открывает файл мира и вызывает Load
func LoadFile(path string) (*engine.World, domain.Bindings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open world file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load читает файл мира и строит готовый мир.
// Все ошибки - ошибки построения: мир либо собран целиком, либо не собран.
func Load(r io.Reader) (*engine.World, domain.Bindings, error) {
	file, err := Decode(r)
	if err != nil {
		return nil, nil, err
	}

	b := newBuilder()
	if err := b.build(file); err != nil {
		return nil, nil, err
	}
	bindings, err := buildBindings(file)
	if err != nil {
		return nil, nil, err
	}

	stats := b.world.Registry.Stats()
	logger.Log.WithFields(logrus.Fields{
		"component": "loader",
		"caption":   file.Caption,
		"maps":      stats.Maps,
		"textures":  stats.Textures,
		"sprites":   b.world.Len(),
		"doors":     b.world.Linkage.Len(),
	}).Info("World loaded")

	return b.world, bindings, nil
}

// Decode раскрывает reuse-ссылки и разбирает файл в WorldFile
func Decode(r io.Reader) (*WorldFile, error) {
	var raw map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse world file: %w", err)
	}

	var groups map[string]any
	if v, ok := raw["reusable"]; ok && v != nil {
		if groups, ok = v.(map[string]any); !ok {
			return nil, fmt.Errorf("reusable: want an object of fragment groups, got %s", jsonKind(v))
		}
	}
	delete(raw, "reusable")

	res, err := newResolver(groups)
	if err != nil {
		return nil, err
	}
	resolved, err := res.resolve(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("resolve reusables: %w", err)
	}

	data, err := json.Marshal(resolved)
	if err != nil {
		return nil, fmt.Errorf("re-encode world file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var file WorldFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode world file: %w", err)
	}
	if len(file.Maps) == 0 {
		return nil, fmt.Errorf("world file has no maps")
	}
	return &file, nil
}

// builder собирает мир в два прохода: сначала карты и двери,
// затем спрайты, которым нужны ID уже связанных дверей.
type builder struct {
	world *engine.World
	maps  map[string]domain.MapHandle
	doors []door.NamedSpec
	owner map[string]string // имя двери -> спрайт
}

func newBuilder() *builder {
	reg := domain.NewRegistry()
	return &builder{
		world: engine.NewWorld(reg, door.NewLinkage(reg)),
		maps:  make(map[string]domain.MapHandle),
		owner: make(map[string]string),
	}
}

func (b *builder) build(file *WorldFile) error {
	reg := b.world.Registry

	for _, mf := range file.Maps {
		if mf.Name == "" {
			return fmt.Errorf("map without a name")
		}
		if _, dup := b.maps[mf.Name]; dup {
			return fmt.Errorf("duplicate map %q", mf.Name)
		}
		if mf.Size[0] <= 0 || mf.Size[1] <= 0 {
			return fmt.Errorf("map %q: size must be positive, got %v", mf.Name, mf.Size)
		}
		b.maps[mf.Name] = reg.InternMap(domain.Map{Name: mf.Name, Width: mf.Size[0], Height: mf.Size[1]})
	}

	// Проход 1: двери
	for _, mf := range file.Maps {
		h := b.maps[mf.Name]
		for _, sf := range mf.Sprites {
			kind := enums.ParseSpriteKind(sf.Type)
			if len(sf.Doors) > 0 && kind != enums.SpriteKindBuilding {
				return fmt.Errorf("sprite %q: only buildings have a doors list", sf.Name)
			}
			if sf.Door != nil && kind != enums.SpriteKindDoor {
				return fmt.Errorf("sprite %q: only door tiles have a door block", sf.Name)
			}
			img := image(sf)
			for _, df := range sf.Doors {
				if err := b.addDoor(h, sf.Name, img, df); err != nil {
					return err
				}
			}
			if sf.Door != nil {
				if err := b.addDoor(h, sf.Name, img, *sf.Door); err != nil {
					return err
				}
			}
		}
	}
	ids, err := b.world.Linkage.LinkNamed(b.doors)
	if err != nil {
		return err
	}

	// Проход 2: спрайты
	for _, mf := range file.Maps {
		h := b.maps[mf.Name]
		for _, sf := range mf.Sprites {
			s, err := b.sprite(h, sf, ids)
			if err != nil {
				return fmt.Errorf("map %q: %w", mf.Name, err)
			}
			if err := b.world.Place(s); err != nil {
				return fmt.Errorf("map %q: %w", mf.Name, err)
			}
		}
	}

	return b.spawn(file.Player)
}

// addDoor выводит спецификацию двери из грани футпринта владельца
func (b *builder) addDoor(h domain.MapHandle, owner string, img sprite.Image, df DoorFile) error {
	if prev, dup := b.owner[df.Name]; dup {
		return fmt.Errorf("door %q declared by both %q and %q", df.Name, prev, owner)
	}
	fp := img.Footprint()

	var spec door.Spec
	spec.Map = h
	switch strings.ToLower(df.Face) {
	case "top":
		spec.Orientation, spec.Side, spec.Line = door.Horizontal, door.Near, fp.Pos.Y
	case "bottom":
		spec.Orientation, spec.Side, spec.Line = door.Horizontal, door.Far, fp.Pos.Y+fp.Size.H
	case "left":
		spec.Orientation, spec.Side, spec.Line = door.Vertical, door.Near, fp.Pos.X
	case "right":
		spec.Orientation, spec.Side, spec.Line = door.Vertical, door.Far, fp.Pos.X+fp.Size.W
	default:
		return fmt.Errorf("%w: door %q of %q: unknown face %q", domain.ErrInvalidDoor, df.Name, owner, df.Face)
	}

	// По умолчанию дверь - вся грань
	axis := spec.Orientation.SpanAxis()
	spec.Pos = int(math.Round(fp.Pos.Along(axis)))
	spec.Size = int(math.Round(fp.Size.Along(axis)))
	if df.Pos != nil {
		spec.Pos = *df.Pos
	}
	if df.Size != nil {
		spec.Size = *df.Size
	}

	b.owner[df.Name] = owner
	b.doors = append(b.doors, door.NamedSpec{Name: df.Name, Dest: df.Dest, Spec: spec})
	return nil
}

func (b *builder) sprite(h domain.MapHandle, sf SpriteFile, ids map[string]door.DoorID) (*sprite.Sprite, error) {
	img := image(sf)
	if sf.Texture != nil {
		img.Texture = b.world.Registry.InternTexture(texture(sf.Texture))
	}

	switch kind := enums.ParseSpriteKind(sf.Type); kind {
	case enums.SpriteKindPlayer:
		return sprite.NewPlayer(sf.Name, h, img, nil), nil

	case enums.SpriteKindTrainer:
		if sf.Trainer == nil {
			return nil, fmt.Errorf("trainer %q without a trainer block", sf.Name)
		}
		t := domain.Trainer{
			Name:   sf.Trainer.Name,
			Dialog: sf.Trainer.Dialog,
		}
		if sf.Trainer.Archetype != "" {
			t.Archetype = b.world.Registry.InternArchetype(domain.TrainerArchetype{Name: sf.Trainer.Archetype})
		}
		return sprite.NewTrainer(sf.Name, h, img, t), nil

	case enums.SpriteKindBuilding:
		doors := make([]door.DoorID, 0, len(sf.Doors))
		for _, df := range sf.Doors {
			doors = append(doors, ids[df.Name])
		}
		return sprite.NewBuilding(sf.Name, h, img, doors...), nil

	case enums.SpriteKindDoor:
		if sf.Door == nil {
			return nil, fmt.Errorf("door tile %q without a door block", sf.Name)
		}
		return sprite.NewDoorTile(sf.Name, h, img, ids[sf.Door.Name]), nil

	default:
		return nil, fmt.Errorf("%w: sprite %q has type %q", domain.ErrUnknownKind, sf.Name, sf.Type)
	}
}

func (b *builder) spawn(pf PlayerFile) error {
	h, ok := b.maps[pf.Map]
	if !ok {
		return fmt.Errorf("player spawn: %w %q", domain.ErrUnknownMap, pf.Map)
	}
	size := domain.Size{W: pf.Size[0], H: pf.Size[1]}
	if size.W <= 0 || size.H <= 0 {
		size = domain.Size{W: defaultPlayerSide, H: defaultPlayerSide}
	}

	sp := engine.SpawnPoint{
		Map:  h,
		Pos:  domain.Position{X: pf.Pos[0], Y: pf.Pos[1]},
		Size: size,
	}
	if pf.Texture != nil {
		sp.Texture = b.world.Registry.InternTexture(texture(pf.Texture))
	}
	b.world.SetSpawn(sp)
	return nil
}

func buildBindings(file *WorldFile) (domain.Bindings, error) {
	step := file.Step
	if step <= 0 {
		step = defaultStep
	}
	if len(file.Bindings) == 0 {
		return domain.DefaultBindings(step), nil
	}

	out := make(domain.Bindings, len(file.Bindings))
	for input, bf := range file.Bindings {
		kind := domain.ParseEvent(bf.Kind)
		if kind == domain.EventUnknown {
			return nil, fmt.Errorf("binding %q: unknown event kind %q", input, bf.Kind)
		}
		out[strings.ToLower(input)] = domain.Binding{
			Kind:    kind,
			Delta:   domain.Position{X: bf.Delta[0], Y: bf.Delta[1]},
			Degrees: bf.Degrees,
		}
	}
	return out, nil
}

func image(sf SpriteFile) sprite.Image {
	return sprite.Image{
		Pos:    domain.Position{X: sf.Pos[0], Y: sf.Pos[1]},
		Size:   domain.Size{W: sf.Size[0], H: sf.Size[1]},
		Rotate: sf.Rotate,
	}
}

// jsonKind - имя JSON-типа значения после разбора в any
func jsonKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return "null"
}

func texture(tf *TextureFile) domain.Texture {
	return domain.Texture{Source: tf.Source, Width: tf.Width, Height: tf.Height}
}
