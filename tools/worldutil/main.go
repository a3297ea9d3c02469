package main

import (
	"fmt"
	"os"
	"sort"

	"overworld-server/internal/engine"
	"overworld-server/internal/loader"
	"overworld-server/internal/version"
	"overworld-server/pkg/logger"
)

func main() {
	logger.Init()

	if len(os.Args) < 2 {
		printHelp()
		return
	}

	switch os.Args[1] {
	case "check":
		world := load(3, "check")
		if world == nil {
			return
		}
		stats := world.Registry.Stats()
		fmt.Printf("OK: %d maps, %d textures, %d archetypes, %d sprites, %d doors\n",
			stats.Maps, stats.Textures, stats.Archetypes, world.Len(), world.Linkage.Len())
	case "doors":
		world := load(3, "doors")
		if world == nil {
			return
		}
		printDoors(world)
	case "schema":
		data, err := loader.SchemaJSON()
		if err != nil {
			fmt.Printf("Schema error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	case "version":
		fmt.Println(version.String())
	default:
		printHelp()
	}
}

func load(argc int, cmd string) *engine.World {
	if len(os.Args) < argc {
		fmt.Printf("Usage: worldutil %s <world.json>\n", cmd)
		return nil
	}
	world, _, err := loader.LoadFile(os.Args[2])
	if err != nil {
		fmt.Printf("Invalid world: %v\n", err)
		os.Exit(1)
	}
	return world
}

func printDoors(world *engine.World) {
	doors := world.Linkage.All()
	sort.Slice(doors, func(i, j int) bool { return doors[i].ID < doors[j].ID })
	for _, d := range doors {
		m, _ := world.Registry.Map(d.Map)
		dest, _ := world.Linkage.Door(d.Destination)
		destMap, _ := world.Registry.Map(dest.Map)
		fmt.Printf("%s %-10s %-10s %-4s span [%d,%d) line %g -> %s on %s\n",
			d.ID, m.Name, d.Orientation, d.Side, d.Pos, d.Pos+d.Size, d.Line, d.Destination, destMap.Name)
	}
}

func printHelp() {
	fmt.Println(`World Utility - проверка файлов мира
Commands:
  check <world.json>     - загрузить мир и вывести статистику
  doors <world.json>     - список дверей с парами
  schema                 - JSON Schema файла мира
  version                - версия сборки`)
}
