package loader

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema - JSON Schema файла мира (в раскрытом виде, без reuse-ссылок)
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(new(WorldFile))
	schema.Title = "Overworld world file"
	schema.Description = "Maps, sprites, doors, player spawn and input bindings. Any string \"reuse NAME\" is replaced by the reusable fragment NAME before validation."
	return schema
}

// SchemaJSON - схема с отступами, для вывода в stdout
func SchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}
