package config

import (
	"encoding/json"

	"github.com/habiliai/botruntime/errors"
	"github.com/invopop/jsonschema"
)

// JSONSchema describes the YAML/JSON shape accepted by LoadBotConfig.
func JSONSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		FieldNameTag:              "json",
		AllowAdditionalProperties: false,
	}
	schema := reflector.Reflect(&BotConfig{})
	schema.Title = "botruntime config"

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal config schema")
	}
	return out, nil
}
