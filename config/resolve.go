package config

import (
	"os"
	"strings"

	"github.com/habiliai/botruntime/errors"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

// EnvPrefix marks the process environment variables considered during resolution.
const EnvPrefix = "BOT_"

func resolveConfig[T any](config *T) error {
	if config == nil {
		return errors.New("config is nil")
	}

	values := map[string]any{}

	var envFiles []string
	for _, filename := range []string{".env", os.Getenv("ENV_FILE")} {
		if filename == "" {
			continue
		}
		if _, err := os.Stat(filename); !os.IsNotExist(err) {
			envFiles = append(envFiles, filename)
		}
	}
	if len(envFiles) > 0 {
		fileValues, err := godotenv.Read(envFiles...)
		if err != nil {
			return errors.Wrapf(err, "failed to read env files %v", envFiles)
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, EnvPrefix) {
			continue
		}
		values[k] = v
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "env",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           config,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to create config decoder")
	}

	if err := decoder.Decode(values); err != nil {
		return errors.Wrapf(err, "failed to load config")
	}

	return nil
}
