package config

type LogConfig struct {
	LogLevel   string `env:"BOT_LOG_LEVEL" yaml:"logLevel" json:"logLevel,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	LogHandler string `env:"BOT_LOG_HANDLER" yaml:"logHandler" json:"logHandler,omitempty" jsonschema:"enum=default,enum=json"`
}

func NewLogConfig() *LogConfig {
	return &LogConfig{
		LogLevel:   "info",
		LogHandler: "default",
	}
}
