// Package configloader loads service configuration from defaults, a YAML file,
// a .env file and the process environment, in increasing order of priority.
package configloader

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Validator interface {
	Validate() error
}

type options struct {
	configFile string
	envFile    string
	defaults   map[string]any
	aliases    map[string]string
}

// Option customizes Load.
type Option func(*options)

// WithDefaults sets the lowest-priority values, keyed by koanf path ("server.port").
func WithDefaults(defaults map[string]any) Option {
	return func(o *options) {
		o.defaults = defaults
	}
}

// WithFiles overrides the YAML and .env file names.
func WithFiles(configFile, envFile string) Option {
	return func(o *options) {
		o.configFile = configFile
		o.envFile = envFile
	}
}

// WithEnvAliases maps unprefixed environment variables (e.g. "PORT") to koanf paths.
// Aliases rank above the .env file and below prefixed variables.
func WithEnvAliases(aliases map[string]string) Option {
	return func(o *options) {
		o.aliases = aliases
	}
}

func Load[T Validator](serviceName string, opts ...Option) (T, error) {
	var cfg T
	o := options{configFile: "config.yaml", envFile: ".env"}
	for _, opt := range opts {
		opt(&o)
	}

	k := koanf.New(".")
	// envPrefix is <SERVICE_NAME>_, e.g. PRODUCT_SERVER_PORT -> server.port
	envPrefix := fmt.Sprintf("%s_", strings.ToUpper(serviceName))
	envTransformer := func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
		return strings.ReplaceAll(key, "_", ".")
	}

	// 1. Built-in defaults
	if len(o.defaults) > 0 {
		if err := k.Load(confmap.Provider(o.defaults, "."), nil); err != nil {
			return cfg, fmt.Errorf("error loading defaults: %w", err)
		}
	}

	// 2. YAML file
	if err := k.Load(file.Provider(o.configFile), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading YAML config file '%s': %v", o.configFile, err)
		}
	}

	// 3. .env file
	if envFileMap, err := godotenv.Read(o.envFile); err == nil {
		envMap := make(map[string]any)
		for key, value := range envFileMap {
			if path, ok := o.aliases[key]; ok {
				envMap[path] = value
				continue
			}
			if strings.HasPrefix(strings.ToUpper(key), envPrefix) {
				envMap[envTransformer(key)] = value
			}
		}
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	// 4. Unprefixed aliases from the process environment
	aliasMap := make(map[string]any)
	for key, path := range o.aliases {
		if value, ok := os.LookupEnv(key); ok {
			aliasMap[path] = value
		}
	}
	if len(aliasMap) > 0 {
		if err := k.Load(confmap.Provider(aliasMap, "."), nil); err != nil {
			log.Printf("WARN: error loading env aliases: %v", err)
		}
	}

	// 5. Prefixed process environment, the highest priority
	if err := k.Load(env.Provider(envPrefix, ".", envTransformer), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
