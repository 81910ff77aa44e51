package config

import (
	"strings"
	"time"

	"github.com/abgdnv/catalog/internal/product/events"
	"github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Catalog    config.CatalogConfig    `koanf:"catalog"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Resilience config.ResilienceConfig `koanf:"resilience"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
}

// Defaults returns the values used when neither config.yaml nor the environment set a key.
func Defaults() map[string]any {
	return map[string]any{
		"server.port":               3000,
		"server.maxheaderbytes":     1 << 20,
		"server.timeout.read":       "10s",
		"server.timeout.write":      "10s",
		"server.timeout.idle":       "60s",
		"server.timeout.readheader": "5s",

		"log.level": "info",

		"pprof.enabled": false,
		"pprof.addr":    "localhost:6060",

		"grpc.port":       "50051",
		"grpc.reflection": false,

		"shutdown.timeout": "30s",

		"catalog.defaultpagelimit": config.FallbackPageLimit,
		"catalog.env":              "production",

		"nats.enabled": false,
		"nats.url":     "nats://localhost:4222",
		"nats.timeout": "5s",
		"nats.stream":  events.StreamName,

		"resilience.circuitbreaker.consecutivefailures": 5,
		"resilience.circuitbreaker.errorratepercent":    50,
		"resilience.circuitbreaker.opentimeout":         "30s",
		"resilience.circuitbreaker.halfopenrequests":    1,

		"telemetry.enabled":                  false,
		"telemetry.traces.otlphttp.endpoint": "localhost:4318",
		"telemetry.traces.otlphttp.insecure": true,
		"telemetry.traces.otlphttp.timeout":  (10 * time.Second).String(),
		"telemetry.metrics.enabled":          false,
		"telemetry.metrics.path":             "/metrics",
	}
}

// EnvAliases maps the unprefixed variables understood by earlier deployments.
func EnvAliases() map[string]string {
	return map[string]string{
		"PORT":               "server.port",
		"DEFAULT_PAGE_LIMIT": "catalog.defaultpagelimit",
		"NODE_ENV":           "catalog.env",
	}
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Catalog.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Resilience.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

type validator interface {
	Validate() error
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	for _, section := range []validator{
		&c.HTTPServer,
		&c.Log,
		&c.PProf,
		&c.GRPC,
		&c.Shutdown,
		&c.Catalog,
		&c.NATS,
		&c.Resilience,
		&c.Telemetry,
	} {
		if err := section.Validate(); err != nil {
			return err
		}
	}
	return nil
}
