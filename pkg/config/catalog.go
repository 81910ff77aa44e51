package config

import (
	"fmt"
	"strings"
)

// DevelopmentEnv is the environment name that exposes failure detail in 500 responses.
const DevelopmentEnv = "development"

// FallbackPageLimit is used when no default page limit is configured.
const FallbackPageLimit = 10

// CatalogConfig holds the settings consumed by the product catalog itself.
type CatalogConfig struct {
	DefaultPageLimit int    `koanf:"defaultpagelimit"`
	Env              string `koanf:"env"`
}

// String returns a string representation of the catalog configuration.
func (c *CatalogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  defaultpagelimit: %d\n", c.DefaultPageLimit))
	b.WriteString(fmt.Sprintf("  env: %s\n", c.Env))
	return b.String()
}

// PageLimit returns the configured default page size, or FallbackPageLimit when unset.
func (c *CatalogConfig) PageLimit() int {
	if c.DefaultPageLimit <= 0 {
		return FallbackPageLimit
	}
	return c.DefaultPageLimit
}

// ExposeErrorDetail reports whether internal failure detail may be sent to clients.
func (c *CatalogConfig) ExposeErrorDetail() bool {
	return strings.EqualFold(c.Env, DevelopmentEnv)
}

func (c *CatalogConfig) Validate() error {
	if c.DefaultPageLimit < 0 {
		return fmt.Errorf("catalog default page limit must not be negative: %d", c.DefaultPageLimit)
	}
	return nil
}
