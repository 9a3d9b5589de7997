package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}

	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.URL == "" {
			errs = append(errs, fmt.Errorf("database.url is required when database.driver is \"postgres\""))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be \"postgres\" or \"memory\", got %q", c.Database.Driver))
	}

	switch c.Redis.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			errs = append(errs, fmt.Errorf("redis.url is required when redis.backend is \"redis\""))
		}
	default:
		errs = append(errs, fmt.Errorf("redis.backend must be \"redis\" or \"memory\", got %q", c.Redis.Backend))
	}

	switch c.Events.Transport {
	case "memory":
	case "redis":
		if c.Redis.Backend != "redis" {
			errs = append(errs, fmt.Errorf("events.transport \"redis\" requires redis.backend \"redis\""))
		}
	default:
		errs = append(errs, fmt.Errorf("events.transport must be \"redis\" or \"memory\", got %q", c.Events.Transport))
	}

	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be > 0"))
	}
	if c.Auth.Domain == "" {
		errs = append(errs, fmt.Errorf("auth.domain is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("auth.jwt_secret is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTSecret == DefaultJWTSecret || len(c.Auth.JWTSecret) < 32 {
			errs = append(errs, fmt.Errorf("auth.jwt_secret must be a non-default secret of at least 32 bytes in production"))
		}
		if c.Database.Driver == "memory" || c.Redis.Backend == "memory" {
			errs = append(errs, fmt.Errorf("memory backends are not allowed in production"))
		}
	}

	if c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.window must be > 0"))
	}
	if c.RateLimit.Max <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.max must be > 0, got %d", c.RateLimit.Max))
	}

	return errors.Join(errs...)
}
