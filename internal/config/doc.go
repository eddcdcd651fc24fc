// Package config manages application configuration for the Lending API.
//
// Values come from environment variables, layered over an optional file named
// by LENDING_CONFIG_FILE and built-in defaults. cmd/server loads a .env file
// first, so local development needs no exported variables.
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS origins)
//   - DatabaseConfig: DB_DRIVER plus SurrealDB or PostgreSQL settings
//   - JWTConfig: token signing secret, issuer and lifetime
//   - RedisConfig / RabbitMQConfig: optional shared limiter and event bus
//   - RateLimitConfig, JobsConfig, SecurityConfig
//
// Validate reports every problem at once using errors.Join.
package config
