package config

import "time"

type Config struct {
	Service  *ServiceConfig
	Logger   *LoggerConfig
	Postgres *PostgresConfig
	Redis    *RedisConfig
	Gateway  *GatewayConfig
	Token    *TokenConfig
	Tracer   *TracerConfig
}

type ServiceConfig struct {
	Name string
	Env  string
	Addr string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PingTimeout  time.Duration
}

type GatewayConfig struct {
	SendBuffer int
	// AuthWindow bounds the handshake: a connection that has not
	// authenticated within it is refused at the HTTP layer.
	AuthWindow time.Duration
	// FrameRate / FrameBurst limit inbound frames per connection.
	FrameRate  float64
	FrameBurst int
}

type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type TracerConfig struct {
	Enabled bool
	Address string
}
