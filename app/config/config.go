package config

// PROPRIETARY AND CONFIDENTIAL
// This code contains trade secrets and confidential material of Finimen Sniper / FSC.
// Any unauthorized use, disclosure, or duplication is strictly prohibited.
// © 2025 Finimen Sniper / FSC. All rights reserved.

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment EnvironmentConfig
	Server      ServerConfig
	Redis       RedisConfig
	TTL         TTLConfig
	RateLimit   RateLimitConfig
	Firewall    FirewallConfig
	Sweep       SweepConfig
	Tracing     TracingConfig
}

type EnvironmentConfig struct {
	Current string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TTLConfig holds the three eviction windows. Entities idle or older than
// these are removed on the next sweep.
type TTLConfig struct {
	Client  time.Duration
	Room    time.Duration
	Message time.Duration
}

type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

type FirewallConfig struct {
	BlockedIPs []string
}

// SweepConfig controls the optional background sweep. Interval 0 keeps
// expiration lazy: only incoming requests trigger it.
type SweepConfig struct {
	Interval time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func LoadConfig() (config Config, err error) {
	viper.SetConfigName("app")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return config, err
		}
	}

	viper.AutomaticEnv()

	viper.SetDefault("environment.current", "development")
	viper.SetDefault("server.port", "5000")
	viper.SetDefault("server.readtimeout", 15)
	viper.SetDefault("server.writetimeout", 15)
	viper.SetDefault("server.idletimeout", 60)
	viper.SetDefault("redis.addr", "redis:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("ttl.client", 3600*time.Second)
	viper.SetDefault("ttl.room", 7200*time.Second)
	viper.SetDefault("ttl.message", 86400*time.Second)
	viper.SetDefault("ratelimit.maxrequests", 100)
	viper.SetDefault("ratelimit.window", time.Minute)
	viper.SetDefault("firewall.blockedips", []string{})
	viper.SetDefault("sweep.interval", time.Duration(0))
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.endpoint", "http://localhost:14268/api/traces")
	viper.SetDefault("tracing.servicename", "dockerchat")

	err = viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
