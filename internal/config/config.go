package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/hearthshare/vault-service/pkg/config"
	"github.com/hearthshare/vault-service/internal/domain"
	"github.com/hearthshare/vault-service/pkg/log"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Auth      AuthConfig
	Advisor   AdvisorConfig
	Redis     RedisConfig
	Log       log.Config
	Vault     VaultConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type AuthConfig struct {
	SigningKey string `mapstructure:"signing_key"`
	Issuer     string
}

// AdvisorConfig points at the external advisory allocation service.
// An empty URL disables the advisory strategy and the resolver falls
// back to the deterministic proportional split.
type AdvisorConfig struct {
	URL     string
	Timeout time.Duration
}

type RedisConfig struct {
	Address           string
	Password          string
	DB                int
	RegistryPrefix    string        `mapstructure:"registry_prefix"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	KeyTTL            time.Duration `mapstructure:"key_ttl"`
}

// VaultConfig is the provisioning seed applied to every newly created
// vault: its members, budget categories, and the initial open vote.
type VaultConfig struct {
	Users       []domain.User    `mapstructure:"users"`
	Categories  []CategoryConfig `mapstructure:"categories"`
	VoteID      string           `mapstructure:"vote_id"`
	VoteQuestion string          `mapstructure:"vote_question"`
	CommandBuffer int            `mapstructure:"command_buffer"`
}

type CategoryConfig struct {
	ID        string  `mapstructure:"id"`
	Name      string  `mapstructure:"name"`
	Icon      string  `mapstructure:"icon"`
	Color     string  `mapstructure:"color"`
	Allocated float64 `mapstructure:"allocated"`
	Proposals map[string]float64 `mapstructure:"proposals"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("auth.signing_key", "dev-only-insecure-key")
	v.SetDefault("auth.issuer", "vault-service")
	v.SetDefault("advisor.url", "")
	v.SetDefault("advisor.timeout", "10s")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.registry_prefix", "vault:registry")
	v.SetDefault("redis.heartbeat_interval", "10s")
	v.SetDefault("redis.key_ttl", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "vault-service")
	v.SetDefault("vault.vote_id", "v1")
	v.SetDefault("vault.vote_question", "Increase monthly Dining Out budget to $350?")
	v.SetDefault("vault.command_buffer", 64)

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("auth.signing_key", "AUTH_SIGNING_KEY")
	v.BindEnv("advisor.url", "ADVISOR_URL")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Advisor.Timeout = parseDuration(v, "advisor.timeout", 10*time.Second)
	cfg.Redis.HeartbeatInterval = parseDuration(v, "redis.heartbeat_interval", 10*time.Second)
	cfg.Redis.KeyTTL = parseDuration(v, "redis.key_ttl", 30*time.Second)

	if len(cfg.Vault.Users) == 0 {
		cfg.Vault.Users = DefaultUsers()
	}
	if len(cfg.Vault.Categories) == 0 {
		cfg.Vault.Categories = DefaultCategories()
	}

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}

// DefaultUsers is the household used when no member list is configured.
func DefaultUsers() []domain.User {
	return []domain.User{
		{ID: "u1", Name: "Dad", Avatar: "👨", Role: domain.RoleAdmin},
		{ID: "u2", Name: "Mom", Avatar: "👩", Role: domain.RoleAdmin},
		{ID: "u3", Name: "Teen", Avatar: "🧑‍💻", Role: domain.RoleContributor},
		{ID: "u4", Name: "Kid", Avatar: "👧", Role: domain.RoleViewer},
	}
}

// DefaultCategories is the budget used when no categories are configured.
func DefaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{
			ID: "entertainment", Name: "Entertainment", Icon: "Ticket", Color: "bg-purple-500",
			Allocated: 200,
			Proposals: map[string]float64{"u1": 70, "u2": 70, "u3": 60},
		},
		{
			ID: "dining", Name: "Dining Out", Icon: "Restaurant", Color: "bg-yellow-500",
			Allocated: 300,
		},
		{
			ID: "groceries", Name: "Groceries", Icon: "ShoppingCart", Color: "bg-green-500",
			Allocated: 800,
		},
	}
}
