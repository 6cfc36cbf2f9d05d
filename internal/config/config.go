package config

import (
	"time"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/idgen"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/live"
	pkgconfig "github.com/DGikuma/TempleOfTruthChurchBackend/pkg/config"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/pubsub"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	PubSub    pubsub.Config `mapstructure:"pubsub"`
	Archive   ArchiveConfig
	Provider  ProviderConfig
	Auth      AuthConfig
	IDGen     idgen.Config `mapstructure:"idgen"`
	Live      live.Config
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Defaults  StreamDefaults
}

type ServerConfig struct {
	Host string
	Port int
}

type LogConfig struct {
	Level  string
	Pretty bool
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

type CacheConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// ArchiveConfig selects the chat-archive backend. The gorm driver
// shares the main database; cassandra suits large congregations with
// long chat histories.
type ArchiveConfig struct {
	Driver    string `mapstructure:"driver"` // "gorm" or "cassandra"
	Cassandra CassandraConfig
}

type CassandraConfig struct {
	Hosts          []string
	Keyspace       string
	Consistency    string
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Timeout        time.Duration
}

// ProviderConfig configures the external broadcast provider. Disabled
// means the noop provider: streams run without an external handle.
type ProviderConfig struct {
	Enabled bool
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout time.Duration
}

type AuthConfig struct {
	Enabled       bool
	PublicKeyPath string `mapstructure:"public_key_path"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

// StreamDefaults seeds the per-stream engagement config when a stream
// is created without an explicit config block.
type StreamDefaults struct {
	AllowChat           bool `mapstructure:"allow_chat"`
	AllowQuestions      bool `mapstructure:"allow_questions"`
	ModerateChat        bool `mapstructure:"moderate_chat"`
	RequireApproval     bool `mapstructure:"require_approval"`
	ChatSlowModeSeconds int  `mapstructure:"chat_slow_mode_seconds"`
	MaxMessageLength    int  `mapstructure:"max_message_length"`
	EnablePolls         bool `mapstructure:"enable_polls"`
	EnableReactions     bool `mapstructure:"enable_reactions"`
}

func Load() (*Config, error) {
	configPath := pkgconfig.GetEnv("CONFIG_PATH", "./config")
	v, err := pkgconfig.Load(configPath, "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "live_engagement")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/live.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.prefix", "live:stream")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("pubsub.driver", "redis")
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.db", 0)
	v.SetDefault("pubsub.redis.pool_size", 10)
	v.SetDefault("pubsub.kafka.brokers", "localhost:9092")
	v.SetDefault("pubsub.kafka.group_id", "live-engagement")
	v.SetDefault("pubsub.kafka.partitions", 3)
	v.SetDefault("pubsub.nats.url", "nats://localhost:4222")
	v.SetDefault("pubsub.nats.name", "live-engagement")
	v.SetDefault("archive.driver", "gorm")
	v.SetDefault("archive.cassandra.hosts", []string{"localhost:9042"})
	v.SetDefault("archive.cassandra.keyspace", "live_chat")
	v.SetDefault("archive.cassandra.consistency", "LOCAL_QUORUM")
	v.SetDefault("archive.cassandra.connect_timeout", "10s")
	v.SetDefault("archive.cassandra.timeout", "5s")
	v.SetDefault("provider.enabled", false)
	v.SetDefault("provider.base_url", "")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.timeout", "10s")
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.public_key_path", "./config/jwt_public.pem")
	v.SetDefault("idgen.driver", "ulid")
	v.SetDefault("idgen.nanoid.size", 21)
	v.SetDefault("live.history_limit", 1000)
	v.SetDefault("live.queue_size", 256)
	v.SetDefault("live.presence_ttl", "60s")
	v.SetDefault("live.sweep_interval", "30s")
	v.SetDefault("live.event_buffer", 1024)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("defaults.allow_chat", true)
	v.SetDefault("defaults.allow_questions", true)
	v.SetDefault("defaults.moderate_chat", false)
	v.SetDefault("defaults.require_approval", false)
	v.SetDefault("defaults.chat_slow_mode_seconds", 0)
	v.SetDefault("defaults.max_message_length", 500)
	v.SetDefault("defaults.enable_polls", true)
	v.SetDefault("defaults.enable_reactions", true)

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("cache.enabled", "CACHE_ENABLED")
	v.BindEnv("cache.address", "REDIS_ADDRESS")
	v.BindEnv("cache.password", "REDIS_PASSWORD")
	v.BindEnv("pubsub.driver", "PUBSUB_DRIVER")
	v.BindEnv("pubsub.redis.address", "PUBSUB_REDIS_ADDRESS")
	v.BindEnv("pubsub.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("pubsub.nats.url", "NATS_URL")
	v.BindEnv("archive.driver", "ARCHIVE_DRIVER")
	v.BindEnv("provider.enabled", "PROVIDER_ENABLED")
	v.BindEnv("provider.base_url", "PROVIDER_BASE_URL")
	v.BindEnv("provider.api_key", "PROVIDER_API_KEY")
	v.BindEnv("auth.enabled", "AUTH_ENABLED")
	v.BindEnv("auth.public_key_path", "JWT_PUBLIC_KEY_PATH")
	v.BindEnv("idgen.driver", "IDGEN_DRIVER")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ToStreamConfig converts the configured defaults into the domain
// shape applied to new streams.
func (d StreamDefaults) ToStreamConfig() domain.StreamConfig {
	return domain.StreamConfig{
		AllowChat:           d.AllowChat,
		AllowQuestions:      d.AllowQuestions,
		ModerateChat:        d.ModerateChat,
		RequireApproval:     d.RequireApproval,
		ChatSlowModeSeconds: d.ChatSlowModeSeconds,
		MaxMessageLength:    d.MaxMessageLength,
		EnablePolls:         d.EnablePolls,
		EnableReactions:     d.EnableReactions,
	}
}
