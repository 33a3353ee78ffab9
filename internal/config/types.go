package config

import "time"

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMinio  = "minio"

	TimeoutsMemory = "memory"
	TimeoutsSQLite = "sqlite"
)

type Config struct {
	Timezone     string
	SkillsFile   string
	ReweighLimit int
	SQLitePath   string
	// Transcript is how many messages per user the sqlite transcript keeps.
	Transcript   int
	Store        StoreConfig
	Timeouts     TimeoutConfig
	Bots         MultiBot
	Alerts       AlertsConfig
}

type StoreConfig struct {
	Backend string
	// CacheBytes sizes the in-process cache in front of the backend; zero
	// disables it.
	CacheBytes int64
	Redis      RedisConfig
	Storage    StorageConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type TimeoutConfig struct {
	Backend      string
	PollInterval time.Duration
}

type MultiBot struct {
	Telegram BotInstance
	Discord  BotInstance
}

// Any reports whether at least one bot has a token.
func (m MultiBot) Any() bool {
	return m.Telegram.Enabled || m.Discord.Enabled
}

type BotInstance struct {
	Enabled     bool
	Token       string
	OwnerChatID int64  // Telegram: restrict to this chat ID
	GuildID     string // Discord: restrict to this guild/server ID
}

type AlertsConfig struct {
	// Session is the agent session id alerts are sent to, e.g.
	// "telegram:123456". Empty logs alerts only.
	Session  string
	Cooldown time.Duration
}
