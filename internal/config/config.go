package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func Load() (*Config, error) {
	timezone := os.Getenv("TZ")
	if timezone == "" {
		timezone = "UTC"
	}

	sqlitePath := os.Getenv("PARLEY_SQLITE_PATH")
	if sqlitePath == "" {
		sqlitePath = "parley.db"
	}

	reweighLimit := 1
	if n, err := strconv.Atoi(os.Getenv("PARLEY_REWEIGH_LIMIT")); err == nil && n >= 0 {
		reweighLimit = n
	}

	// zero disables the transcript
	transcriptSize := 0
	if n, err := strconv.Atoi(os.Getenv("PARLEY_TRANSCRIPT_SIZE")); err == nil && n > 0 {
		transcriptSize = n
	}

	storeConfig, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	timeoutConfig, err := loadTimeoutConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Timezone:     timezone,
		SkillsFile:   os.Getenv("PARLEY_SKILLS_FILE"),
		ReweighLimit: reweighLimit,
		SQLitePath:   sqlitePath,
		Transcript:   transcriptSize,
		Store:        storeConfig,
		Timeouts:     timeoutConfig,
		Bots:         loadMultiBotConfig(),
		Alerts:       loadAlertsConfig(),
	}, nil
}

func loadStoreConfig() (StoreConfig, error) {
	backend := os.Getenv("PARLEY_STORE")
	if backend == "" {
		backend = StoreMemory
	}

	var cacheBytes int64 = 64 << 20 // default 64MB
	if mb, err := strconv.ParseInt(os.Getenv("PARLEY_CACHE_MB"), 10, 64); err == nil && mb >= 0 {
		cacheBytes = mb << 20
	}

	cfg := StoreConfig{
		Backend:    backend,
		CacheBytes: cacheBytes,
		Redis:      loadRedisConfig(),
		Storage:    loadStorageConfig(),
	}

	switch backend {
	case StoreMemory:
		// caching a memory store only doubles the memory used
		cfg.CacheBytes = 0
	case StoreSQLite, StoreRedis:
	case StoreMinio:
		if !cfg.Storage.Enabled {
			return StoreConfig{}, fmt.Errorf("PARLEY_STORE=minio needs MINIO_ACCESS_KEY and MINIO_SECRET_KEY")
		}
	default:
		return StoreConfig{}, fmt.Errorf("unknown PARLEY_STORE: %s", backend)
	}

	return cfg, nil
}

func loadRedisConfig() RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	db := 0
	if n, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil && n >= 0 {
		db = n
	}

	return RedisConfig{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		TTL:      parseDuration(os.Getenv("PARLEY_SESSION_TTL"), 0),
	}
}

func loadStorageConfig() StorageConfig {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")

	return StorageConfig{
		Enabled:   accessKey != "" && secretKey != "",
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    os.Getenv("MINIO_BUCKET"),
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
	}
}

func loadTimeoutConfig() (TimeoutConfig, error) {
	backend := os.Getenv("PARLEY_TIMEOUTS")
	if backend == "" {
		backend = TimeoutsMemory
	}

	if backend != TimeoutsMemory && backend != TimeoutsSQLite {
		return TimeoutConfig{}, fmt.Errorf("unknown PARLEY_TIMEOUTS: %s", backend)
	}

	return TimeoutConfig{
		Backend:      backend,
		PollInterval: parseDuration(os.Getenv("PARLEY_TIMEOUT_POLL"), time.Second),
	}, nil
}

func loadMultiBotConfig() MultiBot {
	telegramToken := os.Getenv("TELEGRAM_TOKEN")
	discordToken := os.Getenv("DISCORD_TOKEN")

	var ownerChatID int64
	if id, err := strconv.ParseInt(os.Getenv("TELEGRAM_OWNER_CHAT_ID"), 10, 64); err == nil {
		ownerChatID = id
	}

	return MultiBot{
		Telegram: BotInstance{
			Enabled:     telegramToken != "",
			Token:       telegramToken,
			OwnerChatID: ownerChatID,
		},
		Discord: BotInstance{
			Enabled: discordToken != "",
			Token:   discordToken,
			GuildID: os.Getenv("DISCORD_GUILD_ID"),
		},
	}
}

func loadAlertsConfig() AlertsConfig {
	return AlertsConfig{
		Session:  os.Getenv("ALERT_SESSION"),
		Cooldown: parseDuration(os.Getenv("ALERT_COOLDOWN"), 15*time.Minute),
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	return fallback
}
