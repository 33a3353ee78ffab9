package config

import (
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TZ", "PARLEY_SQLITE_PATH", "PARLEY_REWEIGH_LIMIT", "PARLEY_TRANSCRIPT_SIZE", "PARLEY_SKILLS_FILE",
		"PARLEY_STORE", "PARLEY_CACHE_MB", "PARLEY_SESSION_TTL",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET", "MINIO_USE_SSL",
		"PARLEY_TIMEOUTS", "PARLEY_TIMEOUT_POLL",
		"TELEGRAM_TOKEN", "TELEGRAM_OWNER_CHAT_ID", "DISCORD_TOKEN", "DISCORD_GUILD_ID",
		"ALERT_SESSION", "ALERT_COOLDOWN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Timezone != "UTC" {
		t.Errorf("expected UTC, got %s", cfg.Timezone)
	}
	if cfg.Store.Backend != StoreMemory {
		t.Errorf("expected memory store, got %s", cfg.Store.Backend)
	}
	if cfg.Store.CacheBytes != 0 {
		t.Errorf("memory store should not be cached, got %d", cfg.Store.CacheBytes)
	}
	if cfg.Timeouts.Backend != TimeoutsMemory || cfg.Timeouts.PollInterval != time.Second {
		t.Errorf("unexpected timeout config: %+v", cfg.Timeouts)
	}
	if cfg.ReweighLimit != 1 {
		t.Errorf("expected reweigh limit 1, got %d", cfg.ReweighLimit)
	}
	if cfg.SQLitePath != "parley.db" {
		t.Errorf("expected parley.db, got %s", cfg.SQLitePath)
	}
	if cfg.Transcript != 0 {
		t.Errorf("transcript should be off by default, got %d", cfg.Transcript)
	}
	if cfg.Bots.Any() {
		t.Error("no bot should be enabled without tokens")
	}
	if cfg.Alerts.Cooldown != 15*time.Minute {
		t.Errorf("expected 15m cooldown, got %s", cfg.Alerts.Cooldown)
	}
}

func TestLoadTranscriptSize(t *testing.T) {
	clearEnv(t)
	t.Setenv("PARLEY_TRANSCRIPT_SIZE", "20")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Transcript != 20 {
		t.Errorf("expected 20, got %d", cfg.Transcript)
	}

	t.Setenv("PARLEY_TRANSCRIPT_SIZE", "-3")
	cfg, _ = Load()
	if cfg.Transcript != 0 {
		t.Errorf("negative size should disable the transcript, got %d", cfg.Transcript)
	}
}

func TestLoadRedisStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("PARLEY_STORE", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("PARLEY_SESSION_TTL", "24h")
	t.Setenv("PARLEY_CACHE_MB", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	want := RedisConfig{Addr: "cache:6379", DB: 2, TTL: 24 * time.Hour}
	if cfg.Store.Redis != want {
		t.Errorf("expected %+v, got %+v", want, cfg.Store.Redis)
	}
	if cfg.Store.CacheBytes != 8<<20 {
		t.Errorf("expected 8MB cache, got %d", cfg.Store.CacheBytes)
	}
}

func TestLoadMinioStoreNeedsCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("PARLEY_STORE", "minio")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without minio credentials")
	}

	t.Setenv("MINIO_ACCESS_KEY", "key")
	t.Setenv("MINIO_SECRET_KEY", "secret")
	t.Setenv("MINIO_BUCKET", "chat")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.Store.Storage.Enabled || cfg.Store.Storage.Bucket != "chat" || cfg.Store.Storage.Endpoint != "minio:9000" {
		t.Errorf("unexpected storage config: %+v", cfg.Store.Storage)
	}
}

func TestLoadRejectsUnknownBackends(t *testing.T) {
	clearEnv(t)
	t.Setenv("PARLEY_STORE", "postgres")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown store")
	}

	clearEnv(t)
	t.Setenv("PARLEY_TIMEOUTS", "kafka")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown timeout backend")
	}
}

func TestLoadBots(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "tg")
	t.Setenv("TELEGRAM_OWNER_CHAT_ID", "12345")
	t.Setenv("DISCORD_TOKEN", "dc")
	t.Setenv("DISCORD_GUILD_ID", "guild")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if !cfg.Bots.Telegram.Enabled || cfg.Bots.Telegram.OwnerChatID != 12345 {
		t.Errorf("unexpected telegram config: %+v", cfg.Bots.Telegram)
	}
	if !cfg.Bots.Discord.Enabled || cfg.Bots.Discord.GuildID != "guild" {
		t.Errorf("unexpected discord config: %+v", cfg.Bots.Discord)
	}
}

func TestParseDuration(t *testing.T) {
	if d := parseDuration("90s", time.Second); d != 90*time.Second {
		t.Errorf("expected 90s, got %s", d)
	}
	if d := parseDuration("soon", time.Second); d != time.Second {
		t.Errorf("expected fallback, got %s", d)
	}
	if d := parseDuration("-1s", time.Second); d != time.Second {
		t.Errorf("expected fallback for negative, got %s", d)
	}
}
