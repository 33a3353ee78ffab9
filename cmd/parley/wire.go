package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bowerhall/parley/internal/agent"
	"github.com/bowerhall/parley/internal/alerts"
	"github.com/bowerhall/parley/internal/bot"
	"github.com/bowerhall/parley/internal/config"
	"github.com/bowerhall/parley/internal/conversation"
	"github.com/bowerhall/parley/internal/logger"
	"github.com/bowerhall/parley/internal/operational"
	"github.com/bowerhall/parley/internal/session"
	"github.com/bowerhall/parley/internal/skills"
	"github.com/bowerhall/parley/internal/storage"
	"github.com/bowerhall/parley/internal/timeout"
)

// app is everything a command needs, built from config.
type app struct {
	agent      *agent.Agent
	menu       []bot.Button
	runner     *timeout.Runner
	transcript *conversation.Store

	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// build wires the agent. alert receives operator alerts.
func build(ctx context.Context, cfg *config.Config, alert alerts.NotifyFunc) (*app, error) {
	a := &app{}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("invalid timezone, using UTC", "timezone", cfg.Timezone, "error", err)
		loc = time.UTC
	}

	skillsCfg, err := skills.Load(cfg.SkillsFile)
	if err != nil {
		return nil, err
	}
	registry, err := skills.Registry(skillsCfg, skills.Options{})
	if err != nil {
		return nil, err
	}
	classifier, err := skills.Classifier(skillsCfg, registry)
	if err != nil {
		return nil, err
	}
	for _, r := range skillsCfg.Rules {
		if r.Command != "" {
			a.menu = append(a.menu, bot.Button{Label: strings.TrimPrefix(r.Command, "/"), Action: r.Command})
		}
	}
	logger.Info("skills loaded", "skills", registry.Names(), "rules", len(skillsCfg.Rules))

	var db *sql.DB
	openDB := func() (*sql.DB, error) {
		if db != nil {
			return db, nil
		}
		ops, err := operational.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, func() { ops.Close() })
		db = ops.DB()
		return db, nil
	}

	store, err := buildStore(ctx, a, cfg.Store, openDB)
	if err != nil {
		a.Close()
		return nil, err
	}

	var broker timeout.Broker
	var cronBroker *timeout.CronBroker
	var timeouts *timeout.Store
	switch cfg.Timeouts.Backend {
	case config.TimeoutsSQLite:
		db, err := openDB()
		if err != nil {
			a.Close()
			return nil, err
		}
		timeouts, err = timeout.NewStore(db)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("timeout store: %w", err)
		}
		broker = timeout.NewStoreBroker(timeouts)
	default:
		cronBroker = timeout.NewCronBroker(loc)
		broker = cronBroker
		a.closers = append(a.closers, cronBroker.Stop)
	}

	alerter := alerts.New(alert, cfg.Alerts.Cooldown)

	opts := []agent.Option{
		agent.WithStore(store),
		agent.WithBroker(broker),
		agent.WithReweighLimit(cfg.ReweighLimit),
		agent.WithAlerter(alerter),
	}

	if cfg.Transcript > 0 {
		db, err := openDB()
		if err != nil {
			a.Close()
			return nil, err
		}
		a.transcript, err = conversation.NewStore(db, cfg.Transcript)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("transcript store: %w", err)
		}
		opts = append(opts, agent.WithTranscript(a.transcript))
	}

	a.agent, err = agent.New(classifier, registry, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cronBroker != nil {
		cronBroker.OnWake(a.agent.Wake)
	}
	if timeouts != nil {
		a.runner = timeout.NewRunner(timeouts, a.agent.Wake, cfg.Timeouts.PollInterval)
	}

	logger.Info("agent ready", "store", cfg.Store.Backend, "timeouts", cfg.Timeouts.Backend)

	return a, nil
}

func buildStore(ctx context.Context, a *app, cfg config.StoreConfig, openDB func() (*sql.DB, error)) (session.Store, error) {
	var store session.Store

	switch cfg.Backend {
	case config.StoreSQLite:
		db, err := openDB()
		if err != nil {
			return nil, err
		}
		s, err := session.NewSQLiteStore(db)
		if err != nil {
			return nil, fmt.Errorf("sqlite session store: %w", err)
		}
		store = s

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, func() { client.Close() })

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		store = session.NewRedisStore(client, cfg.Redis.TTL)

	case config.StoreMinio:
		client, err := storage.NewClient(storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
		})
		if err != nil {
			return nil, err
		}

		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := client.Init(initCtx); err != nil {
			return nil, fmt.Errorf("init storage bucket: %w", err)
		}
		logger.Info("storage enabled", "endpoint", cfg.Storage.Endpoint, "bucket", client.Bucket())
		store = session.NewBlobStore(client)

	default:
		store = session.NewMemoryStore()
	}

	if cfg.CacheBytes > 0 {
		cached, err := session.NewCachedStore(store, cfg.CacheBytes)
		if err != nil {
			return nil, fmt.Errorf("session cache: %w", err)
		}
		a.closers = append(a.closers, cached.Close)
		store = cached
	}

	return store, nil
}
