// Package bot connects chat providers to the agent.
package bot

import (
	"fmt"
)

const (
	ProviderTelegram = "telegram"
	ProviderDiscord  = "discord"
)

func New(cfg Config, agent Agent) (Bot, error) {
	switch cfg.Provider {
	case ProviderTelegram:
		return NewTelegram(cfg.Token, agent, cfg.OwnerChatID, cfg.Menu)
	case ProviderDiscord:
		return NewDiscord(cfg.Token, agent, cfg.GuildID)
	default:
		return nil, fmt.Errorf("unknown bot provider: %s", cfg.Provider)
	}
}

func NewTelegram(token string, agent Agent, ownerChatID int64, menu []Button) (Bot, error) {
	return newTelegram(token, agent, ownerChatID, menu)
}

func NewDiscord(token string, agent Agent, guildID string) (Bot, error) {
	return newDiscord(token, agent, guildID)
}
