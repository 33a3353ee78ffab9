package bot

import (
	"context"
)

// Bot is a chat channel driving the agent.
type Bot interface {
	Start(ctx context.Context) error
	// Notify delivers answers produced outside a user turn. userID is the
	// agent's session id, see SessionID.
	Notify(userID string, answers []string)
	Provider() string
}

// Agent is the part of the orchestrator the adapters use.
type Agent interface {
	ProcessTurn(ctx context.Context, userID, text string) ([]string, error)
	ProcessAction(ctx context.Context, userID, text string) ([]string, error)
	Reset(ctx context.Context, userID string) error
}

// Button is an inline menu entry. Pressing it sends Action to the agent as
// an explicit action rather than a chat message.
type Button struct {
	Label  string
	Action string
}

type Config struct {
	Provider    string
	Token       string
	OwnerChatID int64  // Telegram: restrict to this chat ID
	GuildID     string // Discord: restrict to this guild/server ID
	Menu        []Button
}

type telegram struct {
	api         telegramAPI
	turns       dispatcher
	ownerChatID int64
	menu        []Button
}
