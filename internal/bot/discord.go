package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/bowerhall/parley/internal/logger"
)

type discord struct {
	session *discordgo.Session
	turns   dispatcher
	guildID string
	ctx     context.Context
}

func newDiscord(token string, agent Agent, guildID string) (Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	d := &discord{
		session: session,
		turns:   dispatcher{agent: agent, provider: ProviderDiscord},
		guildID: guildID,
		ctx:     context.Background(),
	}

	session.AddHandler(d.handleMessage)

	return d, nil
}

func (d *discord) Provider() string {
	return ProviderDiscord
}

func (d *discord) Start(ctx context.Context) error {
	d.ctx = ctx

	if err := d.session.Open(); err != nil {
		return err
	}

	logger.Info("discord bot started")

	<-ctx.Done()
	return d.session.Close()
}

func (d *discord) Notify(userID string, answers []string) {
	channelID, err := chatFromSession(ProviderDiscord, userID)
	if err != nil {
		logger.Error("discord send failed", "error", err)
		return
	}

	for _, answer := range answers {
		if _, err := d.session.ChannelMessageSend(channelID, answer); err != nil {
			logger.Error("discord send failed", "error", err, "channelID", channelID)
			return
		}
	}

	logger.Info("discord message sent", "channelID", channelID, "messages", len(answers))
}

func (d *discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}
	if d.guildID != "" && m.GuildID != d.guildID {
		return
	}

	logger.Info("message received", "from", m.Author.Username, "text", truncate(m.Content, 50))

	answers := d.turns.handle(d.ctx, m.ChannelID, m.Content, false)

	for i, answer := range answers {
		var err error
		if i == 0 {
			_, err = s.ChannelMessageSendReply(m.ChannelID, answer, m.Reference())
		} else {
			_, err = s.ChannelMessageSend(m.ChannelID, answer)
		}
		if err != nil {
			logger.Error("discord reply failed", "error", err)
			return
		}
	}

	if len(answers) > 0 {
		logger.Info("reply sent", "messages", len(answers))
	}
}
