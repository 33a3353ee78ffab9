package bot

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bowerhall/parley/internal/logger"
)

// telegramAPI is the subset of *tgbotapi.BotAPI the adapter uses.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

func newTelegram(token string, agent Agent, ownerChatID int64, menu []Button) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return newTelegramWithAPI(api, agent, ownerChatID, menu), nil
}

func newTelegramWithAPI(api telegramAPI, agent Agent, ownerChatID int64, menu []Button) *telegram {
	return &telegram{
		api:         api,
		turns:       dispatcher{agent: agent, provider: ProviderTelegram},
		ownerChatID: ownerChatID,
		menu:        menu,
	}
}

func (t *telegram) Provider() string {
	return ProviderTelegram
}

func (t *telegram) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)

	logger.Info("telegram bot started")

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			go t.handleUpdate(ctx, update)
		}
	}
}

func (t *telegram) allowed(chatID int64) bool {
	return t.ownerChatID == 0 || chatID == t.ownerChatID
}

func (t *telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		t.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		t.handleMessage(ctx, update.Message)
	}
}

func (t *telegram) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || !t.allowed(msg.Chat.ID) {
		return
	}

	from := ""
	if msg.From != nil {
		from = msg.From.UserName
	}
	logger.Info("message received", "chat", msg.Chat.ID, "from", from, "text", truncate(msg.Text, 50))

	if (msg.Command() == "start" || msg.Command() == "menu") && len(t.menu) > 0 {
		t.sendMenu(msg.Chat.ID)
		return
	}

	answers := t.turns.handle(ctx, strconv.FormatInt(msg.Chat.ID, 10), msg.Text, false)
	t.sendAnswers(msg.Chat.ID, msg.MessageID, answers)
}

func (t *telegram) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || cq.Message.Chat == nil || !t.allowed(cq.Message.Chat.ID) {
		return
	}

	if _, err := t.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		logger.Warn("callback ack failed", "error", err)
	}

	chatID := cq.Message.Chat.ID
	logger.Info("action received", "chat", chatID, "action", cq.Data)

	answers := t.turns.handle(ctx, strconv.FormatInt(chatID, 10), cq.Data, true)
	t.sendAnswers(chatID, 0, answers)
}

func (t *telegram) sendMenu(chatID int64) {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(t.menu))
	for _, b := range t.menu {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action))
	}

	msg := tgbotapi.NewMessage(chatID, "What shall we do?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)

	if _, err := t.api.Send(msg); err != nil {
		logger.Error("send menu failed", "error", err, "chatID", chatID)
	}
}

// sendAnswers sends each answer as its own message, the first one as a
// reply when replyTo is set.
func (t *telegram) sendAnswers(chatID int64, replyTo int, answers []string) {
	for i, answer := range answers {
		msg := tgbotapi.NewMessage(chatID, answer)
		if i == 0 && replyTo != 0 {
			msg.ReplyToMessageID = replyTo
		}

		if _, err := t.api.Send(msg); err != nil {
			logger.Error("send failed", "error", err, "chatID", chatID)
			return
		}
	}

	if len(answers) > 0 {
		logger.Info("reply sent", "chatID", chatID, "messages", len(answers))
	}
}

func (t *telegram) Notify(userID string, answers []string) {
	chat, err := chatFromSession(ProviderTelegram, userID)
	if err != nil {
		logger.Error("proactive send failed", "error", err)
		return
	}

	chatID, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		logger.Error("proactive send failed", "error", err, "session", userID)
		return
	}

	t.sendAnswers(chatID, 0, answers)
}
