package notify

import (
	"context"
	"fmt"
	"html"

	"bookingd/internal/domain"
	"bookingd/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier posts notifications to a single operator chat.
type TelegramNotifier struct {
	sender domain.TelegramSender
	chatID int64
}

func NewTelegramNotifier(sender domain.TelegramSender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID}
}

func (n *TelegramNotifier) Notify(ctx context.Context, note models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, renderTelegram(note))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// renderTelegram builds an HTML-mode message; ids come from callers and are escaped.
func renderTelegram(note models.Notification) string {
	return fmt.Sprintf("<b>%s</b>\nБронь: <code>%s</code>\nПользователь: <code>%s</code>",
		html.EscapeString(Message(note.Kind)), html.EscapeString(note.BookingID), html.EscapeString(note.UserID))
}
