package handlers

import (
	"errors"
	"fmt"

	"github.com/m3rciful/coinbot/bots/coin/storage"
	"github.com/m3rciful/coinbot/core/telegram/format"
	tghelpers "github.com/m3rciful/coinbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const (
	textWelcome = "Привет! Ты в базе. Данные теперь надежно сохранены."
	textProfile = "👤 <b>Профиль:</b> %s\n💰 <b>Баланс:</b> %d монет\n🆔 <b>ID:</b> <code>%d</code>"
)

// Start registers the sender and greets them.
func (h *Handlers) Start(c tele.Context) error {
	if err := h.ensureSender(c); err != nil {
		return err
	}
	return tghelpers.SendText(c, textWelcome)
}

// Me registers the sender and shows their profile.
func (h *Handlers) Me(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	if err := h.ensureSender(c); err != nil {
		return err
	}
	u, err := h.ledger.GetUser(tghelpers.BuildContext(c), c.Sender().ID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return tghelpers.SendHTML(c, renderProfile(u))
}

func renderProfile(u storage.User) string {
	return fmt.Sprintf(textProfile, format.EscapeHTML(u.Nickname), u.Balance, u.UserID)
}
