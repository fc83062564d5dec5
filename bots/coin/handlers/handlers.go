// Package handlers implements the coinbot commands, the admin conversation
// and the auto-registration fallback.
package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/coinbot/bots/coin/storage"
	"github.com/m3rciful/coinbot/core/logger"
	tg "github.com/m3rciful/coinbot/core/telegram"
	"github.com/m3rciful/coinbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/coinbot/core/telegram/helpers"
	"github.com/m3rciful/coinbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// Conversation states of the admin flows.
const (
	StateAwaitingTargetUserID    state.State = "awaiting_target_user_id"
	StateAwaitingAmount          state.State = "awaiting_amount"
	StateAwaitingBroadcastAmount state.State = "awaiting_broadcast_amount"
)

// Scratch keys stored with the conversation.
const (
	keyAction = "action"
	keyUserID = "user_id"
)

// Money actions carried by the credit/debit buttons.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// Callback unique keys.
const (
	CallbackMoney     = "admin_money"
	CallbackBroadcast = "admin_broadcast"
)

// DefaultUsername is stored for accounts without a Telegram username.
const DefaultUsername = "NoName"

// Ledger is the subset of the ledger store used by the handlers.
type Ledger interface {
	EnsureUser(ctx context.Context, userID int64, username string) error
	GetUser(ctx context.Context, userID int64) (storage.User, error)
	AdjustBalance(ctx context.Context, userID, delta int64) (int64, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	ListUsers(ctx context.Context) ([]storage.User, error)
}

// Handlers holds the dependencies shared by every coinbot handler.
type Handlers struct {
	ledger Ledger
	fsm    *state.Manager
}

// New builds the handler set. A nil fsm gets an in-memory manager.
func New(ledger Ledger, fsm *state.Manager) *Handlers {
	if fsm == nil {
		fsm = state.NewManager(nil)
	}
	return &Handlers{ledger: ledger, fsm: fsm}
}

// FSM returns the conversation manager the handlers are bound to.
func (h *Handlers) FSM() *state.Manager {
	return h.fsm
}

// Register adds commands and callbacks to reg and binds the conversation states.
func (h *Handlers) Register(reg *tg.Registry) error {
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: h.Start, Description: "Регистрация"}},
		{"/me", commands.Command{Handler: h.Me, Description: "Профиль и баланс"}},
		{"/admin", commands.Command{Handler: h.AdminMenu, Description: "Админка", AdminOnly: true, Hidden: true}},
		{"/export", commands.Command{Handler: h.Export, Description: "Выгрузка в Excel", AdminOnly: true, Hidden: true}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return fmt.Errorf("register %s: %w", c.name, err)
		}
	}

	cbs := map[string]commands.Callback{
		CallbackMoney:     {Handler: h.MoneyAction, AdminOnly: true},
		CallbackBroadcast: {Handler: h.BroadcastStart, AdminOnly: true},
	}
	for key, cb := range cbs {
		if err := reg.RegisterCallback(key, cb); err != nil {
			return fmt.Errorf("register callback %s: %w", key, err)
		}
	}

	h.fsm.HandleAdmin(StateAwaitingTargetUserID, h.TargetUserID)
	h.fsm.HandleAdmin(StateAwaitingAmount, h.Amount)
	h.fsm.HandleAdmin(StateAwaitingBroadcastAmount, h.BroadcastAmount)
	return nil
}

// UnknownText registers the sender silently.
func (h *Handlers) UnknownText() tele.HandlerFunc { return h.autoRegister }

// UnknownDocument registers the sender silently.
func (h *Handlers) UnknownDocument() tele.HandlerFunc { return h.autoRegister }

// UnknownMedia registers the sender silently.
func (h *Handlers) UnknownMedia() tele.HandlerFunc { return h.autoRegister }

func (h *Handlers) autoRegister(c tele.Context) error {
	return h.ensureSender(c)
}

// ensureSender creates the ledger record of the sender if absent.
func (h *Handlers) ensureSender(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	name := u.Username
	if name == "" {
		name = DefaultUsername
	}
	return h.ledger.EnsureUser(tghelpers.BuildContext(c), u.ID, name)
}

func logAdjust(ctx context.Context, target, delta, rows int64) {
	if rows == 0 {
		logger.Warn(ctx, "service.ledger", "ledger.adjust.no_rows",
			slog.Int64("target_id", target),
			slog.Int64("delta", delta),
			slog.String("cause", "user_not_registered"),
		)
	}
}
