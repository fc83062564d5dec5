package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/coinbot/core/logger"
	"github.com/m3rciful/coinbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/coinbot/core/telegram/helpers"
	"github.com/m3rciful/coinbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

const (
	textAdminMenu       = "Админка:"
	textAskUserID       = "Введи ID юзера:"
	textAskAmount       = "Введи сумму:"
	textNeedDigits      = "Нужны цифры."
	textAdjusted        = "Готово! Баланс изменен на %d."
	textAskBroadcast    = "Сумма для раздачи всем:"
	textBroadcastResult = "Выдано по %d монет %d юзерам."
)

// AdminKeyboard is the inline menu shown by /admin.
func AdminKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "➕ Выдать", Unique: CallbackMoney, Data: ActionAdd},
			{Text: "➖ Отнять", Unique: CallbackMoney, Data: ActionRemove},
		},
		[]keyboard.InlineBtn{
			{Text: "📢 Рассылка", Unique: CallbackBroadcast},
		},
	)
}

// AdminMenu shows the admin keyboard. The conversation state is unchanged.
func (h *Handlers) AdminMenu(c tele.Context) error {
	return tghelpers.SendMarkup(c, textAdminMenu, AdminKeyboard())
}

// MoneyAction starts the credit or debit flow chosen by the pressed button.
func (h *Handlers) MoneyAction(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	action := callbacks.CallbackPayload(c)
	if action != ActionAdd && action != ActionRemove {
		logger.Warn(ctx, "tg", "callback.payload",
			slog.String("payload", action),
			slog.String("cause", "unknown_action"),
		)
		return nil
	}
	id := c.Sender().ID
	h.noteRestart(ctx, id)
	if err := h.fsm.UpdateData(ctx, id, map[string]any{keyAction: action}); err != nil {
		return err
	}
	if err := tghelpers.SendText(c, textAskUserID); err != nil {
		return err
	}
	return h.fsm.SetState(ctx, id, StateAwaitingTargetUserID)
}

// TargetUserID stores the admin-entered id and asks for the amount.
func (h *Handlers) TargetUserID(c tele.Context) error {
	target, ok := parseAmount(messageText(c))
	if !ok {
		return tghelpers.SendText(c, textNeedDigits)
	}
	ctx := tghelpers.BuildContext(c)
	id := c.Sender().ID
	if err := h.fsm.UpdateData(ctx, id, map[string]any{keyUserID: target}); err != nil {
		return err
	}
	if err := tghelpers.SendText(c, textAskAmount); err != nil {
		return err
	}
	return h.fsm.SetState(ctx, id, StateAwaitingAmount)
}

// Amount applies the signed delta to the chosen user and ends the flow.
// The target is not registered first; an unknown id changes nothing.
func (h *Handlers) Amount(c tele.Context) error {
	amount, ok := parseAmount(messageText(c))
	if !ok {
		return tghelpers.SendText(c, textNeedDigits)
	}
	ctx := tghelpers.BuildContext(c)
	id := c.Sender().ID
	sess, err := h.fsm.Session(ctx, id)
	if err != nil {
		return err
	}
	action, err := sess.String(keyAction)
	if err != nil {
		return fmt.Errorf("amount: scratch %s: %w", keyAction, err)
	}
	target, err := sess.Int64(keyUserID)
	if err != nil {
		return fmt.Errorf("amount: scratch %s: %w", keyUserID, err)
	}

	delta := amount
	if action != ActionAdd {
		delta = -amount
	}
	rows, err := h.ledger.AdjustBalance(ctx, target, delta)
	if err != nil {
		return err
	}
	logAdjust(ctx, target, delta, rows)

	if err := tghelpers.SendText(c, fmt.Sprintf(textAdjusted, delta)); err != nil {
		return err
	}
	return h.fsm.Clear(ctx, id)
}

// BroadcastStart asks for the amount credited to every user.
func (h *Handlers) BroadcastStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	h.noteRestart(ctx, c.Sender().ID)
	if err := tghelpers.SendText(c, textAskBroadcast); err != nil {
		return err
	}
	return h.fsm.SetState(ctx, c.Sender().ID, StateAwaitingBroadcastAmount)
}

// noteRestart logs a button press that abandons an unfinished flow.
func (h *Handlers) noteRestart(ctx context.Context, id int64) {
	if h.fsm.InProgress(ctx, id) {
		logger.Info(ctx, "tg", "fsm.restart", slog.String("cause", "new_flow"))
	}
}

// BroadcastAmount credits every registered user. Invalid input is dropped
// without a reply. Each credit commits on its own; a failure stops the loop
// and leaves earlier credits applied.
func (h *Handlers) BroadcastAmount(c tele.Context) error {
	amount, ok := parseAmount(messageText(c))
	if !ok {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	ids, err := h.ledger.ListUserIDs(ctx)
	if err != nil {
		return err
	}
	for i, uid := range ids {
		if _, err := h.ledger.AdjustBalance(ctx, uid, amount); err != nil {
			return fmt.Errorf("broadcast: credited %d of %d: %w", i, len(ids), err)
		}
	}
	logger.Info(ctx, "service.ledger", "ledger.broadcast",
		slog.String("status", "ok"),
		slog.Int64("delta", amount),
		slog.Int("count", len(ids)),
	)

	if err := tghelpers.SendText(c, fmt.Sprintf(textBroadcastResult, amount, len(ids))); err != nil {
		return err
	}
	return h.fsm.Clear(ctx, c.Sender().ID)
}
