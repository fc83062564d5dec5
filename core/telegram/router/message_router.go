package router

import (
	"log/slog"
	"strings"
	"time"

	tg "github.com/m3rciful/coinbot/core/telegram"
	tghelpers "github.com/m3rciful/coinbot/core/telegram/helpers"
	"github.com/m3rciful/coinbot/core/telegram/middleware"
	"github.com/m3rciful/coinbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for text, document and media updates.
// AdminID gates states bound with state.Manager.HandleAdmin.
type TextOptions struct {
	AdminID         int64
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
	UnknownMedia    tele.HandlerFunc
}

// TextRoutes builds handlers for plain messages. An active conversation of
// the sender takes precedence, then registered commands, then fallbacks.
func TextRoutes(fsm *state.Manager, reg *tg.Registry, opts TextOptions) []tg.Route {
	admin := middleware.AdminOptions{AdminID: opts.AdminID}
	active := func(c tele.Context, start time.Time) (bool, error) {
		return dispatchState(c, fsm, admin, start)
	}

	text := func(c tele.Context) error {
		start := time.Now()
		if handled, err := active(c, start); handled {
			return err
		}

		if body := c.Text(); reg != nil && strings.HasPrefix(body, "/") {
			if key, cmd, ok := reg.LookupCommand(body); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, normalizeHandlerName(key), start, cmd.Handler)
			}
		}
		return fallback(c, "unknown_text", start, opts.UnknownText)
	}

	document := func(c tele.Context) error {
		start := time.Now()
		if handled, err := active(c, start); handled {
			return err
		}
		return fallback(c, "unexpected_document", start, opts.UnknownDocument)
	}

	media := func(c tele.Context) error {
		start := time.Now()
		if handled, err := active(c, start); handled {
			return err
		}
		return fallback(c, "unexpected_media", start, opts.UnknownMedia)
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: text},
		{Endpoint: tele.OnDocument, Handler: document},
		{Endpoint: tele.OnMedia, Handler: media},
		{Endpoint: tele.OnContact, Handler: media},
		{Endpoint: tele.OnLocation, Handler: media},
		{Endpoint: tele.OnVenue, Handler: media},
		{Endpoint: tele.OnDice, Handler: media},
		{Endpoint: tele.OnGame, Handler: media},
	}
}

// dispatchState runs the handler bound to the sender's active state.
// It reports false when the sender has no active conversation. An admin-only
// state held by anyone else is cleared and the update falls through.
func dispatchState(c tele.Context, fsm *state.Manager, admin middleware.AdminOptions, start time.Time) (bool, error) {
	if fsm == nil || c.Sender() == nil {
		return false, nil
	}
	ctx := tghelpers.BuildContext(c)
	st, h, err := fsm.Lookup(ctx, c.Sender().ID)
	if err != nil {
		logHandlerSummary(c, "fsm", start, "", err)
		return true, err
	}
	if h == nil {
		return false, nil
	}
	if fsm.AdminOnly(st) && !admin.IsAdmin(c) {
		logHandlerSummary(c, "fsm."+string(st), start, "denied", nil, slog.String("state", string(st)))
		if err := fsm.Clear(ctx, c.Sender().ID); err != nil {
			return true, err
		}
		return false, nil
	}
	return true, handleWithSummary(c, "fsm."+string(st), start, h, slog.String("state", string(st)))
}

func fallback(c tele.Context, name string, start time.Time, h tele.HandlerFunc) error {
	if h == nil {
		logHandlerSummary(c, name, start, "cancelled", nil)
		return nil
	}
	return handleWithSummary(c, name, start, h)
}
