package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/coinbot/core/telegram"
	"github.com/m3rciful/coinbot/core/telegram/callbacks"
	"github.com/m3rciful/coinbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises admin gating and fallback behaviour for callbacks.
type CallbackOptions struct {
	AdminID  int64
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks through the registry.
// Every callback is acknowledged without text before dispatch, so denied and
// unknown presses stop the client spinner and nothing else.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	admin := middleware.AdminOptions{AdminID: opts.AdminID}
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key, payload := callbacks.Parse(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}
		if payload != "" {
			extras = append(extras, slog.String("payload", payload))
		}

		_ = c.Respond()

		cb, ok := reg.GetCallback(key)
		if !ok || cb.Handler == nil {
			if opts.NotFound == nil {
				logHandlerSummary(c, "callback.unknown", start, "cancelled", nil, extras...)
				return nil
			}
			return handleWithSummary(c, "callback.unknown", start, opts.NotFound, extras...)
		}

		if cb.AdminOnly && !admin.IsAdmin(c) {
			logHandlerSummary(c, name, start, "denied", nil, extras...)
			return nil
		}
		return handleWithSummary(c, name, start, cb.Handler, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
