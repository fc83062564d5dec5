package helpers

import (
	"testing"

	"github.com/m3rciful/coinbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	update tele.Update
	sender *tele.User
	chat   *tele.Chat
	store  map[string]any
	sent   []any
	opts   [][]any
}

func newFakeContext(updateID int, userID int64) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: updateID},
		sender: &tele.User{ID: userID},
		chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		store:  map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update       { return f.update }
func (f *fakeContext) Sender() *tele.User        { return f.sender }
func (f *fakeContext) Chat() *tele.Chat          { return f.chat }
func (f *fakeContext) Get(key string) any        { return f.store[key] }
func (f *fakeContext) Set(key string, value any) { f.store[key] = value }
func (f *fakeContext) Send(what any, opts ...any) error {
	f.sent = append(f.sent, what)
	f.opts = append(f.opts, opts)
	return nil
}

func TestBuildContextCarriesUpdateMeta(t *testing.T) {
	c := newFakeContext(5, 77)
	ctx := BuildContext(c)
	if logger.UpdateIDFrom(ctx) != 5 || logger.UserIDFrom(ctx) != 77 || logger.ChatIDFrom(ctx) != 77 {
		t.Fatalf("unexpected ctx meta: upd=%d user=%d chat=%d",
			logger.UpdateIDFrom(ctx), logger.UserIDFrom(ctx), logger.ChatIDFrom(ctx))
	}
	if rid := logger.RIDFrom(ctx); rid != "5:77:77" {
		t.Fatalf("rid = %q", rid)
	}
	if again := BuildContext(c); again != ctx {
		t.Fatal("second call should reuse the stored context")
	}
	if h := logger.HandlerFrom(WithHandler(c, "me")); h != "me" {
		t.Fatalf("handler = %q", h)
	}
}

func TestSendHTMLInline(t *testing.T) {
	SetDispatcher(nil)
	c := newFakeContext(1, 2)
	if err := SendHTML(c, "<b>hi</b>"); err != nil {
		t.Fatalf("SendHTML: %v", err)
	}
	if len(c.sent) != 1 || c.sent[0] != "<b>hi</b>" {
		t.Fatalf("sent = %v", c.sent)
	}
	opts, ok := c.opts[0][0].(*tele.SendOptions)
	if !ok || opts.ParseMode != tele.ModeHTML {
		t.Fatalf("opts = %#v", c.opts[0])
	}
}
