package router

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tg "github.com/m3rciful/coinbot/core/telegram"
	"github.com/m3rciful/coinbot/core/telegram/commands"
	"github.com/m3rciful/coinbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	update    tele.Update
	sender    *tele.User
	store     map[string]any
	responded int
}

func newFake(userID int64, text string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 1, Message: &tele.Message{Text: text}},
		sender: &tele.User{ID: userID},
		store:  map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update       { return f.update }
func (f *fakeContext) Sender() *tele.User        { return f.sender }
func (f *fakeContext) Chat() *tele.Chat          { return &tele.Chat{ID: f.sender.ID} }
func (f *fakeContext) Message() *tele.Message    { return f.update.Message }
func (f *fakeContext) Callback() *tele.Callback  { return f.update.Callback }
func (f *fakeContext) Text() string              { return f.update.Message.Text }
func (f *fakeContext) Get(key string) any        { return f.store[key] }
func (f *fakeContext) Set(key string, value any) { f.store[key] = value }
func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	f.responded++
	return nil
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "bad request" }

type innerErr struct{}

func (*innerErr) Error() string { return "inner" }

func TestDeriveErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{codedErr{}, "BAD_REQUEST"},
		{fmt.Errorf("wrap: %w", &innerErr{}), "INNERERR"},
		{errors.New("plain"), "ERRORSTRING"},
	}
	for _, tc := range cases {
		if got := deriveErrorCode(tc.err); got != tc.want {
			t.Fatalf("deriveErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestNormalizeHandlerName(t *testing.T) {
	cases := map[string]string{
		"/Start":      "start",
		"":            "unknown",
		" admin menu": "admin_menu",
	}
	for in, want := range cases {
		if got := normalizeHandlerName(in); got != want {
			t.Fatalf("normalizeHandlerName(%q) = %q, want %q", in, got, want)
		}
	}
}

func textRoute(t *testing.T, routes []tg.Route) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == tele.OnText {
			return r.Handler
		}
	}
	t.Fatal("no OnText route")
	return nil
}

func TestTextRoutesPreferActiveState(t *testing.T) {
	fsm := state.NewManager(nil)
	var got []string
	fsm.Handle("awaiting", func(tele.Context) error { got = append(got, "state"); return nil })

	reg := tg.NewRegistry()
	_ = reg.RegisterCommand("/ping", commands.Command{
		Handler:     func(tele.Context) error { got = append(got, "command"); return nil },
		Description: "ping",
	})
	text := textRoute(t, TextRoutes(fsm, reg, TextOptions{
		UnknownText: func(tele.Context) error { got = append(got, "fallback"); return nil },
	}))

	_ = text(newFake(1, "hello"))
	_ = text(newFake(1, "/ping@coinbot now"))
	if err := fsm.SetState(context.Background(), 1, "awaiting"); err != nil {
		t.Fatal(err)
	}
	_ = text(newFake(1, "hello"))
	_ = text(newFake(2, "hello"))

	want := []string{"fallback", "command", "state", "fallback"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("dispatch order = %v, want %v", got, want)
	}
}

func TestTextRoutesClearAdminStateOfStranger(t *testing.T) {
	ctx := context.Background()
	fsm := state.NewManager(nil)
	var got []string
	fsm.HandleAdmin("awaiting", func(tele.Context) error { got = append(got, "state"); return nil })
	text := textRoute(t, TextRoutes(fsm, nil, TextOptions{
		AdminID:     9,
		UnknownText: func(tele.Context) error { got = append(got, "fallback"); return nil },
	}))

	for _, id := range []int64{5, 9} {
		if err := fsm.SetState(ctx, id, "awaiting"); err != nil {
			t.Fatal(err)
		}
	}
	_ = text(newFake(5, "500"))
	_ = text(newFake(9, "500"))

	if want := []string{"fallback", "state"}; fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("dispatch = %v, want %v", got, want)
	}
	if st, _ := fsm.State(ctx, 5); st != state.StateIdle {
		t.Fatalf("stranger state = %q, want idle", st)
	}
	if st, _ := fsm.State(ctx, 9); st != "awaiting" {
		t.Fatalf("admin state = %q, want awaiting", st)
	}
}

func TestTextRoutesWithoutFallback(t *testing.T) {
	text := textRoute(t, TextRoutes(nil, nil, TextOptions{}))
	if err := text(newFake(1, "hello")); err != nil {
		t.Fatalf("err = %v", err)
	}
}

func TestCallbackRouteUnknownAndDenied(t *testing.T) {
	reg := tg.NewRegistry()
	called := 0
	_ = reg.RegisterCallback("secret", commands.Callback{
		Handler:   func(tele.Context) error { called++; return nil },
		AdminOnly: true,
	})
	route := CallbackRoute(reg, CallbackOptions{AdminID: 9})

	press := func(user int64, data string) *fakeContext {
		c := newFake(user, "")
		c.update.Callback = &tele.Callback{Data: data}
		if err := route.Handler(c); err != nil {
			t.Fatalf("callback %q: %v", data, err)
		}
		return c
	}

	if c := press(9, "\fmissing|x"); c.responded != 1 {
		t.Fatal("unknown callback not acknowledged")
	}
	if c := press(5, "\fsecret"); c.responded != 1 || called != 0 {
		t.Fatalf("denied callback: responded=%d called=%d", c.responded, called)
	}
	press(9, "\fsecret|p")
	if called != 1 {
		t.Fatalf("admin callback called %d times", called)
	}
}
