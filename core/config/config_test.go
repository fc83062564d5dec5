package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := writeYAML(t, `
telegram:
  token: from-yaml
  admin_id: 1
  run_mode: polling
logging:
  level: debug
`)
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("OWNER_ID", "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, want from-env", cfg.Telegram.Token)
	}
	if cfg.Telegram.AdminID != 42 {
		t.Fatalf("admin id = %d, want 42", cfg.Telegram.AdminID)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-only")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "env-only" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "missing token", cfg: Config{}, wantErr: "token is required"},
		{
			name:    "bad run mode",
			cfg:     Config{Telegram: TelegramConfig{Token: "t", RunMode: "carrier-pigeon"}},
			wantErr: "invalid telegram.run_mode",
		},
		{
			name:    "webhook without url",
			cfg:     Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}},
			wantErr: "webhook.url is required",
		},
		{
			name:    "unknown rate limit exclusion",
			cfg:     Config{Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"inline_query"}}},
			wantErr: "invalid rate_limit.exclude_updates",
		},
		{
			name: "valid webhook",
			cfg: Config{
				Telegram: TelegramConfig{Token: "t", RunMode: "WEBHOOK"},
				Webhook:  WebhookConfig{URL: "https://example.org/hook", Listen: "0.0.0.0", Port: 8443},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			err := Normalize(&cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestNormalizeLowercasesExclusions(t *testing.T) {
	cfg := Config{
		Telegram:  TelegramConfig{Token: "t"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Callback ", "", "MESSAGE"}},
	}
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	got := strings.Join(cfg.RateLimit.ExcludeUpdates, ",")
	if got != "callback,message" {
		t.Fatalf("exclusions = %q", got)
	}
}
