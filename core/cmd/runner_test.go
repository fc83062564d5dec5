package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/coinbot/core/config"
	coretelegram "github.com/m3rciful/coinbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type app struct {
	opts coretelegram.RunOptions
	err  error
}

func (a app) TelegramRunOptions() (coretelegram.RunOptions, error) { return a.opts, a.err }

func TestRunRequiresHooks(t *testing.T) {
	if err := Run(Options{}); err == nil {
		t.Fatal("expected error without LoadConfig")
	}
	if err := Run(Options{LoadConfig: func(string) (ConfigCarrier, error) { return nil, nil }}); err == nil {
		t.Fatal("expected error without Bootstrap")
	}
}

func TestRunLoadsEnvFileAndWrapsHooks(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("COINBOT_RUNNER_TEST=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("COINBOT_RUNNER_TEST", "")
	os.Unsetenv("COINBOT_RUNNER_TEST")
	t.Setenv("COINBOT_TEST_CONFIG", filepath.Join(dir, "cfg.yaml"))

	var gotPath string
	var startCalled, stopCalled, loggerClosed bool
	err := Run(Options{
		ConfigEnvVar: "COINBOT_TEST_CONFIG",
		EnvFiles:     []string{filepath.Join(dir, "missing.env"), envFile},
		LoadConfig: func(path string) (ConfigCarrier, error) {
			gotPath = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) {
			return app{opts: coretelegram.RunOptions{
				OnStart: func(context.Context, coretelegram.Runtime) error { startCalled = true; return nil },
				OnStop:  func(context.Context, coretelegram.Runtime) error { stopCalled = true; return nil },
			}}, nil
		},
		ShutdownLogger: func() error { loggerClosed = true; return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotPath != filepath.Join(dir, "cfg.yaml") {
		t.Fatalf("config path = %q", gotPath)
	}
	if os.Getenv("COINBOT_RUNNER_TEST") != "from-dotenv" {
		t.Fatal(".env file was not loaded")
	}
	if !startCalled || !stopCalled || !loggerClosed {
		t.Fatalf("hooks start=%v stop=%v logger=%v", startCalled, stopCalled, loggerClosed)
	}
}

func TestRunPropagatesBootstrapError(t *testing.T) {
	boom := errors.New("db down")
	err := Run(Options{
		LoadConfig:     func(string) (ConfigCarrier, error) { return carrier{cfg: &coreconfig.Config{}}, nil },
		Bootstrap:      func(ConfigCarrier) (TelegramApp, error) { return nil, boom },
		ShutdownLogger: func() error { return nil },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
