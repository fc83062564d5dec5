package storage

import (
	"context"
	"os"
	"testing"

	coredatabase "github.com/m3rciful/coinbot/core/database"
)

// Set COINBOT_TEST_DATABASE_URL to a disposable database to run these.
func newPostgresRepo(t *testing.T) *UsersRepo {
	t.Helper()
	url := os.Getenv("COINBOT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("COINBOT_TEST_DATABASE_URL not set")
	}
	cfg := coredatabase.Config{URL: url}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := coredatabase.RunMigrations(cfg, Migrations, MigrationsDir); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := coredatabase.Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE users`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewUsersRepo(db)
}

func TestPostgresLedgerProperties(t *testing.T) {
	repo := newPostgresRepo(t)
	ctx := context.Background()

	// Repeated contact keeps a single record with the first username.
	for _, name := range []string{"first", "second"} {
		if err := repo.EnsureUser(ctx, 100, name); err != nil {
			t.Fatalf("EnsureUser: %v", err)
		}
	}
	u, err := repo.GetUser(ctx, 100)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Username != "first" || u.Nickname != "first" || u.Balance != 0 {
		t.Fatalf("user = %+v", u)
	}

	// Credit then debit of the same amount restores the balance.
	if _, err := repo.AdjustBalance(ctx, 100, 40); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := repo.AdjustBalance(ctx, 100, -40); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if u, _ = repo.GetUser(ctx, 100); u.Balance != 0 {
		t.Fatalf("balance = %d, want 0", u.Balance)
	}

	// Balance may go negative.
	if _, err := repo.AdjustBalance(ctx, 100, -5); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if u, _ = repo.GetUser(ctx, 100); u.Balance != -5 {
		t.Fatalf("balance = %d, want -5", u.Balance)
	}

	// Adjusting an absent user creates nothing.
	rows, err := repo.AdjustBalance(ctx, 999, 10)
	if err != nil || rows != 0 {
		t.Fatalf("adjust absent = %d, %v", rows, err)
	}
	if _, err := repo.GetUser(ctx, 999); err != ErrUserNotFound {
		t.Fatalf("GetUser absent err = %v", err)
	}

	// Nickname changes leave username as observed.
	if err := repo.SetNickname(ctx, 100, "Boss"); err != nil {
		t.Fatalf("SetNickname: %v", err)
	}
	if u, _ = repo.GetUser(ctx, 100); u.Nickname != "Boss" || u.Username != "first" {
		t.Fatalf("user = %+v", u)
	}

	if err := repo.EnsureUser(ctx, 101, "NoName"); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	ids, err := repo.ListUserIDs(ctx)
	if err != nil || len(ids) != 2 {
		t.Fatalf("ids = %v, %v", ids, err)
	}
	users, err := repo.ListUsers(ctx)
	if err != nil || len(users) != 2 || users[0].UserID != 100 {
		t.Fatalf("users = %+v, %v", users, err)
	}
}
