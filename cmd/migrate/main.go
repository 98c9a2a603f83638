package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Statements run in order and every one is idempotent, so re-running the
// binary against an existing database is safe.
var statements = []string{
	`create extension if not exists pgcrypto`,

	`create table if not exists profiles (
		id uuid primary key,
		display_name text not null default '',
		is_premium boolean not null default false,
		credits integer not null default 0 check (credits >= 0),
		streak integer not null default 0,
		last_free_draw_at timestamptz,
		last_checkin_at timestamptz,
		created_at timestamptz not null default now(),
		updated_at timestamptz not null default now()
	)`,

	`create table if not exists fortune_sessions (
		id uuid primary key default gen_random_uuid(),
		account_id uuid not null references profiles (id),
		messages jsonb not null default '[]'::jsonb,
		messages_used integer not null default 0,
		is_premium_session boolean not null default false,
		credit_cost integer not null default 0,
		created_at timestamptz not null default now(),
		updated_at timestamptz not null default now()
	)`,

	`create index if not exists idx_fortune_sessions_account_created
		on fortune_sessions (account_id, created_at desc)`,

	`create table if not exists promo_discount_settings (
		id integer primary key check (id = 1),
		discount_amount integer not null default 0,
		is_discount_active boolean not null default false,
		discount_ends_at timestamptz
	)`,

	`insert into promo_discount_settings (id) values (1)
		on conflict (id) do nothing`,

	`create table if not exists integration_tokens (
		provider text not null,
		token text not null,
		updated_at timestamptz not null default now()
	)`,

	`create index if not exists idx_integration_tokens_provider
		on integration_tokens (provider, updated_at desc)`,
}

func main() {
	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("open database: %w", err))
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		exitWithError(fmt.Errorf("ping database: %w", err))
	}

	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			exitWithError(fmt.Errorf("statement %d: %w", i+1, err))
		}
	}

	fmt.Println("schema is up to date")
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "migrate:", err)
	os.Exit(1)
}
