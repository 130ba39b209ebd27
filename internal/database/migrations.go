package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS saved_plans (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	strategy TEXT NOT NULL,
	monthly_surplus DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_debt DOUBLE PRECISION NOT NULL DEFAULT 0,
	months_to_debt_free INTEGER,
	narrative_source TEXT NOT NULL DEFAULT 'deterministic',
	request JSONB NOT NULL,
	output JSONB NOT NULL,
	share_token_hash TEXT,
	share_expires_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_saved_plans_user_created ON saved_plans(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS ai_requests (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID REFERENCES users(id) ON DELETE SET NULL,
	plan_id UUID REFERENCES saved_plans(id) ON DELETE SET NULL,
	request_type TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	prompt TEXT,
	request_payload JSONB,
	response_payload JSONB,
	raw_response TEXT,
	success BOOLEAN NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_ai_requests_created ON ai_requests(created_at DESC);
`

// Migrate создает схему, если ее еще нет. Повторный запуск безопасен.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
