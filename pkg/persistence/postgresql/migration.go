package postgresql

// migrations returns the versioned schema for the PostgreSQL backend.
// Credits are stored as a nullable integer: NULL means unlimited, which
// keeps the debit a single conditional UPDATE.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS accounts (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL DEFAULT '',
				drive_resource_id TEXT,
				credits INTEGER,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				CONSTRAINT credits_non_negative CHECK (credits IS NULL OR credits >= 0)
			);

			CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_drive_resource
				ON accounts (drive_resource_id)
				WHERE drive_resource_id IS NOT NULL AND drive_resource_id <> '';

			CREATE TABLE IF NOT EXISTS automations (
				id TEXT PRIMARY KEY,
				account_id TEXT NOT NULL REFERENCES accounts (id),
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				discord_config JSONB,
				slack_config JSONB,
				notion_config JSONB,
				published BOOLEAN NOT NULL DEFAULT FALSE,
				remaining_path JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_automations_account
				ON automations (account_id, published);

			CREATE TABLE IF NOT EXISTS executions (
				id TEXT PRIMARY KEY,
				automation_id TEXT NOT NULL,
				account_id TEXT NOT NULL,
				status TEXT NOT NULL,
				trigger_kind TEXT NOT NULL,
				results JSONB,
				error TEXT NOT NULL DEFAULT '',
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE NOT NULL,
				duration_ms BIGINT NOT NULL DEFAULT 0
			);

			CREATE INDEX IF NOT EXISTS idx_executions_account_started
				ON executions (account_id, started_at DESC);

			CREATE INDEX IF NOT EXISTS idx_executions_automation
				ON executions (automation_id, started_at DESC);
		`,
	}
}
