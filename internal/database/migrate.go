package database

import (
	"context"
	"database/sql"
)

// Migrate applies the schema required for operation.  Statements are
// idempotent so the server can run them on every boot; production deploys
// that manage schema externally can skip the call via MIGRATE_ON_BOOT.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(32) NOT NULL DEFAULT '',
			role VARCHAR(16) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'active',
			failed_login_attempts INT NOT NULL DEFAULT 0,
			locked_until DATETIME NULL,
			last_login_at DATETIME NULL,
			kids_data_completed TINYINT(1) NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_users_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`,

		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			token_hash CHAR(64) NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_refresh_tokens_hash (token_hash),
			KEY idx_refresh_tokens_user (user_id),
			KEY idx_refresh_tokens_expires (expires_at),
			CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`,

		`CREATE TABLE IF NOT EXISTS coaches (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			specialties JSON NULL,
			bio TEXT NULL,
			certifications JSON NULL,
			years_of_experience INT NULL,
			hourly_rate_cents BIGINT NULL,
			availability JSON NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'active',
			accepting_new_clients TINYINT(1) NOT NULL DEFAULT 1,
			kpi_total_sessions INT NULL,
			kpi_total_clients INT NULL,
			kpi_average_rating DOUBLE NULL,
			kpi_earnings_cents BIGINT NULL,
			kpi_updated_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_coaches_user (user_id),
			CONSTRAINT fk_coaches_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`,

		`CREATE TABLE IF NOT EXISTS clients (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			date_of_birth DATETIME NULL,
			gender VARCHAR(16) NULL,
			goals JSON NULL,
			fitness_level VARCHAR(32) NULL,
			assigned_coach_id BIGINT UNSIGNED NULL,
			tags JSON NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'active',
			notes TEXT NULL,
			emergency_contact JSON NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_clients_user (user_id),
			KEY idx_clients_coach (assigned_coach_id),
			CONSTRAINT fk_clients_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			CONSTRAINT fk_clients_coach FOREIGN KEY (assigned_coach_id) REFERENCES coaches(id) ON DELETE SET NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`,

		`CREATE TABLE IF NOT EXISTS kids (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			parent_id BIGINT UNSIGNED NOT NULL,
			name VARCHAR(255) NOT NULL,
			gender VARCHAR(8) NOT NULL,
			age INT NOT NULL,
			location VARCHAR(255) NOT NULL DEFAULT '',
			is_in_sports TINYINT(1) NOT NULL DEFAULT 0,
			training_style VARCHAR(16) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			KEY idx_kids_parent (parent_id),
			CONSTRAINT fk_kids_parent FOREIGN KEY (parent_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			client_id BIGINT UNSIGNED NOT NULL,
			coach_id BIGINT UNSIGNED NOT NULL,
			starts_at DATETIME NOT NULL,
			ends_at DATETIME NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'scheduled',
			session_type VARCHAR(32) NULL,
			location VARCHAR(255) NULL,
			notes TEXT NULL,
			price_cents BIGINT NULL,
			payment_status VARCHAR(16) NOT NULL DEFAULT 'unpaid',
			tags JSON NULL,
			canceled_at DATETIME NULL,
			canceled_by BIGINT UNSIGNED NULL,
			cancel_reason VARCHAR(512) NULL,
			feedback_rating INT NULL,
			feedback_comments TEXT NULL,
			feedback_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			KEY idx_sessions_coach_time (coach_id, starts_at),
			KEY idx_sessions_client_time (client_id, starts_at),
			KEY idx_sessions_status (status),
			CONSTRAINT fk_sessions_client FOREIGN KEY (client_id) REFERENCES clients(id),
			CONSTRAINT fk_sessions_coach FOREIGN KEY (coach_id) REFERENCES coaches(id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`,

		`CREATE TABLE IF NOT EXISTS calendar_accounts (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			provider VARCHAR(32) NOT NULL,
			email VARCHAR(255) NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NULL,
			expires_at DATETIME NULL,
			last_synced_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_calendar_user_provider (user_id, provider),
			CONSTRAINT fk_calendar_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
