package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
)

const (
	mysqlDuplicateEntry  = 1062 // ER_DUP_ENTRY
	mysqlNoReferencedRow = 1452 // ER_NO_REFERENCED_ROW_2
)

type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func InitDB(dbURL string, opts Options, logger zerolog.Logger) (*sql.DB, error) {
	if dbURL == "" {
		return nil, errors.New("DB_URL is not set")
	}

	db, err := sql.Open("mysql", dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database not responding: %w", err)
	}

	logger.Info().Int("max_open_conns", opts.MaxOpenConns).Msg("Connected to database")
	return db, nil
}

// Migrations is the ordered, idempotent schema. The UNIQUE key on
// ratings(user_id, store_id) is what actually holds one rating per pair
// under concurrent submissions.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(60) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		address VARCHAR(400) NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email),
		CONSTRAINT chk_users_role CHECK (role IN ('admin', 'user', 'store_owner'))
	);`,
	`CREATE TABLE IF NOT EXISTS stores (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		address VARCHAR(400) NOT NULL,
		owner_id INT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_stores_email (email),
		INDEX idx_stores_owner_id (owner_id),
		FOREIGN KEY (owner_id) REFERENCES users(id)
	);`,
	`CREATE TABLE IF NOT EXISTS ratings (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		store_id INT NOT NULL,
		rating TINYINT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_ratings_user_store (user_id, store_id),
		INDEX idx_ratings_store_id (store_id),
		CONSTRAINT chk_ratings_value CHECK (rating BETWEEN 1 AND 5),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (store_id) REFERENCES stores(id) ON DELETE CASCADE
	);`,
}

func RunMigrations(db *sql.DB, logger zerolog.Logger) error {
	for i, q := range Migrations {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	logger.Info().Int("count", len(Migrations)).Msg("Migrations completed")
	return nil
}

// IsDuplicateEntry reports whether err is a MySQL unique-key violation.
func IsDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// IsForeignKeyViolation reports whether err is a MySQL insert referencing a missing parent row.
func IsForeignKeyViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlNoReferencedRow
}
