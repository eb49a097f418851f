package config

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// schema lists the tables in creation order; every child-scoped table
// cascades on child deletion
var schema = []struct {
	name string
	ddl  string
}{
	{
		name: "children",
		ddl: `
	CREATE TABLE IF NOT EXISTS children (
		id UUID PRIMARY KEY,
		parent_user_id UUID NOT NULL,
		name TEXT NOT NULL,
		date_of_birth DATE NOT NULL,
		guideline TEXT NOT NULL,
		gender TEXT,
		blood_group TEXT,
		allergies TEXT,
		created_at TIMESTAMP DEFAULT now(),
		updated_at TIMESTAMP DEFAULT now()
	);`,
	},
	{
		name: "vaccinations",
		ddl: `
	CREATE TABLE IF NOT EXISTS vaccinations (
		id UUID PRIMARY KEY,
		child_id UUID NOT NULL REFERENCES children(id) ON DELETE CASCADE,
		vaccine_name TEXT NOT NULL,
		vaccine_code TEXT,
		due_date DATE NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		administered_date DATE,
		notes TEXT,
		administered_by TEXT,
		batch_number TEXT,
		created_at TIMESTAMP DEFAULT now(),
		updated_at TIMESTAMP DEFAULT now(),
		CONSTRAINT chk_vaccination_status CHECK (status IN ('pending', 'completed'))
	);`,
	},
	{
		name: "health_events",
		ddl: `
	CREATE TABLE IF NOT EXISTS health_events (
		id UUID PRIMARY KEY,
		child_id UUID NOT NULL REFERENCES children(id) ON DELETE CASCADE,
		event_type TEXT NOT NULL,
		event_date DATE NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		severity TEXT,
		symptoms TEXT,
		treatment TEXT,
		doctor_name TEXT,
		hospital_clinic TEXT,
		created_at TIMESTAMP DEFAULT now(),
		CONSTRAINT chk_event_type CHECK (event_type IN ('illness', 'symptom', 'doctor_visit', 'milestone', 'other'))
	);`,
	},
	{
		name: "reminder_settings",
		ddl: `
	CREATE TABLE IF NOT EXISTS reminder_settings (
		child_id UUID PRIMARY KEY REFERENCES children(id) ON DELETE CASCADE,
		email_enabled BOOLEAN NOT NULL DEFAULT false,
		email_address TEXT,
		sms_enabled BOOLEAN NOT NULL DEFAULT false,
		phone_number TEXT,
		reminder_7_days BOOLEAN NOT NULL DEFAULT true,
		reminder_1_day BOOLEAN NOT NULL DEFAULT true,
		reminder_on_day BOOLEAN NOT NULL DEFAULT true,
		updated_at TIMESTAMP DEFAULT now()
	);`,
	},
	{
		name: "sent_reminders",
		ddl: `
	CREATE TABLE IF NOT EXISTS sent_reminders (
		id UUID PRIMARY KEY,
		vaccination_id UUID NOT NULL REFERENCES vaccinations(id) ON DELETE CASCADE,
		reminder_type TEXT NOT NULL,
		channel TEXT NOT NULL,
		sent_at TIMESTAMP DEFAULT now()
	);`,
	},
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_children_parent_user_id ON children(parent_user_id)",
	"CREATE INDEX IF NOT EXISTS idx_vaccinations_child_id ON vaccinations(child_id)",
	"CREATE INDEX IF NOT EXISTS idx_vaccinations_due_date ON vaccinations(due_date)",
	"CREATE INDEX IF NOT EXISTS idx_vaccinations_status ON vaccinations(status)",
	"CREATE INDEX IF NOT EXISTS idx_health_events_child_id ON health_events(child_id)",
	"CREATE INDEX IF NOT EXISTS idx_health_events_event_date ON health_events(event_date)",
	"CREATE INDEX IF NOT EXISTS idx_sent_reminders_vaccination_id ON sent_reminders(vaccination_id)",
}

// InitDatabase creates the database schema if it does not exist
// dropTables drops every table first (DROP_TABLES_ON_STARTUP=true)
func InitDatabase(db *sql.DB, dropTables bool, logger *zap.Logger) error {
	if dropTables {
		logger.Warn("Dropping existing tables (DROP_TABLES_ON_STARTUP=true)")
		for i := len(schema) - 1; i >= 0; i-- {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + schema[i].name + " CASCADE"); err != nil {
				logger.Warn("Failed to drop table", zap.String("table", schema[i].name), zap.Error(err))
			}
		}
	}

	for _, table := range schema {
		logger.Debug("Creating table", zap.String("table", table.name))
		if _, err := db.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			logger.Warn("Failed to create index", zap.String("statement", indexSQL), zap.Error(err))
		}
	}

	logger.Info("Database schema initialized successfully")
	return nil
}

// ConnectDatabase establishes a connection to PostgreSQL with retry logic
func ConnectDatabase(databaseURL string, maxRetries int, retryDelay time.Duration, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1), zap.Int("max_attempts", maxRetries), zap.Error(err))
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
		}

		// Test the connection
		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1), zap.Int("max_attempts", maxRetries), zap.Error(err))
			db.Close()
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to ping database after %d attempts: %w", maxRetries, err)
		}

		// Configure connection pool
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		logger.Info("Database connection established successfully")
		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database: %w", err)
}
