package db

import (
	"fmt"
	"strings"

	"jam/internal/models"
	"jam/internal/tasks"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Info("connected to postgres", zap.String("target", Describe(dsn)))
	return gdb, nil
}

// Describe returns the host and database name of a DSN, never the password.
// Both URL and key=value forms are accepted.
func Describe(dsn string) string {
	kv := dsn
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		parsed, err := pq.ParseURL(dsn)
		if err != nil {
			return "unparseable dsn"
		}
		kv = parsed
	}

	var host, name string
	for _, part := range strings.Fields(kv) {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		v = strings.Trim(v, "'")
		switch k {
		case "host":
			host = v
		case "dbname":
			name = v
		}
	}
	return fmt.Sprintf("host=%s dbname=%s", host, name)
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	tables := append(models.All(), &tasks.Task{})
	if err := gdb.AutoMigrate(tables...); err != nil {
		return err
	}

	// Scraped postings are unique per owner and platform
	stmts := []string{
		`create unique index if not exists uq_scraped_owner_ext on scraped_jobs(owner_id, platform, external_job_id);`,
		`create index if not exists idx_updates_app_date on job_application_updates(job_application_id, date desc);`,
		`create index if not exists idx_interviews_owner_date on interviews(owner_id, date);`,
		`create index if not exists idx_jobs_owner_deadline on jobs(owner_id, deadline);`,
	}

	// Queue indexes use partial/ordered forms only postgres supports well
	if gdb.Dialector.Name() == "postgres" {
		stmts = append(stmts,
			`create index if not exists idx_tasks_due on tasks(status, run_at);`,
			`create index if not exists idx_tasks_lock on tasks(status, locked_at);`,
			`create index if not exists idx_jobs_title_fts on jobs using gin (to_tsvector('simple', title));`,
		)
	}

	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
