package database

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AddIndexes adds the indexes used by the scoped list queries
func AddIndexes(db *gorm.DB, log *logrus.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns []string
	}{
		// Scoped task listing: owner OR group, newest first
		{"tasks", "idx_tasks_owner_created", []string{"owner_user_id", "created_at"}},
		{"tasks", "idx_tasks_group_created", []string{"group_id", "created_at"}},
		{"tasks", "idx_tasks_status", []string{"status"}},

		// Name ordering for user and member lists
		{"users", "idx_users_name", []string{"name"}},

		{"groups", "idx_groups_created_at", []string{"created_at"}},
	}

	migrator := db.Migrator()
	stmt := db.Session(&gorm.Session{}).Statement

	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			continue
		}

		quoted := make([]string, len(idx.columns))
		for i, col := range idx.columns {
			quoted[i] = stmt.Quote(col)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", stmt.Quote(idx.name), stmt.Quote(idx.table), strings.Join(quoted, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		if log != nil {
			log.WithField("index", idx.name).Debug("Created index")
		}
	}

	return nil
}
