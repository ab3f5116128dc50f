package database

import (
	"fmt"

	"gorm.io/gorm"

	"cardmarket/internal/model"
	"cardmarket/pkg/log"
)

// AutoMigrate auto migrate database table schema
func AutoMigrate(db *gorm.DB) error {
	log.Info("Starting database migration...")

	models := []interface{}{
		&model.User{},
		&model.Product{},
		&model.PromoCode{},
		&model.Order{},
		&model.OrderItem{},
		&model.Trade{},
		&model.TradeMessage{},
		&model.TradeMeetingProposal{},
		&model.Notification{},
		&model.Review{},
	}

	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", m, err)
		}
		log.Infof("Migrated model: %T", m)
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes create additional indexes
func CreateIndexes(db *gorm.DB) error {
	log.Info("Creating additional indexes...")

	indexes := []struct {
		table string
		name  string
		sql   string
	}{
		{
			table: "trades",
			name:  "idx_trades_status_responder",
			sql:   "CREATE INDEX IF NOT EXISTS idx_trades_status_responder ON trades (status, responder_id)",
		},
		{
			table: "orders",
			name:  "idx_orders_user_created",
			sql:   "CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders (user_id, created_at)",
		},
		{
			table: "notifications",
			name:  "idx_notifications_scope_user",
			sql:   "CREATE INDEX IF NOT EXISTS idx_notifications_scope_user ON notifications (scope, user_id, created_at)",
		},
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			log.Warnf("Failed to create index %s on table %s: %v", idx.name, idx.table, err)
		} else {
			log.Infof("Created index: %s on table %s", idx.name, idx.table)
		}
	}

	log.Info("Index creation completed")
	return nil
}
