package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Resource actions recorded in the ledger.
const (
	ActionCreated     = "created"
	ActionReused      = "reused"
	ActionDeleted     = "deleted"
	ActionWouldDelete = "would-delete"
	ActionReported    = "reported"
)

// ResourceRecord is one remote resource the engine touched during a run.
type ResourceRecord struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      string `gorm:"index"`
	TunnelName string `gorm:"index"`
	Kind       string // tunnel, dns, certificate
	Action     string
	RemoteID   string
	Name       string
	Content    string
	CreatedAt  time.Time
}

// Ledger is a local sqlite journal of everything the engine provisioned,
// reused or removed, keyed by run. It exists for the status command and
// for auditing cleanup decisions; reconciliation never reads it.
type Ledger struct {
	db *gorm.DB
}

func OpenLedger(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := db.AutoMigrate(&ResourceRecord{}); err != nil {
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Record(rec ResourceRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := l.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("record %s %s: %w", rec.Kind, rec.Name, err)
	}
	return nil
}

// ForTunnel returns the recorded history for a tunnel name, newest first.
func (l *Ledger) ForTunnel(name string) ([]ResourceRecord, error) {
	var recs []ResourceRecord
	err := l.db.Where("tunnel_name = ?", name).Order("created_at desc").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("load ledger for %s: %w", name, err)
	}
	return recs, nil
}

func (l *Ledger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
