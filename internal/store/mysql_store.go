package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/evyataryagoni/iptracker/internal/tracker"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SessionModel is the GORM model for the tracker_sessions table
type SessionModel struct {
	ID        string    `gorm:"column:id;primaryKey;size:64"`
	State     string    `gorm:"column:state;type:text"` // JSON-encoded tracker.State
	ExpiresAt time.Time `gorm:"column:expires_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (SessionModel) TableName() string {
	return "tracker_sessions"
}

// MySQLStore implements Store using MySQL with GORM
type MySQLStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewMySQLStore creates a new MySQL store using GORM
//
// Parameters:
//   - dsn: Data Source Name (connection string)
//     Format: user:password@tcp(host:port)/dbname?parseTime=true
//   - ttl: expiry of a saved session
//
// Returns:
//   - *MySQLStore: pointer to the created store
//   - error: any error that occurred during connection or migration
func NewMySQLStore(dsn string, ttl time.Duration) (*MySQLStore, error) {
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(mysql.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL with GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	if err := db.AutoMigrate(&SessionModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sessions table: %w", err)
	}

	return newMySQLStore(db, ttl), nil
}

func newMySQLStore(db *gorm.DB, ttl time.Duration) *MySQLStore {
	return &MySQLStore{db: db, ttl: ttl, now: time.Now}
}

// Load implements the Store interface
// Expired rows are treated as missing
func (s *MySQLStore) Load(ctx context.Context, sessionID string) (*tracker.State, error) {
	var record SessionModel

	result := s.db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", sessionID, s.now()).
		First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("database query failed: %w", result.Error)
	}

	var state tracker.State
	if err := json.Unmarshal([]byte(record.State), &state); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}

	return &state, nil
}

// Save implements the Store interface as an upsert on the session ID
func (s *MySQLStore) Save(ctx context.Context, sessionID string, state tracker.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	record := SessionModel{
		ID:        sessionID,
		State:     string(data),
		ExpiresAt: s.now().Add(s.ttl),
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record)
	if result.Error != nil {
		return fmt.Errorf("failed to save session: %w", result.Error)
	}

	return nil
}

// Delete implements the Store interface
func (s *MySQLStore) Delete(ctx context.Context, sessionID string) error {
	result := s.db.WithContext(ctx).Where("id = ?", sessionID).Delete(&SessionModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session: %w", result.Error)
	}
	return nil
}

// PurgeExpired removes rows whose expiry has passed and returns how many went
func (s *MySQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&SessionModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
