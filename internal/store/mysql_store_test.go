package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// setupMockDB creates a mock database for testing
func setupMockDB(t *testing.T) (*MySQLStore, sqlmock.Sqlmock, *sql.DB) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newMySQLStore(db, time.Minute)
	s.now = func() time.Time { return now }

	return s, mock, sqlDB
}

// TestMySQLStore_Load_Success tests loading a saved session
func TestMySQLStore_Load_Success(t *testing.T) {
	s, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	expires := time.Date(2026, 1, 1, 12, 1, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "state", "expires_at", "updated_at"}).
		AddRow("abc", `{"query":"8.8.8.8","result":{"ip":"8.8.8.8","isp":"Google LLC","location":{"region":"California"}},"seq":3}`, expires, expires)

	mock.ExpectQuery("SELECT \\* FROM `tracker_sessions` WHERE .*id = \\? AND expires_at > \\?.*").
		WithArgs("abc", sqlmock.AnyArg(), 1).
		WillReturnRows(rows)

	state, err := s.Load(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Query != "8.8.8.8" || state.Seq != 3 {
		t.Errorf("unexpected state: %+v", state)
	}
	if state.Result == nil || state.Result.Location.Region != "California" {
		t.Errorf("expected decoded result, got %+v", state.Result)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestMySQLStore_Load_NotFound tests a missing or expired session
func TestMySQLStore_Load_NotFound(t *testing.T) {
	s, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT \\* FROM `tracker_sessions` WHERE .*").
		WithArgs("missing", sqlmock.AnyArg(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "state", "expires_at", "updated_at"}))

	_, err := s.Load(context.Background(), "missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

// TestMySQLStore_Load_DatabaseError tests query failures
func TestMySQLStore_Load_DatabaseError(t *testing.T) {
	s, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT \\* FROM `tracker_sessions` WHERE .*").
		WillReturnError(sql.ErrConnDone)

	_, err := s.Load(context.Background(), "abc")
	if err == nil || errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected database error, got %v", err)
	}
}

// TestMySQLStore_Load_CorruptState tests undecodable rows
func TestMySQLStore_Load_CorruptState(t *testing.T) {
	s, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	expires := time.Date(2026, 1, 1, 12, 1, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT \\* FROM `tracker_sessions` WHERE .*").
		WillReturnRows(sqlmock.NewRows([]string{"id", "state", "expires_at", "updated_at"}).
			AddRow("abc", "{broken", expires, expires))

	if _, err := s.Load(context.Background(), "abc"); err == nil {
		t.Error("expected decode error, got nil")
	}
}

// TestMySQLStore_Save tests the upsert
func TestMySQLStore_Save(t *testing.T) {
	s, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `tracker_sessions` .*ON DUPLICATE KEY UPDATE.*").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.Save(context.Background(), "abc", sampleState()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestMySQLStore_Save_Error tests a failing insert
func TestMySQLStore_Save_Error(t *testing.T) {
	s, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `tracker_sessions`").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	if err := s.Save(context.Background(), "abc", sampleState()); err == nil {
		t.Error("expected save error, got nil")
	}
}

// TestMySQLStore_Delete tests deleting a session
func TestMySQLStore_Delete(t *testing.T) {
	s, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `tracker_sessions` WHERE id = \\?").
		WithArgs("abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.Delete(context.Background(), "abc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestMySQLStore_PurgeExpired tests removing expired rows
func TestMySQLStore_PurgeExpired(t *testing.T) {
	s, mock, sqlDB := setupMockDB(t)
	defer sqlDB.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `tracker_sessions` WHERE expires_at <= \\?").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	n, err := s.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 purged rows, got %d", n)
	}
}

// TestMySQLStore_TableName tests the table mapping
func TestMySQLStore_TableName(t *testing.T) {
	if (SessionModel{}).TableName() != "tracker_sessions" {
		t.Errorf("unexpected table name %s", (SessionModel{}).TableName())
	}
}
