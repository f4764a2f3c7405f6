// Package testutil holds doubles shared by unit tests: a testify-backed
// Redis mock and a sqlmock-backed gorm connection.
package testutil

import (
	"context"
	"database/sql"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockDB wraps sqlmock for easier test setup
type MockDB struct {
	DB     *sql.DB
	Mock   sqlmock.Sqlmock
	GormDB *gorm.DB
}

// NewMockDB creates a new mock database connection
func NewMockDB() (*MockDB, error) {
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 db,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		},
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &MockDB{
		DB:     db,
		Mock:   mock,
		GormDB: gormDB,
	}, nil
}

// Close closes the mock database
func (m *MockDB) Close() error {
	return m.DB.Close()
}

// MockRedis implements the Redis subsets used across the portal.
type MockRedis struct {
	mock.Mock
}

func (m *MockRedis) SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(key, value, expiration)
	return redis.NewStatusResult(args.String(0), args.Error(1))
}

func (m *MockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(key, value, expiration)
	return redis.NewStatusResult(args.String(0), args.Error(1))
}

func (m *MockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(key)
	return redis.NewStringResult(args.String(0), args.Error(1))
}

func (m *MockRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(keys)
	return redis.NewIntResult(int64(args.Int(0)), args.Error(1))
}

func (m *MockRedis) Keys(ctx context.Context, pattern string) *redis.StringSliceCmd {
	args := m.Called(pattern)
	keys, _ := args.Get(0).([]string)
	return redis.NewStringSliceResult(keys, args.Error(1))
}

func (m *MockRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(keys)
	return redis.NewIntResult(int64(args.Int(0)), args.Error(1))
}

func (m *MockRedis) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	args := m.Called(key, values)
	return redis.NewIntResult(int64(args.Int(0)), args.Error(1))
}

func (m *MockRedis) HExists(ctx context.Context, key, field string) *redis.BoolCmd {
	args := m.Called(key, field)
	return redis.NewBoolResult(args.Bool(0), args.Error(1))
}

func (m *MockRedis) HKeys(ctx context.Context, key string) *redis.StringSliceCmd {
	args := m.Called(key)
	keys, _ := args.Get(0).([]string)
	return redis.NewStringSliceResult(keys, args.Error(1))
}

func (m *MockRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	args := m.Called(key, expiration)
	return redis.NewBoolResult(args.Bool(0), args.Error(1))
}

func (m *MockRedis) Ping(ctx context.Context) *redis.StatusCmd {
	args := m.Called()
	return redis.NewStatusResult(args.String(0), args.Error(1))
}
