package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/formabot/backend/internal/infrastructure/log"
	_ "modernc.org/sqlite"
)

// schemaSQL 对话与消息表结构
// messages 通过外键级联删除，created_at 为毫秒时间戳
const schemaSQL = `
CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
	content TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation_created ON messages(conversation_id, created_at);
CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at);`

// OpenDB 打开数据库连接
// 外键约束按连接生效，因此通过 DSN 的 _pragma 参数为每个连接开启
func OpenDB(dbPath string) (*sql.DB, error) {
	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 单连接串行化写事务，避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// InitSchema 初始化表结构
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create conversation schema: %w", err)
	}
	return nil
}

// ProvideDB 打开并初始化数据库，返回关闭函数
func ProvideDB(cfg *config.DatabaseConfig) (*sql.DB, func(), error) {
	logger := log.NewModuleLogger("storage", "db")
	dbPath := cfg.DatabasePath()

	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	logger.Info("Database opened", "path", dbPath)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close database", "error", err)
		}
	}
	return db, cleanup, nil
}
