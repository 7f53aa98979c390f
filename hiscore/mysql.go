package hiscore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

const (
	createTableQuery = `CREATE TABLE IF NOT EXISTS hiscores (
	username  TEXT,
	timeTaken VARCHAR(20),
	entryId   INT,
	PRIMARY KEY (entryId)
)`
	insertQuery = "INSERT INTO hiscores (username, timeTaken, entryId) VALUES (?, ?, ?)"
	selectQuery = "SELECT username, timeTaken, entryId FROM hiscores ORDER BY entryId"
)

// MySQLConfig 数据库连接参数
type MySQLConfig struct {
	Addr     string
	User     string
	Password string
	Database string
}

// DSN 由 go-sql-driver 构造连接串
func (c MySQLConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = c.Addr
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.DBName = c.Database
	cfg.Timeout = 5 * time.Second
	return cfg.FormatDSN()
}

// SQLStore 基于 hiscores 表的存储
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore 包装已打开的连接池
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// OpenMySQL 打开连接池，不建立连接；只有 DSN 非法时返回错误。
// 数据库暂不可达由 Ping 报告，连接池之后会自动重连。
func OpenMySQL(c MySQLConfig) (*SQLStore, error) {
	db, err := sql.Open("mysql", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)
	return NewSQLStore(db), nil
}

// Ping 探活
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping mysql: %w", err)
	}
	return nil
}

// EnsureSchema 表不存在时创建
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableQuery); err != nil {
		return fmt.Errorf("create hiscores table: %w", err)
	}
	return nil
}

func (s *SQLStore) Insert(ctx context.Context, r Record) error {
	if _, err := s.db.ExecContext(ctx, insertQuery, r.Username, r.TimeTaken, r.ID); err != nil {
		return fmt.Errorf("insert hiscore %d: %w", r.ID, err)
	}
	return nil
}

func (s *SQLStore) All(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectQuery)
	if err != nil {
		return nil, fmt.Errorf("select hiscores: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		// 外部写入的行可能为 NULL，按空串处理
		var username, timeTaken sql.NullString
		var r Record
		if err := rows.Scan(&username, &timeTaken, &r.ID); err != nil {
			return nil, fmt.Errorf("scan hiscore: %w", err)
		}
		r.Username, r.TimeTaken = username.String, timeTaken.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hiscores: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
