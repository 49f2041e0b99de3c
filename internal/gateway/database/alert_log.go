package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/WeiHenSu/analyize-coin/internal/decision"
)

// AlertLogStore 追加式警报留存。只存警报本身，不存历史分析。
// 方法容忍 nil 接收者：未启用持久化时调用方不必到处判空。
type AlertLogStore struct {
	mu sync.Mutex
	db *sql.DB
}

func OpenAlertLog(path string) (*AlertLogStore, error) {
	if path == "" {
		return nil, fmt.Errorf("数据库路径不能为空")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("打开警报库失败: %w", err)
	}
	s := &AlertLogStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *AlertLogStore) migrate() error {
	const ddl = `CREATE TABLE IF NOT EXISTS alert_log (
		id         TEXT PRIMARY KEY,
		trace_id   TEXT NOT NULL DEFAULT '',
		symbol     TEXT NOT NULL DEFAULT '',
		message    TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`
	_, err := s.db.ExecContext(context.Background(), ddl)
	if err != nil {
		return fmt.Errorf("初始化警报表失败: %w", err)
	}
	return nil
}

// Insert 写入一条警报；主键冲突（重复 ID）静默忽略，与内存去重语义一致。
func (s *AlertLogStore) Insert(ctx context.Context, alert decision.Alert, traceID, symbol string) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO alert_log (id, trace_id, symbol, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		alert.ID, traceID, symbol, alert.Message, alert.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("写入警报失败: %w", err)
	}
	return nil
}

// Recent 按时间倒序取最近 limit 条。
func (s *AlertLogStore) Recent(ctx context.Context, limit int) ([]decision.Alert, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message, created_at FROM alert_log ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询警报失败: %w", err)
	}
	defer rows.Close()
	out := make([]decision.Alert, 0, limit)
	for rows.Next() {
		var a decision.Alert
		var ts int64
		if err := rows.Scan(&a.ID, &a.Message, &ts); err != nil {
			return nil, err
		}
		a.Timestamp = time.UnixMilli(ts)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *AlertLogStore) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
