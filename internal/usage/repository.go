package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/config"
)

// 조회 가능한 최대 일수
const maxDays = 365

const (
	defaultRecentDays = 7
	defaultTotalDays  = 30
)

var errRepositoryClosed = errors.New("usage repository closed")

// Repository 는 PostgreSQL 의 oracle_token_usage 테이블을 다룬다.
// 연결은 첫 사용 시점에 연다.
type Repository struct {
	db     config.DatabaseConfig
	logger *slog.Logger

	mu     sync.Mutex
	conn   *gorm.DB
	closed bool
}

// NewRepository 는 usage 저장소를 생성한다.
func NewRepository(cfg *config.Config, logger *slog.Logger) *Repository {
	repo := &Repository{logger: logger}
	if cfg != nil {
		repo.db = cfg.Database
	}
	return repo
}

// RecordUsage 는 (일자, 모델) 행에 delta 를 더한다. usageDate 가 zero 면 오늘이다.
func (r *Repository) RecordUsage(ctx context.Context, usageDate time.Time, model string, delta Delta) error {
	if delta.empty() {
		return nil
	}
	conn, err := r.connection(ctx)
	if err != nil {
		return err
	}
	if usageDate.IsZero() {
		usageDate = todayDate()
	}

	row := TokenUsage{
		UsageDate:       usageDate,
		Model:           model,
		InputTokens:     delta.InputTokens,
		OutputTokens:    delta.OutputTokens,
		ReasoningTokens: delta.ReasoningTokens,
		RequestCount:    delta.RequestCount,
	}
	accumulate := func(column string) clause.Expr {
		return gorm.Expr(fmt.Sprintf("%[1]s.%[2]s + EXCLUDED.%[2]s", row.TableName(), column))
	}

	err = conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "usage_date"}, {Name: "model"}},
		DoUpdates: clause.Assignments(map[string]any{
			"input_tokens":     accumulate("input_tokens"),
			"output_tokens":    accumulate("output_tokens"),
			"reasoning_tokens": accumulate("reasoning_tokens"),
			"request_count":    accumulate("request_count"),
			"version":          gorm.Expr(row.TableName() + ".version + 1"),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert usage row: %w", err)
	}
	return nil
}

// GetRecentUsage 는 최근 N일의 일자/모델별 사용량을 최신순으로 조회한다.
func (r *Repository) GetRecentUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	conn, err := r.connection(ctx)
	if err != nil {
		return nil, err
	}

	var rows []TokenUsage
	err = conn.WithContext(ctx).
		Where("usage_date >= ?", windowStart(todayDate(), clampDays(days, defaultRecentDays))).
		Order("usage_date desc").
		Order("model asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query recent usage: %w", err)
	}

	usages := make([]DailyUsage, len(rows))
	for i, row := range rows {
		usages[i] = fromRow(row)
	}
	return usages, nil
}

// GetTotalUsage 는 최근 N일의 전 모델 합계를 조회한다.
func (r *Repository) GetTotalUsage(ctx context.Context, days int) (DailyUsage, error) {
	conn, err := r.connection(ctx)
	if err != nil {
		return DailyUsage{}, err
	}
	today := todayDate()

	var sum struct {
		InputTokens     int64
		OutputTokens    int64
		ReasoningTokens int64
		RequestCount    int64
	}
	err = conn.WithContext(ctx).
		Model(&TokenUsage{}).
		Select(
			"COALESCE(SUM(input_tokens), 0) AS input_tokens",
			"COALESCE(SUM(output_tokens), 0) AS output_tokens",
			"COALESCE(SUM(reasoning_tokens), 0) AS reasoning_tokens",
			"COALESCE(SUM(request_count), 0) AS request_count",
		).
		Where("usage_date >= ?", windowStart(today, clampDays(days, defaultTotalDays))).
		Scan(&sum).Error
	if err != nil {
		return DailyUsage{}, fmt.Errorf("query total usage: %w", err)
	}

	return DailyUsage{
		UsageDate:       today,
		InputTokens:     sum.InputTokens,
		OutputTokens:    sum.OutputTokens,
		ReasoningTokens: sum.ReasoningTokens,
		RequestCount:    sum.RequestCount,
	}, nil
}

// Ping 은 DB 연결 상태를 확인한다.
func (r *Repository) Ping(ctx context.Context) error {
	conn, err := r.connection(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("usage db handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping usage db: %w", err)
	}
	return nil
}

// Close 는 DB 연결을 닫는다. 이후 호출은 errRepositoryClosed 를 반환한다.
func (r *Repository) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.conn == nil {
		return
	}
	if sqlDB, err := r.conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	r.conn = nil
}

func (r *Repository) connection(ctx context.Context) (*gorm.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errRepositoryClosed
	}
	if r.conn != nil {
		return r.conn, nil
	}
	if r.db.Host == "" {
		return nil, errors.New("usage database host is not configured")
	}

	conn, err := gorm.Open(postgres.Open(r.db.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}
	if err := conn.WithContext(ctx).AutoMigrate(&TokenUsage{}); err != nil {
		return nil, fmt.Errorf("migrate usage db: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("usage db handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(r.db.MinPool)
	sqlDB.SetMaxOpenConns(r.db.MaxPool)
	sqlDB.SetConnMaxLifetime(time.Duration(r.db.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(r.db.ConnMaxIdleTimeMinutes) * time.Minute)

	if r.logger != nil {
		r.logger.Info("usage_db_connected", "host", r.db.Host, "name", r.db.Name)
	}
	r.conn = conn
	return conn, nil
}

// clampDays 는 조회 일수를 [1, maxDays] 로 맞춘다. 0 이하는 fallback 이다.
func clampDays(days int, fallback int) int {
	if days <= 0 {
		return fallback
	}
	return min(days, maxDays)
}

// windowStart 는 today 를 포함한 최근 days 일 구간의 첫 날이다.
func windowStart(today time.Time, days int) time.Time {
	return today.AddDate(0, 0, 1-days)
}

func todayDate() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
