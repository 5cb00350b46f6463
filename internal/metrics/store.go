// Package metrics records external call usage and exposes Prometheus
// collectors for the HTTP server and the video queue.
package metrics

import (
	"context"
	"fmt"
	"time"

	"recipe-planner/internal/database"
	"recipe-planner/internal/llm"
)

// ExecutionMetric records metadata for a single external call: an LLM
// request or a quota-counted API request.
type ExecutionMetric struct {
	AgentName        string
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMS        int64
	QuotaPoints      float64
	Timestamp        time.Time
}

// Store persists metrics to the execution_metrics table.
type Store struct {
	db         *database.DB
	collectors *Collectors
}

// NewStore returns a Store. collectors may be nil.
func NewStore(db *database.DB, collectors *Collectors) *Store {
	return &Store{db: db, collectors: collectors}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m ExecutionMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO execution_metrics (agent_name, model, prompt_tokens, completion_tokens, latency_ms, quota_points, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.AgentName, m.Model, m.PromptTokens, m.CompletionTokens, m.LatencyMS, m.QuotaPoints, ts)
	if err != nil {
		return fmt.Errorf("insert execution metric: %w", err)
	}
	return nil
}

// RecordMeta records an LLM call. Calls that report no tokens are counted
// but not stored.
func (s *Store) RecordMeta(ctx context.Context, meta llm.AgentMeta) error {
	s.collectors.externalCall(meta.AgentName, meta.Latency)
	if meta.Usage.PromptTokens == 0 && meta.Usage.CompletionTokens == 0 {
		return nil
	}
	return s.Record(ctx, MapUsage(meta.AgentName, meta.Usage, meta.Latency))
}

// RecordQuota records a quota-counted call to an external API.
func (s *Store) RecordQuota(ctx context.Context, service string, points float64, latency time.Duration) error {
	s.collectors.externalCall(service, latency)
	return s.Record(ctx, ExecutionMetric{
		AgentName:   service,
		LatencyMS:   latency.Milliseconds(),
		QuotaPoints: points,
	})
}

// DailyUsage holds the totals of one day.
type DailyUsage struct {
	Date            string  `json:"date"`
	TotalPrompt     int     `json:"total_prompt_tokens"`
	TotalCompletion int     `json:"total_completion_tokens"`
	TotalExecution  int     `json:"total_executions"`
	QuotaPoints     float64 `json:"quota_points"`
}

// DailyUsage returns per-day totals for the last days days, newest first.
func (s *Store) DailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	return database.QueryMany(ctx, s.db, `
		SELECT CAST(DATE(timestamp) AS TEXT) AS day,
			COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0),
			COUNT(*), COALESCE(SUM(quota_points), 0)
		FROM execution_metrics
		WHERE timestamp >= ?
		GROUP BY day
		ORDER BY day DESC`,
		[]any{since},
		func(sc database.Scanner) (DailyUsage, error) {
			var u DailyUsage
			err := sc.Scan(&u.Date, &u.TotalPrompt, &u.TotalCompletion, &u.TotalExecution, &u.QuotaPoints)
			return u, err
		})
}

// Cleanup removes records older than olderThanDays days and returns how
// many were deleted.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	res, err := s.db.ExecContext(ctx, "DELETE FROM execution_metrics WHERE timestamp < ?", threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup execution metrics: %w", err)
	}
	return res.RowsAffected()
}

// MapUsage converts llm.TokenUsage to an ExecutionMetric.
func MapUsage(agentName string, usage llm.TokenUsage, latency time.Duration) ExecutionMetric {
	return ExecutionMetric{
		AgentName:        agentName,
		Model:            usage.Model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		LatencyMS:        latency.Milliseconds(),
		Timestamp:        time.Now().UTC(),
	}
}
