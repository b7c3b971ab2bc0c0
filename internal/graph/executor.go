// Package graph runs queries against the financial knowledge graph.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"go.uber.org/zap"

	"github.com/capitalize-ai/finwise-assistant/pkg/logger"
	"github.com/capitalize-ai/finwise-assistant/pkg/metrics"
)

// Record is one result row keyed by returned field name.
type Record map[string]any

// Executor runs read queries. It never fails: on error it logs and returns
// no records, and callers treat an empty result as "no data".
type Executor interface {
	Execute(ctx context.Context, query string, params map[string]any) []Record
}

// Querier is an Executor that also reports why a query failed.
type Querier interface {
	Executor
	Query(ctx context.Context, query string, params map[string]any) ([]Record, error)
}

// Config holds Neo4j connection settings.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Stats counts the main node kinds of the graph.
type Stats struct {
	Companies    int64 `json:"companies"`
	Metrics      int64 `json:"metrics"`
	MetricValues int64 `json:"metric_values"`
	Reports      int64 `json:"reports"`
}

type runFunc func(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error)

// Neo4jExecutor executes queries with read routing on a Neo4j cluster.
type Neo4jExecutor struct {
	driver neo4j.DriverWithContext
	run    runFunc
	logger *logger.Logger
}

// NewNeo4jExecutor creates an executor. The connection is established lazily;
// call VerifyConnectivity to check it.
func NewNeo4jExecutor(cfg Config, log *logger.Logger) (*Neo4jExecutor, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	e := &Neo4jExecutor{
		driver: driver,
		logger: log.Named("graph"),
	}
	e.run = func(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
		res, err := neo4j.ExecuteQuery(ctx, driver, query, params,
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(cfg.Database),
			neo4j.ExecuteQueryWithReadersRouting(),
		)
		if err != nil {
			return nil, err
		}
		return res.Records, nil
	}
	return e, nil
}

// Execute runs query with params and returns its records. A failed query
// yields an empty result.
func (e *Neo4jExecutor) Execute(ctx context.Context, query string, params map[string]any) []Record {
	records, err := e.Query(ctx, query, params)
	if err != nil {
		return []Record{}
	}
	return records
}

// Query runs query with params and returns its records or the driver error.
func (e *Neo4jExecutor) Query(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	start := time.Now()
	rows, err := e.run(ctx, query, params)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordGraphQuery("error", elapsed)
		e.logger.Error("graph query failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to run graph query: %w", err)
	}
	metrics.RecordGraphQuery("success", elapsed)

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := make(Record, len(row.Keys))
		for i, key := range row.Keys {
			rec[key] = normalize(row.Values[i])
		}
		records = append(records, rec)
	}
	e.logger.Debug("graph query",
		zap.String("query", query),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// Stats counts companies, metrics, metric values and reports.
func (e *Neo4jExecutor) Stats(ctx context.Context) (Stats, error) {
	const q = `MATCH (c:Company) WITH count(c) AS companies
MATCH (m:Metric) WITH companies, count(m) AS metrics
MATCH (mv:MetricValue) WITH companies, metrics, count(mv) AS metricValues
OPTIONAL MATCH (r:Report)
RETURN companies, metrics, metricValues, count(r) AS reports`

	rows, err := e.run(ctx, q, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("reading graph stats: %w", err)
	}
	if len(rows) == 0 {
		return Stats{}, nil
	}
	m := rows[0].AsMap()
	return Stats{
		Companies:    asInt(m["companies"]),
		Metrics:      asInt(m["metrics"]),
		MetricValues: asInt(m["metricValues"]),
		Reports:      asInt(m["reports"]),
	}, nil
}

// IsEmpty reports whether the graph holds no nodes. An unreachable graph
// counts as empty.
func (e *Neo4jExecutor) IsEmpty(ctx context.Context) bool {
	records := e.Execute(ctx, "MATCH (n) RETURN count(n) AS count", nil)
	if len(records) == 0 {
		return true
	}
	return asInt(records[0]["count"]) == 0
}

// VerifyConnectivity checks that the database is reachable.
func (e *Neo4jExecutor) VerifyConnectivity(ctx context.Context) error {
	return e.driver.VerifyConnectivity(ctx)
}

// Close releases the driver.
func (e *Neo4jExecutor) Close(ctx context.Context) error {
	if e.driver == nil {
		return nil
	}
	return e.driver.Close(ctx)
}

// EncodeRecords serializes records as the text kept in conversation context.
func EncodeRecords(records []Record) string {
	if len(records) == 0 {
		return "[]"
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Sprintf("%v", records)
	}
	return string(data)
}

// normalize converts driver values into JSON-friendly values.
func normalize(v any) any {
	switch t := v.(type) {
	case dbtype.Node:
		return normalizeMap(t.Props)
	case dbtype.Relationship:
		return normalizeMap(t.Props)
	case dbtype.Date:
		return t.Time().Format("2006-01-02")
	case time.Time:
		return t.Format(time.RFC3339)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalize(item)
		}
		return out
	case map[string]any:
		return normalizeMap(t)
	case fmt.Stringer:
		return t.String()
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
