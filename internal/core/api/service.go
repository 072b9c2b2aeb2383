// Package api provides the console's HTTP handlers: factor catalog, rule
// compilation and submission, dosage and drug rule round-trips, evaluation
// proxies and the verbatim CRUD proxy.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/solatis/tpaconsole/internal/core/db"
	"github.com/solatis/tpaconsole/internal/core/metrics"
	"github.com/solatis/tpaconsole/internal/factors"
	"github.com/solatis/tpaconsole/internal/rules"
	"github.com/solatis/tpaconsole/internal/types"
)

// Upstream is the backend client the handlers call.
// Implemented by *upstream.Client.
type Upstream interface {
	Get(ctx context.Context, path string) (any, error)
	Post(ctx context.Context, path string, body any) (any, error)
	Put(ctx context.Context, path string, body any) (any, error)
}

// Journal records rule submissions. Implemented by *db.Journal.
type Journal interface {
	Record(ctx context.Context, s *db.Submission) error
	Get(ctx context.Context, id types.SubmissionID) (*db.Submission, error)
	List(ctx context.Context, outcome db.Outcome, limit int) ([]db.Submission, error)
}

// Service wires the pure rule core to the backend and the journal.
// Thin orchestration layer; all shape logic lives in rules, normalize and evaluation.
type Service struct {
	catalog  *factors.Catalog
	compiler *rules.Compiler
	upstream Upstream
	journal  Journal
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewService creates a service instance with dependencies.
func NewService(catalog *factors.Catalog, compiler *rules.Compiler, up Upstream, journal Journal, logger zerolog.Logger) (*Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	if compiler == nil {
		return nil, fmt.Errorf("compiler cannot be nil")
	}
	if up == nil {
		return nil, fmt.Errorf("upstream cannot be nil")
	}
	if journal == nil {
		return nil, fmt.Errorf("journal cannot be nil")
	}
	return &Service{
		catalog:  catalog,
		compiler: compiler,
		upstream: up,
		journal:  journal,
		logger:   logger,
	}, nil
}

// SetMetrics enables submission and backend latency metrics.
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Register mounts the typed endpoints on g (the /api/v1 group).
func (s *Service) Register(g *echo.Group) {
	g.GET("/factors", s.listFactors)
	g.GET("/factors/:key", s.getFactor)

	g.POST("/rules/compile", s.compileRule)
	g.POST("/rules", s.submitRule)
	g.GET("/rules/submissions", s.listSubmissions)
	g.GET("/rules/submissions/:id", s.getSubmission)

	g.GET("/dosage-rules", s.listDosageRules)
	g.GET("/dosage-rules/:id", s.getDosageRule)
	g.POST("/dosage-rules", s.createDosageRule)
	g.PUT("/dosage-rules/:id", s.updateDosageRule)
	g.POST("/dosage-rules/:id/deactivate", s.deactivateDosageRule)

	g.GET("/drug-rules", s.listDrugRules)
	g.GET("/drug-rules/:id", s.getDrugRule)
	g.POST("/drug-rules", s.createDrugRule)
	g.PUT("/drug-rules/:id", s.updateDrugRule)
	g.POST("/drug-rules/:id/deactivate", s.deactivateDrugRule)

	g.POST("/evaluations/decision", s.evaluateDecision)
	g.POST("/evaluations/drug-rules", s.evaluateDrugRules)
}

// readBody reads a request body up to MaxRequestBodySize.
func readBody(c echo.Context) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, types.MaxRequestBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidBody, err)
	}
	if len(data) > types.MaxRequestBodySize {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", types.ErrInvalidBody, types.MaxRequestBodySize)
	}
	return data, nil
}

// decodeJSON reads a bounded JSON body into dest.
func decodeJSON(c echo.Context, dest any) error {
	data, err := readBody(c)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidBody, err)
	}
	return nil
}

// decodeObject reads a JSON body that must be an object.
func decodeObject(c echo.Context) (map[string]any, error) {
	var body any
	if err := decodeJSON(c, &body); err != nil {
		return nil, err
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object", types.ErrInvalidBody)
	}
	return obj, nil
}
