package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/solatis/tpaconsole/internal/core/upstream"
	"github.com/solatis/tpaconsole/internal/evaluation"
)

// evaluateDecision forwards a normalized decision request and normalizes the answer.
func (s *Service) evaluateDecision(c echo.Context) error {
	body, err := decodeObject(c)
	if err != nil {
		return err
	}
	req := evaluation.NormalizeDecisionRequest(body)

	start := time.Now()
	resp, err := s.upstream.Post(c.Request().Context(), upstream.PathDecision, req)
	s.metrics.ObserveUpstream("evaluate_decision", time.Since(start))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", evaluation.NormalizeDecision(resp))
}

func (s *Service) evaluateDrugRules(c echo.Context) error {
	body, err := decodeObject(c)
	if err != nil {
		return err
	}
	req := evaluation.NormalizeDrugRuleEvaluationRequest(body)

	start := time.Now()
	resp, err := s.upstream.Post(c.Request().Context(), upstream.PathDrugRuleEvaluation, req)
	s.metrics.ObserveUpstream("evaluate_drug_rules", time.Since(start))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", evaluation.NormalizeDrugRuleEvaluation(resp))
}
