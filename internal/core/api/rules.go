package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/solatis/tpaconsole/internal/core/auth"
	"github.com/solatis/tpaconsole/internal/core/db"
	"github.com/solatis/tpaconsole/internal/core/upstream"
	"github.com/solatis/tpaconsole/internal/rules"
	"github.com/solatis/tpaconsole/internal/types"
)

// decodeDraft reads a bounded rule draft body.
func decodeDraft(c echo.Context) (*types.RuleDraft, error) {
	data, err := readBody(c)
	if err != nil {
		return nil, err
	}
	return rules.DecodeDraft(data)
}

// compileRule compiles a draft without any I/O.
func (s *Service) compileRule(c echo.Context) error {
	draft, err := decodeDraft(c)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", s.compiler.Run(draft))
}

type submitResponse struct {
	SubmissionID types.SubmissionID        `json:"submissionId"`
	Payload      rules.CompiledRulePayload `json:"payload"`
	Summary      rules.Summary             `json:"summary"`
	Upstream     any                       `json:"upstream"`
}

// submitRule compiles a draft, posts it to the backend and journals the outcome.
// Drafts with validation issues are rejected before any I/O.
func (s *Service) submitRule(c echo.Context) error {
	draft, err := decodeDraft(c)
	if err != nil {
		return err
	}

	result := s.compiler.Run(draft)
	if len(result.Issues) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, Response{
			Status:  statusError,
			Message: "rule draft has validation issues",
			Data:    result,
		})
	}

	ctx := c.Request().Context()
	payload, err := json.Marshal(result.Payload)
	if err != nil {
		return fmt.Errorf("encode compiled rule: %w", err)
	}

	start := time.Now()
	resp, submitErr := s.upstream.Post(ctx, upstream.PathCombinationRules, result.Payload)
	s.metrics.ObserveUpstream("submit_rule", time.Since(start))

	sub := &db.Submission{
		ClientID:   auth.ClientIDFromContext(ctx),
		RuleName:   result.Payload.Name,
		Scope:      string(result.Payload.Scope),
		RuleStatus: string(result.Payload.Status),
		Payload:    string(payload),
		Outcome:    db.OutcomeAccepted,
	}
	if submitErr != nil {
		msg := submitErr.Error()
		sub.ErrorMessage = &msg
		sub.Outcome = db.OutcomeFailed
		if se, ok := upstream.AsStatusError(submitErr); ok {
			sub.Outcome = db.OutcomeRejected
			sub.UpstreamStatus = se.Status
		}
	}

	// The backend already has the rule; a journal failure must not hide that.
	if err := s.journal.Record(ctx, sub); err != nil {
		s.logger.Error().Err(err).
			Str("request_id", requestID(c)).
			Str("rule_name", sub.RuleName).
			Msg("failed to journal rule submission")
	}

	s.metrics.Submission(string(sub.Outcome))

	logEvt := s.logger.Info()
	if submitErr != nil {
		logEvt = s.logger.Warn().Err(submitErr)
	}
	logEvt.
		Str("submission_id", string(sub.ID)).
		Str("request_id", requestID(c)).
		Str("outcome", string(sub.Outcome)).
		Str("path", upstream.PathCombinationRules).
		Msg("rule submitted")

	if submitErr != nil {
		return submitErr
	}

	return respond(c, http.StatusCreated, "rule submitted", submitResponse{
		SubmissionID: sub.ID,
		Payload:      result.Payload,
		Summary:      result.Summary,
		Upstream:     resp,
	})
}

// submissionView renders a journal row with its payload as embedded JSON.
type submissionView struct {
	ID             types.SubmissionID `json:"id"`
	ClientID       string             `json:"clientId"`
	RuleName       string             `json:"ruleName"`
	Scope          string             `json:"scope"`
	RuleStatus     string             `json:"ruleStatus"`
	Payload        json.RawMessage    `json:"payload"`
	Outcome        db.Outcome         `json:"outcome"`
	UpstreamStatus int                `json:"upstreamStatus"`
	Error          *string            `json:"error"`
	CreatedAt      string             `json:"createdAt"`
}

func viewSubmission(s db.Submission) submissionView {
	payload := json.RawMessage(s.Payload)
	if !json.Valid(payload) {
		payload = json.RawMessage("null")
	}
	return submissionView{
		ID:             s.ID,
		ClientID:       s.ClientID,
		RuleName:       s.RuleName,
		Scope:          s.Scope,
		RuleStatus:     s.RuleStatus,
		Payload:        payload,
		Outcome:        s.Outcome,
		UpstreamStatus: s.UpstreamStatus,
		Error:          s.ErrorMessage,
		CreatedAt:      s.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
}

// listSubmissions supports ?outcome=accepted|rejected|failed and ?limit=N.
func (s *Service) listSubmissions(c echo.Context) error {
	outcome := db.Outcome(c.QueryParam("outcome"))
	switch outcome {
	case "", db.OutcomeAccepted, db.OutcomeRejected, db.OutcomeFailed:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown outcome %q", outcome))
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	subs, err := s.journal.List(c.Request().Context(), outcome, limit)
	if err != nil {
		return err
	}
	views := make([]submissionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, viewSubmission(sub))
	}
	return respond(c, http.StatusOK, "", views)
}

func (s *Service) getSubmission(c echo.Context) error {
	id, err := types.ParseSubmissionID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid submission id")
	}
	sub, err := s.journal.Get(c.Request().Context(), id)
	if errors.Is(err, types.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "submission not found")
	}
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", viewSubmission(*sub))
}
