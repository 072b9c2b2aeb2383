package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/solatis/tpaconsole/internal/core/upstream"
	"github.com/solatis/tpaconsole/internal/normalize"
)

// rulePath joins a backend collection path and an escaped id.
func rulePath(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}

// listPath forwards the drugPackId filter, if any.
func listPath(c echo.Context, collection string) string {
	if pack := c.QueryParam("drugPackId"); pack != "" {
		return collection + "?" + url.Values{"drugPackId": {pack}}.Encode()
	}
	return collection
}

func (s *Service) listDosageRules(c echo.Context) error {
	resp, err := s.upstream.Get(c.Request().Context(), listPath(c, upstream.PathDosageRules))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", normalize.NormalizeDosageRules(resp))
}

func (s *Service) getDosageRule(c echo.Context) error {
	resp, err := s.upstream.Get(c.Request().Context(), rulePath(upstream.PathDosageRules, c.Param("id")))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", normalize.NormalizeDosageRule(resp))
}

// dosagePayload normalizes a client body and builds the validated wire payload.
func dosagePayload(c echo.Context) (normalize.DosageRulePayload, error) {
	body, err := decodeObject(c)
	if err != nil {
		return normalize.DosageRulePayload{}, err
	}
	rule := normalize.NormalizeDosageRule(body)
	if err := normalize.ValidateConditions(rule.Conditions); err != nil {
		return normalize.DosageRulePayload{}, err
	}
	return normalize.BuildPayload(rule), nil
}

func (s *Service) createDosageRule(c echo.Context) error {
	payload, err := dosagePayload(c)
	if err != nil {
		return err
	}
	resp, err := s.upstream.Post(c.Request().Context(), upstream.PathDosageRules, payload)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "dosage rule created", normalize.NormalizeDosageRule(resp))
}

func (s *Service) updateDosageRule(c echo.Context) error {
	payload, err := dosagePayload(c)
	if err != nil {
		return err
	}
	resp, err := s.upstream.Put(c.Request().Context(), rulePath(upstream.PathDosageRules, c.Param("id")), payload)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "dosage rule updated", normalize.NormalizeDosageRule(resp))
}

func (s *Service) listDrugRules(c echo.Context) error {
	resp, err := s.upstream.Get(c.Request().Context(), listPath(c, upstream.PathDrugRules))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", normalize.NormalizeDrugRules(resp))
}

func (s *Service) getDrugRule(c echo.Context) error {
	resp, err := s.upstream.Get(c.Request().Context(), rulePath(upstream.PathDrugRules, c.Param("id")))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", normalize.NormalizeDrugRule(resp))
}

func drugRulePayload(c echo.Context) (normalize.DrugRulePayload, error) {
	body, err := decodeObject(c)
	if err != nil {
		return normalize.DrugRulePayload{}, err
	}
	rule := normalize.NormalizeDrugRule(body)
	if err := normalize.ValidateConditions(rule.Conditions); err != nil {
		return normalize.DrugRulePayload{}, err
	}
	return normalize.BuildDrugRulePayload(rule), nil
}

func (s *Service) createDrugRule(c echo.Context) error {
	payload, err := drugRulePayload(c)
	if err != nil {
		return err
	}
	resp, err := s.upstream.Post(c.Request().Context(), upstream.PathDrugRules, payload)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "drug rule created", normalize.NormalizeDrugRule(resp))
}

func (s *Service) updateDrugRule(c echo.Context) error {
	payload, err := drugRulePayload(c)
	if err != nil {
		return err
	}
	resp, err := s.upstream.Put(c.Request().Context(), rulePath(upstream.PathDrugRules, c.Param("id")), payload)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "drug rule updated", normalize.NormalizeDrugRule(resp))
}

// deactivateDosageRule flips a dosage rule inactive the same way
// deactivateDrugRule does.
func (s *Service) deactivateDosageRule(c echo.Context) error {
	ctx := c.Request().Context()
	path := rulePath(upstream.PathDosageRules, c.Param("id"))

	current, err := s.upstream.Get(ctx, path)
	if err != nil {
		return err
	}
	rule := normalize.NormalizeDosageRule(current)
	if !rule.IsActive {
		return respond(c, http.StatusOK, "dosage rule already inactive", rule)
	}

	rule.Deactivate()
	resp, err := s.upstream.Put(ctx, path, normalize.BuildPayload(rule))
	if err != nil {
		return fmt.Errorf("deactivate dosage rule %s: %w", c.Param("id"), err)
	}
	updated := normalize.NormalizeDosageRule(resp)
	if resp == nil {
		updated = rule
	}
	return respond(c, http.StatusOK, "dosage rule deactivated", updated)
}

// deactivateDrugRule reads the current rule, flips it inactive and writes it back.
// Deactivating an inactive rule is a no-op that still answers with the rule.
func (s *Service) deactivateDrugRule(c echo.Context) error {
	ctx := c.Request().Context()
	path := rulePath(upstream.PathDrugRules, c.Param("id"))

	current, err := s.upstream.Get(ctx, path)
	if err != nil {
		return err
	}
	rule := normalize.NormalizeDrugRule(current)
	if !rule.IsActive {
		return respond(c, http.StatusOK, "drug rule already inactive", rule)
	}

	rule.Deactivate()
	resp, err := s.upstream.Put(ctx, path, normalize.BuildDrugRulePayload(rule))
	if err != nil {
		return fmt.Errorf("deactivate drug rule %s: %w", c.Param("id"), err)
	}
	updated := normalize.NormalizeDrugRule(resp)
	if resp == nil {
		updated = rule
	}
	return respond(c, http.StatusOK, "drug rule deactivated", updated)
}
