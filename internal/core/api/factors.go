package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/solatis/tpaconsole/internal/types"
)

type factorsResponse struct {
	Categories []types.FactorCategory `json:"categories"`
	Count      int                    `json:"count"`
	Duplicates []string               `json:"duplicates"`
}

// listFactors serves the categorized catalog in display order.
func (s *Service) listFactors(c echo.Context) error {
	duplicates := s.catalog.Duplicates()
	if duplicates == nil {
		duplicates = []string{}
	}
	return respond(c, http.StatusOK, "", factorsResponse{
		Categories: s.catalog.Categories(),
		Count:      s.catalog.Len(),
		Duplicates: duplicates,
	})
}

func (s *Service) getFactor(c echo.Context) error {
	key := c.Param("key")
	def, ok := s.catalog.Lookup(key)
	if !ok {
		return fmt.Errorf("factor %q: %w", key, types.ErrNotFound)
	}
	return respond(c, http.StatusOK, "", def)
}
