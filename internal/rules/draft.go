package rules

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/solatis/tpaconsole/internal/types"
)

// DecodeDraft parses a JSON rule draft, enforces the factor entry limit and
// fills omitted enum fields with form defaults. Errors wrap ErrInvalidBody,
// ErrInvalidFactors or ErrTooManyFactors.
func DecodeDraft(data []byte) (*types.RuleDraft, error) {
	draft := types.NewRuleDraft()
	if err := json.Unmarshal(data, draft); err != nil {
		if errors.Is(err, types.ErrInvalidFactors) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidBody, err)
	}
	if len(draft.Factors) > types.MaxFactorEntries {
		return nil, fmt.Errorf("%w: %d entries, limit %d", types.ErrTooManyFactors, len(draft.Factors), types.MaxFactorEntries)
	}
	draft.ApplyDefaults()
	return draft, nil
}
