package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
)

// decodeJSON unmarshals raw model output into T after stripping code fences.
// Parse failures are schema violations: the model was asked for a fixed
// shape and did not produce it.
func decodeJSON[T any](raw string) (*T, error) {
	clean := sanitizeJSON(raw)
	var out T
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("decode JSON: %v: %w", err, docqaerrors.ErrSchemaViolation)
	}
	return &out, nil
}

func sanitizeJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = trimmed[3:]
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimPrefix(trimmed, "JSON")
		if idx := strings.Index(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
	}
	return strings.TrimSpace(trimmed)
}
