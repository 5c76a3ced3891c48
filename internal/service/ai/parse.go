package ai

import (
	"fmt"
	"strings"

	"haytruco/internal/service/game"
	appErr "haytruco/pkg/errors"

	"github.com/tidwall/gjson"
)

// ParseAction extracts a structured action from a raw backend reply. Models
// wrap JSON in prose or code fences, so the first {...} block is taken; a
// common confusion is answering with "respuesta" instead of "accion", which
// is treated as a synonym.
func ParseAction(raw string) (game.Action, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return game.Action{}, fmt.Errorf("%w: no JSON object in %q", appErr.ErrNoActionFound, truncate(raw, 80))
	}
	blob := raw[start : end+1]
	if !gjson.Valid(blob) {
		return game.Action{}, fmt.Errorf("%w: malformed JSON", appErr.ErrNoActionFound)
	}

	accion := gjson.Get(blob, "accion")
	if !accion.Exists() {
		accion = gjson.Get(blob, "respuesta")
	}
	if !accion.Exists() || accion.String() == "" {
		return game.Action{}, fmt.Errorf("%w: missing accion field", appErr.ErrNoActionFound)
	}

	return game.Action{
		Type:    game.ActionType(accion.String()),
		Value:   gjson.Get(blob, "valor").String(),
		Reason:  gjson.Get(blob, "razon").String(),
		Thought: gjson.Get(blob, "pensamiento").String(),
		Phrase:  gjson.Get(blob, "frase").String(),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
