package classification

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"leadcall_backend/internal/leads/domain"
)

const maxRationaleLength = 500

type rawResult struct {
	InterestLevel string `json:"interest_level"`
	InterestScore any    `json:"interest_score"`
	Rationale     string `json:"rationale"`
}

// parseResult decodes the model output. Out-of-range scores are clamped; an unrecognised
// level is an error so the caller falls back to the default result.
func parseResult(text string) (Result, error) {
	body := extractJSONObject(text)
	if body == "" {
		return Result{}, errors.New("no json object in response")
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return Result{}, fmt.Errorf("decode classification: %w", err)
	}

	score, err := parseScore(raw.InterestScore)
	if err != nil {
		return Result{}, err
	}

	level, ok := domain.ParseInterestLevel(raw.InterestLevel)
	if !ok {
		return Result{}, fmt.Errorf("interest_level %q out of enum", raw.InterestLevel)
	}

	rationale := strings.TrimSpace(raw.Rationale)
	if runes := []rune(rationale); len(runes) > maxRationaleLength {
		rationale = string(runes[:maxRationaleLength])
	}

	return Result{
		InterestLevel: level,
		InterestScore: clampScore(score),
		Rationale:     rationale,
	}, nil
}

func parseScore(value any) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid interest_score %q", v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("invalid interest_score type %T", value)
	}
}

func clampScore(score float64) int {
	if math.IsNaN(score) {
		return domain.MinInterestScore
	}
	rounded := math.Round(score)
	if rounded < domain.MinInterestScore {
		return domain.MinInterestScore
	}
	if rounded > domain.MaxInterestScore {
		return domain.MaxInterestScore
	}
	return int(rounded)
}

// extractJSONObject strips markdown code fences and any prose around the outermost object.
func extractJSONObject(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```JSON")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end < start {
		return ""
	}
	return trimmed[start : end+1]
}
