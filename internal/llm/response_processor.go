package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// ExtractCode strips a single Markdown code fence wrapping the whole
// response, including its info string. Responses that are not entirely
// fenced come back trimmed but otherwise untouched.
func ExtractCode(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return raw
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[len(lines)-1]) != "```" {
		return raw
	}
	body := lines[1 : len(lines)-1]
	for _, l := range body {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			// more than one fenced block
			return raw
		}
	}
	return strings.Join(body, "\n") + "\n"
}

// DecodeJSON extracts the JSON document embedded in raw, repairs it when it
// is malformed and decodes it into target.
func DecodeJSON(raw string, target any) (RepairStats, error) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return RepairStats{}, fmt.Errorf("no JSON found in response")
	}

	repaired, stats, err := RepairJSON(jsonStr)
	if err != nil {
		log.Debug().Err(err).Str("json", truncateForLog(jsonStr, 500)).Msg("JSON repair failed")
		return stats, err
	}
	if stats.WasRepaired {
		log.Debug().
			Strs("strategies", stats.Strategies).
			Int("original_bytes", stats.OriginalBytes).
			Int("repaired_bytes", stats.RepairedBytes).
			Msg("JSON repair applied")
	}

	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return stats, fmt.Errorf("JSON parsing failed after repair: %w", err)
	}
	return stats, nil
}

// extractJSON extracts JSON content from mixed text/JSON responses
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		return raw
	}

	if strings.Contains(raw, "```") {
		var jsonLines []string
		inCodeBlock := false
		for _, line := range strings.Split(raw, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				inCodeBlock = !inCodeBlock
				continue
			}
			if inCodeBlock {
				jsonLines = append(jsonLines, line)
			}
		}
		if len(jsonLines) > 0 {
			return strings.Join(jsonLines, "\n")
		}
	}

	startIdx := strings.IndexAny(raw, "{[")
	if startIdx == -1 {
		return ""
	}

	openChar := raw[startIdx]
	closeChar := byte('}')
	if openChar == '[' {
		closeChar = ']'
	}

	count := 0
	for i := startIdx; i < len(raw); i++ {
		switch raw[i] {
		case openChar:
			count++
		case closeChar:
			count--
			if count == 0 {
				return raw[startIdx : i+1]
			}
		}
	}

	return raw[startIdx:]
}

// truncateForLog truncates text for logging purposes
func truncateForLog(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
