package closet

import (
	"regexp"
	"strings"
)

// 모델 출력은 형태가 들쭉날쭉해서 저장 전에 항상 정규화한다.

const (
	maxAesthetics  = 6
	maxPalette     = 5
	maxSuggestions = 5
)

var hexColorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// normalizeAnalysis - 분석 결과 정규화 (개수 제한, 색상 형식 검증)
func normalizeAnalysis(analysis *Analysis) {
	analysis.Description = strings.TrimSpace(analysis.Description)

	analysis.Aesthetics = cleanList(analysis.Aesthetics, maxAesthetics)
	if len(analysis.Aesthetics) == 0 {
		analysis.Aesthetics = []string{"minimal"}
	}

	palette := make([]string, 0, maxPalette)
	for _, color := range analysis.Palette {
		color = strings.TrimSpace(color)
		if hexColorPattern.MatchString(color) {
			palette = append(palette, strings.ToUpper(color))
		}
		if len(palette) == maxPalette {
			break
		}
	}
	analysis.Palette = palette

	analysis.Suggestions = cleanList(analysis.Suggestions, maxSuggestions)
}

func cleanList(values []string, limit int) []string {
	cleaned := make([]string, 0, limit)
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
		if len(cleaned) == limit {
			break
		}
	}
	return cleaned
}
