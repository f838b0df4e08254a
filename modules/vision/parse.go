package vision

import "strings"

// StripCodeFence - 모델 응답에서 마크다운 코드펜스 제거
// ```json ... ``` 또는 ``` ... ``` 형태 모두 처리
func StripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)

	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	cleaned = strings.TrimPrefix(cleaned, "```")
	// 언어 태그 제거 (json, JSON 등)
	if idx := strings.Index(cleaned, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(cleaned[:idx])
		if firstLine != "" && !strings.ContainsAny(firstLine, "{[") {
			cleaned = cleaned[idx+1:]
		}
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")

	return strings.TrimSpace(cleaned)
}
