package vision

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"

	"outfitly-server/modules/common/config"
)

// Image - 완성 요청에 첨부되는 이미지
type Image struct {
	Data     []byte
	MIMEType string
}

// Completer - 비전 완성 서비스 인터페이스
// 아이템 분석(closet)과 아웃핏 선택(selector)이 같은 계약을 공유한다.
type Completer interface {
	Complete(ctx context.Context, systemInstruction, userText string, images []Image) (string, error)
}

// UpstreamError - 비전 API의 non-2xx 응답
// 자동 재시도하지 않고 호출자에게 진단 정보를 그대로 전달한다 (429 제외).
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("vision upstream error: status %d: %s", e.Status, e.Body)
}

type Client struct {
	apiKeys   []string
	modelName string
}

// NewClient - Gemini 기반 Completer 생성
func NewClient() *Client {
	cfg := config.GetConfig()

	log.Printf("✅ [Vision] Client initialized (model: %s, keys: %d)", cfg.GeminiModel, len(cfg.GeminiAPIKeys))
	return &Client{
		apiKeys:   cfg.GeminiAPIKeys,
		modelName: cfg.GeminiModel,
	}
}

const maxRetriesPerKey = 3

// Complete - 완성 요청 1회 실행
// 429 에러 시 여러 API 키로 순차 재시도. 그 외 에러는 즉시 반환.
func (c *Client) Complete(ctx context.Context, systemInstruction, userText string, images []Image) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(userText)}
	for _, img := range images {
		mime := img.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(img.Data, mime))
	}

	contents := []*genai.Content{{Parts: parts}}
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       floatPtr(0.3),
	}

	var lastErr error

	// 각 API 키로 시도
	for keyIndex, apiKey := range c.apiKeys {
		for attempt := 1; attempt <= maxRetriesPerKey; attempt++ {
			if attempt > 1 {
				log.Printf("   🔄 [Vision] Retry attempt %d/%d for key #%d", attempt, maxRetriesPerKey, keyIndex+1)
			}

			client, err := genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  apiKey,
				Backend: genai.BackendGeminiAPI,
			})
			if err != nil {
				log.Printf("⚠️  [Vision] Failed to create client with key #%d: %v", keyIndex+1, err)
				lastErr = err
				continue
			}

			result, err := client.Models.GenerateContent(ctx, c.modelName, contents, genConfig)
			if err == nil {
				text := collectText(result)
				if text == "" {
					return "", fmt.Errorf("no text in vision response")
				}
				return text, nil
			}

			lastErr = err

			// 429가 아닌 다른 에러면 바로 반환 (재시도 안 함)
			if !is429Error(err) {
				log.Printf("❌ [Vision] Key #%d failed with non-429 error: %v", keyIndex+1, err)
				return "", asUpstreamError(err)
			}

			log.Printf("⚠️  [Vision] Key #%d hit rate limit (429) on attempt %d/%d", keyIndex+1, attempt, maxRetriesPerKey)
			if attempt < maxRetriesPerKey {
				time.Sleep(2 * time.Second)
			}
		}

		log.Printf("⚠️  [Vision] Key #%d exhausted all %d attempts, trying next key...", keyIndex+1, maxRetriesPerKey)
	}

	return "", fmt.Errorf("all %d API keys exhausted: %w", len(c.apiKeys), asUpstreamError(lastErr))
}

// collectText - 응답 candidate들에서 텍스트 파트를 모음
func collectText(result *genai.GenerateContentResponse) string {
	if result == nil {
		return ""
	}

	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// asUpstreamError - genai API 에러를 상태코드/본문을 보존한 채 변환
func asUpstreamError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Status: apiErr.Code, Body: apiErr.Message}
	}
	return err
}

// is429Error - 429 Rate Limit 에러인지 확인
func is429Error(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "quota")
}

func floatPtr(f float64) *float32 {
	f32 := float32(f)
	return &f32
}
