package composer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"outfitly-server/modules/common/config"
	"outfitly-server/modules/common/model"
)

// Client - 외부 합성 API 클라이언트
// 제출 → (즉시 결과 또는) 작업 ID 폴링 → 이미지 참조 추출까지 담당한다.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	conventions []Convention
	maxAttempts int
	interval    time.Duration
}

// NewClient - 환경설정 기반 합성 클라이언트 생성
func NewClient() *Client {
	cfg := config.GetConfig()

	log.Printf("✅ [Composer] Client initialized (url: %s, maxAttempts: %d)", cfg.ComposeAPIURL, cfg.ComposePollMaxAttempts)
	return &Client{
		baseURL:     strings.TrimRight(cfg.ComposeAPIURL, "/"),
		apiKey:      cfg.ComposeAPIKey,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		conventions: DefaultConventions(),
		maxAttempts: cfg.ComposePollMaxAttempts,
		interval:    time.Duration(cfg.ComposePollInterval) * time.Second,
	}
}

// Compose - 합성 작업 1건 실행
// 제출 응답에 결과가 바로 들어있으면 폴링 없이 끝낸다.
func (c *Client) Compose(ctx context.Context, role model.CompositionRole, req SubmitRequest) (*model.CompositionJob, error) {
	req.Role = string(role)
	submitBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal compose request: %w", err)
	}

	job := &model.CompositionJob{
		Role:   role,
		Status: model.JobSubmitted,
	}

	log.Printf("📤 [Composer] Submitting composition job (role: %s)", role)

	payload, status, err := c.submit(ctx, submitBody)
	if err != nil {
		job.Status = model.JobFailed
		return job, err
	}
	if status < 200 || status >= 300 {
		job.Status = model.JobFailed
		return job, &SubmissionRejected{Status: status, Body: compactBody(payload)}
	}

	parsed := map[string]interface{}{}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		job.Status = model.JobFailed
		return job, fmt.Errorf("failed to parse submit response: %w", err)
	}

	// 동기 API는 제출 응답에 결과가 바로 들어있다
	ref, extractErr := ExtractImageRef(parsed)
	if extractErr == nil {
		log.Printf("✅ [Composer] Inline result received, no polling needed")
		return c.finish(ctx, job, ref)
	}

	jobID, ok := readJobID(parsed)
	if !ok {
		job.Status = model.JobFailed
		return job, fmt.Errorf("submit response has no job id (%s): %w", compactBody(payload), extractErr)
	}
	job.ExternalJobID = jobID
	job.Status = model.JobPolling

	log.Printf("🔍 [Composer] Job %s accepted, polling (interval: %v)", jobID, c.interval)

	return c.pollUntilDone(ctx, job, submitBody)
}

// submit - 제출 엔드포인트 호출, 응답 본문과 상태코드 반환
func (c *Client) submit(ctx context.Context, body []byte) ([]byte, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/compose", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("compose submit request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read submit response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// pollUntilDone - 한도까지 폴링, 소진 시 최종 재제출 1회 후 타임아웃
func (c *Client) pollUntilDone(ctx context.Context, job *model.CompositionJob, submitBody []byte) (*model.CompositionJob, error) {
	// 제출 직후엔 아직 작업이 등록 전일 수 있어 한 틱 기다린다
	if err := sleepCtx(ctx, c.interval); err != nil {
		job.Status = model.JobFailed
		return job, err
	}

	var pinned *Convention
	var lastNoImage error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		job.Attempts = attempt

		payload, found := c.probe(ctx, job.ExternalJobID, submitBody, &pinned)
		if !found {
			log.Printf("⚠️  [Composer] Job %s: all conventions returned 404 (attempt %d/%d)", job.ExternalJobID, attempt, c.maxAttempts)
		} else {
			switch readStatus(payload) {
			case phaseFailed:
				job.Status = model.JobFailed
				return job, &JobFailed{Reason: readFailReason(payload)}
			case phaseSucceeded:
				ref, err := ExtractImageRef(payload)
				if err != nil {
					// 성공 상태인데 이미지가 없으면 아직 쓰는 중일 수 있다
					log.Printf("⚠️  [Composer] Job %s reports success but has no image yet: %v", job.ExternalJobID, err)
					lastNoImage = err
				} else {
					return c.finish(ctx, job, ref)
				}
			case phaseProcessing:
				log.Printf("   ⏳ [Composer] Job %s still processing (attempt %d/%d)", job.ExternalJobID, attempt, c.maxAttempts)
			}
		}

		if attempt < c.maxAttempts {
			if err := sleepCtx(ctx, c.interval); err != nil {
				job.Status = model.JobFailed
				return job, err
			}
		}
	}

	// 마지막 수단: 원래 요청을 한 번 다시 제출해본다
	log.Printf("⚠️  [Composer] Job %s exhausted %d attempts, trying final resubmit", job.ExternalJobID, c.maxAttempts)
	if payload, status, err := c.submit(ctx, submitBody); err == nil && status >= 200 && status < 300 {
		parsed := map[string]interface{}{}
		if json.Unmarshal(payload, &parsed) == nil {
			if ref, err := ExtractImageRef(parsed); err == nil {
				return c.finish(ctx, job, ref)
			}
		}
	}

	job.Status = model.JobTimedOut
	if lastNoImage != nil {
		return job, fmt.Errorf("%w: upstream reported success but %w", ErrJobTimedOut, lastNoImage)
	}
	return job, ErrJobTimedOut
}

// probe - 관례들을 순서대로 시도, 404가 아닌 첫 응답을 해석 대상으로 채택
// 한 번 통한 관례는 이후 틱에서 재탐색 없이 그대로 쓴다.
func (c *Client) probe(ctx context.Context, jobID string, submitBody []byte, pinned **Convention) (map[string]interface{}, bool) {
	conventions := c.conventions
	if *pinned != nil {
		conventions = []Convention{**pinned}
	}

	for i := range conventions {
		convention := conventions[i]
		httpReq, err := convention.Build(ctx, c.baseURL, jobID, submitBody)
		if err != nil {
			log.Printf("⚠️  [Composer] Convention %s: failed to build request: %v", convention.Name, err)
			continue
		}
		c.authorize(httpReq)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			log.Printf("⚠️  [Composer] Convention %s: request failed: %v", convention.Name, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			continue
		}

		if *pinned == nil {
			log.Printf("✅ [Composer] Poll convention resolved: %s", convention.Name)
			*pinned = &convention
		}

		if readErr != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
			log.Printf("⚠️  [Composer] Convention %s: status %d, treating attempt as inconclusive", convention.Name, resp.StatusCode)
			return nil, false
		}

		parsed := map[string]interface{}{}
		if err := json.Unmarshal(body, &parsed); err != nil {
			log.Printf("⚠️  [Composer] Convention %s: unparseable body: %v", convention.Name, err)
			return nil, false
		}
		return parsed, true
	}

	return nil, false
}

// finish - 이미지 참조를 바이트로 해석해서 작업을 성공 처리
func (c *Client) finish(ctx context.Context, job *model.CompositionJob, ref string) (*model.CompositionJob, error) {
	data, err := c.FetchImage(ctx, ref)
	if err != nil {
		job.Status = model.JobFailed
		return job, fmt.Errorf("failed to fetch result image: %w", err)
	}
	job.ResultURL = ref
	job.ResultImage = data
	job.Status = model.JobSucceeded
	log.Printf("✅ [Composer] Job done (role: %s, size: %d bytes)", job.Role, len(data))
	return job, nil
}

// FetchImage - 이미지 참조를 바이트로 변환 (URL 다운로드 또는 base64 디코드)
func (c *Client) FetchImage(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "data:") {
		idx := strings.Index(ref, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data uri")
		}
		return base64.StdEncoding.DecodeString(ref[idx+1:])
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("image download failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("image download failed: status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}

	// 스킴 없는 값은 생 base64로 간주
	data, err := base64.StdEncoding.DecodeString(ref)
	if err != nil {
		return nil, fmt.Errorf("image reference is neither a url nor base64: %w", err)
	}
	return data, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func compactBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}

// sleepCtx - 취소 가능한 대기
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
