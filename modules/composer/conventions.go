package composer

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// 합성 API들의 폴링 관례가 통일돼 있지 않아서, 알려진 관례들을
// 순서대로 시도한다. 404가 아닌 응답을 주는 첫 관례가 그 틱의 결과다.
// 전부 404면 그 시도는 판정 불가로 넘어간다.

// Convention - 작업 상태 조회 요청을 만드는 하나의 관례
type Convention struct {
	Name  string
	Build func(ctx context.Context, baseURL, jobID string, submitBody []byte) (*http.Request, error)
}

// DefaultConventions - 기본 관례 목록 (순서 중요)
func DefaultConventions() []Convention {
	return []Convention{
		{
			Name: "jobs-path",
			Build: func(ctx context.Context, baseURL, jobID string, _ []byte) (*http.Request, error) {
				endpoint := fmt.Sprintf("%s/v1/jobs/%s", baseURL, url.PathEscape(jobID))
				return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			},
		},
		{
			Name: "status-query",
			Build: func(ctx context.Context, baseURL, jobID string, _ []byte) (*http.Request, error) {
				endpoint := fmt.Sprintf("%s/v1/status?jobId=%s", baseURL, url.QueryEscape(jobID))
				return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			},
		},
		{
			Name: "resubmit",
			Build: func(ctx context.Context, baseURL, _ string, submitBody []byte) (*http.Request, error) {
				req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/compose", bytes.NewReader(submitBody))
				if err != nil {
					return nil, err
				}
				req.Header.Set("Content-Type", "application/json")
				return req, nil
			},
		},
	}
}
