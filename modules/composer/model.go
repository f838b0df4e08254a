package composer

import (
	"errors"
	"fmt"
	"strings"
)

// SubmitRequest - 합성 API 제출 페이로드
type SubmitRequest struct {
	Prompt       string `json:"prompt"`
	BaseImage    string `json:"baseImage,omitempty"`
	GarmentImage string `json:"garmentImage,omitempty"`
	Role         string `json:"role,omitempty"`
}

// SubmissionRejected - 제출 단계에서 non-2xx 응답
type SubmissionRejected struct {
	Status int
	Body   string
}

func (e *SubmissionRejected) Error() string {
	return fmt.Sprintf("composition submit rejected: status %d: %s", e.Status, e.Body)
}

// JobFailed - 업스트림이 작업 실패를 명시적으로 보고
type JobFailed struct {
	Reason string
}

func (e *JobFailed) Error() string {
	return fmt.Sprintf("composition job failed: %s", e.Reason)
}

// ErrJobTimedOut - 폴링 한도 + 최종 재제출까지 소진
var ErrJobTimedOut = errors.New("composition job timed out")

// NoImageExtracted - 어떤 추출 전략으로도 이미지 참조를 못 찾음
type NoImageExtracted struct {
	Tried []string
}

func (e *NoImageExtracted) Error() string {
	return fmt.Sprintf("no image reference in payload (tried: %s)", strings.Join(e.Tried, ", "))
}
