package model

import "time"

// ClosetItem - outfitly_closet_items 테이블 구조
// 아이템 분석 단계에서 생성되며 저장 후에는 수정되지 않는다.
type ClosetItem struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      string    `json:"user_id"`
	ImageRef    string    `json:"image_ref"` // Storage 파일 경로
	Description string    `json:"description"`
	Aesthetics  []string  `json:"aesthetics"`  // 최대 6개
	Palette     []string  `json:"palette"`     // 최대 5개, #RGB 또는 #RRGGBB
	Suggestions []string  `json:"suggestions"` // 최대 5개
}

// SelectionResult - 비전 모델이 고른 아이템 조합과 근거
// 일시적 데이터: Sequencer가 한 번 소비하며 단독으로 저장되지 않는다.
type SelectionResult struct {
	SelectedIDs       []string `json:"selectedIds"`
	OutfitDescription string   `json:"outfitDescription"`
	Style             string   `json:"style"`
	Occasion          string   `json:"occasion"`
	ColorScheme       string   `json:"colorScheme"`
	Reasoning         string   `json:"reasoning"`
}

// CompositionRole - 합성 순서와 API 카테고리 파라미터를 결정하는 분류
type CompositionRole string

const (
	RoleTop            CompositionRole = "top"
	RoleBottom         CompositionRole = "bottom"
	RoleOnePiece       CompositionRole = "one_piece"
	RoleAccessoryHat   CompositionRole = "accessory_hat"
	RoleAccessoryShoe  CompositionRole = "accessory_shoe"
	RoleAccessoryOther CompositionRole = "accessory_other"
)

// IsClothing - 의류 파트 여부 (의류 실패는 전체 중단, 악세사리 실패는 스킵)
func (r CompositionRole) IsClothing() bool {
	return r == RoleTop || r == RoleBottom || r == RoleOnePiece
}

// CompositionJob 상태
const (
	JobSubmitted = "submitted"
	JobPolling   = "polling"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
	JobTimedOut  = "timed_out"
)

// CompositionJob - 합성 API 1회 호출의 수명 동안만 존재. 저장하지 않는다.
type CompositionJob struct {
	Role          CompositionRole
	ExternalJobID string
	Status        string
	ResultURL     string
	ResultImage   []byte
	Attempts      int
}

// Outfit - outfitly_outfits 테이블 구조
// selectedItems는 스냅샷으로 내장한다. 이후 옷장이 수정돼도 과거 아웃핏은 유지.
type Outfit struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	UserID        string          `json:"user_id"`
	SelectedItems []ClosetItem    `json:"selected_items"`
	Selection     SelectionResult `json:"selection"`
	FinalImageRef string          `json:"final_image_ref"`
}

// OutfitJob - outfitly_outfit_jobs 테이블 구조 (큐 작업 추적)
type OutfitJob struct {
	JobID        string     `json:"job_id"`
	UserID       string     `json:"user_id"`
	JobStatus    string     `json:"job_status"`
	CurrentStep  string     `json:"current_step"`
	OutfitID     *string    `json:"outfit_id"`
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// OutfitJob 상태
const (
	StatusPending       = "pending"
	StatusProcessing    = "processing"
	StatusCompleted     = "completed"
	StatusFailed        = "failed"
	StatusUserCancelled = "user_cancelled"
)

// 진행 단계 이름 (progress hub 이벤트용)
const (
	StepSelecting   = "selecting"
	StepBaseModel   = "base_model"
	StepClothing    = "clothing"
	StepAccessories = "accessories"
	StepSaving      = "saving"
)
