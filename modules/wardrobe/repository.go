package wardrobe

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/supabase-community/supabase-go"

	"outfitly-server/modules/common/config"
	"outfitly-server/modules/common/model"
)

// Repository - Supabase 테이블 접근 계층
// outfitly_closet_items / outfitly_outfits / outfitly_outfit_jobs / outfitly_user_profile
type Repository struct {
	supabase *supabase.Client
}

func NewRepository() (*Repository, error) {
	cfg := config.GetConfig()

	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	log.Printf("✅ [Wardrobe] Repository initialized")
	return &Repository{supabase: client}, nil
}

// ListClosetItems - 사용자의 옷장 아이템 전체 조회 (최신순)
func (r *Repository) ListClosetItems(userID string) ([]model.ClosetItem, error) {
	data, _, err := r.supabase.From("outfitly_closet_items").
		Select("*", "exact", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query closet items: %w", err)
	}

	var items []model.ClosetItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse closet items: %w", err)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// SaveClosetItem - 분석 완료된 아이템 저장
func (r *Repository) SaveClosetItem(item model.ClosetItem) (*model.ClosetItem, error) {
	insertData := map[string]interface{}{
		"user_id":     item.UserID,
		"image_ref":   item.ImageRef,
		"description": item.Description,
		"aesthetics":  item.Aesthetics,
		"palette":     item.Palette,
		"suggestions": item.Suggestions,
	}

	data, _, err := r.supabase.From("outfitly_closet_items").
		Insert(insertData, false, "", "", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert closet item: %w", err)
	}

	var saved []model.ClosetItem
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("failed to parse inserted item: %w", err)
	}
	if len(saved) == 0 {
		return nil, fmt.Errorf("insert returned no row")
	}

	log.Printf("✅ [Wardrobe] Closet item saved: %s", saved[0].ID)
	return &saved[0], nil
}

// DeleteClosetItem - 아이템 1개 삭제 (소유자 확인 포함)
func (r *Repository) DeleteClosetItem(userID, itemID string) error {
	_, _, err := r.supabase.From("outfitly_closet_items").
		Delete("", "").
		Eq("user_id", userID).
		Eq("id", itemID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete closet item: %w", err)
	}
	return nil
}

// DeleteClosetItems - 아이템 일괄 삭제
func (r *Repository) DeleteClosetItems(userID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}

	_, _, err := r.supabase.From("outfitly_closet_items").
		Delete("", "").
		Eq("user_id", userID).
		In("id", itemIDs).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete closet items: %w", err)
	}

	log.Printf("✅ [Wardrobe] Deleted %d closet items", len(itemIDs))
	return nil
}

// ListOutfits - 사용자의 저장된 아웃핏 조회 (최신순)
func (r *Repository) ListOutfits(userID string) ([]model.Outfit, error) {
	data, _, err := r.supabase.From("outfitly_outfits").
		Select("*", "exact", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query outfits: %w", err)
	}

	var outfits []model.Outfit
	if err := json.Unmarshal(data, &outfits); err != nil {
		return nil, fmt.Errorf("failed to parse outfits: %w", err)
	}

	sort.Slice(outfits, func(i, j int) bool {
		return outfits[i].CreatedAt.After(outfits[j].CreatedAt)
	})
	return outfits, nil
}

// SaveOutfit - 완성된 아웃핏 저장 (합성 성공 시 정확히 1회 호출)
func (r *Repository) SaveOutfit(outfit model.Outfit) (*model.Outfit, error) {
	insertData := map[string]interface{}{
		"user_id":         outfit.UserID,
		"selected_items":  outfit.SelectedItems,
		"selection":       outfit.Selection,
		"final_image_ref": outfit.FinalImageRef,
	}

	data, _, err := r.supabase.From("outfitly_outfits").
		Insert(insertData, false, "", "", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert outfit: %w", err)
	}

	var saved []model.Outfit
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("failed to parse inserted outfit: %w", err)
	}
	if len(saved) == 0 {
		return nil, fmt.Errorf("insert returned no row")
	}

	log.Printf("✅ [Wardrobe] Outfit saved: %s", saved[0].ID)
	return &saved[0], nil
}

// DeleteOutfit - 아웃핏 삭제
func (r *Repository) DeleteOutfit(userID, outfitID string) error {
	_, _, err := r.supabase.From("outfitly_outfits").
		Delete("", "").
		Eq("user_id", userID).
		Eq("id", outfitID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete outfit: %w", err)
	}
	return nil
}

// CreateOutfitJob - 큐 투입 전 작업 레코드 생성
func (r *Repository) CreateOutfitJob(jobID, userID string) error {
	insertData := map[string]interface{}{
		"job_id":     jobID,
		"user_id":    userID,
		"job_status": model.StatusPending,
	}

	_, _, err := r.supabase.From("outfitly_outfit_jobs").
		Insert(insertData, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to create outfit job: %w", err)
	}
	return nil
}

// FetchOutfitJob - 작업 레코드 조회
func (r *Repository) FetchOutfitJob(jobID string) (*model.OutfitJob, error) {
	data, _, err := r.supabase.From("outfitly_outfit_jobs").
		Select("*", "exact", false).
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query outfit job: %w", err)
	}

	var jobs []model.OutfitJob
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse outfit job: %w", err)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("outfit job not found: %s", jobID)
	}
	return &jobs[0], nil
}

// UpdateJobStatus - 작업 상태 전이 + 타임스탬프 기록
func (r *Repository) UpdateJobStatus(jobID, status string) error {
	updateData := map[string]interface{}{
		"job_status": status,
		"updated_at": "now()",
	}
	if status == model.StatusProcessing {
		updateData["started_at"] = "now()"
	} else if status == model.StatusCompleted || status == model.StatusFailed || status == model.StatusUserCancelled {
		updateData["completed_at"] = "now()"
	}

	_, _, err := r.supabase.From("outfitly_outfit_jobs").
		Update(updateData, "", "").
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	log.Printf("📝 [Wardrobe] Job %s status → %s", jobID, status)
	return nil
}

// UpdateJobStep - 현재 진행 단계 기록
func (r *Repository) UpdateJobStep(jobID, step string) error {
	_, _, err := r.supabase.From("outfitly_outfit_jobs").
		Update(map[string]interface{}{
			"current_step": step,
			"updated_at":   "now()",
		}, "", "").
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update job step: %w", err)
	}
	return nil
}

// SetJobOutfit - 완료된 작업에 결과 아웃핏 연결
func (r *Repository) SetJobOutfit(jobID, outfitID string) error {
	_, _, err := r.supabase.From("outfitly_outfit_jobs").
		Update(map[string]interface{}{
			"outfit_id":  outfitID,
			"updated_at": "now()",
		}, "", "").
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to set job outfit: %w", err)
	}
	return nil
}

// SetJobError - 실패 사유 기록
func (r *Repository) SetJobError(jobID, message string) error {
	_, _, err := r.supabase.From("outfitly_outfit_jobs").
		Update(map[string]interface{}{
			"error_message": message,
			"updated_at":    "now()",
		}, "", "").
		Eq("job_id", jobID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to set job error: %w", err)
	}
	return nil
}

type userProfile struct {
	UserID            string  `json:"user_id"`
	ReferencePhotoRef *string `json:"reference_photo_ref"`
}

// GetReferencePhoto - 사용자 기준 사진 경로 조회 (없으면 빈 문자열)
func (r *Repository) GetReferencePhoto(userID string) (string, error) {
	data, _, err := r.supabase.From("outfitly_user_profile").
		Select("*", "exact", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return "", fmt.Errorf("failed to query user profile: %w", err)
	}

	var profiles []userProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return "", fmt.Errorf("failed to parse user profile: %w", err)
	}
	if len(profiles) == 0 || profiles[0].ReferencePhotoRef == nil {
		return "", nil
	}
	return *profiles[0].ReferencePhotoRef, nil
}

// SetReferencePhoto - 기준 사진 등록 (있으면 교체)
func (r *Repository) SetReferencePhoto(userID, ref string) error {
	upsertData := map[string]interface{}{
		"user_id":             userID,
		"reference_photo_ref": ref,
	}

	_, _, err := r.supabase.From("outfitly_user_profile").
		Insert(upsertData, true, "user_id", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to set reference photo: %w", err)
	}

	log.Printf("✅ [Wardrobe] Reference photo updated for user %s", userID)
	return nil
}

// ClearReferencePhoto - 기준 사진 제거
func (r *Repository) ClearReferencePhoto(userID string) error {
	_, _, err := r.supabase.From("outfitly_user_profile").
		Update(map[string]interface{}{
			"reference_photo_ref": nil,
		}, "", "").
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to clear reference photo: %w", err)
	}
	return nil
}
