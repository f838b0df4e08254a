package outfit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"outfitly-server/modules/categorize"
	"outfitly-server/modules/common/model"
)

// ErrBaseModelUnavailable - 기준 사진도 없고 모델 생성도 실패
var ErrBaseModelUnavailable = errors.New("base model image unavailable")

// ErrCancelled - 사용자가 작업 취소
var ErrCancelled = errors.New("job cancelled by user")

// Composer - 합성 API 추상화 (테스트에서 페이크로 대체)
type Composer interface {
	CreateBaseModel(ctx context.Context, prompt string) (*model.CompositionJob, error)
	ApplyGarment(ctx context.Context, baseImage, garmentImage []byte, role model.CompositionRole) (*model.CompositionJob, error)
}

// ImageStore - 결과 이미지 업로드
type ImageStore interface {
	Upload(ctx context.Context, imageData []byte, userID, kind string) (string, error)
}

// OutfitStore - 완성된 아웃핏 저장
type OutfitStore interface {
	SaveOutfit(outfit model.Outfit) (*model.Outfit, error)
}

// Input - 합성 1회에 필요한 모든 재료
// Images는 아이템 ID → 원본 이미지 바이트
type Input struct {
	JobID          string
	UserID         string
	Items          []model.ClosetItem
	Images         map[string][]byte
	Selection      model.SelectionResult
	ReferencePhoto []byte
}

// Sequencer - 선택된 아이템들을 순서대로 모델 이미지에 합성
type Sequencer struct {
	composer Composer
	storage  ImageStore
	repo     OutfitStore

	// 단계 전환마다 호출 (progress hub 연결용, nil 허용)
	OnStep func(step, status, message string)

	// 단계 사이마다 확인 (Redis 취소 플래그 연결용, nil 허용)
	IsCancelled func(jobID string) bool
}

func NewSequencer(composer Composer, storage ImageStore, repo OutfitStore) *Sequencer {
	return &Sequencer{
		composer: composer,
		storage:  storage,
		repo:     repo,
	}
}

// 의류는 항상 상의 → 하의 → 원피스 순서로 입힌다
var clothingOrder = map[model.CompositionRole]int{
	model.RoleTop:      0,
	model.RoleBottom:   1,
	model.RoleOnePiece: 2,
}

var accessoryOrder = map[model.CompositionRole]int{
	model.RoleAccessoryHat:   0,
	model.RoleAccessoryShoe:  1,
	model.RoleAccessoryOther: 2,
}

type garmentStep struct {
	item model.ClosetItem
	role model.CompositionRole
}

// Compose - 아웃핏 합성 파이프라인 전체 실행
// 의류 합성 실패는 전체 중단, 악세사리 실패는 해당 단계만 스킵.
// 저장은 모든 단계가 끝난 뒤 정확히 1회.
func (s *Sequencer) Compose(ctx context.Context, input Input) (*model.Outfit, error) {
	log.Printf("🎨 [Sequencer] Composing outfit for job %s (%d items)", input.JobID, len(input.Items))

	// 1. 기준 모델 이미지
	current, err := s.baseModelImage(ctx, input)
	if err != nil {
		return nil, err
	}

	// 2. 아이템 분류 + 순서 고정
	clothing, accessories := partitionItems(input.Items)

	// 3. 의류 단계 (실패 시 전체 중단)
	s.step(model.StepClothing, "started", fmt.Sprintf("%d garments", len(clothing)))
	for _, garment := range clothing {
		if err := s.checkAbort(ctx, input.JobID); err != nil {
			return nil, err
		}

		image, ok := input.Images[garment.item.ID]
		if !ok {
			return nil, fmt.Errorf("composition failed at %s: missing image for item %s", garment.role, garment.item.ID)
		}

		log.Printf("   👕 [Sequencer] Applying %s: %s", garment.role, garment.item.Description)
		job, err := s.composer.ApplyGarment(ctx, current, image, garment.role)
		if err != nil {
			s.step(model.StepClothing, "failed", string(garment.role))
			return nil, fmt.Errorf("composition failed at %s: %w", garment.role, err)
		}
		current = job.ResultImage
	}

	// 4. 악세사리 단계 (실패 시 해당 악세사리만 스킵)
	s.step(model.StepAccessories, "started", fmt.Sprintf("%d accessories", len(accessories)))
	for _, accessory := range accessories {
		if err := s.checkAbort(ctx, input.JobID); err != nil {
			return nil, err
		}

		image, ok := input.Images[accessory.item.ID]
		if !ok {
			log.Printf("⚠️  [Sequencer] Missing image for accessory %s, skipping", accessory.item.ID)
			continue
		}

		log.Printf("   🧢 [Sequencer] Applying %s: %s", accessory.role, accessory.item.Description)
		job, err := s.composer.ApplyGarment(ctx, current, image, accessory.role)
		if err != nil {
			log.Printf("⚠️  [Sequencer] Accessory %s failed, keeping previous image: %v", accessory.role, err)
			s.step(model.StepAccessories, "skipped", string(accessory.role))
			continue
		}
		current = job.ResultImage
	}

	if err := s.checkAbort(ctx, input.JobID); err != nil {
		return nil, err
	}

	// 5. 최종 이미지 업로드 + 저장
	s.step(model.StepSaving, "started", "")
	finalRef, err := s.storage.Upload(ctx, current, input.UserID, "outfit")
	if err != nil {
		return nil, fmt.Errorf("failed to upload final image: %w", err)
	}

	saved, err := s.repo.SaveOutfit(model.Outfit{
		UserID:        input.UserID,
		SelectedItems: input.Items,
		Selection:     input.Selection,
		FinalImageRef: finalRef,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save outfit: %w", err)
	}

	log.Printf("✅ [Sequencer] Outfit composed and saved: %s", saved.ID)
	return saved, nil
}

// baseModelImage - 기준 사진이 있으면 그걸 쓰고, 없으면 모델 이미지 생성
func (s *Sequencer) baseModelImage(ctx context.Context, input Input) ([]byte, error) {
	s.step(model.StepBaseModel, "started", "")

	if len(input.ReferencePhoto) > 0 {
		log.Printf("📷 [Sequencer] Using user reference photo as base model")
		return input.ReferencePhoto, nil
	}

	prompt := buildBaseModelPrompt(input.Selection)
	log.Printf("🧍 [Sequencer] Generating base model image")

	job, err := s.composer.CreateBaseModel(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBaseModelUnavailable, err)
	}
	return job.ResultImage, nil
}

// buildBaseModelPrompt - 선택 결과의 스타일 정보로 모델 생성 프롬프트 구성
func buildBaseModelPrompt(selection model.SelectionResult) string {
	prompt := "A full-body photo of a fashion model standing against a plain studio background, neutral pose, wearing plain fitted basics."
	if selection.Style != "" {
		prompt += fmt.Sprintf(" The model suits a %s style.", selection.Style)
	}
	if selection.ColorScheme != "" {
		prompt += fmt.Sprintf(" Lighting complements %s tones.", selection.ColorScheme)
	}
	return prompt
}

// partitionItems - 아이템을 의류/악세사리로 나누고 합성 순서로 정렬
func partitionItems(items []model.ClosetItem) (clothing, accessories []garmentStep) {
	for _, item := range items {
		role := categorize.Classify(item.Description)
		step := garmentStep{item: item, role: role}
		if role.IsClothing() {
			clothing = append(clothing, step)
		} else {
			accessories = append(accessories, step)
		}
	}

	sort.SliceStable(clothing, func(i, j int) bool {
		return clothingOrder[clothing[i].role] < clothingOrder[clothing[j].role]
	})
	sort.SliceStable(accessories, func(i, j int) bool {
		return accessoryOrder[accessories[i].role] < accessoryOrder[accessories[j].role]
	})
	return clothing, accessories
}

// checkAbort - 컨텍스트 취소와 사용자 취소 플래그 확인
func (s *Sequencer) checkAbort(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.IsCancelled != nil && s.IsCancelled(jobID) {
		log.Printf("🛑 [Sequencer] Job %s cancelled by user", jobID)
		return ErrCancelled
	}
	return nil
}

func (s *Sequencer) step(step, status, message string) {
	if s.OnStep != nil {
		s.OnStep(step, status, message)
	}
}
