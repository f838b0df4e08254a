package selector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"outfitly-server/modules/common/model"
	"outfitly-server/modules/vision"
)

// ErrInsufficientItems - 옷장에 아이템이 2개 미만이라 조합 불가
var ErrInsufficientItems = errors.New("at least 2 closet items are required to compose an outfit")

// ErrEmptySelection - 모델이 유효한 아이템을 하나도 고르지 못함
var ErrEmptySelection = errors.New("selection contains no valid closet items")

// ErrMalformedResponse - 모델 응답이 기대한 JSON 형태가 아님
var ErrMalformedResponse = errors.New("selection response is not valid JSON")

// Candidate - 선택 후보 (옷장 아이템 + 원본 이미지)
type Candidate struct {
	Item  model.ClosetItem
	Image []byte
}

// Service - 옷장 스냅샷에서 하나의 아웃핏을 고르는 선택기
type Service struct {
	completer vision.Completer
}

func NewService(completer vision.Completer) *Service {
	return &Service{completer: completer}
}

const systemPrompt = `You are a professional fashion stylist. From the numbered closet items, select the ones that form a single cohesive outfit.

Rules:
- Select between 2 and 6 items.
- Never select two items that fill the same slot (e.g. two pairs of pants).
- Reference items only by the exact "id" values given.

Respond with ONLY a JSON object in this exact shape:
{
  "selectedIds": ["..."],
  "outfitDescription": "one sentence describing the full look",
  "style": "overall style keyword",
  "occasion": "where this outfit fits",
  "colorScheme": "dominant colors of the look",
  "reasoning": "why these items work together"
}`

// Select - 스냅샷에서 아웃핏 1벌 선택
// 아이템이 2개 미만이면 네트워크 호출 없이 바로 실패한다.
func (s *Service) Select(ctx context.Context, candidates []Candidate) (*model.SelectionResult, error) {
	if len(candidates) < 2 {
		return nil, ErrInsufficientItems
	}

	log.Printf("🔍 [Selector] Selecting outfit from %d closet items", len(candidates))

	images := prepareImages(candidates)

	raw, err := s.completer.Complete(ctx, systemPrompt, buildCatalog(candidates), images)
	if err != nil {
		return nil, fmt.Errorf("selection request failed: %w", err)
	}

	result := &model.SelectionResult{}
	if err := json.Unmarshal([]byte(vision.StripCodeFence(raw)), result); err != nil {
		log.Printf("❌ [Selector] Unparseable selection response: %.200s", raw)
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if result.SelectedIDs == nil {
		return nil, fmt.Errorf("%w: missing selectedIds", ErrMalformedResponse)
	}

	known := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		known[candidate.Item.ID] = true
	}

	seen := make(map[string]bool, len(result.SelectedIDs))
	valid := make([]string, 0, len(result.SelectedIDs))
	for _, id := range result.SelectedIDs {
		if !known[id] {
			log.Printf("⚠️  [Selector] Dropping unknown item id from selection: %s", id)
			continue
		}
		if seen[id] {
			log.Printf("⚠️  [Selector] Dropping duplicate item id from selection: %s", id)
			continue
		}
		seen[id] = true
		valid = append(valid, id)
	}
	if len(valid) == 0 {
		return nil, ErrEmptySelection
	}
	result.SelectedIDs = valid

	log.Printf("✅ [Selector] Selected %d items (style: %s)", len(valid), result.Style)
	return result, nil
}

// prepareImages - 후보 이미지들을 첨부 형태로 인코딩
// 읽기 전용 변환이라 병렬로 처리하고 전부 끝난 뒤 합친다.
func prepareImages(candidates []Candidate) []vision.Image {
	images := make([]vision.Image, len(candidates))

	var wg sync.WaitGroup
	for i := range candidates {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			data := candidates[idx].Image
			images[idx] = vision.Image{
				Data:     data,
				MIMEType: sniffMIME(data),
			}
		}(i)
	}
	wg.Wait()

	return images
}

func sniffMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "image/jpeg"
	}
	return mime
}

// buildCatalog - 모델에게 보여줄 아이템 목록 텍스트
// 이미지 첨부 순서와 목록 순서가 일치한다.
func buildCatalog(candidates []Candidate) string {
	var sb strings.Builder
	sb.WriteString("Closet items (images attached in the same order):\n\n")
	for i, candidate := range candidates {
		item := candidate.Item
		fmt.Fprintf(&sb, "Item %d:\n", i+1)
		fmt.Fprintf(&sb, "  id: %s\n", item.ID)
		fmt.Fprintf(&sb, "  description: %s\n", item.Description)
		if len(item.Aesthetics) > 0 {
			fmt.Fprintf(&sb, "  aesthetics: %s\n", strings.Join(item.Aesthetics, ", "))
		}
		if len(item.Palette) > 0 {
			fmt.Fprintf(&sb, "  palette: %s\n", strings.Join(item.Palette, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
