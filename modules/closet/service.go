package closet

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"outfitly-server/modules/common/model"
	"outfitly-server/modules/vision"
	"outfitly-server/modules/wardrobe"
)

// Analysis - 아이템 이미지 1장에 대한 비전 분석 결과
type Analysis struct {
	Description string   `json:"description"`
	Aesthetics  []string `json:"aesthetics"`
	Palette     []string `json:"palette"`
	Suggestions []string `json:"suggestions"`
}

// Service - 옷장 아이템 분석/저장 로직
type Service struct {
	completer vision.Completer
	repo      *wardrobe.Repository
	storage   *wardrobe.Storage
}

func NewService(completer vision.Completer, repo *wardrobe.Repository, storage *wardrobe.Storage) *Service {
	return &Service{
		completer: completer,
		repo:      repo,
		storage:   storage,
	}
}

const analysisPrompt = `You are a fashion assistant. Analyze the clothing item in the image.

Respond with ONLY a JSON object in this exact shape:
{
  "description": "one concise sentence describing the garment (type, fit, material, color)",
  "aesthetics": ["style keywords like minimal, streetwear, vintage"],
  "palette": ["dominant colors as hex codes like #1A2B3C"],
  "suggestions": ["short styling tips for wearing this item"]
}`

// AnalyzeItem - 이미지 1장 분석 (저장 안 함)
func (s *Service) AnalyzeItem(ctx context.Context, imageData []byte) (*Analysis, error) {
	log.Printf("🔍 [Closet] Analyzing item image (%d bytes)", len(imageData))

	mime := http.DetectContentType(imageData)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}

	raw, err := s.completer.Complete(ctx, analysisPrompt, "Analyze this clothing item.", []vision.Image{
		{Data: imageData, MIMEType: mime},
	})
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}

	analysis := &Analysis{}
	if err := json.Unmarshal([]byte(vision.StripCodeFence(raw)), analysis); err != nil {
		log.Printf("❌ [Closet] Unparseable analysis response: %.200s", raw)
		return nil, fmt.Errorf("analysis response is not valid JSON: %w", err)
	}

	normalizeAnalysis(analysis)

	log.Printf("✅ [Closet] Item analyzed: %s", analysis.Description)
	return analysis, nil
}

// SaveItem - 분석 결과와 원본 이미지를 함께 저장
func (s *Service) SaveItem(ctx context.Context, userID string, imageData []byte, analysis *Analysis) (*model.ClosetItem, error) {
	imageRef, err := s.storage.Upload(ctx, imageData, userID, "item")
	if err != nil {
		return nil, fmt.Errorf("failed to upload item image: %w", err)
	}

	return s.repo.SaveClosetItem(model.ClosetItem{
		UserID:      userID,
		ImageRef:    imageRef,
		Description: analysis.Description,
		Aesthetics:  analysis.Aesthetics,
		Palette:     analysis.Palette,
		Suggestions: analysis.Suggestions,
	})
}
