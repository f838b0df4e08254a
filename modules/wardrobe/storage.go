package wardrobe

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	"outfitly-server/modules/common/config"
)

// Storage - Supabase Storage의 outfitly 버킷 접근
type Storage struct {
	httpClient *http.Client
}

func NewStorage() *Storage {
	return &Storage{httpClient: &http.Client{Timeout: 60 * time.Second}}
}

// Upload - 이미지를 WebP로 변환해서 업로드, 저장 경로 반환
// kind는 경로 접두사 (item / outfit / reference)
func (s *Storage) Upload(ctx context.Context, imageData []byte, userID, kind string) (string, error) {
	cfg := config.GetConfig()

	// WebP 변환 (quality: 90)
	uploadData, contentType, err := convertToWebP(imageData, 90.0)
	if err != nil {
		// 디코딩 불가능한 포맷은 원본 그대로 올린다
		log.Printf("⚠️  [Wardrobe] WebP conversion failed, uploading original: %v", err)
		uploadData = imageData
		contentType = http.DetectContentType(imageData)
	}

	timestamp := time.Now().UnixNano() / int64(time.Millisecond)
	randomID := rand.Intn(999999)
	ext := "webp"
	if contentType != "image/webp" {
		ext = "bin"
	}
	filePath := fmt.Sprintf("%s/user-%s/%s_%d_%d.%s", kind, userID, kind, timestamp, randomID, ext)

	log.Printf("📤 [Wardrobe] Uploading image to storage: %s (%d bytes)", filePath, len(uploadData))

	uploadURL := fmt.Sprintf("%s/storage/v1/object/outfitly/%s", cfg.SupabaseURL, filePath)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(uploadData))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.SupabaseServiceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	log.Printf("✅ [Wardrobe] Image uploaded: %s", filePath)
	return filePath, nil
}

// Download - 저장 경로 또는 전체 URL에서 이미지 바이트 로드
func (s *Storage) Download(ctx context.Context, ref string) ([]byte, error) {
	cfg := config.GetConfig()

	fullURL := ref
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		fullURL = cfg.SupabaseStorageBaseURL + strings.TrimPrefix(ref, "/")
	}

	log.Printf("📥 [Wardrobe] Downloading image: %s", fullURL)

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to download image: status %d, body: %s", resp.StatusCode, string(body))
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	log.Printf("✅ [Wardrobe] Image downloaded: %d bytes", len(imageData))
	return imageData, nil
}

// convertToWebP - PNG/JPEG 바이너리를 WebP로 변환
func convertToWebP(imageData []byte, quality float32) ([]byte, string, error) {
	var img image.Image
	var err error

	// 합성 API는 보통 PNG를 준다
	img, err = png.Decode(bytes.NewReader(imageData))
	if err != nil {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode image: %w", err)
		}
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var webpBuffer bytes.Buffer
	if err := webp.Encode(&webpBuffer, img, options); err != nil {
		return nil, "", fmt.Errorf("failed to encode WebP: %w", err)
	}

	webpData := webpBuffer.Bytes()
	log.Printf("🔄 [Wardrobe] Converted to WebP: %d bytes → %d bytes", len(imageData), len(webpData))
	return webpData, "image/webp", nil
}
