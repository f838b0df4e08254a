package closet

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"outfitly-server/modules/common/model"
	"outfitly-server/modules/wardrobe"
)

type Handler struct {
	service *Service
	repo    *wardrobe.Repository
}

func NewHandler(service *Service, repo *wardrobe.Repository) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
	}
}

// AnalyzeRequest - 이미지 분석 요청
type AnalyzeRequest struct {
	UserID string `json:"userId"`
	Image  string `json:"image"` // base64
}

// SaveItemRequest - 분석 결과 저장 요청
type SaveItemRequest struct {
	UserID      string   `json:"userId"`
	Image       string   `json:"image"` // base64
	Description string   `json:"description"`
	Aesthetics  []string `json:"aesthetics"`
	Palette     []string `json:"palette"`
	Suggestions []string `json:"suggestions"`
}

// BulkDeleteRequest - 아이템 일괄 삭제 요청
type BulkDeleteRequest struct {
	UserID  string   `json:"userId"`
	ItemIDs []string `json:"itemIds"`
}

type errorResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Success: false, ErrorMessage: message})
}

func setCORS(w http.ResponseWriter, methods string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// HandleAnalyze - POST /api/closet/analyze
// 이미지 분석만 하고 저장은 안 한다 (사용자가 확인 후 저장)
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "POST, OPTIONS")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Closet] Invalid analyze request: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	imageData, err := decodeImage(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid image encoding")
		return
	}

	analysis, err := h.service.AnalyzeItem(r.Context(), imageData)
	if err != nil {
		log.Printf("❌ [Closet] Analysis failed: %v", err)
		writeError(w, http.StatusBadGateway, "Analysis failed")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"analysis": analysis,
	})
}

// HandleItems - POST/GET/DELETE /api/closet/items
// POST는 저장, GET은 목록, DELETE는 일괄 삭제
func (h *Handler) HandleItems(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "POST, GET, DELETE, OPTIONS")

	switch r.Method {
	case "OPTIONS":
		w.WriteHeader(http.StatusOK)
		return
	case "GET":
		h.listItems(w, r)
		return
	case "DELETE":
		h.bulkDelete(w, r)
		return
	case "POST":
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SaveItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Closet] Invalid save request: %v", err)
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	imageData, err := decodeImage(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid image encoding")
		return
	}

	analysis := &Analysis{
		Description: req.Description,
		Aesthetics:  req.Aesthetics,
		Palette:     req.Palette,
		Suggestions: req.Suggestions,
	}
	// 클라이언트가 보낸 값도 다시 정규화한다
	normalizeAnalysis(analysis)

	item, err := h.service.SaveItem(r.Context(), req.UserID, imageData, analysis)
	if err != nil {
		log.Printf("❌ [Closet] Save failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save item")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"item":    item,
	})
}

// listItems - GET /api/closet/items?userId=
func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	items, err := h.repo.ListClosetItems(userID)
	if err != nil {
		log.Printf("❌ [Closet] List failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load closet")
		return
	}
	if items == nil {
		items = []model.ClosetItem{}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"items":   items,
	})
}

// HandleDeleteItem - DELETE /api/closet/items/{id}
func (h *Handler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "DELETE, OPTIONS")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "DELETE" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	itemID := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("userId")
	if userID == "" || itemID == "" {
		writeError(w, http.StatusBadRequest, "userId and item id are required")
		return
	}

	if err := h.repo.DeleteClosetItem(userID, itemID); err != nil {
		log.Printf("❌ [Closet] Delete failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete item")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

// bulkDelete - DELETE /api/closet/items (본문에 itemIds)
func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.UserID == "" || len(req.ItemIDs) == 0 {
		writeError(w, http.StatusBadRequest, "userId and itemIds are required")
		return
	}

	if err := h.repo.DeleteClosetItems(req.UserID, req.ItemIDs); err != nil {
		log.Printf("❌ [Closet] Bulk delete failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete items")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"deleted": len(req.ItemIDs),
	})
}

// decodeImage - base64 이미지 디코딩 (data URI 접두사 허용)
func decodeImage(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+1:]
	}
	return base64.StdEncoding.DecodeString(encoded)
}
