package outfit

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	goredis "github.com/redis/go-redis/v9"

	"outfitly-server/modules/common/model"
	commonredis "outfitly-server/modules/common/redis"
	"outfitly-server/modules/wardrobe"
)

type Handler struct {
	repo    *wardrobe.Repository
	storage *wardrobe.Storage
	rdb     *goredis.Client
}

func NewHandler(repo *wardrobe.Repository, storage *wardrobe.Storage, rdb *goredis.Client) *Handler {
	return &Handler{
		repo:    repo,
		storage: storage,
		rdb:     rdb,
	}
}

// GenerateRequest - 아웃핏 생성 요청
type GenerateRequest struct {
	UserID string `json:"userId"`
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

// HandleGenerate - POST /api/outfits/generate
// 작업 레코드를 만들고 큐에 넣은 뒤 바로 jobId를 돌려준다.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "POST, OPTIONS")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	jobID := uuid.New().String()

	if err := h.repo.CreateOutfitJob(jobID, req.UserID); err != nil {
		log.Printf("❌ [Outfit] Failed to create job record: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	if err := commonredis.EnqueueOutfitJob(r.Context(), h.rdb, jobID); err != nil {
		log.Printf("❌ [Outfit] Failed to enqueue job %s: %v", jobID, err)
		h.repo.SetJobError(jobID, "failed to enqueue")
		h.repo.UpdateJobStatus(jobID, model.StatusFailed)
		writeError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	log.Printf("🎨 [Outfit] Generation job created: %s (user: %s)", jobID, req.UserID)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"jobId":   jobID,
		"status":  model.StatusPending,
	})
}

// HandleJobStatus - GET /api/outfits/jobs/{jobId}
func (h *Handler) HandleJobStatus(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "GET, OPTIONS")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	jobID := mux.Vars(r)["jobId"]
	job, err := h.repo.FetchOutfitJob(jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"job":     job,
	})
}

// HandleCancelJob - POST /api/outfits/jobs/{jobId}/cancel
// 플래그만 세운다. 실제 중단은 워커가 다음 단계 사이에서 확인한다.
func (h *Handler) HandleCancelJob(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "POST, OPTIONS")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := mux.Vars(r)["jobId"]
	job, err := h.repo.FetchOutfitJob(jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	if job.JobStatus != model.StatusPending && job.JobStatus != model.StatusProcessing {
		writeError(w, http.StatusConflict, "Job already finished")
		return
	}

	if err := commonredis.MarkJobCancelled(r.Context(), h.rdb, jobID); err != nil {
		log.Printf("❌ [Outfit] Failed to mark job %s cancelled: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "Failed to cancel job")
		return
	}

	log.Printf("🛑 [Outfit] Cancel requested for job %s", jobID)

	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

// HandleListOutfits - GET /api/outfits?userId=
func (h *Handler) HandleListOutfits(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "GET, OPTIONS")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	outfits, err := h.repo.ListOutfits(userID)
	if err != nil {
		log.Printf("❌ [Outfit] List failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load outfits")
		return
	}
	if outfits == nil {
		outfits = []model.Outfit{}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"outfits": outfits,
	})
}

// HandleDeleteOutfit - DELETE /api/outfits/{id}
func (h *Handler) HandleDeleteOutfit(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "DELETE, OPTIONS")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "DELETE" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	outfitID := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("userId")
	if userID == "" || outfitID == "" {
		writeError(w, http.StatusBadRequest, "userId and outfit id are required")
		return
	}

	if err := h.repo.DeleteOutfit(userID, outfitID); err != nil {
		log.Printf("❌ [Outfit] Delete failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete outfit")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

// ReferencePhotoRequest - 기준 사진 등록 요청
type ReferencePhotoRequest struct {
	UserID string `json:"userId"`
	Image  string `json:"image"` // base64
}

// HandleReferencePhoto - GET/PUT/DELETE /api/profile/reference-photo
func (h *Handler) HandleReferencePhoto(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "GET, PUT, DELETE, OPTIONS")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.Method {
	case "GET":
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "userId is required")
			return
		}
		ref, err := h.repo.GetReferencePhoto(userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load reference photo")
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":           true,
			"referencePhotoRef": ref,
		})

	case "PUT":
		var req ReferencePhotoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request format")
			return
		}
		if req.UserID == "" || req.Image == "" {
			writeError(w, http.StatusBadRequest, "userId and image are required")
			return
		}

		encoded := req.Image
		if idx := strings.Index(encoded, ","); idx >= 0 && strings.HasPrefix(encoded, "data:") {
			encoded = encoded[idx+1:]
		}
		imageData, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid image encoding")
			return
		}

		ref, err := h.storage.Upload(r.Context(), imageData, req.UserID, "reference")
		if err != nil {
			log.Printf("❌ [Outfit] Reference photo upload failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to upload reference photo")
			return
		}
		if err := h.repo.SetReferencePhoto(req.UserID, ref); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save reference photo")
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":           true,
			"referencePhotoRef": ref,
		})

	case "DELETE":
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "userId is required")
			return
		}
		if err := h.repo.ClearReferencePhoto(userID); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to clear reference photo")
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
