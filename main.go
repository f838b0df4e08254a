package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"outfitly-server/modules/closet"
	"outfitly-server/modules/common/config"
	commonredis "outfitly-server/modules/common/redis"
	"outfitly-server/modules/outfit"
	"outfitly-server/modules/progress"
	"outfitly-server/modules/vision"
	"outfitly-server/modules/wardrobe"
)

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "outfitly-server",
	})
}

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// 공용 리소스 초기화
	rdb := commonredis.Connect(cfg)
	if rdb == nil {
		log.Fatal("❌ Failed to connect to Redis")
	}

	repo, err := wardrobe.NewRepository()
	if err != nil {
		log.Fatalf("❌ Failed to initialize repository: %v", err)
	}
	storage := wardrobe.NewStorage()
	visionClient := vision.NewClient()

	// 진행 상황 허브
	hub := progress.NewHub()
	hub.StartCleanupRoutine()

	// Outfit Queue Worker 시작 (백그라운드)
	go outfit.StartWorker(hub)

	// 핸들러 구성
	closetHandler := closet.NewHandler(closet.NewService(visionClient, repo, storage), repo)
	outfitHandler := outfit.NewHandler(repo, storage, rdb)

	// 라우터 설정
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")

	// 옷장
	r.HandleFunc("/api/closet/analyze", closetHandler.HandleAnalyze).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/closet/items", closetHandler.HandleItems).Methods("POST", "GET", "DELETE", "OPTIONS")
	r.HandleFunc("/api/closet/items/{id}", closetHandler.HandleDeleteItem).Methods("DELETE", "OPTIONS")

	// 아웃핏
	r.HandleFunc("/api/outfits/generate", outfitHandler.HandleGenerate).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/outfits", outfitHandler.HandleListOutfits).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/outfits/jobs/{jobId}", outfitHandler.HandleJobStatus).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/outfits/jobs/{jobId}/cancel", outfitHandler.HandleCancelJob).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/outfits/{id}", outfitHandler.HandleDeleteOutfit).Methods("DELETE", "OPTIONS")

	// 프로필
	r.HandleFunc("/api/profile/reference-photo", outfitHandler.HandleReferencePhoto).Methods("GET", "PUT", "DELETE", "OPTIONS")

	// 진행 상황 WebSocket
	r.HandleFunc("/ws/outfits", hub.HandleWebSocket)

	log.Printf("🚀 Outfitly Server starting on port %s", cfg.Port)
	log.Printf("📡 Progress WebSocket: ws://localhost:%s/ws/outfits?job=<jobId>", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
