package outfit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"outfitly-server/modules/common/config"
	"outfitly-server/modules/common/model"
	commonredis "outfitly-server/modules/common/redis"
	"outfitly-server/modules/composer"
	"outfitly-server/modules/progress"
	"outfitly-server/modules/selector"
	"outfitly-server/modules/vision"
	"outfitly-server/modules/wardrobe"
)

// Worker - 아웃핏 생성 큐 소비자
type Worker struct {
	rdb      *goredis.Client
	repo     *wardrobe.Repository
	storage  *wardrobe.Storage
	selector *selector.Service
	composer Composer
	hub      *progress.Hub
}

// StartWorker - Redis Queue Worker 시작
func StartWorker(hub *progress.Hub) {
	log.Println("🔄 Outfit Queue Worker starting...")

	cfg := config.GetConfig()

	rdb := commonredis.Connect(cfg)
	if rdb == nil {
		log.Fatal("❌ Failed to connect to Redis")
		return
	}
	log.Println("✅ Redis connected successfully")

	repo, err := wardrobe.NewRepository()
	if err != nil {
		log.Fatalf("❌ Failed to initialize repository: %v", err)
		return
	}
	storage := wardrobe.NewStorage()
	visionClient := vision.NewClient()

	worker := &Worker{
		rdb:      rdb,
		repo:     repo,
		storage:  storage,
		selector: selector.NewService(visionClient),
		composer: NewCompositionAPI(composer.NewClient()),
		hub:      hub,
	}

	log.Printf("👀 Watching queue: %s", commonredis.OutfitQueue)

	ctx := context.Background()

	for {
		result, err := rdb.BRPop(ctx, 0, commonredis.OutfitQueue).Result()
		if err != nil {
			log.Printf("❌ Redis BRPOP error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		// result[0]은 큐 이름, result[1]이 job_id
		jobID := result[1]
		log.Printf("🎯 Received outfit job: %s", jobID)

		go worker.processJob(ctx, jobID)
	}
}

// processJob - 아웃핏 생성 작업 1건 처리
func (w *Worker) processJob(ctx context.Context, jobID string) {
	log.Printf("🚀 Processing outfit job: %s", jobID)

	job, err := w.repo.FetchOutfitJob(jobID)
	if err != nil {
		log.Printf("❌ Failed to fetch job %s: %v", jobID, err)
		return
	}
	if job.JobStatus != model.StatusPending {
		log.Printf("⚠️  Job %s is %s, skipping", jobID, job.JobStatus)
		return
	}

	// 큐 대기 중에 취소됐을 수 있다
	if commonredis.IsJobCancelled(w.rdb, jobID) {
		log.Printf("🛑 Job %s was cancelled while queued", jobID)
		w.repo.UpdateJobStatus(jobID, model.StatusUserCancelled)
		w.hub.Publish(jobID, "", model.StatusUserCancelled, "cancelled before start")
		return
	}

	w.repo.UpdateJobStatus(jobID, model.StatusProcessing)

	// 1. 옷장 스냅샷 로드
	w.publishStep(jobID, model.StepSelecting, "started", "")
	candidates, images, err := w.loadCloset(ctx, job.UserID)
	if err != nil {
		w.failJob(jobID, fmt.Errorf("failed to load closet: %w", err))
		return
	}

	// 2. 아웃핏 선택
	selection, err := w.selector.Select(ctx, candidates)
	if err != nil {
		w.failJob(jobID, err)
		return
	}
	w.publishStep(jobID, model.StepSelecting, "done", selection.OutfitDescription)

	selectedItems, selectedImages := pickSelected(candidates, images, selection.SelectedIDs)

	// 3. 기준 사진 (없으면 Sequencer가 모델을 생성한다)
	referencePhoto := w.loadReferencePhoto(ctx, job.UserID)

	// 4. 합성 파이프라인 (콜백이 jobID에 묶여서 작업마다 새로 만든다)
	sequencer := NewSequencer(w.composer, w.storage, w.repo)
	sequencer.IsCancelled = func(jobID string) bool {
		return commonredis.IsJobCancelled(w.rdb, jobID)
	}
	sequencer.OnStep = func(step, status, message string) {
		w.publishStep(jobID, step, status, message)
		if status == "started" {
			w.repo.UpdateJobStep(jobID, step)
		}
	}

	outfit, err := sequencer.Compose(ctx, Input{
		JobID:          jobID,
		UserID:         job.UserID,
		Items:          selectedItems,
		Images:         selectedImages,
		Selection:      *selection,
		ReferencePhoto: referencePhoto,
	})
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			w.repo.UpdateJobStatus(jobID, model.StatusUserCancelled)
			w.hub.Publish(jobID, "", model.StatusUserCancelled, "")
			return
		}
		w.failJob(jobID, err)
		return
	}

	// 5. 완료 처리
	w.repo.SetJobOutfit(jobID, outfit.ID)
	w.repo.UpdateJobStatus(jobID, model.StatusCompleted)
	w.hub.Publish(jobID, model.StepSaving, model.StatusCompleted, outfit.ID)

	log.Printf("✅ Outfit job %s completed: outfit %s", jobID, outfit.ID)
}

// loadCloset - 옷장 아이템 전체와 원본 이미지 로드
func (w *Worker) loadCloset(ctx context.Context, userID string) ([]selector.Candidate, map[string][]byte, error) {
	items, err := w.repo.ListClosetItems(userID)
	if err != nil {
		return nil, nil, err
	}

	candidates := make([]selector.Candidate, 0, len(items))
	images := make(map[string][]byte, len(items))
	for _, item := range items {
		data, err := w.storage.Download(ctx, item.ImageRef)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to download image for item %s: %w", item.ID, err)
		}
		candidates = append(candidates, selector.Candidate{Item: item, Image: data})
		images[item.ID] = data
	}
	return candidates, images, nil
}

// loadReferencePhoto - 기준 사진 로드 (없거나 실패하면 nil)
func (w *Worker) loadReferencePhoto(ctx context.Context, userID string) []byte {
	ref, err := w.repo.GetReferencePhoto(userID)
	if err != nil {
		log.Printf("⚠️  Failed to look up reference photo: %v", err)
		return nil
	}
	if ref == "" {
		return nil
	}

	data, err := w.storage.Download(ctx, ref)
	if err != nil {
		log.Printf("⚠️  Failed to download reference photo, generating model instead: %v", err)
		return nil
	}
	return data
}

// pickSelected - 선택된 ID 순서대로 아이템과 이미지를 추린다
func pickSelected(candidates []selector.Candidate, images map[string][]byte, selectedIDs []string) ([]model.ClosetItem, map[string][]byte) {
	byID := make(map[string]model.ClosetItem, len(candidates))
	for _, candidate := range candidates {
		byID[candidate.Item.ID] = candidate.Item
	}

	items := make([]model.ClosetItem, 0, len(selectedIDs))
	selected := make(map[string][]byte, len(selectedIDs))
	for _, id := range selectedIDs {
		if item, ok := byID[id]; ok {
			items = append(items, item)
			selected[id] = images[id]
		}
	}
	return items, selected
}

func (w *Worker) failJob(jobID string, err error) {
	log.Printf("❌ Outfit job %s failed: %v", jobID, err)
	w.repo.SetJobError(jobID, err.Error())
	w.repo.UpdateJobStatus(jobID, model.StatusFailed)
	w.hub.Publish(jobID, "", model.StatusFailed, err.Error())
}

func (w *Worker) publishStep(jobID, step, status, message string) {
	w.hub.Publish(jobID, step, status, message)
}
