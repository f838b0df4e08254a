package progress

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// 아웃핏 생성은 수십 초 걸리는 작업이라 진행 상황을 WebSocket으로 내보낸다.
// 클라이언트는 /ws/outfits?job=<jobId>로 구독한다.

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 개발용 - 모든 origin 허용
		return true
	},
}

// Event - 진행 상황 이벤트
type Event struct {
	JobID   string `json:"jobId"`
	Step    string `json:"step"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// topic - 작업 1건의 구독자 묶음
type topic struct {
	jobID        string
	subscribers  map[*subscriber]bool
	mutex        sync.RWMutex
	createdAt    time.Time
	lastActivity time.Time
}

// Hub - 작업별 구독 관리
type Hub struct {
	topics map[string]*topic
	mutex  sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]*topic)}
}

func (h *Hub) getOrCreateTopic(jobID string) *topic {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	t, exists := h.topics[jobID]
	if !exists {
		now := time.Now()
		t = &topic{
			jobID:        jobID,
			subscribers:  make(map[*subscriber]bool),
			createdAt:    now,
			lastActivity: now,
		}
		h.topics[jobID] = t
		log.Printf("✅ [Progress] Created topic for job %s", jobID)
	}
	t.lastActivity = time.Now()
	return t
}

// Publish - 작업의 모든 구독자에게 이벤트 전송
// 구독자가 없으면 조용히 무시한다 (진행은 구독 여부와 무관).
func (h *Hub) Publish(jobID, step, status, message string) {
	h.mutex.RLock()
	t, exists := h.topics[jobID]
	h.mutex.RUnlock()
	if !exists {
		return
	}

	payload, err := json.Marshal(Event{
		JobID:   jobID,
		Step:    step,
		Status:  status,
		Message: message,
	})
	if err != nil {
		log.Printf("❌ [Progress] Failed to marshal event: %v", err)
		return
	}

	t.mutex.Lock()
	t.lastActivity = time.Now()
	for sub := range t.subscribers {
		select {
		case sub.send <- payload:
		default:
			// 밀린 구독자는 끊는다
			close(sub.send)
			delete(t.subscribers, sub)
		}
	}
	t.mutex.Unlock()
}

// HandleWebSocket - GET /ws/outfits?job=<jobId>
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job")
	if jobID == "" {
		http.Error(w, "job parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ [Progress] WebSocket upgrade failed: %v", err)
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, 64),
	}

	t := h.getOrCreateTopic(jobID)
	t.mutex.Lock()
	t.subscribers[sub] = true
	count := len(t.subscribers)
	t.mutex.Unlock()

	log.Printf("🔌 [Progress] Subscriber joined job %s (subscribers: %d)", jobID, count)

	go sub.writePump()
	go sub.readPump(t)
}

// readPump - 클라이언트 메시지는 안 받는다. 연결 종료 감지용.
func (s *subscriber) readPump(t *topic) {
	defer func() {
		t.mutex.Lock()
		if _, exists := t.subscribers[s]; exists {
			close(s.send)
			delete(t.subscribers, s)
		}
		remaining := len(t.subscribers)
		t.mutex.Unlock()
		s.conn.Close()
		log.Printf("👋 [Progress] Subscriber left job %s (remaining: %d)", t.jobID, remaining)
	}()

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️  [Progress] WebSocket error: %v", err)
			}
			return
		}
	}
}

func (s *subscriber) writePump() {
	defer s.conn.Close()

	for message := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("⚠️  [Progress] WebSocket write error: %v", err)
			return
		}
	}
	s.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// StartCleanupRoutine - 오래된 토픽 정리 (작업은 보통 몇 분 안에 끝난다)
func (h *Hub) StartCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			h.cleanupStaleTopics()
		}
	}()

	log.Printf("🔄 [Progress] Started topic cleanup routine (10min)")
}

func (h *Hub) cleanupStaleTopics() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	staleThreshold := 30 * time.Minute
	now := time.Now()

	cleaned := 0
	for jobID, t := range h.topics {
		t.mutex.RLock()
		stale := len(t.subscribers) == 0 && now.Sub(t.lastActivity) > staleThreshold
		t.mutex.RUnlock()

		if stale {
			delete(h.topics, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		log.Printf("🧹 [Progress] Cleaned up %d stale topics", cleaned)
	}
}
