package redis

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"outfitly-server/modules/common/config"
)

// OutfitQueue - 아웃핏 생성 작업 큐 이름
const OutfitQueue = "outfits:queue"

// Connect - Redis 연결 생성
func Connect(cfg *config.Config) *redis.Client {
	log.Printf("🔌 Connecting to Redis: %s", cfg.GetRedisAddr())

	// TLS 설정 (InsecureSkipVerify 추가)
	var tlsConfig *tls.Config
	if cfg.RedisUseTLS {
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, // Render.com Redis용
		}
	}

	// Redis 클라이언트 생성
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		TLSConfig:    tlsConfig,
		DB:           0,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// 연결 테스트
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("🔍 Testing Redis connection...")
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("❌ Redis ping failed: %v", err)
		return nil
	}

	return rdb
}

// EnqueueOutfitJob - 아웃핏 생성 작업을 큐에 추가
func EnqueueOutfitJob(ctx context.Context, rdb *redis.Client, jobID string) error {
	if err := rdb.LPush(ctx, OutfitQueue, jobID).Err(); err != nil {
		return err
	}
	log.Printf("📬 Job %s enqueued to %s", jobID, OutfitQueue)
	return nil
}

// MarkJobCancelled - 작업 취소 플래그 설정 (TTL 5분)
func MarkJobCancelled(ctx context.Context, rdb *redis.Client, jobID string) error {
	return rdb.Set(ctx, cancelKey(jobID), "1", 5*time.Minute).Err()
}

// IsJobCancelled - 작업 취소 여부 확인
func IsJobCancelled(rdb *redis.Client, jobID string) bool {
	if rdb == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	exists, err := rdb.Exists(ctx, cancelKey(jobID)).Result()
	if err != nil {
		log.Printf("⚠️  Failed to check cancel flag for job %s: %v", jobID, err)
		return false
	}
	return exists > 0
}

func cancelKey(jobID string) string {
	return "outfit:cancel:" + jobID
}
