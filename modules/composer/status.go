package composer

import "strings"

// 폴링 응답의 상태 해석. API마다 필드명과 값이 제각각이다.

var statusKeys = []string{"status", "state", "jobStatus", "task_status"}

var jobIDKeys = []string{"jobId", "id", "taskId", "taskUUID"}

type jobPhase int

const (
	phaseProcessing jobPhase = iota
	phaseSucceeded
	phaseFailed
)

// readStatus - 페이로드의 상태 필드를 공통 단계로 매핑
func readStatus(payload map[string]interface{}) jobPhase {
	for _, key := range statusKeys {
		s, ok := payload[key].(string)
		if !ok {
			continue
		}
		switch strings.ToLower(s) {
		case "succeed", "succeeded", "success", "completed", "complete", "done", "finished":
			return phaseSucceeded
		case "failed", "fail", "error", "errored", "canceled", "cancelled", "rejected":
			return phaseFailed
		}
	}
	return phaseProcessing
}

// readFailReason - 실패 응답에서 사유 추출
func readFailReason(payload map[string]interface{}) string {
	for _, key := range []string{"error", "message", "failReason", "failure_reason", "detail"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
		if obj, ok := payload[key].(map[string]interface{}); ok {
			if s, ok := obj["message"].(string); ok && s != "" {
				return s
			}
		}
	}
	return "upstream reported failure without a reason"
}

// readJobID - 제출 응답에서 외부 작업 ID 추출
func readJobID(payload map[string]interface{}) (string, bool) {
	for _, key := range jobIDKeys {
		if s, ok := payload[key].(string); ok && s != "" {
			return s, true
		}
	}
	// {"data": {"task_id": ...}} 같은 래핑
	for _, wrapper := range wrapperKeys {
		if obj, ok := payload[wrapper].(map[string]interface{}); ok {
			for _, key := range jobIDKeys {
				if s, ok := obj[key].(string); ok && s != "" {
					return s, true
				}
			}
		}
	}
	return "", false
}
