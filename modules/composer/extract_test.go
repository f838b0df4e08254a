package composer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsePayload(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	payload := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return payload
}

func TestExtractImageRef_EquivalentShapes(t *testing.T) {
	// 같은 결과가 서로 다른 모양으로 내려와도 같은 참조가 나와야 한다
	shapes := []string{
		`{"output": ["http://x/img.png"]}`,
		`{"output": {"url": "http://x/img.png"}}`,
		`{"output": "http://x/img.png"}`,
		`{"url": "http://x/img.png"}`,
		`{"images": [{"imageUrl": "http://x/img.png"}]}`,
		`{"result": {"data": {"image_url": "http://x/img.png"}}}`,
	}

	for _, raw := range shapes {
		ref, err := ExtractImageRef(parsePayload(t, raw))
		require.NoError(t, err, "shape: %s", raw)
		assert.Equal(t, "http://x/img.png", ref, "shape: %s", raw)
	}
}

func TestExtractImageRef_ShapePriority(t *testing.T) {
	// 한 응답에 여러 모양이 섞였을 때의 우선순위:
	// 배열 래퍼 > 문자열 래퍼 > 루트 키 > 객체 래퍼
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			"array wins over string wrapper",
			`{"output": ["http://x/array.png"], "result": "http://x/string.png"}`,
			"http://x/array.png",
		},
		{
			"string wrapper wins over top-level key",
			`{"output": "http://x/string.png", "url": "http://x/top.png"}`,
			"http://x/string.png",
		},
		{
			"top-level key wins over object wrapper",
			`{"url": "http://x/top.png", "result": {"url": "http://x/wrapped.png"}}`,
			"http://x/top.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ExtractImageRef(parsePayload(t, tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ref)
		})
	}
}

func TestExtractImageRef_KeyVariants(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"uri key", `{"uri": "http://x/a.png"}`, "http://x/a.png"},
		{"image key", `{"data": {"image": "aGVsbG8="}}`, "aGVsbG8="},
		{"artifacts array", `{"artifacts": ["http://x/b.webp"]}`, "http://x/b.webp"},
		{"first of several", `{"images": ["http://x/1.png", "http://x/2.png"]}`, "http://x/1.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ExtractImageRef(parsePayload(t, tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ref)
		})
	}
}

func TestExtractImageRef_NothingFound(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty object", `{}`},
		{"status only", `{"status": "processing", "jobId": "j-1"}`},
		{"empty array", `{"output": []}`},
		{"non-string leaf", `{"output": {"url": 42}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractImageRef(parsePayload(t, tt.raw))
			require.Error(t, err)

			var noImage *NoImageExtracted
			require.ErrorAs(t, err, &noImage)
			assert.NotEmpty(t, noImage.Tried)
		})
	}
}

func TestReadJobID(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		found    bool
	}{
		{"jobId", `{"jobId": "j-1"}`, "j-1", true},
		{"plain id", `{"id": "j-2"}`, "j-2", true},
		{"taskUUID", `{"taskUUID": "t-3"}`, "t-3", true},
		{"wrapped task id", `{"data": {"taskId": "t-4"}}`, "t-4", true},
		{"jobId wins over id", `{"jobId": "j-5", "id": "other"}`, "j-5", true},
		{"missing", `{"status": "queued"}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := readJobID(parsePayload(t, tt.raw))
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestReadStatus(t *testing.T) {
	tests := []struct {
		raw      string
		expected jobPhase
	}{
		{`{"status": "succeed"}`, phaseSucceeded},
		{`{"status": "SUCCEEDED"}`, phaseSucceeded},
		{`{"state": "done"}`, phaseSucceeded},
		{`{"status": "failed"}`, phaseFailed},
		{`{"task_status": "error"}`, phaseFailed},
		{`{"status": "processing"}`, phaseProcessing},
		{`{"status": "queued"}`, phaseProcessing},
		{`{}`, phaseProcessing},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, readStatus(parsePayload(t, tt.raw)), "payload: %s", tt.raw)
	}
}
