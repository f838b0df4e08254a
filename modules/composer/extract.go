package composer

// 합성 API마다 결과 이미지를 다른 모양으로 내려준다.
// 전략을 순서대로 시도하고, 처음 찾은 참조를 반환한다.

var refKeys = []string{"url", "imageUrl", "image_url", "image", "uri"}

var wrapperKeys = []string{"output", "result", "data", "images", "artifacts"}

type extractStrategy struct {
	name string
	fn   func(payload map[string]interface{}) (string, bool)
}

var extractStrategies = []extractStrategy{
	{"wrapper-array", extractWrapperArray},
	{"wrapper-string", extractWrapperString},
	{"top-level-field", extractTopLevelField},
	{"wrapper-object", extractWrapperObject},
}

// ExtractImageRef - 응답 페이로드에서 이미지 참조(URL 또는 base64) 추출
func ExtractImageRef(payload map[string]interface{}) (string, error) {
	tried := make([]string, 0, len(extractStrategies))
	for _, strategy := range extractStrategies {
		if ref, ok := strategy.fn(payload); ok {
			return ref, nil
		}
		tried = append(tried, strategy.name)
	}
	return "", &NoImageExtracted{Tried: tried}
}

// extractTopLevelField - {"url": "..."} 처럼 루트에 바로 있는 경우
func extractTopLevelField(payload map[string]interface{}) (string, bool) {
	return refFromObject(payload)
}

// extractWrapperString - {"output": "https://..."} 형태
func extractWrapperString(payload map[string]interface{}) (string, bool) {
	for _, key := range wrapperKeys {
		if s, ok := payload[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// extractWrapperArray - {"output": ["https://..."]} 또는 {"images": [{"url": "..."}]} 형태
func extractWrapperArray(payload map[string]interface{}) (string, bool) {
	for _, key := range wrapperKeys {
		arr, ok := payload[key].([]interface{})
		if !ok || len(arr) == 0 {
			continue
		}
		switch first := arr[0].(type) {
		case string:
			if first != "" {
				return first, true
			}
		case map[string]interface{}:
			if ref, ok := refFromObject(first); ok {
				return ref, true
			}
		}
	}
	return "", false
}

// extractWrapperObject - {"output": {"url": "..."}} 형태 (한 단계 중첩까지)
func extractWrapperObject(payload map[string]interface{}) (string, bool) {
	for _, key := range wrapperKeys {
		obj, ok := payload[key].(map[string]interface{})
		if !ok {
			continue
		}
		if ref, ok := refFromObject(obj); ok {
			return ref, true
		}
		// {"result": {"data": {"url": "..."}}} 같은 이중 래핑
		for _, inner := range wrapperKeys {
			if nested, ok := obj[inner].(map[string]interface{}); ok {
				if ref, ok := refFromObject(nested); ok {
					return ref, true
				}
			}
		}
	}
	return "", false
}

func refFromObject(obj map[string]interface{}) (string, bool) {
	for _, key := range refKeys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
