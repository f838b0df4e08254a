package closet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outfitly-server/modules/vision"
)

type fakeCompleter struct {
	response string
	err      error
	lastImgs int
}

func (f *fakeCompleter) Complete(_ context.Context, _, _ string, images []vision.Image) (string, error) {
	f.lastImgs = len(images)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}

func TestAnalyzeItem_HappyPath(t *testing.T) {
	fake := &fakeCompleter{
		response: "```json\n" + `{
			"description": "oversized beige knit sweater",
			"aesthetics": ["cozy", "minimal"],
			"palette": ["#D2B48C", "not-a-color"],
			"suggestions": ["wear with straight jeans"]
		}` + "\n```",
	}
	service := NewService(fake, nil, nil)

	analysis, err := service.AnalyzeItem(context.Background(), jpegHeader)
	require.NoError(t, err)

	assert.Equal(t, "oversized beige knit sweater", analysis.Description)
	assert.Equal(t, []string{"cozy", "minimal"}, analysis.Aesthetics)
	assert.Equal(t, []string{"#D2B48C"}, analysis.Palette, "non-hex colors must be filtered out")
	assert.Equal(t, 1, fake.lastImgs)
}

func TestAnalyzeItem_EmptyAestheticsGetFallback(t *testing.T) {
	fake := &fakeCompleter{
		response: `{"description": "black leather belt", "aesthetics": [], "palette": ["#000000"], "suggestions": []}`,
	}
	service := NewService(fake, nil, nil)

	analysis, err := service.AnalyzeItem(context.Background(), jpegHeader)
	require.NoError(t, err)
	assert.Equal(t, []string{"minimal"}, analysis.Aesthetics)
}

func TestAnalyzeItem_MalformedResponse(t *testing.T) {
	fake := &fakeCompleter{response: "This looks like a nice sweater!"}
	service := NewService(fake, nil, nil)

	_, err := service.AnalyzeItem(context.Background(), jpegHeader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestDecodeImage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
		wantErr  bool
	}{
		{"plain base64", "aGVsbG8=", []byte("hello"), false},
		{"data uri", "data:image/png;base64,aGVsbG8=", []byte("hello"), false},
		{"garbage", "not base64!!!", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := decodeImage(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, data)
		})
	}
}
