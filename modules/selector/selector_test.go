package selector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outfitly-server/modules/common/model"
	"outfitly-server/modules/vision"
)

type fakeCompleter struct {
	response string
	err      error
	calls    int
	lastText string
	lastImgs int
}

func (f *fakeCompleter) Complete(_ context.Context, _, userText string, images []vision.Image) (string, error) {
	f.calls++
	f.lastText = userText
	f.lastImgs = len(images)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func candidateSet(ids ...string) []Candidate {
	candidates := make([]Candidate, len(ids))
	for i, id := range ids {
		candidates[i] = Candidate{
			Item: model.ClosetItem{
				ID:          id,
				Description: "item " + id,
				Aesthetics:  []string{"casual"},
				Palette:     []string{"#112233"},
			},
			Image: []byte{0xFF, 0xD8, 0xFF, 0xE0},
		}
	}
	return candidates
}

func TestSelect_InsufficientItemsSkipsNetwork(t *testing.T) {
	fake := &fakeCompleter{}
	service := NewService(fake)

	for _, candidates := range [][]Candidate{nil, candidateSet("a")} {
		_, err := service.Select(context.Background(), candidates)
		require.ErrorIs(t, err, ErrInsufficientItems)
	}
	assert.Equal(t, 0, fake.calls, "no upstream call should happen below the item floor")
}

func TestSelect_HappyPath(t *testing.T) {
	fake := &fakeCompleter{
		response: "```json\n" + `{
			"selectedIds": ["a", "c"],
			"outfitDescription": "relaxed weekend look",
			"style": "casual",
			"occasion": "weekend",
			"colorScheme": "navy and white",
			"reasoning": "soft contrast"
		}` + "\n```",
	}
	service := NewService(fake)

	result, err := service.Select(context.Background(), candidateSet("a", "b", "c"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, result.SelectedIDs)
	assert.Equal(t, "casual", result.Style)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, 3, fake.lastImgs, "every candidate image should be attached")
	assert.Contains(t, fake.lastText, "id: b")
}

func TestSelect_UnknownIDsDropped(t *testing.T) {
	fake := &fakeCompleter{
		response: `{"selectedIds": ["a", "ghost", "b"], "outfitDescription": "x", "style": "y", "occasion": "z", "colorScheme": "w", "reasoning": "r"}`,
	}
	service := NewService(fake)

	result, err := service.Select(context.Background(), candidateSet("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, result.SelectedIDs)
}

func TestSelect_DuplicateIDsDropped(t *testing.T) {
	fake := &fakeCompleter{
		response: `{"selectedIds": ["a", "a", "b"], "outfitDescription": "x", "style": "y", "occasion": "z", "colorScheme": "w", "reasoning": "r"}`,
	}
	service := NewService(fake)

	result, err := service.Select(context.Background(), candidateSet("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, result.SelectedIDs, "each item appears at most once")
}

func TestSelect_AllIDsUnknown(t *testing.T) {
	fake := &fakeCompleter{
		response: `{"selectedIds": ["ghost-1", "ghost-2"]}`,
	}
	service := NewService(fake)

	_, err := service.Select(context.Background(), candidateSet("a", "b"))
	require.ErrorIs(t, err, ErrEmptySelection)
}

func TestSelect_MalformedResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose instead of json", "I would pick the blue shirt and the jeans."},
		{"json without selectedIds", `{"outfitDescription": "a look"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(&fakeCompleter{response: tt.response})
			_, err := service.Select(context.Background(), candidateSet("a", "b"))
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestSelect_UpstreamErrorPropagates(t *testing.T) {
	upstream := &vision.UpstreamError{Status: 500, Body: "internal"}
	fake := &fakeCompleter{err: upstream}
	service := NewService(fake)

	_, err := service.Select(context.Background(), candidateSet("a", "b"))
	require.Error(t, err)

	var ue *vision.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 500, ue.Status)
	assert.False(t, errors.Is(err, ErrMalformedResponse))
}
