package wardrobe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/supabase-community/supabase-go"

	"outfitly-server/modules/common/model"
)

// fakeRestServer - PostgREST 응답 형태를 흉내내는 테스트 서버
// Insert는 id/created_at을 붙여 저장하고, Select는 저장된 행을 돌려준다
func fakeRestServer(t *testing.T) (*httptest.Server, *[]map[string]interface{}) {
	t.Helper()

	rows := []map[string]interface{}{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.Method {
		case "POST":
			var row map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&row))
			row["id"] = "outfit-1"
			row["created_at"] = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
			rows = append(rows, row)
			json.NewEncoder(w).Encode([]map[string]interface{}{row})
		case "GET":
			json.NewEncoder(w).Encode(rows)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	return server, &rows
}

func newTestRepository(t *testing.T, serverURL string) *Repository {
	t.Helper()

	client, err := supabase.NewClient(serverURL, "test-service-key", &supabase.ClientOptions{})
	require.NoError(t, err)
	return &Repository{supabase: client}
}

func TestSaveOutfitRoundTrip(t *testing.T) {
	server, _ := fakeRestServer(t)
	defer server.Close()
	repo := newTestRepository(t, server.URL)

	createdAt := time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC)
	items := []model.ClosetItem{
		{
			ID:          "item-1",
			CreatedAt:   createdAt,
			UserID:      "demo-user",
			ImageRef:    "item/user-demo-user/item_1.webp",
			Description: "white cotton t-shirt",
			Aesthetics:  []string{"minimal", "casual"},
			Palette:     []string{"#FFFFFF"},
			Suggestions: []string{"pair with denim"},
		},
		{
			ID:          "item-2",
			CreatedAt:   createdAt,
			UserID:      "demo-user",
			ImageRef:    "item/user-demo-user/item_2.webp",
			Description: "blue denim jeans",
			Aesthetics:  []string{"casual"},
			Palette:     []string{"#1A2B6D"},
			Suggestions: []string{"roll the cuffs"},
		},
	}
	selection := model.SelectionResult{
		SelectedIDs:       []string{"item-1", "item-2"},
		OutfitDescription: "clean everyday look",
		Style:             "casual",
		Occasion:          "weekend",
		ColorScheme:       "white and indigo",
		Reasoning:         "neutral top grounds the dark denim",
	}

	saved, err := repo.SaveOutfit(model.Outfit{
		UserID:        "demo-user",
		SelectedItems: items,
		Selection:     selection,
		FinalImageRef: "outfit/user-demo-user/outfit_1.webp",
	})
	require.NoError(t, err)
	require.Equal(t, "outfit-1", saved.ID)

	loaded, err := repo.ListOutfits("demo-user")
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	require.Equal(t, items, loaded[0].SelectedItems)
	require.Equal(t, selection, loaded[0].Selection)
	require.Equal(t, "outfit/user-demo-user/outfit_1.webp", loaded[0].FinalImageRef)
}
