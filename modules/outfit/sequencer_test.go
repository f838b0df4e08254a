package outfit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outfitly-server/modules/common/model"
)

type fakeComposer struct {
	baseErr   error
	failRoles map[model.CompositionRole]error
	baseCalls int
	applied   []model.CompositionRole
}

func (f *fakeComposer) CreateBaseModel(_ context.Context, _ string) (*model.CompositionJob, error) {
	f.baseCalls++
	if f.baseErr != nil {
		return nil, f.baseErr
	}
	return &model.CompositionJob{Status: model.JobSucceeded, ResultImage: []byte("base")}, nil
}

func (f *fakeComposer) ApplyGarment(_ context.Context, baseImage, _ []byte, role model.CompositionRole) (*model.CompositionJob, error) {
	f.applied = append(f.applied, role)
	if err, ok := f.failRoles[role]; ok {
		return nil, err
	}
	return &model.CompositionJob{
		Status:      model.JobSucceeded,
		ResultImage: []byte(string(baseImage) + "+" + string(role)),
	}, nil
}

type fakeStorage struct {
	uploads [][]byte
}

func (f *fakeStorage) Upload(_ context.Context, imageData []byte, _, _ string) (string, error) {
	f.uploads = append(f.uploads, imageData)
	return "outfit/final.webp", nil
}

type fakeOutfitStore struct {
	saved []model.Outfit
}

func (f *fakeOutfitStore) SaveOutfit(outfit model.Outfit) (*model.Outfit, error) {
	f.saved = append(f.saved, outfit)
	saved := outfit
	saved.ID = "outfit-1"
	return &saved, nil
}

func testInput(items ...model.ClosetItem) Input {
	images := make(map[string][]byte, len(items))
	for _, item := range items {
		images[item.ID] = []byte("img-" + item.ID)
	}
	return Input{
		JobID:  "job-1",
		UserID: "user-1",
		Items:  items,
		Images: images,
		Selection: model.SelectionResult{
			Style:       "casual",
			ColorScheme: "navy and white",
		},
	}
}

func item(id, description string) model.ClosetItem {
	return model.ClosetItem{ID: id, Description: description}
}

func TestCompose_AppliesGarmentsInOrder(t *testing.T) {
	composer := &fakeComposer{}
	storage := &fakeStorage{}
	store := &fakeOutfitStore{}
	sequencer := NewSequencer(composer, storage, store)

	// 일부러 순서를 섞어서 넣는다
	input := testInput(
		item("boots", "brown leather boots"),
		item("jeans", "straight blue jeans"),
		item("cap", "black baseball cap"),
		item("shirt", "white cotton t-shirt"),
	)

	outfit, err := sequencer.Compose(context.Background(), input)
	require.NoError(t, err)

	// 의류가 먼저 (상의 → 하의), 악세사리는 뒤에 (모자 → 신발)
	assert.Equal(t, []model.CompositionRole{
		model.RoleTop,
		model.RoleBottom,
		model.RoleAccessoryHat,
		model.RoleAccessoryShoe,
	}, composer.applied)

	// 각 단계의 결과가 다음 단계의 입력으로 이어진다
	require.Len(t, storage.uploads, 1)
	assert.Equal(t, "base+top+bottom+accessory_hat+accessory_shoe", string(storage.uploads[0]))

	require.Len(t, store.saved, 1)
	assert.Equal(t, "outfit-1", outfit.ID)
	assert.Equal(t, "outfit/final.webp", outfit.FinalImageRef)
	assert.Len(t, outfit.SelectedItems, 4)
}

func TestCompose_ClothingFailureAborts(t *testing.T) {
	composer := &fakeComposer{
		failRoles: map[model.CompositionRole]error{
			model.RoleBottom: errors.New("upstream rejected garment"),
		},
	}
	storage := &fakeStorage{}
	store := &fakeOutfitStore{}
	sequencer := NewSequencer(composer, storage, store)

	input := testInput(
		item("shirt", "white cotton t-shirt"),
		item("jeans", "straight blue jeans"),
		item("boots", "brown leather boots"),
	)

	_, err := sequencer.Compose(context.Background(), input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bottom", "error should name the failing garment role")

	// 의류 실패 후에는 악세사리 시도도, 저장도 없어야 한다
	assert.Equal(t, []model.CompositionRole{model.RoleTop, model.RoleBottom}, composer.applied)
	assert.Empty(t, storage.uploads)
	assert.Empty(t, store.saved)
}

func TestCompose_AccessoryFailureIsSkipped(t *testing.T) {
	composer := &fakeComposer{
		failRoles: map[model.CompositionRole]error{
			model.RoleAccessoryShoe: errors.New("shoe composition timed out"),
		},
	}
	storage := &fakeStorage{}
	store := &fakeOutfitStore{}
	sequencer := NewSequencer(composer, storage, store)

	var skipped []string
	sequencer.OnStep = func(step, status, message string) {
		if status == "skipped" {
			skipped = append(skipped, message)
		}
	}

	input := testInput(
		item("shirt", "white cotton t-shirt"),
		item("boots", "brown leather boots"),
		item("cap", "black baseball cap"),
	)

	outfit, err := sequencer.Compose(context.Background(), input)
	require.NoError(t, err, "accessory failure must not abort the pipeline")

	// 실패한 신발은 건너뛰고 직전 이미지가 최종본이 된다
	require.Len(t, storage.uploads, 1)
	assert.Equal(t, "base+top+accessory_hat", string(storage.uploads[0]))
	assert.Equal(t, []string{"accessory_shoe"}, skipped)
	assert.NotNil(t, outfit)
	assert.Len(t, store.saved, 1)
}

func TestCompose_ReferencePhotoSkipsModelGeneration(t *testing.T) {
	composer := &fakeComposer{}
	storage := &fakeStorage{}
	sequencer := NewSequencer(composer, storage, &fakeOutfitStore{})

	input := testInput(
		item("shirt", "white cotton t-shirt"),
		item("jeans", "straight blue jeans"),
	)
	input.ReferencePhoto = []byte("user-photo")

	_, err := sequencer.Compose(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 0, composer.baseCalls, "reference photo must replace model generation")
	assert.Equal(t, "user-photo+top+bottom", string(storage.uploads[0]))
}

func TestCompose_BaseModelFailure(t *testing.T) {
	composer := &fakeComposer{baseErr: errors.New("model api unavailable")}
	store := &fakeOutfitStore{}
	sequencer := NewSequencer(composer, &fakeStorage{}, store)

	input := testInput(
		item("shirt", "white cotton t-shirt"),
		item("jeans", "straight blue jeans"),
	)

	_, err := sequencer.Compose(context.Background(), input)
	require.ErrorIs(t, err, ErrBaseModelUnavailable)
	assert.Empty(t, composer.applied)
	assert.Empty(t, store.saved)
}

func TestCompose_CancelledBetweenSteps(t *testing.T) {
	composer := &fakeComposer{}
	store := &fakeOutfitStore{}
	sequencer := NewSequencer(composer, &fakeStorage{}, store)

	calls := 0
	sequencer.IsCancelled = func(jobID string) bool {
		assert.Equal(t, "job-1", jobID)
		calls++
		// 첫 의류 단계 이후 취소
		return calls > 1
	}

	input := testInput(
		item("shirt", "white cotton t-shirt"),
		item("jeans", "straight blue jeans"),
	)

	_, err := sequencer.Compose(context.Background(), input)
	require.ErrorIs(t, err, ErrCancelled)

	assert.Equal(t, []model.CompositionRole{model.RoleTop}, composer.applied)
	assert.Empty(t, store.saved, "cancelled jobs must not persist anything")
}

func TestCompose_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sequencer := NewSequencer(&fakeComposer{}, &fakeStorage{}, &fakeOutfitStore{})
	input := testInput(
		item("shirt", "white cotton t-shirt"),
		item("jeans", "straight blue jeans"),
	)
	input.ReferencePhoto = []byte("user-photo")

	_, err := sequencer.Compose(ctx, input)
	require.ErrorIs(t, err, context.Canceled)
}
