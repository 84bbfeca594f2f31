package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gala/internal/model"
)

const ownEvent = int64(7)

var (
	errStore    = errors.New("store unavailable")
	errNotFound = errors.New("row not found")
)

type fakeMediaStore struct {
	items       map[int64]*model.MediaItem
	cats        map[int64]*model.HighlightCategory
	failOn      map[int64]error
	clearErr    error
	clearedCats []int64
	deletedCats []int64
}

func newFakeMediaStore(ids ...int64) *fakeMediaStore {
	s := &fakeMediaStore{
		items:  make(map[int64]*model.MediaItem),
		cats:   make(map[int64]*model.HighlightCategory),
		failOn: make(map[int64]error),
	}
	for _, id := range ids {
		s.items[id] = &model.MediaItem{ID: id, EventID: ownEvent, Status: model.MediaPending}
	}
	return s
}

func (s *fakeMediaStore) GetMediaItem(_ context.Context, eventID, id int64) (*model.MediaItem, error) {
	item, ok := s.items[id]
	if !ok || item.EventID != eventID {
		return nil, errNotFound
	}
	return item, nil
}

func (s *fakeMediaStore) UpdateMediaStatus(_ context.Context, eventID, id int64, status string) error {
	if err := s.failOn[id]; err != nil {
		return err
	}
	item, ok := s.items[id]
	if !ok || item.EventID != eventID {
		return errNotFound
	}
	item.Status = status
	return nil
}

func (s *fakeMediaStore) DeleteMediaItem(_ context.Context, eventID, id int64) error {
	if err := s.failOn[id]; err != nil {
		return err
	}
	item, ok := s.items[id]
	if !ok || item.EventID != eventID {
		return errNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *fakeMediaStore) GetCategory(_ context.Context, eventID, id int64) (*model.HighlightCategory, error) {
	c, ok := s.cats[id]
	if !ok || c.EventID != eventID {
		return nil, errNotFound
	}
	return c, nil
}

func (s *fakeMediaStore) ClearCategoryRefs(_ context.Context, eventID, categoryID int64) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	s.clearedCats = append(s.clearedCats, categoryID)
	for _, item := range s.items {
		if item.EventID == eventID && item.CategoryID != nil && *item.CategoryID == categoryID {
			item.CategoryID = nil
		}
	}
	return nil
}

func (s *fakeMediaStore) DeleteCategory(_ context.Context, eventID, id int64) error {
	c, ok := s.cats[id]
	if !ok || c.EventID != eventID {
		return errNotFound
	}
	delete(s.cats, id)
	s.deletedCats = append(s.deletedCats, id)
	return nil
}

type fakeWishStore struct {
	wishes map[int64]*model.GuestWish
	failOn map[int64]error
}

func (s *fakeWishStore) GetWish(_ context.Context, eventID, id int64) (*model.GuestWish, error) {
	w, ok := s.wishes[id]
	if !ok || w.EventID != eventID {
		return nil, errNotFound
	}
	return w, nil
}

func (s *fakeWishStore) UpdateWishApproved(_ context.Context, eventID, id int64, approved bool) error {
	if err := s.failOn[id]; err != nil {
		return err
	}
	w, ok := s.wishes[id]
	if !ok || w.EventID != eventID {
		return errNotFound
	}
	w.Approved = approved
	return nil
}

func (s *fakeWishStore) DeleteWish(_ context.Context, eventID, id int64) error {
	if err := s.failOn[id]; err != nil {
		return err
	}
	w, ok := s.wishes[id]
	if !ok || w.EventID != eventID {
		return errNotFound
	}
	delete(s.wishes, id)
	return nil
}

func newWorkflow(media *fakeMediaStore, wishes *fakeWishStore) *Workflow {
	log := zerolog.Nop()
	if wishes == nil {
		wishes = &fakeWishStore{wishes: map[int64]*model.GuestWish{}, failOn: map[int64]error{}}
	}
	return NewWorkflow(media, wishes, &log)
}

func TestApproveMediaIdempotent(t *testing.T) {
	store := newFakeMediaStore(1)
	w := newWorkflow(store, nil)
	ctx := context.Background()

	require.NoError(t, w.ApproveMedia(ctx, ownEvent, 1))
	assert.Equal(t, model.MediaApproved, store.items[1].Status)

	// Second approval is a no-op success even when the store would fail.
	store.failOn[1] = errStore
	require.NoError(t, w.ApproveMedia(ctx, ownEvent, 1))
}

func TestApproveMediaOfOtherEventIsNotFound(t *testing.T) {
	store := newFakeMediaStore(1)
	store.items[55] = &model.MediaItem{ID: 55, EventID: 999, Status: model.MediaPending}
	w := newWorkflow(store, nil)

	err := w.ApproveMedia(context.Background(), ownEvent, 55)
	require.ErrorIs(t, err, errNotFound)
	assert.Equal(t, model.MediaPending, store.items[55].Status)
}

func TestDeleteMediaOfOtherEventIsNotFound(t *testing.T) {
	store := newFakeMediaStore(1)
	store.items[55] = &model.MediaItem{ID: 55, EventID: 999, Status: model.MediaPending}
	w := newWorkflow(store, nil)

	err := w.DeleteMedia(context.Background(), ownEvent, 55)
	require.ErrorIs(t, err, errNotFound)
	_, survives := store.items[55]
	assert.True(t, survives)
}

func TestApproveManyHaltsAtFirstFailure(t *testing.T) {
	store := newFakeMediaStore(1, 2, 3)
	store.failOn[2] = errStore
	w := newWorkflow(store, nil)

	res := w.ApproveManyMedia(context.Background(), ownEvent, []int64{1, 2, 3})

	require.False(t, res.AllSucceeded())
	assert.Equal(t, []int64{1}, res.Processed)
	assert.Equal(t, int64(2), res.FailedID)
	assert.ErrorIs(t, res.Err, errStore)

	// a mutated, b and c untouched.
	assert.Equal(t, model.MediaApproved, store.items[1].Status)
	assert.Equal(t, model.MediaPending, store.items[2].Status)
	assert.Equal(t, model.MediaPending, store.items[3].Status)
}

func TestApproveManyHaltsAtForeignItem(t *testing.T) {
	store := newFakeMediaStore(1, 2)
	store.items[55] = &model.MediaItem{ID: 55, EventID: 999, Status: model.MediaPending}
	w := newWorkflow(store, nil)

	res := w.ApproveManyMedia(context.Background(), ownEvent, []int64{1, 55, 2})

	assert.Equal(t, []int64{1}, res.Processed)
	assert.Equal(t, int64(55), res.FailedID)
	assert.ErrorIs(t, res.Err, errNotFound)
	assert.Equal(t, model.MediaPending, store.items[55].Status)
	assert.Equal(t, model.MediaPending, store.items[2].Status)
}

func TestApproveManyNoneAttempted(t *testing.T) {
	store := newFakeMediaStore(1, 2)
	store.failOn[1] = errStore
	w := newWorkflow(store, nil)

	res := w.ApproveManyMedia(context.Background(), ownEvent, []int64{1, 2})
	assert.True(t, res.NoneAttempted())
	assert.Empty(t, res.Processed)
	assert.Equal(t, int64(1), res.FailedID)
}

func TestApproveManyAllSucceed(t *testing.T) {
	store := newFakeMediaStore(1, 2, 3)
	w := newWorkflow(store, nil)

	res := w.ApproveManyMedia(context.Background(), ownEvent, []int64{3, 1, 2})
	require.True(t, res.AllSucceeded())
	assert.Equal(t, []int64{3, 1, 2}, res.Processed)
	assert.False(t, res.NoneAttempted())
}

func TestDeleteManyHaltsInOrder(t *testing.T) {
	store := newFakeMediaStore(1, 2, 3)
	store.failOn[3] = errStore
	w := newWorkflow(store, nil)

	res := w.DeleteManyMedia(context.Background(), ownEvent, []int64{1, 3, 2})
	assert.Equal(t, []int64{1}, res.Processed)
	assert.Equal(t, int64(3), res.FailedID)

	_, survives2 := store.items[2]
	_, survives3 := store.items[3]
	assert.True(t, survives2)
	assert.True(t, survives3)
}

func TestApproveWishIdempotent(t *testing.T) {
	wishes := &fakeWishStore{
		wishes: map[int64]*model.GuestWish{5: {ID: 5, EventID: ownEvent}},
		failOn: map[int64]error{},
	}
	w := newWorkflow(newFakeMediaStore(), wishes)
	ctx := context.Background()

	require.NoError(t, w.ApproveWish(ctx, ownEvent, 5))
	assert.True(t, wishes.wishes[5].Approved)

	wishes.failOn[5] = errStore
	require.NoError(t, w.ApproveWish(ctx, ownEvent, 5))
}

func TestWishOfOtherEventIsNotFound(t *testing.T) {
	wishes := &fakeWishStore{
		wishes: map[int64]*model.GuestWish{5: {ID: 5, EventID: 999}},
		failOn: map[int64]error{},
	}
	w := newWorkflow(newFakeMediaStore(), wishes)
	ctx := context.Background()

	require.ErrorIs(t, w.ApproveWish(ctx, ownEvent, 5), errNotFound)
	assert.False(t, wishes.wishes[5].Approved)

	require.ErrorIs(t, w.DeleteWish(ctx, ownEvent, 5), errNotFound)
	_, survives := wishes.wishes[5]
	assert.True(t, survives)
}

func TestRemoveCategoryClearsRefsFirst(t *testing.T) {
	store := newFakeMediaStore(1, 2, 3)
	cat := int64(9)
	store.cats[cat] = &model.HighlightCategory{ID: cat, EventID: ownEvent}
	store.items[1].CategoryID = &cat
	store.items[3].CategoryID = &cat
	w := newWorkflow(store, nil)

	require.NoError(t, w.RemoveCategory(context.Background(), ownEvent, cat))

	assert.Nil(t, store.items[1].CategoryID)
	assert.Nil(t, store.items[3].CategoryID)
	assert.Equal(t, []int64{cat}, store.clearedCats)
	assert.Equal(t, []int64{cat}, store.deletedCats)
}

func TestRemoveCategoryFailsClosed(t *testing.T) {
	store := newFakeMediaStore(1)
	cat := int64(9)
	store.cats[cat] = &model.HighlightCategory{ID: cat, EventID: ownEvent}
	store.items[1].CategoryID = &cat
	store.clearErr = errStore
	w := newWorkflow(store, nil)

	err := w.RemoveCategory(context.Background(), ownEvent, cat)
	require.ErrorIs(t, err, errStore)
	// Clearing failed, so the category delete was never issued.
	assert.Empty(t, store.deletedCats)
}

func TestRemoveCategoryOfOtherEventTouchesNothing(t *testing.T) {
	store := newFakeMediaStore(1)
	cat := int64(9)
	store.cats[cat] = &model.HighlightCategory{ID: cat, EventID: 999}
	foreign := &model.MediaItem{ID: 55, EventID: 999, CategoryID: &cat}
	store.items[55] = foreign
	w := newWorkflow(store, nil)

	err := w.RemoveCategory(context.Background(), ownEvent, cat)
	require.ErrorIs(t, err, errNotFound)

	// Ownership is checked before any side effect: no refs cleared, no delete.
	assert.Empty(t, store.clearedCats)
	assert.Empty(t, store.deletedCats)
	assert.NotNil(t, foreign.CategoryID)
	assert.Contains(t, store.cats, cat)
}
