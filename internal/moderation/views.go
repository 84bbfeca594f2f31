package moderation

import "gala/internal/model"

// StatusFilter partitions the media collection for the console views.
type StatusFilter string

const (
	FilterAll      StatusFilter = "all"
	FilterPending  StatusFilter = "pending"
	FilterApproved StatusFilter = "approved"
)

func (f StatusFilter) Valid() bool {
	switch f {
	case FilterAll, FilterPending, FilterApproved:
		return true
	}
	return false
}

// Views are the three precomputed partitions of one media collection.
type Views struct {
	All      []model.MediaItem
	Pending  []model.MediaItem
	Approved []model.MediaItem
}

func Partition(items []model.MediaItem) Views {
	v := Views{All: items}
	for _, item := range items {
		if item.Approved() {
			v.Approved = append(v.Approved, item)
		} else {
			v.Pending = append(v.Pending, item)
		}
	}
	return v
}

func (v Views) For(f StatusFilter) []model.MediaItem {
	switch f {
	case FilterPending:
		return v.Pending
	case FilterApproved:
		return v.Approved
	default:
		return v.All
	}
}

// Page windows a filtered view. Pages are 1-based; out-of-range pages yield
// an empty window, not an error. Selection state plays no part here.
func Page(items []model.MediaItem, page, size int) []model.MediaItem {
	if page < 1 || size < 1 {
		return nil
	}
	start := (page - 1) * size
	if start >= len(items) {
		return nil
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Selection is the set of ids eligible for a batch operation. It is scoped to
// whatever filter the console currently shows and never persisted.
type Selection struct {
	ids   map[int64]struct{}
	order []int64
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[int64]struct{})}
}

// SelectAll replaces the selection with the currently visible set.
func (s *Selection) SelectAll(visible []model.MediaItem) {
	s.Clear()
	for _, item := range visible {
		s.Add(item.ID)
	}
}

func (s *Selection) Add(id int64) {
	if _, ok := s.ids[id]; ok {
		return
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *Selection) Remove(id int64) {
	if _, ok := s.ids[id]; !ok {
		return
	}
	delete(s.ids, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Selection) Clear() {
	s.ids = make(map[int64]struct{})
	s.order = nil
}

func (s *Selection) Contains(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int { return len(s.order) }

// IDs returns the selected ids in selection order, the order batches run in.
func (s *Selection) IDs() []int64 {
	out := make([]int64, len(s.order))
	copy(out, s.order)
	return out
}
