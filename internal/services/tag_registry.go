package services

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"jbudget/internal/core"
	"jbudget/internal/log"
	"jbudget/internal/storage"
)

// TagResolver looks tags up by id.
type TagResolver interface {
	GetByID(id string) (core.Tag, bool)
}

// TagRegistry owns the tag collection and is its only writer. Every
// successful mutation rewrites the whole collection through the store.
type TagRegistry struct {
	mu       sync.RWMutex
	tags     []core.Tag
	lastID   int64
	store    storage.TagStore
	notifier Notifier
	logger   *log.StructuredLogger
}

// NewTagRegistry loads the tag collection and seeds the id counter from the
// largest numeric id found, or 1 when there is none.
func NewTagRegistry(ctx context.Context, store storage.TagStore, notifier Notifier, logger *log.Logger) (*TagRegistry, error) {
	tags, err := store.LoadTags(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "load tags", Err: err}
	}

	r := &TagRegistry{
		tags:     tags,
		lastID:   1,
		store:    store,
		notifier: notifier,
		logger:   log.NewStructuredLogger(componentLogger(logger, log.ComponentTags)),
	}
	for _, t := range tags {
		r.observeID(t.ID)
	}
	return r, nil
}

// observeID advances the counter past id when id is numeric.
func (r *TagRegistry) observeID(id string) {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > r.lastID {
		r.lastID = n
	}
}

// CreateTag builds a tag with a fresh id and persists the collection.
// An empty parentID creates a root tag.
func (r *TagRegistry) CreateTag(ctx context.Context, name, parentID string) (core.Tag, error) {
	var tag core.Tag
	err := r.commit(ctx, func() ([]core.Tag, error) {
		tag = core.Tag{
			ID:       strconv.FormatInt(r.lastID+1, 10),
			Name:     strings.TrimSpace(name),
			ParentID: parentID,
		}
		if err := tag.Validate(); err != nil {
			return nil, err
		}
		return append(r.snapshotLocked(), tag), nil
	})
	if err != nil {
		return core.Tag{}, err
	}
	r.changed(ctx, log.OpCreate, EventCreated, tag)
	return tag, nil
}

// AddTag appends a pre-built tag, as import paths do. Id collisions are not
// checked; callers must not add a tag whose id is already present.
func (r *TagRegistry) AddTag(ctx context.Context, tag core.Tag) error {
	if err := tag.Validate(); err != nil {
		return err
	}
	err := r.commit(ctx, func() ([]core.Tag, error) {
		return append(r.snapshotLocked(), tag), nil
	})
	if err != nil {
		return err
	}
	r.changed(ctx, log.OpCreate, EventCreated, tag)
	return nil
}

// RemoveTag deletes the first tag with id. Transactions and child tags that
// reference it are left untouched.
func (r *TagRegistry) RemoveTag(ctx context.Context, id string) (bool, error) {
	var removed *core.Tag
	err := r.commit(ctx, func() ([]core.Tag, error) {
		i := r.indexLocked(id)
		if i < 0 {
			return nil, nil
		}
		t := r.tags[i]
		removed = &t
		next := r.snapshotLocked()
		return append(next[:i], next[i+1:]...), nil
	})
	if err != nil || removed == nil {
		return false, err
	}
	r.changed(ctx, log.OpDelete, EventDeleted, *removed)
	return true, nil
}

// RenameTag changes a tag's name in place. Returns false if id is unknown.
func (r *TagRegistry) RenameTag(ctx context.Context, id, newName string) (bool, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return false, core.ErrEmptyName
	}
	return r.modify(ctx, id, func(t *core.Tag) error {
		t.Name = newName
		return nil
	})
}

// ReparentTag moves a tag under newParentID, or to the root when it is
// empty. Returns false if id is unknown and ErrTagCycle if the tag would
// become its own ancestor.
func (r *TagRegistry) ReparentTag(ctx context.Context, id, newParentID string) (bool, error) {
	return r.modify(ctx, id, func(t *core.Tag) error {
		if r.reachesLocked(newParentID, id) {
			return ErrTagCycle
		}
		t.ParentID = newParentID
		return nil
	})
}

// reachesLocked walks the parent chain starting at from and reports whether
// it meets target. Unknown ids end the walk.
func (r *TagRegistry) reachesLocked(from, target string) bool {
	seen := map[string]struct{}{}
	for cur := from; cur != ""; {
		if cur == target {
			return true
		}
		if _, ok := seen[cur]; ok {
			return false
		}
		seen[cur] = struct{}{}
		i := r.indexLocked(cur)
		if i < 0 {
			return false
		}
		cur = r.tags[i].ParentID
	}
	return false
}

func (r *TagRegistry) modify(ctx context.Context, id string, fn func(*core.Tag) error) (bool, error) {
	var updated *core.Tag
	err := r.commit(ctx, func() ([]core.Tag, error) {
		i := r.indexLocked(id)
		if i < 0 {
			return nil, nil
		}
		next := r.snapshotLocked()
		if err := fn(&next[i]); err != nil {
			return nil, err
		}
		updated = &next[i]
		return next, nil
	})
	if err != nil || updated == nil {
		return false, err
	}
	r.changed(ctx, log.OpUpdate, EventUpdated, *updated)
	return true, nil
}

// commit runs build under the write lock. A nil collection from build means
// nothing changed. A new collection is saved, swapped in and its ids are fed
// to the counter before the lock is released.
func (r *TagRegistry) commit(ctx context.Context, build func() ([]core.Tag, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := build()
	if err != nil || next == nil {
		return err
	}
	if err := r.saveLocked(ctx, next); err != nil {
		return err
	}
	r.tags = next
	for _, t := range next {
		r.observeID(t.ID)
	}
	return nil
}

func (r *TagRegistry) changed(ctx context.Context, op string, kind EventKind, tag core.Tag) {
	r.logger.LogTag(ctx, op, tag.ID, tag.Name)
	r.notify(ctx, newEvent(kind, EntityTag, tag.ID))
}

// GetByID implements TagResolver.
func (r *TagRegistry) GetByID(id string) (core.Tag, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.tags[i], true
	}
	return core.Tag{}, false
}

// ListAll returns a copy of every tag in insertion order.
func (r *TagRegistry) ListAll() []core.Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// ListRoots returns the tags without a parent.
func (r *TagRegistry) ListRoots() []core.Tag {
	return r.filter(func(t core.Tag) bool { return t.IsRoot() })
}

// ListChildren returns the tags whose parent is parentID.
func (r *TagRegistry) ListChildren(parentID string) []core.Tag {
	return r.filter(func(t core.Tag) bool { return !t.IsRoot() && t.ParentID == parentID })
}

func (r *TagRegistry) filter(keep func(core.Tag) bool) []core.Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []core.Tag{}
	for _, t := range r.tags {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (r *TagRegistry) indexLocked(id string) int {
	for i, t := range r.tags {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (r *TagRegistry) snapshotLocked() []core.Tag {
	return append(make([]core.Tag, 0, len(r.tags)+1), r.tags...)
}

func (r *TagRegistry) saveLocked(ctx context.Context, tags []core.Tag) error {
	if err := r.store.SaveTags(ctx, tags); err != nil {
		r.logger.LogError(ctx, "Failed to save tags", err, log.ComponentTags, log.OpSave,
			log.NewFields().WithCount(len(tags)).WithErrorType(log.ErrorTypePersistence))
		return &PersistenceError{Op: "save tags", Err: err}
	}
	return nil
}

func (r *TagRegistry) notify(ctx context.Context, e Event) {
	publish(ctx, r.notifier, r.logger, e)
}
