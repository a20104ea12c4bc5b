// Package inmemdb implements the core repositories in process memory, for development and tests.
package inmemdb

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/announcement"
	"github.com/akia2466/PMNTS-Lovable/core/assignment"
	"github.com/akia2466/PMNTS-Lovable/core/attendance"
	"github.com/akia2466/PMNTS-Lovable/core/community"
	"github.com/akia2466/PMNTS-Lovable/core/connection"
	"github.com/akia2466/PMNTS-Lovable/core/contact"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/file"
	"github.com/akia2466/PMNTS-Lovable/core/messaging"
	"github.com/akia2466/PMNTS-Lovable/core/profile"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

type (
	// DB guards every table with a single lock. Transactions are serialized with each other
	// and undone on failure by replaying their undo log.
	DB struct {
		mu   sync.RWMutex
		txMu sync.Mutex

		users         *table[user.User]
		profiles      *table[profile.Profile]
		courses       *table[course.Course]
		enrollments   *table[course.Enrollment]
		attendance    *table[attendance.Record]
		assignments   *table[assignment.Assignment]
		submissions   *table[assignment.Submission]
		announcements *table[announcement.Announcement]
		posts         *table[community.Post]
		likes         *table[like]
		comments      *table[community.Comment]
		requests      *table[connection.Request]
		connections   *table[connection.Connection]
		messages      *table[messaging.Message]
		files         *table[file.File]
		contacts      *table[contact.Submission]
	}

	like struct {
		PostID string
		UserID string
	}

	// table keeps the insertion order of its rows to break ties between equal sort keys.
	table[T any] struct {
		rows  map[string]T
		order map[string]uint64
		next  uint64
	}

	txLog struct {
		undo []func()
	}

	txKey struct{}
)

var _ core.Transactor = (*DB)(nil) // interface compliance check

func Open() *DB {
	return &DB{
		users:         newTable[user.User](),
		profiles:      newTable[profile.Profile](),
		courses:       newTable[course.Course](),
		enrollments:   newTable[course.Enrollment](),
		attendance:    newTable[attendance.Record](),
		assignments:   newTable[assignment.Assignment](),
		submissions:   newTable[assignment.Submission](),
		announcements: newTable[announcement.Announcement](),
		posts:         newTable[community.Post](),
		likes:         newTable[like](),
		comments:      newTable[community.Comment](),
		requests:      newTable[connection.Request](),
		connections:   newTable[connection.Connection](),
		messages:      newTable[messaging.Message](),
		files:         newTable[file.File](),
		contacts:      newTable[contact.Submission](),
	}
}

func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txLog); ok {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	log := &txLog{}
	if err := fn(context.WithValue(ctx, txKey{}, log)); err != nil {
		db.mu.Lock()
		for i := len(log.undo) - 1; i >= 0; i-- {
			log.undo[i]()
		}
		db.mu.Unlock()
		return err
	}
	return nil
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T), order: make(map[string]uint64)}
}

// onRollback registers undo on the transaction carried by ctx, if any.
func onRollback(ctx context.Context, undo func()) {
	if log, ok := ctx.Value(txKey{}).(*txLog); ok {
		log.undo = append(log.undo, undo)
	}
}

func (t *table[T]) get(id string) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) put(ctx context.Context, id string, row T) {
	old, existed := t.rows[id]
	t.rows[id] = row
	if !existed {
		t.order[id] = t.next
		t.next++
	}
	onRollback(ctx, func() {
		if existed {
			t.rows[id] = old
		} else {
			delete(t.rows, id)
			delete(t.order, id)
		}
	})
}

func (t *table[T]) remove(ctx context.Context, id string) bool {
	old, ok := t.rows[id]
	if !ok {
		return false
	}
	seq := t.order[id]
	delete(t.rows, id)
	delete(t.order, id)
	onRollback(ctx, func() {
		t.rows[id] = old
		t.order[id] = seq
	})
	return true
}

// filter returns the rows for which keep is true, sorted by less then by insertion order.
func (t *table[T]) filter(keep func(T) bool, less func(a, b T) bool) []T {
	ids := make([]string, 0)
	for id, row := range t.rows {
		if keep == nil || keep(row) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return t.order[ids[i]] < t.order[ids[j]] })

	rows := make([]T, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, t.rows[id])
	}
	if less != nil {
		sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	}
	return rows
}

// find returns the first row matching keep, in no particular order.
func (t *table[T]) find(keep func(T) bool) (T, bool) {
	for _, row := range t.rows {
		if keep(row) {
			return row, true
		}
	}
	var zero T
	return zero, false
}

// allowed reports whether id passes a list filter: a nil list lets everything through.
func allowed(ids []string, id string) bool {
	return ids == nil || slices.Contains(ids, id)
}
