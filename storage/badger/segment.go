package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// SegmentRepository implements storage.SegmentRepository for BadgerDB.
type SegmentRepository struct {
	backend *Backend
}

var _ storage.SegmentRepository = (*SegmentRepository)(nil)

// NewSegmentRepository creates a new SegmentRepository.
func NewSegmentRepository(backend *Backend) *SegmentRepository {
	return &SegmentRepository{backend: backend}
}

// Close is a no-op; segments are keyed by owner and index, no sequence held.
func (r *SegmentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *SegmentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// FindNearestSegments delegates to the backend.
func (r *SegmentRepository) FindNearestSegments(ctx context.Context, vector []float32, limit int) ([]*core.SegmentMatch, error) {
	return r.backend.FindNearestSegments(ctx, vector, limit)
}

// AddSegment creates a single segment row.
func (r *SegmentRepository) AddSegment(ctx context.Context, seg *core.Segment) error {
	if err := core.ValidateSegment(seg); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		seg.InsertedAt = time.Now().UTC()
		seg.UpdatedAt = seg.InsertedAt

		key := makeSegmentKey(seg.DocumentId, seg.Index)
		if err := tx.Set(key, storage.MarshalSegment(seg)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// UpdateSegment overwrites an existing segment row.
func (r *SegmentRepository) UpdateSegment(ctx context.Context, seg *core.Segment) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSegmentKey(seg.DocumentId, seg.Index)

		old, err := readSegment(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		seg.InsertedAt = old.InsertedAt
		seg.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalSegment(seg)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteSegmentsByDocument removes every segment owned by the document.
func (r *SegmentRepository) DeleteSegmentsByDocument(ctx context.Context, docID core.ID) (int, error) {
	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		n, err := deleteSegmentsCountTx(tx, docID)
		if err != nil {
			return err
		}
		deleted = n
		return tx.Commit()
	}, true)
	return deleted, err
}

// deleteSegmentsTx removes all segment rows for a document inside tx.
func deleteSegmentsTx(tx *badger.Txn, docID core.ID) error {
	_, err := deleteSegmentsCountTx(tx, docID)
	return err
}

func deleteSegmentsCountTx(tx *badger.Txn, docID core.ID) (int, error) {
	prefix := makeSegmentScanPrefix(docID)

	// Collect keys first; deleting while iterating invalidates the iterator.
	var keys [][]byte
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

// GetSegmentsByDocument retrieves all segments for a document in index order.
func (r *SegmentRepository) GetSegmentsByDocument(ctx context.Context, docID core.ID) ([]*core.Segment, error) {
	var result []*core.Segment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeSegmentScanPrefix(docID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var seg *core.Segment
			err := iter.Item().Value(func(val []byte) error {
				var err error
				seg, err = storage.UnmarshalSegment(val)
				return err
			})
			if err != nil {
				return err
			}
			if seg != nil {
				result = append(result, seg)
			}
		}
		return nil
	}, false)
	return result, err
}

// CountSegmentsByStatus returns per-status segment counts for a document.
func (r *SegmentRepository) CountSegmentsByStatus(ctx context.Context, docID core.ID) (map[core.EmbedStatus]int, error) {
	counts := make(map[core.EmbedStatus]int)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeSegmentScanPrefix(docID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var seg *core.Segment
			err := iter.Item().Value(func(val []byte) error {
				var err error
				seg, err = storage.UnmarshalSegment(val)
				return err
			})
			if err != nil {
				return err
			}
			if seg != nil {
				counts[seg.Status]++
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// HasCompletedSegments reports whether any completed segment exists.
func (r *SegmentRepository) HasCompletedSegments(ctx context.Context) (bool, error) {
	found := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(segmentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var seg *core.Segment
			err := iter.Item().Value(func(val []byte) error {
				var err error
				seg, err = storage.UnmarshalSegment(val)
				return err
			})
			if err != nil {
				return err
			}
			if seg != nil && seg.Status == core.EmbedStatusCompleted {
				found = true
				return nil
			}
		}
		return nil
	}, false)
	return found, err
}
