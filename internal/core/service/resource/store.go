package resource

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"agencyctl/internal/core/domain"
	"agencyctl/internal/pkg/copier"
)

// Store owns one resource's collection state and keeps it consistent with the
// server. It is the single writer of its own state; operations run from UI
// goroutines, so all state access goes through the mutex.
//
// Lifecycle rules, identical for every entity:
//   - a successful create is prepended at position 0
//   - a successful update replaces the matching record in place
//   - a successful delete removes the matching record
//   - any failure leaves items untouched, sets the error message and raises
//     exactly one failure notification
//   - a not-modified result keeps existing items and is not an error
type Store struct {
	desc   domain.Descriptor
	gw     Gateway
	notify Notifier

	mu         sync.Mutex
	items      []domain.Record
	selected   domain.Record
	inflight   int
	lastError  string
	deletingID string
}

func NewStore(desc domain.Descriptor, gw Gateway, notify Notifier) *Store {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Store{
		desc:   desc,
		gw:     gw,
		notify: notify,
	}
}

// Descriptor returns the resource configuration this store was built from.
func (s *Store) Descriptor() domain.Descriptor {
	return s.desc
}

// Items returns a snapshot of the collection. The copy keeps callers from
// mutating records that a late-arriving response may still touch.
func (s *Store) Items() []domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Record, len(s.items))
	for i, rec := range s.items {
		copied, err := copier.DeepCopy(rec)
		if err != nil {
			copied = rec
		}
		out[i] = copied
	}
	return out
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Err returns the message of the last failed operation, or "" after the most
// recent operation started cleanly.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *Store) Selected() domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	copied, err := copier.DeepCopy(s.selected)
	if err != nil {
		return s.selected
	}
	return copied
}

// DeletingID reports the record id of an in-flight delete, for the per-row
// spinner in the list view.
func (s *Store) DeletingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletingID
}

func (s *Store) begin() {
	s.mu.Lock()
	s.inflight++
	s.lastError = ""
	s.mu.Unlock()
}

func (s *Store) end() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

func (s *Store) fail(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

// FetchAll refreshes the collection from the server. Read failures never
// escape: the previous items survive, the error message is retained for the
// inline banner, one failure notification fires, and - for resources that
// opted in - the static fallback collection is shown when there is nothing
// cached to keep.
func (s *Store) FetchAll(ctx context.Context) {
	s.begin()
	defer s.end()

	records, err := s.gw.List(ctx)
	if err != nil {
		if errors.Is(err, ErrNotModified) {
			// 304: whatever we already have is current
			return
		}
		s.fail(err)
		s.notify.Failure(fmt.Sprintf("Failed to load %s: %v", s.desc.Title, err))
		s.applyFallback()
		return
	}

	s.mu.Lock()
	s.items = dedupe(records, s.desc.IDField)
	s.mu.Unlock()
}

// applyFallback installs the descriptor's offline collection, but only when
// the store holds nothing at all - cached rows always win over demo data.
func (s *Store) applyFallback() {
	if len(s.desc.Fallback) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) > 0 {
		return
	}

	fallback := make([]domain.Record, 0, len(s.desc.Fallback))
	for _, rec := range s.desc.Fallback {
		copied, err := copier.DeepCopy(rec)
		if err != nil {
			continue
		}
		fallback = append(fallback, copied)
	}
	s.items = fallback
}

// FetchOne loads a single record into the selected slot. When the server
// cannot produce it, any locally cached copy (the current selection or a row
// already in the collection) is kept quietly; only a true miss surfaces.
func (s *Store) FetchOne(ctx context.Context, id string) {
	if id == "" {
		s.fail(ErrEmptyRecordID)
		s.notify.Failure(fmt.Sprintf("Failed to load %s entry: %v", s.desc.Title, ErrEmptyRecordID))
		return
	}

	s.begin()
	defer s.end()

	record, err := s.gw.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotModified) {
			return
		}
		if cached, ok := s.cachedByID(id); ok {
			s.mu.Lock()
			s.selected = cached
			s.mu.Unlock()
			return
		}
		s.fail(err)
		s.notify.Failure(fmt.Sprintf("%s entry not found", s.desc.Title))
		return
	}

	s.mu.Lock()
	s.selected = record
	s.mu.Unlock()
}

func (s *Store) cachedByID(id string) (domain.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected != nil {
		if selID, ok := s.selected.Identity(s.desc.IDField); ok && selID == id {
			return s.selected, true
		}
	}
	for _, rec := range s.items {
		if recID, ok := rec.Identity(s.desc.IDField); ok && recID == id {
			return rec, true
		}
	}
	return nil, false
}

// Create sends a new record and prepends the server's version on success.
// Write failures are notified here and returned, so the page controller can
// keep the form open.
func (s *Store) Create(ctx context.Context, payload domain.Record) (domain.Record, error) {
	if len(payload) == 0 {
		s.notify.Failure(fmt.Sprintf("Nothing to save for %s", s.desc.Title))
		return nil, ErrNoDataProvided
	}

	s.begin()
	defer s.end()

	record, err := s.gw.Create(ctx, payload)
	if err != nil {
		s.fail(err)
		s.notify.Failure(fmt.Sprintf("Failed to create %s entry: %v", s.desc.Title, err))
		return nil, fmt.Errorf("create %s: %w", s.desc.Name, err)
	}
	if record == nil {
		// an empty write response still succeeded; show the submitted data
		// rather than a blank row
		record = s.localEcho(payload, "")
	}

	s.mu.Lock()
	// guard the no-duplicate-ID invariant even if the server echoes an
	// existing identifier
	if id, ok := record.Identity(s.desc.IDField); ok {
		s.items = removeByID(s.items, s.desc.IDField, id)
	}
	s.items = append([]domain.Record{record}, s.items...)
	s.mu.Unlock()

	s.notify.Success(fmt.Sprintf("%s entry created", s.desc.Title))
	return record, nil
}

// Update replaces the matching record in place, preserving its position, and
// refreshes the selection when it points at the same record.
func (s *Store) Update(ctx context.Context, id string, payload domain.Record) (domain.Record, error) {
	if id == "" {
		s.notify.Failure(fmt.Sprintf("Failed to update %s entry: %v", s.desc.Title, ErrEmptyRecordID))
		return nil, ErrEmptyRecordID
	}
	if len(payload) == 0 {
		s.notify.Failure(fmt.Sprintf("Nothing to save for %s", s.desc.Title))
		return nil, ErrNoDataProvided
	}

	s.begin()
	defer s.end()

	record, err := s.gw.Update(ctx, id, payload)
	if err != nil {
		s.fail(err)
		s.notify.Failure(fmt.Sprintf("Failed to update %s entry: %v", s.desc.Title, err))
		return nil, fmt.Errorf("update %s: %w", s.desc.Name, err)
	}
	if record == nil {
		record = s.localEcho(payload, id)
	}

	s.mu.Lock()
	for i, rec := range s.items {
		if recID, ok := rec.Identity(s.desc.IDField); ok && recID == id {
			s.items[i] = record
			break
		}
	}
	if s.selected != nil {
		if selID, ok := s.selected.Identity(s.desc.IDField); ok && selID == id {
			s.selected = record
		}
	}
	s.mu.Unlock()

	s.notify.Success(fmt.Sprintf("%s entry updated", s.desc.Title))
	return record, nil
}

// Remove deletes the record and drops it from the collection. The id stays
// visible through DeletingID while the call is in flight.
func (s *Store) Remove(ctx context.Context, id string) error {
	if id == "" {
		s.notify.Failure(fmt.Sprintf("Failed to delete %s entry: %v", s.desc.Title, ErrEmptyRecordID))
		return ErrEmptyRecordID
	}

	s.begin()
	s.mu.Lock()
	s.deletingID = id
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.deletingID = ""
		s.mu.Unlock()
		s.end()
	}()

	if err := s.gw.Delete(ctx, id); err != nil {
		s.fail(err)
		s.notify.Failure(fmt.Sprintf("Failed to delete %s entry: %v", s.desc.Title, err))
		return fmt.Errorf("delete %s: %w", s.desc.Name, err)
	}

	s.mu.Lock()
	s.items = removeByID(s.items, s.desc.IDField, id)
	if s.selected != nil {
		if selID, ok := s.selected.Identity(s.desc.IDField); ok && selID == id {
			s.selected = nil
		}
	}
	s.mu.Unlock()

	s.notify.Success(fmt.Sprintf("%s entry deleted", s.desc.Title))
	return nil
}

// UploadAsset pushes a binary to the shared upload endpoint. A failed upload
// is non-fatal: the caller proceeds without an image URL.
func (s *Store) UploadAsset(ctx context.Context, filename string, content []byte) string {
	s.begin()
	defer s.end()

	url, err := s.gw.UploadAsset(ctx, filename, content)
	if err != nil {
		s.notify.Failure(fmt.Sprintf("Image upload failed: %v", err))
		return ""
	}
	return url
}

// localEcho reconstructs a record from the submitted payload when the server
// acknowledged a write with an empty body. The staged attachment never makes
// it into the collection, and updates keep their identifier.
func (s *Store) localEcho(payload domain.Record, id string) domain.Record {
	record, err := copier.DeepCopy(payload)
	if err != nil {
		record = payload
	}
	delete(record, domain.AttachmentKey)
	if id != "" {
		record.SetID(s.desc.IDField, id)
	}
	return record
}

// dedupe drops later records that repeat an identifier, keeping server order
// for the rest. Records without any identifier are kept as-is.
func dedupe(records []domain.Record, idField string) []domain.Record {
	seen := make(map[string]bool, len(records))
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		id, ok := rec.Identity(idField)
		if ok {
			if seen[id] {
				continue
			}
			seen[id] = true
		}
		out = append(out, rec)
	}
	return out
}

func removeByID(records []domain.Record, idField, id string) []domain.Record {
	out := records[:0]
	for _, rec := range records {
		if recID, ok := rec.Identity(idField); ok && recID == id {
			continue
		}
		out = append(out, rec)
	}
	return out
}
