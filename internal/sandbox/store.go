package sandbox

import (
	"fmt"
	"sync"
	"time"

	"github.com/rezonia/invoiceiq-go/pkg/invoiceiq"
)

// Job kinds tracked by the store.
const (
	kindValidation     = "validation"
	kindTransformation = "transformation"
	kindGeneration     = "generation"
)

type jobRecord struct {
	ID          string
	Kind        string
	Status      string
	Polls       int
	CreatedAt   time.Time
	Filename    string
	ReferenceID string
	CallbackURL string
	Metadata    []byte
}

// store holds sandbox jobs in memory. Jobs advance toward COMPLETED as their
// status is fetched, so SDK polling can be exercised without a real backend.
type store struct {
	mu            sync.Mutex
	completeAfter int
	seq           int
	jobs          map[string]*jobRecord
	byIdemKey     map[string]string
}

func newStore(completeAfter int) *store {
	if completeAfter <= 0 {
		completeAfter = 2
	}
	return &store{
		completeAfter: completeAfter,
		jobs:          make(map[string]*jobRecord),
		byIdemKey:     make(map[string]string),
	}
}

// create registers a new job, reusing an existing one when the idempotency
// key was seen before. The second return value reports whether the job
// already existed. Like poll and get, it returns a snapshot: handlers read
// the result outside the store lock.
func (s *store) create(kind, idemKey string, build func(*jobRecord)) (*jobRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idemKey != "" {
		if id, ok := s.byIdemKey[kind+"/"+idemKey]; ok {
			snapshot := *s.jobs[id]
			return &snapshot, true
		}
	}

	s.seq++
	rec := &jobRecord{
		ID:        fmt.Sprintf("%s-%d", kind, s.seq),
		Kind:      kind,
		Status:    invoiceiq.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if build != nil {
		build(rec)
	}
	s.jobs[rec.ID] = rec
	if idemKey != "" {
		s.byIdemKey[kind+"/"+idemKey] = rec.ID
	}
	snapshot := *rec
	return &snapshot, false
}

// poll returns the job and advances its status: each fetch moves it from
// PENDING through PROCESSING until it completes after completeAfter polls.
func (s *store) poll(kind, id string) (*jobRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok || rec.Kind != kind {
		return nil, false
	}

	if rec.Status == invoiceiq.StatusPending || rec.Status == invoiceiq.StatusProcessing {
		rec.Polls++
		if rec.Polls >= s.completeAfter {
			rec.Status = invoiceiq.StatusCompleted
		} else {
			rec.Status = invoiceiq.StatusProcessing
		}
	}

	snapshot := *rec
	return &snapshot, true
}

// get returns the job without advancing it.
func (s *store) get(kind, id string) (*jobRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok || rec.Kind != kind {
		return nil, false
	}
	snapshot := *rec
	return &snapshot, true
}

// list returns all jobs of a kind, optionally filtered by status.
func (s *store) list(kind, status string) []jobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]jobRecord, 0)
	for _, rec := range s.jobs {
		if rec.Kind != kind {
			continue
		}
		if status != "" && rec.Status != status {
			continue
		}
		out = append(out, *rec)
	}
	return out
}
