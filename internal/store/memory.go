package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yincma/presentationflow/internal/fault"
	"github.com/yincma/presentationflow/internal/models"
)

// In-memory implementations of the capability interfaces, used by tests and
// for local runs without GCP credentials. Mutations take the store mutex for
// the whole read-modify-write, which gives the same atomicity a Firestore
// transaction does.

// MemoryRecords is an in-memory RecordStore.
type MemoryRecords struct {
	mu    sync.Mutex
	recs  map[string]*models.Presentation
	tasks map[string]string

	// FailListTasks makes ListRelatedTaskKeys return this error, for
	// exercising the fire-and-forget enumeration path.
	FailListTasks error
	// FailDeleteTask makes DeleteTaskRecord fail for the given keys.
	FailDeleteTask map[string]error
}

// NewMemoryRecords returns an empty in-memory record store.
func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{
		recs:  make(map[string]*models.Presentation),
		tasks: make(map[string]string),
	}
}

// Put seeds or replaces a record.
func (m *MemoryRecords) Put(rec *models.Presentation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.ID] = clonePresentation(rec)
}

// AddTask seeds a secondary task record referencing a presentation.
func (m *MemoryRecords) AddTask(key, presentationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[key] = presentationID
}

// Has reports whether a record exists.
func (m *MemoryRecords) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.recs[id]
	return ok
}

func (m *MemoryRecords) GetPresentation(_ context.Context, id string) (*models.Presentation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return nil, fault.NotFound("presentation %s not found", id)
	}
	return clonePresentation(rec), nil
}

func (m *MemoryRecords) MutatePresentation(_ context.Context, id string, mutate func(*models.Presentation) error) (*models.Presentation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return nil, fault.NotFound("presentation %s not found", id)
	}

	working := clonePresentation(rec)
	if err := mutate(working); err != nil {
		return nil, err
	}
	m.recs[id] = working
	return clonePresentation(working), nil
}

func (m *MemoryRecords) DeletePresentation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, id)
	return nil
}

func (m *MemoryRecords) ListRelatedTaskKeys(_ context.Context, presentationID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailListTasks != nil {
		return nil, m.FailListTasks
	}

	var keys []string
	for key, pid := range m.tasks {
		if pid == presentationID {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryRecords) DeleteTaskRecord(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailDeleteTask[key]; err != nil {
		return err
	}
	delete(m.tasks, key)
	return nil
}

// TaskCount reports how many secondary task records remain.
func (m *MemoryRecords) TaskCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func clonePresentation(rec *models.Presentation) *models.Presentation {
	out := *rec
	out.Slides = make([]models.Slide, len(rec.Slides))
	for i, s := range rec.Slides {
		out.Slides[i] = s
		if s.StyleOverrides != nil {
			overrides := make(map[string]string, len(s.StyleOverrides))
			for k, v := range s.StyleOverrides {
				overrides[k] = v
			}
			out.Slides[i].StyleOverrides = overrides
		}
	}
	return &out
}

// MemoryBlobs is an in-memory BlobStore. The page token is the last name
// returned, so listing stays consistent while objects are deleted between
// pages.
type MemoryBlobs struct {
	mu      sync.Mutex
	objects map[string]struct{}

	// PageSize caps the names per page; zero means the store maximum.
	PageSize int
	// FailList makes ListPage return this error.
	FailList error
	// FailDelete makes Delete fail for the given names.
	FailDelete map[string]error
}

// NewMemoryBlobs returns an empty in-memory blob store.
func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{objects: make(map[string]struct{})}
}

// Put seeds an object.
func (m *MemoryBlobs) Put(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = struct{}{}
}

// Len reports how many objects remain.
func (m *MemoryBlobs) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *MemoryBlobs) ListPage(_ context.Context, prefix, pageToken string) ([]string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailList != nil {
		return nil, "", m.FailList
	}

	pageSize := m.PageSize
	if pageSize <= 0 || pageSize > maxListPage {
		pageSize = maxListPage
	}

	var all []string
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) && name > pageToken {
			all = append(all, name)
		}
	}
	sort.Strings(all)

	if len(all) <= pageSize {
		return all, "", nil
	}
	page := all[:pageSize]
	return page, page[len(page)-1], nil
}

func (m *MemoryBlobs) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailDelete[name]; err != nil {
		return err
	}
	delete(m.objects, name)
	return nil
}

// PublishedMessage is one message captured by MemoryQueue.
type PublishedMessage struct {
	Data  []byte
	Attrs map[string]string
}

// MemoryQueue is an in-memory MessageQueue.
type MemoryQueue struct {
	mu        sync.Mutex
	published []PublishedMessage

	// Err makes Publish fail, for exercising the synchronous fallback.
	Err error
}

// NewMemoryQueue returns an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (m *MemoryQueue) Publish(_ context.Context, data []byte, attrs map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.published = append(m.published, PublishedMessage{Data: data, Attrs: attrs})
	return fmt.Sprintf("msg-%d", len(m.published)), nil
}

// Published returns the captured messages.
func (m *MemoryQueue) Published() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedMessage(nil), m.published...)
}

// MemoryLogs is an in-memory LogStore. Deleting a log that was never
// written succeeds, matching the tolerant semantics of the real store.
type MemoryLogs struct {
	mu      sync.Mutex
	deleted []string

	// Fail makes DeleteLog fail for the given log ids.
	Fail map[string]error
}

// NewMemoryLogs returns an empty in-memory log store.
func NewMemoryLogs() *MemoryLogs {
	return &MemoryLogs{}
}

func (m *MemoryLogs) DeleteLog(_ context.Context, logID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail[logID]; err != nil {
		return err
	}
	m.deleted = append(m.deleted, logID)
	return nil
}

// Deleted returns the log ids deleted so far.
func (m *MemoryLogs) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
