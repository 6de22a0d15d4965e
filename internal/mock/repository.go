package mock

import (
	"context"
	"sync"

	"github.com/fhuszti/skillswap-media-ms/internal/model"
	"github.com/fhuszti/skillswap-media-ms/internal/port"
)

// DocumentRepository is an in-memory document store with version checks.
type DocumentRepository struct {
	mu   sync.Mutex
	docs map[string]*model.Document

	// errors
	GetErr     error
	InsertErr  error
	ReplaceErr error
	// Conflicts makes that many Replace calls fail with port.ErrVersionConflict.
	Conflicts int

	// call counters
	GetCalls     int
	InsertCalls  int
	ReplaceCalls int

	// BeforeReplace runs outside the lock right before each Replace.
	BeforeReplace func(doc *model.Document)
}

func key(collection, id string) string { return collection + "/" + id }

// Put seeds a document at version 1.
func (m *DocumentRepository) Put(doc *model.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs == nil {
		m.docs = map[string]*model.Document{}
	}
	c := doc.Clone()
	if c.Version == 0 {
		c.Version = 1
	}
	m.docs[key(doc.Collection, doc.ID)] = c
}

// Stored returns a copy of the stored document, or nil.
func (m *DocumentRepository) Stored(collection, id string) *model.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[key(collection, id)]
	if !ok {
		return nil
	}
	return d.Clone()
}

func (m *DocumentRepository) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.docs {
		if d.Collection == collection {
			n++
		}
	}
	return n
}

func (m *DocumentRepository) Get(ctx context.Context, collection, id string) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	d, ok := m.docs[key(collection, id)]
	if !ok {
		return nil, port.ErrNotFound
	}
	return d.Clone(), nil
}

func (m *DocumentRepository) Insert(ctx context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++
	if m.InsertErr != nil {
		return m.InsertErr
	}
	if m.docs == nil {
		m.docs = map[string]*model.Document{}
	}
	doc.Version = 1
	m.docs[key(doc.Collection, doc.ID)] = doc.Clone()
	return nil
}

func (m *DocumentRepository) Replace(ctx context.Context, doc *model.Document) error {
	if m.BeforeReplace != nil {
		m.BeforeReplace(doc)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplaceCalls++
	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}
	if m.Conflicts > 0 {
		m.Conflicts--
		return port.ErrVersionConflict
	}
	cur, ok := m.docs[key(doc.Collection, doc.ID)]
	if !ok {
		return port.ErrNotFound
	}
	if cur.Version != doc.Version {
		return port.ErrVersionConflict
	}
	doc.Version++
	m.docs[key(doc.Collection, doc.ID)] = doc.Clone()
	return nil
}

// ActivityRepository records created activities.
type ActivityRepository struct {
	mu         sync.Mutex
	Activities []model.Activity
	Err        error
}

func (m *ActivityRepository) Create(ctx context.Context, a *model.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Activities = append(m.Activities, *a)
	return nil
}

func (m *ActivityRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Activities)
}
