package session

import (
	"context"
	"sync"

	"github.com/iliyamo/sportsvenue-portal/internal/model"
)

// Record is what survives a reload: the credential and, separately, the
// last identity snapshot.  User is untrusted until re-verified.
type Record struct {
	Token string
	User  *model.Identity
}

// Persister stores one browser session's credential across reloads.
type Persister interface {
	Load(ctx context.Context) (Record, error)
	SaveToken(ctx context.Context, token string) error
	SaveIdentity(ctx context.Context, id model.Identity) error
	Clear(ctx context.Context) error
}

// MemoryPersister keeps the record in process.  Used when Redis is not
// configured and in tests.
type MemoryPersister struct {
	mu  sync.Mutex
	rec Record
}

func NewMemoryPersister() *MemoryPersister { return &MemoryPersister{} }

func (m *MemoryPersister) Load(context.Context) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.rec
	if rec.User != nil {
		u := *rec.User
		rec.User = &u
	}
	return rec, nil
}

func (m *MemoryPersister) SaveToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec.Token = token
	return nil
}

func (m *MemoryPersister) SaveIdentity(_ context.Context, id model.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec.User = &id
	return nil
}

func (m *MemoryPersister) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = Record{}
	return nil
}
