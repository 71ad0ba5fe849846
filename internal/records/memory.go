package records

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"paintledger/internal/apperr"
	"paintledger/internal/models"
)

// MemoryStore keeps records in process memory. It backs RECORD_STORE=memory
// for local runs and the HTTP tests; contents vanish on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[primitive.ObjectID]models.AnalysisRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[primitive.ObjectID]models.AnalysisRecord)}
}

func (m *MemoryStore) Insert(_ context.Context, rec *models.AnalysisRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = primitive.NewObjectID()
	m.docs[rec.ID] = *rec
	return rec.ID.Hex(), nil
}

func (m *MemoryStore) FindByOwner(_ context.Context, username string) ([]models.AnalysisRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.AnalysisRecord{}
	for _, d := range m.docs {
		if d.Owner == username {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (m *MemoryStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.AnalysisRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, apperr.NotFound("record not found")
	}
	return &d, nil
}

func (m *MemoryStore) DeleteByID(_ context.Context, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return 0, nil
	}
	delete(m.docs, id)
	return 1, nil
}
