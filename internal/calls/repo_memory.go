package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests and crmctl dry runs.
type MemoryRepo struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryRepo(seed ...Record) *MemoryRepo {
	return &MemoryRepo{records: append([]Record(nil), seed...)}
}

func (m *MemoryRepo) Create(ctx context.Context, r Record) error {
	if err := validateNew(r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *MemoryRepo) Complete(ctx context.Context, externalCallID string, c Completion) error {
	if externalCallID == "" || !c.LeadStage.Valid() {
		return ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for i := range m.records {
		if m.records[i].ExternalCallID == externalCallID {
			m.records[i] = m.records[i].Apply(c)
			found = true
		}
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (Record, error) {
	return m.find(func(r Record) bool { return r.ID == id })
}

func (m *MemoryRepo) GetByExternalID(ctx context.Context, externalCallID string) (Record, error) {
	return m.find(func(r Record) bool { return r.ExternalCallID == externalCallID })
}

func (m *MemoryRepo) ListByCampaign(ctx context.Context, campaignID string) ([]Record, error) {
	out := m.filter(func(r Record) bool { return r.CampaignID == campaignID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRepo) ListAppointments(ctx context.Context, from, to time.Time) ([]Record, error) {
	out := m.filter(func(r Record) bool {
		return r.AppointmentAt != nil && !r.AppointmentAt.Before(from) && r.AppointmentAt.Before(to)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].AppointmentAt.Before(*out[j].AppointmentAt) })
	return out, nil
}

// All returns a copy of every stored record in insertion order.
func (m *MemoryRepo) All() []Record {
	return m.filter(func(Record) bool { return true })
}

func (m *MemoryRepo) find(match func(Record) bool) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if match(r) {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *MemoryRepo) filter(match func(Record) bool) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0)
	for _, r := range m.records {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}
