package inspection_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/frahmantamala/hira-inspection/internal"
	"github.com/frahmantamala/hira-inspection/internal/core/events"
	"github.com/frahmantamala/hira-inspection/internal/hazard"
	"github.com/frahmantamala/hira-inspection/internal/inspection"
	"github.com/frahmantamala/hira-inspection/internal/risk"
	"github.com/frahmantamala/hira-inspection/internal/vision"
)

var errInjected = errors.New("injected failure")

// memoryRepo is an in-memory inspection.Repository. WithTx snapshots the
// state and restores it when fn fails.
type memoryRepo struct {
	mu          sync.Mutex
	inspections map[int64]inspection.Inspection
	hazards     map[int64]hazard.Hazard
	nextID      int64

	// failHazardInsert fails the nth hazard insert (1-based) when > 0.
	failHazardInsert int
	hazardInserts    int
	failCreate       bool
	statusHistory    []inspection.Status

	// onComplete runs after a successful Complete.
	onComplete func()
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		inspections: map[int64]inspection.Inspection{},
		hazards:     map[int64]hazard.Hazard{},
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(inspection.Repository) error) error {
	m.mu.Lock()
	insps := make(map[int64]inspection.Inspection, len(m.inspections))
	for k, v := range m.inspections {
		insps[k] = v
	}
	hs := make(map[int64]hazard.Hazard, len(m.hazards))
	for k, v := range m.hazards {
		hs[k] = v
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.inspections, m.hazards = insps, hs
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memoryRepo) Create(ctx context.Context, i *inspection.Inspection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate {
		return errInjected
	}
	m.nextID++
	i.ID = m.nextID
	m.inspections[i.ID] = *i
	m.statusHistory = append(m.statusHistory, i.Status)
	return nil
}

func (m *memoryRepo) GetByID(ctx context.Context, id, userID int64) (*inspection.Inspection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.inspections[id]
	if !ok || i.UserID != userID {
		return nil, internal.ErrInspectionNotFound
	}
	return &i, nil
}

func (m *memoryRepo) List(ctx context.Context, userID int64, q inspection.ListQuery) ([]*inspection.Summary, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*inspection.Summary
	for _, i := range m.inspections {
		if i.UserID == userID {
			i := i
			out = append(out, &inspection.Summary{Inspection: &i})
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryRepo) update(id int64, fn func(*inspection.Inspection)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.inspections[id]
	if !ok {
		return internal.ErrInspectionNotFound
	}
	fn(&i)
	m.inspections[id] = i
	return nil
}

func (m *memoryRepo) UpdateStatus(ctx context.Context, id int64, status inspection.Status) error {
	return m.update(id, func(i *inspection.Inspection) {
		i.Status = status
		m.statusHistory = append(m.statusHistory, status)
	})
}

func (m *memoryRepo) Complete(ctx context.Context, id int64, summary *string, overall risk.Level) error {
	superseded := false
	err := m.update(id, func(i *inspection.Inspection) {
		if i.Status != inspection.StatusAnalyzing {
			superseded = true
			return
		}
		i.Status = inspection.StatusCompleted
		i.AISummary = summary
		i.OverallRiskLevel = &overall
		m.statusHistory = append(m.statusHistory, inspection.StatusCompleted)
	})
	if err != nil {
		return err
	}
	if superseded {
		return internal.ErrAnalysisSuperseded
	}
	if m.onComplete != nil {
		m.onComplete()
	}
	return nil
}

func (m *memoryRepo) SetOverallRiskLevel(ctx context.Context, id int64, level *risk.Level) error {
	return m.update(id, func(i *inspection.Inspection) { i.OverallRiskLevel = level })
}

func (m *memoryRepo) Delete(ctx context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.inspections[id]
	if !ok || i.UserID != userID {
		return internal.ErrInspectionNotFound
	}
	delete(m.inspections, id)
	for hid, h := range m.hazards {
		if h.InspectionID == id {
			delete(m.hazards, hid)
		}
	}
	return nil
}

func (m *memoryRepo) FailStale(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, i := range m.inspections {
		if i.Status == inspection.StatusAnalyzing && i.UpdatedAt.Before(cutoff) {
			i.Status = inspection.StatusFailed
			m.inspections[id] = i
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) CreateHazards(ctx context.Context, hs []*hazard.Hazard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range hs {
		m.hazardInserts++
		if m.failHazardInsert > 0 && m.hazardInserts == m.failHazardInsert {
			return errInjected
		}
		m.nextID++
		h.ID = m.nextID
		m.hazards[h.ID] = *h
	}
	return nil
}

func (m *memoryRepo) GetHazard(ctx context.Context, hazardID, userID int64) (*hazard.Hazard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hazards[hazardID]
	if !ok {
		return nil, internal.ErrHazardNotFound
	}
	if i, ok := m.inspections[h.InspectionID]; !ok || i.UserID != userID {
		return nil, internal.ErrHazardNotFound
	}
	return &h, nil
}

func (m *memoryRepo) ListHazards(ctx context.Context, inspectionID int64) ([]*hazard.Hazard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*hazard.Hazard
	for _, h := range m.hazards {
		if h.InspectionID == inspectionID {
			h := h
			out = append(out, &h)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].RiskScore != out[b].RiskScore {
			return out[a].RiskScore > out[b].RiskScore
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

func (m *memoryRepo) UpdateHazard(ctx context.Context, h *hazard.Hazard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hazards[h.ID]; !ok {
		return internal.ErrHazardNotFound
	}
	m.hazards[h.ID] = *h
	return nil
}

func (m *memoryRepo) hazardCount(inspectionID int64) int {
	hs, _ := m.ListHazards(context.Background(), inspectionID)
	return len(hs)
}

type fakeAnalyzer struct {
	result *vision.Result
	err    error
	block  bool
	calls  int

	// onAnalyze runs before the result is returned.
	onAnalyze func()
}

func (f *fakeAnalyzer) SourceName() string { return "fake" }

func (f *fakeAnalyzer) Analyze(ctx context.Context, img vision.Image) (*vision.Result, error) {
	f.calls++
	if f.onAnalyze != nil {
		f.onAnalyze()
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.result, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) PublishSync(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
