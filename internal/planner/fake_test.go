package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/existflow/weekplanner/internal/legacy"
	"github.com/existflow/weekplanner/internal/model"
)

// memRemote is an in-memory RecordStore
type memRemote struct {
	mu      sync.Mutex
	nextID  int
	tasks   map[string]model.Task
	clients []model.Client

	// gates holds PlacedTasks for a week until the channel is closed
	gates map[string]chan struct{}

	failCreate error
	failUpdate error
	failImport error
	deletes    int
	imports    int
	inboxCalls int

	// dropReplies makes Import commit and then report a timeout
	dropReplies int
	importKeys  map[string]model.ImportResult
}

func newMemRemote() *memRemote {
	return &memRemote{
		tasks:      make(map[string]model.Task),
		gates:      make(map[string]chan struct{}),
		importKeys: make(map[string]model.ImportResult),
	}
}

func (m *memRemote) gate(week string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	m.gates[week] = ch
	return ch
}

func (m *memRemote) seedTask(t model.Task) model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = fmt.Sprintf("task-%03d", m.nextID)
	t.Priority = t.Priority.OrDefault()
	m.tasks[t.ID] = t
	return t
}

func (m *memRemote) sorted(keep func(model.Task) bool) []model.Task {
	var out []model.Task
	for _, t := range m.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memRemote) PlacedTasks(ctx context.Context, weekStart string) ([]model.Task, error) {
	m.mu.Lock()
	gate := m.gates[weekStart]
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(t model.Task) bool { return t.Placed() && t.WeekStart == weekStart }), nil
}

func (m *memRemote) InboxTasks(ctx context.Context) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inboxCalls++
	return m.sorted(func(t model.Task) bool { return !t.Placed() }), nil
}

func (m *memRemote) Clients(ctx context.Context) ([]model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Client, len(m.clients))
	copy(out, m.clients)
	return out, nil
}

func (m *memRemote) CreateTask(ctx context.Context, draft model.TaskDraft, weekStart string) (model.Task, error) {
	if m.failCreate != nil {
		return model.Task{}, m.failCreate
	}
	return m.seedTask(model.Task{
		Task:      draft.Task,
		Client:    draft.Client,
		Hours:     draft.Hours,
		Day:       draft.Day,
		Priority:  draft.Priority,
		WeekStart: weekStart,
		UpdatedAt: time.Now(),
	}), nil
}

func (m *memRemote) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	if m.failUpdate != nil {
		return m.failUpdate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return model.ErrNotFound
	}
	patch.Apply(&t)
	m.tasks[id] = t
	return nil
}

func (m *memRemote) DeleteTask(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.tasks, id)
	return nil
}

func (m *memRemote) CreateClient(ctx context.Context, name string) (model.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		if c.Name == name {
			return model.Client{}, model.ErrDuplicateClient
		}
	}
	c := model.Client{ID: fmt.Sprintf("client-%d", len(m.clients)+1), Name: name, CreatedAt: time.Now()}
	m.clients = append(m.clients, c)
	return c, nil
}

func (m *memRemote) Import(ctx context.Context, batch model.ImportBatch) (model.ImportResult, error) {
	if m.failImport != nil {
		return model.ImportResult{}, m.failImport
	}
	var res model.ImportResult
	m.mu.Lock()
	m.imports++
	if prev, ok := m.importKeys[batch.Key]; ok && batch.Key != "" {
		m.mu.Unlock()
		prev.Replayed = true
		return prev, nil
	}
	m.mu.Unlock()

	for _, name := range batch.Clients {
		if _, err := m.CreateClient(ctx, name); err == nil {
			res.Clients++
		} else if !errors.Is(err, model.ErrDuplicateClient) {
			return model.ImportResult{}, err
		}
	}
	for _, it := range batch.Tasks {
		m.seedTask(model.Task{
			Task:      it.Task,
			Client:    it.Client,
			Hours:     it.Hours,
			Day:       it.Day,
			Priority:  it.Priority,
			Completed: it.Completed,
			WeekStart: it.WeekStart,
		})
		res.Tasks++
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if batch.Key != "" {
		m.importKeys[batch.Key] = res
	}
	if m.dropReplies > 0 {
		m.dropReplies--
		return model.ImportResult{}, context.DeadlineExceeded
	}
	return res, nil
}

func (m *memRemote) inboxCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inboxCalls
}

func (m *memRemote) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// memLegacy is an in-memory LegacySource
type memLegacy struct {
	snap     legacy.Snapshot
	migrated bool
	purged   []string
	snapErr  error
	key      string
	markErr  error
}

func (l *memLegacy) ImportKey(ctx context.Context) (string, error) {
	if l.key == "" {
		l.key = fmt.Sprintf("import-%p", l)
	}
	return l.key, nil
}

func (l *memLegacy) Migrated(ctx context.Context) (bool, error) { return l.migrated, nil }

func (l *memLegacy) Snapshot(ctx context.Context) (legacy.Snapshot, error) {
	if l.snapErr != nil {
		return legacy.Snapshot{}, l.snapErr
	}
	return l.snap, nil
}

func (l *memLegacy) MarkMigrated(ctx context.Context) error {
	if l.markErr != nil {
		return l.markErr
	}
	l.migrated = true
	return nil
}

func (l *memLegacy) Purge(ctx context.Context, keys []string) error {
	l.purged = append(l.purged, keys...)
	return nil
}
