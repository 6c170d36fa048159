// Package planner holds the client-side view of a user's tasks: the placed
// tasks of the viewed week, the inbox, and the client list, kept in step
// with a remote record store.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/existflow/weekplanner/internal/config"
	"github.com/existflow/weekplanner/internal/legacy"
	"github.com/existflow/weekplanner/internal/logger"
	"github.com/existflow/weekplanner/internal/model"
)

// ErrNoWeek is returned when an operation needs a viewed week before any
// Load has run.
var ErrNoWeek = errors.New("no week loaded")

// RecordStore is the per-user remote store. Every call is already scoped
// to the signed-in user.
type RecordStore interface {
	PlacedTasks(ctx context.Context, weekStart string) ([]model.Task, error)
	InboxTasks(ctx context.Context) ([]model.Task, error)
	Clients(ctx context.Context) ([]model.Client, error)
	CreateTask(ctx context.Context, draft model.TaskDraft, weekStart string) (model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error
	DeleteTask(ctx context.Context, id string) error
	CreateClient(ctx context.Context, name string) (model.Client, error)
	Import(ctx context.Context, batch model.ImportBatch) (model.ImportResult, error)
}

// LegacySource is the local store drained by Migrate
type LegacySource interface {
	Migrated(ctx context.Context) (bool, error)
	Snapshot(ctx context.Context) (legacy.Snapshot, error)
	ImportKey(ctx context.Context) (string, error)
	MarkMigrated(ctx context.Context) error
	Purge(ctx context.Context, keys []string) error
}

// Option configures a Store
type Option func(*Store)

// WithLegacy enables Migrate against src
func WithLegacy(src LegacySource) Option {
	return func(s *Store) {
		s.legacy = src
	}
}

// WithCapacity sets the plannable hours per day used by Summary
func WithCapacity(hours float64) Option {
	return func(s *Store) {
		if hours > 0 {
			s.capacity = hours
		}
	}
}

// Store is the task store adapter. It is safe for concurrent use.
type Store struct {
	remote   RecordStore
	legacy   LegacySource
	capacity float64

	mu       sync.Mutex
	placed   map[string]*bucket
	unplaced *bucket
	clients  []string
	week     string
	loading  bool
	lastErr  error

	// load ordering: seq numbers every Load, latest holds the newest seq
	// per week, shared the newest seq whose inbox and clients were applied
	seq    uint64
	latest map[string]uint64
	shared uint64

	// mutations counts local task changes, letting Load detect responses
	// that raced an update
	mutations uint64

	migrating bool
}

// New creates an empty store backed by remote
func New(remote RecordStore, opts ...Option) *Store {
	s := &Store{
		remote:   remote,
		capacity: config.DefaultDayCapacity,
		placed:   make(map[string]*bucket),
		unplaced: newBucket(),
		latest:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// weekBucket returns the placed bucket for weekStart, creating it. Caller
// holds mu.
func (s *Store) weekBucket(weekStart string) *bucket {
	b, ok := s.placed[weekStart]
	if !ok {
		b = newBucket()
		s.placed[weekStart] = b
	}
	return b
}

// fail records err as the last error. Caller holds mu.
func (s *Store) fail(op string, err error) error {
	s.lastErr = err
	logger.Error("Remote operation failed", logger.F("op", op), logger.F("error", err.Error()))
	return err
}

// loadAttempts bounds how often Load re-fetches when local mutations
// overlap its requests
const loadAttempts = 3

// loadResult is one round of Load requests
type loadResult struct {
	placed, inbox                   []model.Task
	clients                         []model.Client
	placedErr, inboxErr, clientsErr error
	err                             error
}

func (s *Store) fetch(ctx context.Context, weekStart string) loadResult {
	var (
		r loadResult
		g errgroup.Group
	)
	g.Go(func() error {
		r.placed, r.placedErr = s.remote.PlacedTasks(ctx, weekStart)
		return r.placedErr
	})
	g.Go(func() error {
		r.inbox, r.inboxErr = s.remote.InboxTasks(ctx)
		return r.inboxErr
	})
	g.Go(func() error {
		r.clients, r.clientsErr = s.remote.Clients(ctx)
		return r.clientsErr
	})
	r.err = g.Wait()
	return r
}

// Load makes weekStart the viewed week and fetches its placed tasks, the
// inbox and the clients. Responses are applied to the week they were
// requested for, so overlapping loads never mix weeks. A task mutated
// while the requests were in flight triggers a re-fetch.
func (s *Store) Load(ctx context.Context, weekStart string) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.week = weekStart
	s.latest[weekStart] = seq
	s.loading = true
	s.lastErr = nil
	gen := s.mutations
	s.mu.Unlock()

	log := logger.WithFields(logger.F("week", weekStart), logger.F("load", seq))
	log.Debug("Loading week")

	var r loadResult
	for attempt := 1; ; attempt++ {
		r = s.fetch(ctx, weekStart)

		s.mu.Lock()
		if s.mutations == gen || r.err != nil || attempt == loadAttempts {
			break
		}
		gen = s.mutations
		s.mu.Unlock()
		log.Debug("Tasks changed during load, fetching again", logger.F("attempt", attempt))
	}
	defer s.mu.Unlock()

	if r.placedErr == nil && s.latest[weekStart] == seq {
		s.weekBucket(weekStart).reset(r.placed)
	}
	if seq > s.shared {
		if r.inboxErr == nil {
			s.unplaced.reset(r.inbox)
		}
		if r.clientsErr == nil {
			s.clients = clientNames(r.clients)
		}
		if r.inboxErr == nil && r.clientsErr == nil {
			s.shared = seq
		}
	}
	s.dedupe(weekStart)
	if s.week == weekStart && s.latest[weekStart] == seq {
		s.loading = false
	}

	if r.err != nil {
		return s.fail("load", fmt.Errorf("failed to load week %s: %w", weekStart, r.err))
	}
	log.Debug("Week loaded", logger.F("placed", len(r.placed)), logger.F("inbox", len(r.inbox)))
	return nil
}

// dedupe drops inbox copies of tasks placed in weekStart. Caller holds mu.
func (s *Store) dedupe(weekStart string) {
	b, ok := s.placed[weekStart]
	if !ok {
		return
	}
	for _, id := range b.order {
		s.unplaced.remove(id)
	}
}

func clientNames(clients []model.Client) []string {
	names := make([]string, 0, len(clients))
	for _, c := range clients {
		names = append(names, c.Name)
	}
	return names
}

// AddTask creates a task in the viewed week. Local state changes only
// after the remote store has assigned an id.
func (s *Store) AddTask(ctx context.Context, draft model.TaskDraft) (model.Task, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return model.Task{}, err
	}

	s.mu.Lock()
	week := s.week
	known := s.hasClient(draft.Client)
	s.mu.Unlock()

	if week == "" {
		return model.Task{}, ErrNoWeek
	}
	if !known {
		return model.Task{}, fmt.Errorf("%w: unknown client %q", model.ErrInvalidClient, draft.Client)
	}

	task, err := s.remote.CreateTask(ctx, draft, week)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		return model.Task{}, s.fail("add task", err)
	}
	s.insert(task)
	s.mutations++
	logger.Info("Task added", logger.F("id", task.ID), logger.F("week", task.WeekStart))
	return task, nil
}

// insert files t into the bucket its day and week select. Caller holds mu.
func (s *Store) insert(t model.Task) {
	if t.Placed() {
		s.weekBucket(t.WeekStart).put(t)
		return
	}
	s.unplaced.put(t)
}

// locate finds id in any bucket. Caller holds mu.
func (s *Store) locate(id string) (*bucket, *model.Task) {
	if t, ok := s.unplaced.get(id); ok {
		return s.unplaced, t
	}
	for _, b := range s.placed {
		if t, ok := b.get(id); ok {
			return b, t
		}
	}
	return nil, nil
}

// UpdateTask merges patch into the task locally, then on the remote store.
// Placing an inbox task binds it to the viewed week. A remote failure
// leaves the local change in place.
func (s *Store) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if patch.Empty() {
		return nil
	}

	s.mu.Lock()
	from, current := s.locate(id)
	if current == nil {
		s.mu.Unlock()
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	if patch.Day != nil && patch.Day.Placed() && !current.Placed() {
		if s.week == "" {
			s.mu.Unlock()
			return ErrNoWeek
		}
		week := s.week
		patch.WeekStart = &week
	}

	updated := *current
	patch.Apply(&updated)
	from.remove(id)
	s.insert(updated)
	s.mutations++
	s.mu.Unlock()

	err := s.remote.UpdateTask(ctx, id, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutations++
	if err != nil {
		return s.fail("update task", err)
	}
	return nil
}

// MoveTask places a task on day, or in the inbox for DayNone
func (s *Store) MoveTask(ctx context.Context, id string, day model.Day) error {
	return s.UpdateTask(ctx, id, model.TaskPatch{Day: &day})
}

// ToggleComplete flips the completed flag of a task
func (s *Store) ToggleComplete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, t := s.locate(id)
	if t == nil {
		s.mu.Unlock()
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	done := !t.Completed
	s.mu.Unlock()

	return s.UpdateTask(ctx, id, model.TaskPatch{Completed: &done})
}

// RemoveTask drops the task locally and deletes it remotely. Removing an
// id that is already gone is not an error.
func (s *Store) RemoveTask(ctx context.Context, id string) error {
	s.mu.Lock()
	if from, _ := s.locate(id); from != nil {
		from.remove(id)
	}
	s.mutations++
	s.mu.Unlock()

	err := s.remote.DeleteTask(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutations++
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return s.fail("remove task", err)
	}
	return nil
}

// hasClient reports whether name is a known client. Caller holds mu.
func (s *Store) hasClient(name string) bool {
	for _, c := range s.clients {
		if c == name {
			return true
		}
	}
	return false
}

// AddClient adds a client label. Adding an existing name is a no-op.
func (s *Store) AddClient(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ErrInvalidClient
	}

	s.mu.Lock()
	known := s.hasClient(name)
	s.mu.Unlock()
	if known {
		return nil
	}

	_, err := s.remote.CreateClient(ctx, name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil && !errors.Is(err, model.ErrDuplicateClient) {
		return s.fail("add client", err)
	}
	if !s.hasClient(name) {
		s.clients = append(s.clients, name)
	}
	return nil
}

// Placed returns the placed tasks of the viewed week
func (s *Store) Placed() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.placed[s.week]; ok {
		return b.list()
	}
	return []model.Task{}
}

// Unplaced returns the inbox
func (s *Store) Unplaced() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unplaced.list()
}

// DayTasks returns the viewed week's tasks on day, or the inbox for DayNone
func (s *Store) DayTasks(day model.Day) []model.Task {
	if day == model.DayNone {
		return s.Unplaced()
	}
	var out []model.Task
	for _, t := range s.Placed() {
		if t.Day == day {
			out = append(out, t)
		}
	}
	return out
}

// Clients returns the client names in creation order
func (s *Store) Clients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.clients))
	copy(out, s.clients)
	return out
}

// Loading reports whether the viewed week's newest load is outstanding
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError returns the most recent remote failure, if any
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError dismisses the last error
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// Week returns the viewed week start
func (s *Store) Week() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.week
}

// Capacity returns the plannable hours per day
func (s *Store) Capacity() float64 {
	return s.capacity
}

// Lookup finds a loaded task by id or by an unambiguous id prefix
func (s *Store) Lookup(idOrPrefix string) (model.Task, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return model.Task{}, fmt.Errorf("task id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, t := s.locate(idOrPrefix); t != nil {
		return *t, nil
	}

	var matches []model.Task
	collect := func(b *bucket) {
		for _, id := range b.order {
			if strings.HasPrefix(id, idOrPrefix) {
				matches = append(matches, *b.byID[id])
			}
		}
	}
	collect(s.unplaced)
	for _, b := range s.placed {
		collect(b)
	}

	switch len(matches) {
	case 0:
		return model.Task{}, fmt.Errorf("task %s: %w", idOrPrefix, model.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return model.Task{}, fmt.Errorf("ambiguous task id %q matches %d tasks", idOrPrefix, len(matches))
	}
}
