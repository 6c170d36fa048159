package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/weekplanner/internal/calendar"
	"github.com/existflow/weekplanner/internal/model"
)

const (
	weekA = "2025-01-06"
	weekB = "2025-01-13"
)

func newLoadedStore(t *testing.T, remote *memRemote, week string) *Store {
	t.Helper()
	s := New(remote)
	require.NoError(t, s.Load(context.Background(), week))
	return s
}

func TestLoadPartitionsTasks(t *testing.T) {
	remote := newMemRemote()
	_, _ = remote.CreateClient(context.Background(), "UAF")
	remote.seedTask(model.Task{Task: "placed", Client: "UAF", Hours: 1, Day: model.Monday, WeekStart: weekA})
	remote.seedTask(model.Task{Task: "other week", Client: "UAF", Hours: 1, Day: model.Monday, WeekStart: weekB})
	remote.seedTask(model.Task{Task: "inbox", Client: "UAF", Hours: 1, WeekStart: weekB})

	s := newLoadedStore(t, remote, weekA)

	require.Len(t, s.Placed(), 1)
	assert.Equal(t, "placed", s.Placed()[0].Task)
	require.Len(t, s.Unplaced(), 1)
	assert.Equal(t, "inbox", s.Unplaced()[0].Task)
	assert.Equal(t, []string{"UAF"}, s.Clients())
	assert.Equal(t, weekA, s.Week())
	assert.False(t, s.Loading())
	assert.NoError(t, s.LastError())
}

func TestLoadKeepsLateResponsesInTheirOwnWeek(t *testing.T) {
	remote := newMemRemote()
	remote.seedTask(model.Task{Task: "a", Client: "UAF", Hours: 1, Day: model.Monday, WeekStart: weekA})
	remote.seedTask(model.Task{Task: "b", Client: "UAF", Hours: 2, Day: model.Friday, WeekStart: weekB})

	s := New(remote)
	gateA := remote.gate(weekA)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background(), weekA) }()

	require.Eventually(t, func() bool { return s.Week() == weekA }, time.Second, time.Millisecond)
	assert.True(t, s.Loading())

	// navigate away before the first response arrives
	require.NoError(t, s.Load(context.Background(), weekB))
	assert.False(t, s.Loading())

	close(gateA)
	require.NoError(t, <-done)

	assert.Equal(t, weekB, s.Week())
	require.Len(t, s.Placed(), 1)
	assert.Equal(t, "b", s.Placed()[0].Task)
	assert.False(t, s.Loading())

	// the late response went to its own week
	require.NoError(t, s.Load(context.Background(), weekA))
	require.Len(t, s.Placed(), 1)
	assert.Equal(t, "a", s.Placed()[0].Task)
}

func TestLoadRacingMoveKeepsTaskInOneBucket(t *testing.T) {
	remote := newMemRemote()
	_, _ = remote.CreateClient(context.Background(), "UAF")
	x := remote.seedTask(model.Task{Task: "x", Client: "UAF", Hours: 1})

	s := newLoadedStore(t, remote, weekA)
	require.Len(t, s.Unplaced(), 1)

	gate := remote.gate(weekA)
	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background(), weekA) }()

	// the inbox answers while the placed request is held
	require.Eventually(t, func() bool { return remote.inboxCount() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, s.MoveTask(context.Background(), x.ID, model.Monday))
	close(gate)
	require.NoError(t, <-done)

	require.Len(t, s.Placed(), 1)
	assert.Equal(t, x.ID, s.Placed()[0].ID)
	assert.Equal(t, model.Monday, s.Placed()[0].Day)
	assert.Empty(t, s.Unplaced())
	assert.Equal(t, 3, remote.inboxCount(), "load fetched again after the move")
}

func TestDedupePrefersPlacedCopy(t *testing.T) {
	s := New(newMemRemote())
	task := model.Task{ID: "t1", Task: "x", Client: "UAF", Hours: 1}
	s.unplaced.put(task)
	task.Day = model.Tuesday
	task.WeekStart = weekA
	s.weekBucket(weekA).put(task)

	s.dedupe(weekA)

	assert.Equal(t, 0, s.unplaced.len())
	assert.Equal(t, 1, s.weekBucket(weekA).len())
}

func TestLoadFailureSetsLastError(t *testing.T) {
	remote := newMemRemote()
	s := New(remote)

	ctx, cancel := context.WithCancel(context.Background())
	remote.gate(weekA)
	cancel()

	err := s.Load(ctx, weekA)
	require.Error(t, err)
	assert.ErrorIs(t, s.LastError(), context.Canceled)

	s.ClearError()
	assert.NoError(t, s.LastError())
}

func TestAddTask(t *testing.T) {
	remote := newMemRemote()
	s := newLoadedStore(t, remote, weekA)
	ctx := context.Background()
	require.NoError(t, s.AddClient(ctx, "UAF"))

	task, err := s.AddTask(ctx, model.TaskDraft{Task: "  Offerte  ", Client: "UAF", Hours: 1.5})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Offerte", task.Task)
	assert.Equal(t, weekA, task.WeekStart)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.False(t, task.Completed)
	require.Len(t, s.Unplaced(), 1)
	assert.Equal(t, task.ID, s.Unplaced()[0].ID)

	placed, err := s.AddTask(ctx, model.TaskDraft{Task: "Call", Client: "UAF", Hours: 1, Day: model.Tuesday})
	require.NoError(t, err)
	assert.Len(t, s.Placed(), 1)
	assert.Equal(t, []model.Task{placed}, s.DayTasks(model.Tuesday))
}

func TestAddTaskValidation(t *testing.T) {
	remote := newMemRemote()
	s := newLoadedStore(t, remote, weekA)
	ctx := context.Background()
	require.NoError(t, s.AddClient(ctx, "UAF"))

	_, err := s.AddTask(ctx, model.TaskDraft{Task: " ", Client: "UAF", Hours: 1})
	assert.ErrorIs(t, err, model.ErrInvalidTask)

	_, err = s.AddTask(ctx, model.TaskDraft{Task: "x", Client: "UAF", Hours: 0})
	assert.ErrorIs(t, err, model.ErrInvalidTask)

	_, err = s.AddTask(ctx, model.TaskDraft{Task: "x", Client: "Nobody", Hours: 1})
	assert.ErrorIs(t, err, model.ErrInvalidClient)

	assert.Zero(t, remote.count())
	assert.NoError(t, s.LastError())
}

func TestAddTaskNeedsWeek(t *testing.T) {
	s := New(newMemRemote())
	_, err := s.AddTask(context.Background(), model.TaskDraft{Task: "x", Client: "UAF", Hours: 1})
	assert.ErrorIs(t, err, ErrNoWeek)
}

func TestAddTaskRemoteFailureLeavesNoLocalState(t *testing.T) {
	remote := newMemRemote()
	s := newLoadedStore(t, remote, weekA)
	ctx := context.Background()
	require.NoError(t, s.AddClient(ctx, "UAF"))

	boom := errors.New("network down")
	remote.failCreate = boom

	_, err := s.AddTask(ctx, model.TaskDraft{Task: "x", Client: "UAF", Hours: 1})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.LastError(), boom)
	assert.Empty(t, s.Unplaced())
}

func TestMoveToDayAndBackRestoresBuckets(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC) }
	cal := calendar.New(calendar.WithClock(clock), calendar.WithLocation(time.UTC))
	target := cal.WeekStartKey(2)
	require.Equal(t, "2025-01-20", target)

	remote := newMemRemote()
	inboxTask := remote.seedTask(model.Task{Task: "drag me", Client: "UAF", Hours: 2, WeekStart: cal.WeekStartKey(0)})
	remote.seedTask(model.Task{Task: "stays", Client: "UAF", Hours: 1})
	remote.seedTask(model.Task{Task: "already there", Client: "UAF", Hours: 1, Day: model.Monday, WeekStart: target})

	s := newLoadedStore(t, remote, target)
	ctx := context.Background()
	placedBefore, unplacedBefore := len(s.Placed()), len(s.Unplaced())

	require.NoError(t, s.MoveTask(ctx, inboxTask.ID, model.Wednesday))
	assert.Len(t, s.Placed(), placedBefore+1)
	assert.Len(t, s.Unplaced(), unplacedBefore-1)

	moved, err := s.Lookup(inboxTask.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Wednesday, moved.Day)
	assert.Equal(t, target, moved.WeekStart)
	assert.Equal(t, target, remote.tasks[inboxTask.ID].WeekStart)

	require.NoError(t, s.MoveTask(ctx, inboxTask.ID, model.DayNone))
	assert.Len(t, s.Placed(), placedBefore)
	assert.Len(t, s.Unplaced(), unplacedBefore)
	assert.Empty(t, s.DayTasks(model.Wednesday))

	back, err := s.Lookup(inboxTask.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DayNone, back.Day)
	assert.Equal(t, model.DayNone, remote.tasks[inboxTask.ID].Day)
}

func TestMoveBetweenDaysKeepsWeek(t *testing.T) {
	remote := newMemRemote()
	task := remote.seedTask(model.Task{Task: "t", Client: "UAF", Hours: 1, Day: model.Monday, WeekStart: weekA})
	s := newLoadedStore(t, remote, weekA)

	require.NoError(t, s.MoveTask(context.Background(), task.ID, model.Friday))
	got, err := s.Lookup(task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Friday, got.Day)
	assert.Equal(t, weekA, got.WeekStart)
}

func TestToggleCompleteKeepsBucket(t *testing.T) {
	remote := newMemRemote()
	task := remote.seedTask(model.Task{Task: "t", Client: "UAF", Hours: 1, Day: model.Monday, WeekStart: weekA})
	s := newLoadedStore(t, remote, weekA)
	ctx := context.Background()

	require.NoError(t, s.ToggleComplete(ctx, task.ID))
	require.Len(t, s.Placed(), 1)
	assert.True(t, s.Placed()[0].Completed)
	assert.True(t, remote.tasks[task.ID].Completed)

	require.NoError(t, s.ToggleComplete(ctx, task.ID))
	assert.False(t, s.Placed()[0].Completed)
}

func TestUpdateFailureKeepsOptimisticChange(t *testing.T) {
	remote := newMemRemote()
	task := remote.seedTask(model.Task{Task: "t", Client: "UAF", Hours: 1, WeekStart: weekA})
	s := newLoadedStore(t, remote, weekA)

	boom := errors.New("timeout")
	remote.failUpdate = boom

	err := s.MoveTask(context.Background(), task.ID, model.Thursday)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.LastError(), boom)
	require.Len(t, s.Placed(), 1)
	assert.Equal(t, model.Thursday, s.Placed()[0].Day)
}

func TestUpdateUnknownTask(t *testing.T) {
	s := newLoadedStore(t, newMemRemote(), weekA)
	err := s.MoveTask(context.Background(), "missing", model.Monday)
	assert.ErrorIs(t, err, model.ErrNotFound)

	bad := model.Day("Zaterdag")
	err = s.UpdateTask(context.Background(), "missing", model.TaskPatch{Day: &bad})
	assert.ErrorIs(t, err, model.ErrInvalidTask)
}

func TestRemoveTaskTwice(t *testing.T) {
	remote := newMemRemote()
	task := remote.seedTask(model.Task{Task: "t", Client: "UAF", Hours: 1, Day: model.Monday, WeekStart: weekA})
	remote.seedTask(model.Task{Task: "keep", Client: "UAF", Hours: 1})
	s := newLoadedStore(t, remote, weekA)
	ctx := context.Background()

	require.NoError(t, s.RemoveTask(ctx, task.ID))
	placed, unplaced := len(s.Placed()), len(s.Unplaced())
	assert.Equal(t, 0, placed)
	assert.Equal(t, 1, unplaced)

	require.NoError(t, s.RemoveTask(ctx, task.ID))
	assert.Len(t, s.Placed(), placed)
	assert.Len(t, s.Unplaced(), unplaced)
	assert.NoError(t, s.LastError())
}

func TestAddClientTwice(t *testing.T) {
	remote := newMemRemote()
	s := newLoadedStore(t, remote, weekA)
	ctx := context.Background()

	require.NoError(t, s.AddClient(ctx, "Acme"))
	require.NoError(t, s.AddClient(ctx, "  Acme "))
	assert.Equal(t, []string{"Acme"}, s.Clients())

	assert.ErrorIs(t, s.AddClient(ctx, "   "), model.ErrInvalidClient)
}

func TestAddClientRemoteDuplicateIsSuccess(t *testing.T) {
	remote := newMemRemote()
	s := newLoadedStore(t, remote, weekA)
	ctx := context.Background()

	// another device created it after our load
	_, err := remote.CreateClient(ctx, "Acme")
	require.NoError(t, err)

	require.NoError(t, s.AddClient(ctx, "Acme"))
	assert.Equal(t, []string{"Acme"}, s.Clients())
	assert.NoError(t, s.LastError())
}

func TestLookupByPrefix(t *testing.T) {
	remote := newMemRemote()
	first := remote.seedTask(model.Task{Task: "one", Client: "UAF", Hours: 1})
	remote.seedTask(model.Task{Task: "two", Client: "UAF", Hours: 1})
	s := newLoadedStore(t, remote, weekA)

	got, err := s.Lookup(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "one", got.Task)

	got, err = s.Lookup("task-002")
	require.NoError(t, err)
	assert.Equal(t, "two", got.Task)

	_, err = s.Lookup("task-00")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = s.Lookup("nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSummary(t *testing.T) {
	remote := newMemRemote()
	ctx := context.Background()
	_, _ = remote.CreateClient(ctx, "UAF")
	_, _ = remote.CreateClient(ctx, "Amref")
	remote.seedTask(model.Task{Task: "a", Client: "Amref", Hours: 5, Day: model.Monday, WeekStart: weekA})
	remote.seedTask(model.Task{Task: "b", Client: "Amref", Hours: 3, Day: model.Monday, WeekStart: weekA, Completed: true})
	remote.seedTask(model.Task{Task: "c", Client: "Legacy", Hours: 1.5, Day: model.Friday, WeekStart: weekA})
	remote.seedTask(model.Task{Task: "inbox", Client: "UAF", Hours: 4})

	s := New(remote, WithCapacity(7))
	require.NoError(t, s.Load(ctx, weekA))

	sum := s.Summary()
	assert.Equal(t, weekA, sum.Week)
	assert.Equal(t, 9.5, sum.Total)
	require.Len(t, sum.Days, 5)

	monday := sum.Days[0]
	assert.Equal(t, model.Monday, monday.Day)
	assert.Equal(t, 8.0, monday.Hours)
	assert.Equal(t, -1.0, monday.Remaining)
	assert.True(t, monday.Over)
	assert.Equal(t, 2, monday.Tasks)

	assert.False(t, sum.Days[4].Over)
	assert.Equal(t, 5.5, sum.Days[4].Remaining)

	assert.Equal(t, []ClientLoad{{Client: "Amref", Hours: 8}, {Client: "Legacy", Hours: 1.5}}, sum.Clients)
}
