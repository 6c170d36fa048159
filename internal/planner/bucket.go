package planner

import "github.com/existflow/weekplanner/internal/model"

// bucket is an insertion-ordered task collection indexed by id
type bucket struct {
	order []string
	byID  map[string]*model.Task
}

func newBucket() *bucket {
	return &bucket{byID: make(map[string]*model.Task)}
}

// reset replaces the contents with tasks
func (b *bucket) reset(tasks []model.Task) {
	b.order = b.order[:0]
	b.byID = make(map[string]*model.Task, len(tasks))
	for i := range tasks {
		b.put(tasks[i])
	}
}

// put inserts t or replaces the task with the same id in place
func (b *bucket) put(t model.Task) {
	if existing, ok := b.byID[t.ID]; ok {
		*existing = t
		return
	}
	task := t
	b.byID[t.ID] = &task
	b.order = append(b.order, t.ID)
}

func (b *bucket) get(id string) (*model.Task, bool) {
	t, ok := b.byID[id]
	return t, ok
}

// remove deletes id and reports whether it was present
func (b *bucket) remove(id string) bool {
	if _, ok := b.byID[id]; !ok {
		return false
	}
	delete(b.byID, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

func (b *bucket) len() int {
	return len(b.order)
}

// list returns copies in insertion order
func (b *bucket) list() []model.Task {
	out := make([]model.Task, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.byID[id])
	}
	return out
}
