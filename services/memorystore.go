package services

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"cicstask/model"
	"cicstask/recurrence"
)

// MemoryStore is an in-process Store for local runs and tests. Tasks are
// copied in and out so callers never share slices with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]model.Task
	order []string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]model.Task)}
}

// Put stores t as-is, keeping its id. Used for seeding.
func (s *MemoryStore) Put(t model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(t)
}

func (s *MemoryStore) put(t model.Task) {
	if _, ok := s.tasks[t.TaskID]; !ok {
		s.order = append(s.order, t.TaskID)
	}
	s.tasks[t.TaskID] = t.Clone()
}

func (s *MemoryStore) ListTasks(_ context.Context, filter TaskFilter) ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Task{}
	for _, id := range s.order {
		t := s.tasks[id]
		if filter.Match(&t) {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) ListTemplates(ctx context.Context) ([]model.Task, error) {
	return s.ListTasks(ctx, TaskFilter{TemplatesOnly: true})
}

func (s *MemoryStore) GetTask(_ context.Context, id string) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	return t.Clone(), nil
}

func (s *MemoryStore) CreateTask(_ context.Context, t model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.TaskID = uuid.New().String()
	s.put(t)
	return t.Clone(), nil
}

func (s *MemoryStore) UpdateTask(_ context.Context, id string, fn func(*model.Task) error) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	t := cur.Clone()
	if err := fn(&t); err != nil {
		return model.Task{}, err
	}
	t.TaskID = id
	s.put(t)
	return t.Clone(), nil
}

func (s *MemoryStore) MaterializeChild(_ context.Context, templateID, deadline string, child model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, ok := s.tasks[templateID]
	if !ok {
		return model.Task{}, ErrNotFound
	}
	if !slices.Contains(tpl.NextDeadlines, deadline) {
		return model.Task{}, recurrence.ErrAlreadyMaterialized
	}

	c := child.Clone()
	c.TaskID = uuid.New().String()
	c.ParentTaskID = templateID
	s.put(c)

	tpl = tpl.Clone()
	tpl.NextDeadlines = slices.DeleteFunc(tpl.NextDeadlines, func(d string) bool { return d == deadline })
	tpl.ChildTaskIDs = append(tpl.ChildTaskIDs, c.TaskID)
	s.put(tpl)
	return c.Clone(), nil
}

func (s *MemoryStore) ScheduleNext(_ context.Context, templateID, prev, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, ok := s.tasks[templateID]
	if !ok {
		return ErrNotFound
	}
	if tpl.Deadline != prev {
		return recurrence.ErrDeadlineChanged
	}
	if err := checkEnd(tpl, next); err != nil {
		return err
	}
	tpl = tpl.Clone()
	tpl.Deadline = next
	if !slices.Contains(tpl.NextDeadlines, next) {
		tpl.NextDeadlines = append(tpl.NextDeadlines, next)
		sort.Strings(tpl.NextDeadlines)
	}
	s.put(tpl)
	return nil
}
