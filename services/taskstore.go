package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"cicstask/model"
	"cicstask/recurrence"
)

// TaskStore keeps tasks in a Firestore collection, one document per task with
// the task id as document id.
type TaskStore struct {
	client     *firestore.Client
	collection string
	log        *zap.Logger
}

var _ Store = (*TaskStore)(nil)

func NewTaskStore(client *firestore.Client, collection string, log *zap.Logger) *TaskStore {
	return &TaskStore{client: client, collection: collection, log: log}
}

func (s *TaskStore) col() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

func notFound(err error) error {
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func decode(doc *firestore.DocumentSnapshot) (model.Task, error) {
	var t model.Task
	if err := doc.DataTo(&t); err != nil {
		return model.Task{}, fmt.Errorf("decode task %s: %w", doc.Ref.ID, err)
	}
	t.TaskID = doc.Ref.ID
	return t, nil
}

func (s *TaskStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	q := s.col().Query
	if filter.AssignedToID != "" {
		q = q.Where("assignedToId", "==", filter.AssignedToID)
	}
	if filter.AssignedBy != "" {
		q = q.Where("assignedBy", "==", filter.AssignedBy)
	}
	if filter.TemplatesOnly {
		q = q.Where("isRecurring", "==", true)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	tasks := []model.Task{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		t, err := decode(doc)
		if err != nil {
			s.log.Warn("skipping undecodable task", zap.String("task_id", doc.Ref.ID), zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *TaskStore) ListTemplates(ctx context.Context) ([]model.Task, error) {
	return s.ListTasks(ctx, TaskFilter{TemplatesOnly: true})
}

func (s *TaskStore) GetTask(ctx context.Context, id string) (model.Task, error) {
	doc, err := s.col().Doc(id).Get(ctx)
	if err != nil {
		return model.Task{}, notFound(err)
	}
	return decode(doc)
}

func (s *TaskStore) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	t.TaskID = uuid.New().String()
	if _, err := s.col().Doc(t.TaskID).Create(ctx, t); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return model.Task{}, ErrConflict
		}
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) UpdateTask(ctx context.Context, id string, fn func(*model.Task) error) (model.Task, error) {
	ref := s.col().Doc(id)
	var out model.Task
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return notFound(err)
		}
		t, err := decode(doc)
		if err != nil {
			return err
		}
		if err := fn(&t); err != nil {
			return err
		}
		t.TaskID = id
		out = t
		return tx.Set(ref, t)
	})
	if err != nil {
		return model.Task{}, err
	}
	return out, nil
}

// MaterializeChild creates the child and drains deadline from the template in
// one transaction. A deadline no longer pending means a concurrent pass got
// there first.
func (s *TaskStore) MaterializeChild(ctx context.Context, templateID, deadline string, child model.Task) (model.Task, error) {
	tplRef := s.col().Doc(templateID)
	var created model.Task
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(tplRef)
		if err != nil {
			return notFound(err)
		}
		tpl, err := decode(doc)
		if err != nil {
			return err
		}
		if !slices.Contains(tpl.NextDeadlines, deadline) {
			return recurrence.ErrAlreadyMaterialized
		}

		c := child
		c.TaskID = uuid.New().String()
		c.ParentTaskID = templateID
		if err := tx.Create(s.col().Doc(c.TaskID), c); err != nil {
			return err
		}
		if err := tx.Update(tplRef, []firestore.Update{
			{Path: "nextDeadlines", Value: firestore.ArrayRemove(deadline)},
			{Path: "childTaskIds", Value: firestore.ArrayUnion(c.TaskID)},
		}); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		if errors.Is(err, recurrence.ErrAlreadyMaterialized) {
			return model.Task{}, err
		}
		return model.Task{}, fmt.Errorf("materialize child of %s for %s: %w", templateID, deadline, err)
	}
	return created, nil
}

func (s *TaskStore) ScheduleNext(ctx context.Context, templateID, prev, next string) error {
	tplRef := s.col().Doc(templateID)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(tplRef)
		if err != nil {
			return notFound(err)
		}
		tpl, err := decode(doc)
		if err != nil {
			return err
		}
		if tpl.Deadline != prev {
			return recurrence.ErrDeadlineChanged
		}
		if err := checkEnd(tpl, next); err != nil {
			return err
		}
		return tx.Update(tplRef, []firestore.Update{
			{Path: "deadline", Value: next},
			{Path: "nextDeadlines", Value: firestore.ArrayUnion(next)},
		})
	})
}
