package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"

	"cicstask/model"
)

var ErrUserNotFound = errors.New("user not found")

// UserDirectory resolves assignees so their identity can be snapshotted onto a task.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (model.User, error)
}

type FirestoreUsers struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreUsers(client *firestore.Client, collection string) *FirestoreUsers {
	return &FirestoreUsers{client: client, collection: collection}
}

func (u *FirestoreUsers) GetUser(ctx context.Context, userID string) (model.User, error) {
	doc, err := u.client.Collection(u.collection).Doc(userID).Get(ctx)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	var user model.User
	if err := doc.DataTo(&user); err != nil {
		return model.User{}, fmt.Errorf("decode user %s: %w", userID, err)
	}
	user.UserID = doc.Ref.ID
	return user, nil
}

type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewMemoryUsers(users ...model.User) *MemoryUsers {
	m := &MemoryUsers{users: make(map[string]model.User)}
	for _, u := range users {
		m.users[u.UserID] = u
	}
	return m
}

func (m *MemoryUsers) GetUser(_ context.Context, userID string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}
