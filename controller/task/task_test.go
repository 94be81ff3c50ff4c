package task

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cicstask/dto"
	"cicstask/model"
	"cicstask/services"
	"cicstask/stats"
)

const secret = "test-secret"

var now = time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)

type fixture struct {
	router *gin.Engine
	store  *services.MemoryStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := services.NewMemoryStore()
	users := services.NewMemoryUsers(
		model.User{UserID: "u1", Name: "Alice", Email: "alice@example.com", Role: model.RoleUser},
		model.User{UserID: "u2", Name: "Bob", Email: "bob@example.com", Role: model.RoleUser},
	)
	r := gin.New()
	TaskController(r, &Handler{
		Store: store,
		Users: users,
		Stats: stats.NewAggregator(stats.NewMemoryCache(time.Minute), nil),
		Now:   func() time.Time { return now },
	}, secret)
	return fixture{router: r, store: store}
}

func token(t *testing.T, userID string, role model.Role) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"role":   string(role),
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func (f fixture) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func seed(store *services.MemoryStore, id, assignedTo, deadline string, status model.Status) {
	store.Put(model.Task{
		TaskID:          id,
		Name:            "task " + id,
		AssignedBy:      "admin1",
		AssignedToID:    assignedTo,
		AssignedToEmail: assignedTo + "@example.com",
		AssignedOn:      "2024-01-01",
		Deadline:        deadline,
		Status:          status,
		Priority:        model.PriorityMedium,
	})
}

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	admin := token(t, "admin1", model.RoleAdmin)

	w := f.do(t, http.MethodPost, "/tasks", admin, dto.CreateTaskRequest{
		Name: "Report", AssignedToID: "u1", Deadline: "2024-01-12", Priority: "High",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[struct {
		Task model.Task `json:"task"`
	}](t, w)
	assert.NotEmpty(t, resp.Task.TaskID)
	assert.Equal(t, "Alice", resp.Task.AssignedTo)
	assert.Equal(t, "alice@example.com", resp.Task.AssignedToEmail)
	assert.Equal(t, "admin1", resp.Task.AssignedBy)
	assert.Equal(t, "2024-01-10", resp.Task.AssignedOn)
	assert.Equal(t, model.StatusPending, resp.Task.Status)
}

func TestCreateTaskRejects(t *testing.T) {
	f := newFixture(t)
	admin := token(t, "admin1", model.RoleAdmin)

	tests := []struct {
		name string
		tok  string
		req  dto.CreateTaskRequest
		code int
	}{
		{"user cannot assign", token(t, "u1", model.RoleUser),
			dto.CreateTaskRequest{Name: "x", AssignedToID: "u1", Deadline: "2024-01-12", Priority: "Low"}, http.StatusForbidden},
		{"bad priority", admin,
			dto.CreateTaskRequest{Name: "x", AssignedToID: "u1", Deadline: "2024-01-12", Priority: "Urgent"}, http.StatusBadRequest},
		{"bad deadline", admin,
			dto.CreateTaskRequest{Name: "x", AssignedToID: "u1", Deadline: "12/01/2024", Priority: "Low"}, http.StatusBadRequest},
		{"completed status", admin,
			dto.CreateTaskRequest{Name: "x", AssignedToID: "u1", Deadline: "2024-01-12", Priority: "Low", Status: "Completed On Time"}, http.StatusBadRequest},
		{"unknown assignee", admin,
			dto.CreateTaskRequest{Name: "x", AssignedToID: "nobody", Deadline: "2024-01-12", Priority: "Low"}, http.StatusNotFound},
		{"after without count", admin,
			dto.CreateTaskRequest{Name: "x", AssignedToID: "u1", Deadline: "2024-01-12", Priority: "Low",
				Recurrence: &dto.RecurrenceRequest{Pattern: "weekly", EndType: "after"}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/tasks", tt.tok, tt.req)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}
}

func TestCreateRecurringTemplatePlansAhead(t *testing.T) {
	f := newFixture(t)
	admin := token(t, "admin1", model.RoleAdmin)

	w := f.do(t, http.MethodPost, "/tasks", admin, dto.CreateTaskRequest{
		Name: "Weekly sync", AssignedToID: "u1", Deadline: "2024-01-15", Priority: "Medium",
		Recurrence: &dto.RecurrenceRequest{Pattern: "weekly", PlanAhead: 2},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[struct {
		Task model.Task `json:"task"`
	}](t, w)
	assert.True(t, resp.Task.IsTemplate())
	assert.Equal(t, 1, resp.Task.RecurrenceInterval)
	assert.Equal(t, model.EndNever, resp.Task.RecurrenceEndType)
	assert.Equal(t, []string{"2024-01-15", "2024-01-22", "2024-01-29"}, resp.Task.NextDeadlines)
	assert.Equal(t, "2024-01-29", resp.Task.Deadline)
}

func TestCreateCustomTemplateSpawnsDueChild(t *testing.T) {
	f := newFixture(t)
	admin := token(t, "admin1", model.RoleAdmin)

	w := f.do(t, http.MethodPost, "/tasks", admin, dto.CreateTaskRequest{
		Name: "Audit", AssignedToID: "u2", Deadline: "2024-01-10", Priority: "Low",
		Recurrence: &dto.RecurrenceRequest{Pattern: "custom", Deadlines: []string{"2024-02-01", "2024-01-10"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	tasks, err := f.store.ListTasks(t.Context(), services.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	var tpl, child model.Task
	for _, tk := range tasks {
		if tk.IsTemplate() {
			tpl = tk
		} else {
			child = tk
		}
	}
	assert.Equal(t, []string{"2024-02-01"}, tpl.NextDeadlines)
	assert.Equal(t, []string{child.TaskID}, tpl.ChildTaskIDs)
	assert.Equal(t, "2024-01-10", child.Deadline)
	assert.Equal(t, tpl.TaskID, child.ParentTaskID)
	assert.Equal(t, "Bob", child.AssignedTo)
}

func TestStatusFlow(t *testing.T) {
	f := newFixture(t)
	seed(f.store, "t1", "u1", "2024-01-09", model.StatusPending)
	user := token(t, "u1", model.RoleUser)
	admin := token(t, "admin1", model.RoleAdmin)

	w := f.do(t, http.MethodPost, "/tasks/t1/submit", user, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/tasks/t1/verify", user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/tasks/t1/verify", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got, err := f.store.GetTask(t.Context(), "t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompletedOverdue, got.Status)
	require.NotNil(t, got.Completed)
	assert.Equal(t, "2024-01-10", *got.Completed)

	w = f.do(t, http.MethodPost, "/tasks/t1/submit", user, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/tasks/t1/reopen", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got, err = f.store.GetTask(t.Context(), "t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReopened, got.Status)
	assert.Nil(t, got.Completed)
}

func TestTransitionScope(t *testing.T) {
	f := newFixture(t)
	seed(f.store, "t1", "u1", "2024-01-12", model.StatusPending)

	w := f.do(t, http.MethodPost, "/tasks/t1/submit", token(t, "u2", model.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/tasks/missing/submit", token(t, "u1", model.RoleUser), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	got, err := f.store.GetTask(t.Context(), "t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestNotificationsScopedToCaller(t *testing.T) {
	f := newFixture(t)
	seed(f.store, "mine", "u1", "2024-01-08", model.StatusPending)
	seed(f.store, "theirs", "u2", "2024-01-08", model.StatusPending)

	w := f.do(t, http.MethodGet, "/tasks/notifications", token(t, "u1", model.RoleUser), nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[dto.NotificationsResponse](t, w)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "overdue-mine", resp.Notifications[0].ID)
	assert.Empty(t, resp.Warnings)
}

func TestStatsRefreshAfterTransition(t *testing.T) {
	f := newFixture(t)
	seed(f.store, "t1", "u1", "2024-01-12", model.StatusVerifying)
	seed(f.store, "t2", "u1", "2024-01-12", model.StatusPending)
	admin := token(t, "admin1", model.RoleAdmin)

	w := f.do(t, http.MethodGet, "/tasks/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	before := decode[dto.StatsResponse](t, w)
	assert.Equal(t, 2, before.Stats.TotalTasks)
	assert.Equal(t, 0, before.Stats.CompletedPercent)

	w = f.do(t, http.MethodPost, "/tasks/t1/verify", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/tasks/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	after := decode[dto.StatsResponse](t, w)
	assert.Equal(t, 1, after.Stats.CompletedOnTimeCount)
	assert.Equal(t, 100, after.Stats.CompletedPercent)
	assert.Equal(t, 1, after.Stats.PendingCount)
}

func TestAssigneeStats(t *testing.T) {
	f := newFixture(t)
	seed(f.store, "t1", "u1", "2024-01-12", model.StatusPending)
	seed(f.store, "t2", "u2", "2024-01-12", model.StatusPending)

	w := f.do(t, http.MethodGet, "/tasks/stats/assignees", token(t, "root", model.RoleSuperAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[dto.AssigneeStatsResponse](t, w)
	assert.Len(t, resp.Assignees, 2)
}

func TestRunRecurrence(t *testing.T) {
	f := newFixture(t)
	f.store.Put(model.Task{
		TaskID:             "tpl",
		Name:               "Daily check",
		AssignedBy:         "admin1",
		AssignedToID:       "u1",
		AssignedOn:         "2024-01-01",
		Deadline:           "2024-01-09",
		Status:             model.StatusPending,
		Priority:           model.PriorityLow,
		IsRecurring:        true,
		RecurrencePattern:  model.PatternDaily,
		RecurrenceInterval: 1,
		RecurrenceEndType:  model.EndNever,
		NextDeadlines:      []string{"2024-01-09"},
	})

	w := f.do(t, http.MethodPost, "/recurrence/run", token(t, "u1", model.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/recurrence/run", token(t, "admin1", model.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[dto.RecurrenceRunResponse](t, w)
	require.Len(t, resp.Spawned, 2)
	assert.Equal(t, "2024-01-09", resp.Spawned[0].Deadline)
	assert.Equal(t, "2024-01-10", resp.Spawned[1].Deadline)
	assert.Empty(t, resp.Errors)

	w = f.do(t, http.MethodPost, "/recurrence/run", token(t, "admin1", model.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[dto.RecurrenceRunResponse](t, w).Spawned)
}

func TestReviewLimitedToAssigner(t *testing.T) {
	f := newFixture(t)
	f.store.Put(model.Task{
		TaskID:       "self",
		Name:         "own work",
		AssignedBy:   "root",
		AssignedToID: "admin1",
		AssignedOn:   "2024-01-01",
		Deadline:     "2024-01-12",
		Status:       model.StatusVerifying,
		Priority:     model.PriorityLow,
	})
	seed(f.store, "t1", "u1", "2024-01-12", model.StatusVerifying)

	admin1 := token(t, "admin1", model.RoleAdmin)
	admin2 := token(t, "admin2", model.RoleAdmin)

	w := f.do(t, http.MethodPost, "/tasks/self/verify", admin1, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/tasks/t1/reject", admin2, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/tasks/self/verify", token(t, "root", model.RoleSuperAdmin), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/tasks/t1/reject", admin1, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	got, err := f.store.GetTask(t.Context(), "self")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompletedOnTime, got.Status)
}
