package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"todo-api/internal/handlers"
	"todo-api/internal/middleware"
	"todo-api/internal/models"
	"todo-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type MockTaskService struct {
	shouldReturnError bool
	returnNotFound    bool
	tasks             []models.Task
	lastQuery         services.ListTasksQuery
	lastCreate        services.CreateTaskInput
	stats             models.TaskStatistics
}

func (m *MockTaskService) Create(ctx context.Context, ownerID uuid.UUID, input services.CreateTaskInput) (*models.Task, error) {
	if m.shouldReturnError {
		return nil, services.InternalError("failed to create task", errors.New("disk full"))
	}
	if input.Name == "" {
		return nil, services.ValidationError("task name is required")
	}
	m.lastCreate = input
	task := models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		UserID:      ownerID,
		Name:        input.Name,
		Description: input.Description,
		Status:      models.TaskStatusPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	m.tasks = append(m.tasks, task)
	return &task, nil
}

func (m *MockTaskService) List(ctx context.Context, ownerID uuid.UUID, query services.ListTasksQuery) ([]models.Task, *models.PageInfo, error) {
	m.lastQuery = query
	if m.shouldReturnError {
		return nil, nil, services.InternalError("failed to list tasks", errors.New("db down"))
	}
	if query.Status != nil && !models.TaskStatus(*query.Status).Valid() {
		return nil, nil, services.ValidationError("status must be 'pending' or 'completed'")
	}
	return m.tasks, &models.PageInfo{Page: 1, Pages: 1, PerPage: 20, Total: int64(len(m.tasks))}, nil
}

func (m *MockTaskService) GetByID(ctx context.Context, taskID, ownerID uuid.UUID) (*models.Task, error) {
	if m.returnNotFound {
		return nil, services.NotFoundError("task not found")
	}
	return &models.Task{ID: taskID, UserID: ownerID, Name: "Test Task", Status: models.TaskStatusPending}, nil
}

func (m *MockTaskService) Update(ctx context.Context, taskID, ownerID uuid.UUID, input services.UpdateTaskInput) (*models.Task, error) {
	if m.returnNotFound {
		return nil, services.NotFoundError("task not found")
	}
	task := models.Task{ID: taskID, UserID: ownerID, Name: "Test Task", Status: models.TaskStatusPending}
	if input.Status != nil {
		task.Status = models.TaskStatus(*input.Status)
	}
	return &task, nil
}

func (m *MockTaskService) Delete(ctx context.Context, taskID, ownerID uuid.UUID) error {
	if m.returnNotFound {
		return services.NotFoundError("task not found")
	}
	return nil
}

func (m *MockTaskService) Statistics(ctx context.Context, ownerID uuid.UUID) (*models.TaskStatistics, error) {
	if m.shouldReturnError {
		return nil, services.InternalError("failed to compute statistics", errors.New("db down"))
	}
	return &m.stats, nil
}

func setupTaskHandler() (*handlers.TaskHandler, *MockTaskService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	mockService := &MockTaskService{}
	handler := handlers.NewTaskHandler(mockService)
	router := gin.New()

	// stands in for the auth middleware
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, uuid.Must(uuid.NewV4()))
		c.Next()
	})

	return handler, mockService, router
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	return body
}

func TestCreateTask(t *testing.T) {
	handler, mockService, router := setupTaskHandler()
	router.POST("/tasks", handler.CreateTask)

	payload := []byte(`{"name":"Write report","description":"quarterly"}`)
	req, _ := http.NewRequest("POST", "/tasks", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d", http.StatusCreated, w.Code)
	}
	body := decodeBody(t, w)
	task, ok := body["task"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected task object in response, got %v", body)
	}
	if task["name"] != "Write report" {
		t.Errorf("Expected name 'Write report', got %v", task["name"])
	}
	if mockService.lastCreate.Description == nil || *mockService.lastCreate.Description != "quarterly" {
		t.Errorf("Expected description to be passed through, got %v", mockService.lastCreate.Description)
	}
}

func TestCreateTaskValidationError(t *testing.T) {
	handler, _, router := setupTaskHandler()
	router.POST("/tasks", handler.CreateTask)

	req, _ := http.NewRequest("POST", "/tasks", bytes.NewBufferString(`{"name":""}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "task name is required" {
		t.Errorf("Unexpected error message %v", body["error"])
	}
}

func TestCreateTaskInvalidJSON(t *testing.T) {
	handler, _, router := setupTaskHandler()
	router.POST("/tasks", handler.CreateTask)

	req, _ := http.NewRequest("POST", "/tasks", bytes.NewBuffer([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestCreateTaskInternalErrorIsHidden(t *testing.T) {
	handler, mockService, router := setupTaskHandler()
	router.POST("/tasks", handler.CreateTask)
	mockService.shouldReturnError = true

	req, _ := http.NewRequest("POST", "/tasks", bytes.NewBufferString(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "internal server error" {
		t.Errorf("Expected generic message, got %v", body["error"])
	}
}

func TestGetTaskByID(t *testing.T) {
	handler, _, router := setupTaskHandler()
	router.GET("/tasks/:id", handler.GetTask)

	taskID := uuid.Must(uuid.NewV4())
	req, _ := http.NewRequest("GET", "/tasks/"+taskID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	task := decodeBody(t, w)["task"].(map[string]interface{})
	if task["id"] != taskID.String() {
		t.Errorf("Expected id %s, got %v", taskID, task["id"])
	}
}

func TestGetTaskByIDNotFound(t *testing.T) {
	handler, mockService, router := setupTaskHandler()
	router.GET("/tasks/:id", handler.GetTask)
	mockService.returnNotFound = true

	req, _ := http.NewRequest("GET", "/tasks/"+uuid.Must(uuid.NewV4()).String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestGetTaskMalformedID(t *testing.T) {
	handler, _, router := setupTaskHandler()
	router.GET("/tasks/:id", handler.GetTask)

	req, _ := http.NewRequest("GET", "/tasks/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestListTasksPassesFilterAndPaging(t *testing.T) {
	handler, mockService, router := setupTaskHandler()
	router.GET("/tasks", handler.ListTasks)

	mockService.tasks = []models.Task{
		{Name: "Task 1", Status: models.TaskStatusPending},
		{Name: "Task 2", Status: models.TaskStatusPending},
	}

	req, _ := http.NewRequest("GET", "/tasks?status=pending&page=2&per_page=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	q := mockService.lastQuery
	if q.Status == nil || *q.Status != "pending" || q.Page != 2 || q.PerPage != 5 {
		t.Errorf("Unexpected query %+v", q)
	}

	body := decodeBody(t, w)
	if tasks := body["tasks"].([]interface{}); len(tasks) != 2 {
		t.Errorf("Expected 2 tasks, got %d", len(tasks))
	}
	pagination := body["pagination"].(map[string]interface{})
	if pagination["total"] != float64(2) {
		t.Errorf("Expected total 2, got %v", pagination["total"])
	}
}

func TestListTasksWithoutParams(t *testing.T) {
	handler, mockService, router := setupTaskHandler()
	router.GET("/tasks", handler.ListTasks)

	req, _ := http.NewRequest("GET", "/tasks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if mockService.lastQuery.Status != nil || mockService.lastQuery.Page != 0 || mockService.lastQuery.PerPage != 0 {
		t.Errorf("Expected zero query, got %+v", mockService.lastQuery)
	}
	if tasks, ok := decodeBody(t, w)["tasks"].([]interface{}); !ok || len(tasks) != 0 {
		t.Errorf("Expected empty task array, got %v", tasks)
	}
}

func TestListTasksInvalidPagination(t *testing.T) {
	handler, _, router := setupTaskHandler()
	router.GET("/tasks", handler.ListTasks)

	for _, query := range []string{"page=abc", "per_page=1.5"} {
		req, _ := http.NewRequest("GET", "/tasks?"+query, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d", query, http.StatusBadRequest, w.Code)
		}
		if body := decodeBody(t, w); body["error"] != "invalid pagination parameters" {
			t.Errorf("%s: unexpected error %v", query, body["error"])
		}
	}
}

func TestListTasksInvalidStatus(t *testing.T) {
	handler, _, router := setupTaskHandler()
	router.GET("/tasks", handler.ListTasks)

	req, _ := http.NewRequest("GET", "/tasks?status=archived", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestListPendingAndCompleted(t *testing.T) {
	handler, mockService, router := setupTaskHandler()
	router.GET("/tasks/pending", handler.ListPendingTasks)
	router.GET("/tasks/completed", handler.ListCompletedTasks)

	for path, want := range map[string]string{"/tasks/pending": "pending", "/tasks/completed": "completed"} {
		req, _ := http.NewRequest("GET", path+"?page=1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusOK, w.Code)
		}
		if s := mockService.lastQuery.Status; s == nil || *s != want {
			t.Errorf("%s: expected status filter %q, got %v", path, want, s)
		}
	}
}

func TestUpdateTask(t *testing.T) {
	handler, _, router := setupTaskHandler()
	router.PUT("/tasks/:id", handler.UpdateTask)

	req, _ := http.NewRequest("PUT", "/tasks/"+uuid.Must(uuid.NewV4()).String(), bytes.NewBufferString(`{"status":"completed"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	task := decodeBody(t, w)["task"].(map[string]interface{})
	if task["status"] != "completed" {
		t.Errorf("Expected status completed, got %v", task["status"])
	}
}

func TestUpdateTaskEmptyBody(t *testing.T) {
	handler, _, router := setupTaskHandler()
	router.PUT("/tasks/:id", handler.UpdateTask)

	req, _ := http.NewRequest("PUT", "/tasks/"+uuid.Must(uuid.NewV4()).String(), nil)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "request body is required" {
		t.Errorf("Unexpected error %v", body["error"])
	}
}

func TestDeleteTask(t *testing.T) {
	handler, mockService, router := setupTaskHandler()
	router.DELETE("/tasks/:id", handler.DeleteTask)

	req, _ := http.NewRequest("DELETE", "/tasks/"+uuid.Must(uuid.NewV4()).String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	mockService.returnNotFound = true
	req, _ = http.NewRequest("DELETE", "/tasks/"+uuid.Must(uuid.NewV4()).String(), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestGetStatistics(t *testing.T) {
	handler, mockService, router := setupTaskHandler()
	router.GET("/tasks/stats", handler.GetStatistics)
	mockService.stats = models.TaskStatistics{Total: 3, Pending: 2, Completed: 1, CompletionRate: 33.33}

	req, _ := http.NewRequest("GET", "/tasks/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	stats := decodeBody(t, w)["statistics"].(map[string]interface{})
	if stats["completion_rate"] != 33.33 || stats["total"] != float64(3) {
		t.Errorf("Unexpected statistics %v", stats)
	}
}

func TestTaskHandlerRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewTaskHandler(&MockTaskService{})
	router := gin.New()
	router.GET("/tasks", handler.ListTasks)

	req, _ := http.NewRequest("GET", "/tasks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}
