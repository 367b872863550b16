package handlers

import (
	"net/http"
	"strconv"

	"todo-api/internal/models"
	"todo-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type TaskHandler struct {
	taskService services.TaskService
}

type CreateTaskRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type UpdateTaskRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type TaskListResponse struct {
	Message    string           `json:"message"`
	Tasks      []models.Task    `json:"tasks"`
	Pagination *models.PageInfo `json:"pagination"`
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), userID, services.CreateTaskInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "task created successfully",
		"task":    task,
	})
}

// ListTasks accepts ?status=&page=&per_page=. An empty status means no filter.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}
	h.list(c, status)
}

func (h *TaskHandler) ListPendingTasks(c *gin.Context) {
	status := string(models.TaskStatusPending)
	h.list(c, &status)
}

func (h *TaskHandler) ListCompletedTasks(c *gin.Context) {
	status := string(models.TaskStatusCompleted)
	h.list(c, &status)
}

func (h *TaskHandler) list(c *gin.Context, status *string) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, perPage, err := paginationParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidPaging})
		return
	}

	tasks, pageInfo, err := h.taskService.List(c.Request.Context(), userID, services.ListTasksQuery{
		Status:  status,
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	c.JSON(http.StatusOK, TaskListResponse{
		Message:    "tasks retrieved successfully",
		Tasks:      tasks,
		Pagination: pageInfo,
	})
}

// paginationParams leaves absent values at zero so the service applies its
// defaults.
func paginationParams(c *gin.Context) (page, perPage int, err error) {
	if raw := c.Query("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil {
			return 0, 0, err
		}
	}
	if raw := c.Query("per_page"); raw != "" {
		if perPage, err = strconv.Atoi(raw); err != nil {
			return 0, 0, err
		}
	}
	return page, perPage, nil
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetByID(c.Request.Context(), taskID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "task retrieved successfully",
		"task":    task,
	})
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), taskID, userID, services.UpdateTaskInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "task updated successfully",
		"task":    task,
	})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), taskID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "task deleted successfully"})
}

func (h *TaskHandler) GetStatistics(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.taskService.Statistics(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "statistics retrieved successfully",
		"statistics": stats,
	})
}

// taskIDParam treats a malformed id like an unknown one.
func taskIDParam(c *gin.Context) (uuid.UUID, bool) {
	taskID, err := uuid.FromString(c.Param("id"))
	if err != nil {
		respondError(c, services.NotFoundError("task not found"))
		return uuid.Nil, false
	}
	return taskID, true
}
