package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/redsunink/veliankeeper/internal/domain"
	"github.com/redsunink/veliankeeper/internal/errors"
	"github.com/redsunink/veliankeeper/internal/tasks"
)

const (
	actionSignUp = "sign_up"
	actionSubmit = "submit"
	actionClose  = "close"
)

type createTaskRequest struct {
	Item      string `json:"item"`
	Amount    int64  `json:"amount"`
	Facility  string `json:"facility"`
	Stockpile string `json:"stockpile"`
	CreatedBy string `json:"created_by"`
}

type createCustomTaskRequest struct {
	Header      string `json:"header"`
	Location    string `json:"location"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
}

type taskActionRequest struct {
	Action string `json:"action"`
	UserID string `json:"user_id"`
	Amount string `json:"amount"`
}

type taskResponse struct {
	ID            int64    `json:"id"`
	Item          string   `json:"item"`
	Amount        int64    `json:"amount"`
	CurrentAmount int64    `json:"current_amount"`
	Facility      string   `json:"facility"`
	Stockpile     string   `json:"stockpile"`
	CreatedBy     string   `json:"created_by"`
	AssignedUsers []string `json:"assigned_users"`
	Status        string   `json:"status"`
}

type customTaskResponse struct {
	ID            int64    `json:"id"`
	Header        string   `json:"header"`
	Location      string   `json:"location"`
	Description   string   `json:"description"`
	CreatedBy     string   `json:"created_by"`
	AssignedUsers []string `json:"assigned_users"`
	Status        string   `json:"status"`
}

func toTaskResponse(task *domain.Task) taskResponse {
	return taskResponse{
		ID:            task.ID,
		Item:          task.ItemName,
		Amount:        task.Amount,
		CurrentAmount: task.CurrentAmount,
		Facility:      task.FacilityName,
		Stockpile:     task.StockpileName,
		CreatedBy:     task.CreatedBy,
		AssignedUsers: task.AssignedUsers,
		Status:        string(task.Status),
	}
}

func toCustomTaskResponse(task *domain.CustomTask) customTaskResponse {
	return customTaskResponse{
		ID:            task.ID,
		Header:        task.Header,
		Location:      task.Location,
		Description:   task.Description,
		CreatedBy:     task.CreatedBy,
		AssignedUsers: task.AssignedUsers,
		Status:        string(task.Status),
	}
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidInputError("id", c.Param("id"), "must be a positive integer")
	}
	return id, nil
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInputError("body", nil, "malformed JSON"))
		return
	}
	task, err := s.tasks.Create(c.Request.Context(), tasks.CreateTaskInput{
		ItemName:      req.Item,
		Amount:        req.Amount,
		FacilityName:  req.Facility,
		StockpileName: req.Stockpile,
		CreatedBy:     req.CreatedBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTaskResponse(task))
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	task, err := s.tasks.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

func (s *Server) handleTaskAction(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req taskActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInputError("body", nil, "malformed JSON"))
		return
	}

	switch req.Action {
	case actionSignUp:
		task, added, err := s.tasks.ToggleAssignment(c.Request.Context(), id, req.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"added": added, "task": toTaskResponse(task)})
	case actionSubmit:
		result, err := s.tasks.SubmitProgress(c.Request.Context(), id, req.Amount)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"completed": result.Completed, "task": toTaskResponse(result.Task)})
	case actionClose:
		if err := s.tasks.Close(c.Request.Context(), id, domain.CloseManual); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"closed": true})
	default:
		respondError(c, errors.NewInvalidInputError("action", req.Action, "must be one of sign_up, submit, close"))
	}
}

func (s *Server) handlePurgeTasks(c *gin.Context) {
	if err := s.tasks.PurgeTasks(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": true})
}

func (s *Server) handleCreateCustomTask(c *gin.Context) {
	var req createCustomTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInputError("body", nil, "malformed JSON"))
		return
	}
	task, err := s.tasks.CreateCustom(c.Request.Context(), tasks.CreateCustomTaskInput{
		Header:      req.Header,
		Location:    req.Location,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCustomTaskResponse(task))
}

func (s *Server) handleGetCustomTask(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	task, err := s.tasks.GetCustom(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCustomTaskResponse(task))
}

func (s *Server) handleCustomTaskAction(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req taskActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInputError("body", nil, "malformed JSON"))
		return
	}

	switch req.Action {
	case actionSignUp:
		task, added, err := s.tasks.ToggleCustomAssignment(c.Request.Context(), id, req.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"added": added, "task": toCustomTaskResponse(task)})
	case actionClose:
		if err := s.tasks.CloseCustom(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"closed": true})
	default:
		respondError(c, errors.NewInvalidInputError("action", req.Action, "must be one of sign_up, close"))
	}
}

func (s *Server) handlePurgeCustomTasks(c *gin.Context) {
	if err := s.tasks.PurgeCustomTasks(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": true})
}
