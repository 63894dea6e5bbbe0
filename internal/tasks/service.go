package tasks

import (
	"context"
	"log/slog"
	"strings"

	"github.com/redsunink/veliankeeper/internal/catalog"
	"github.com/redsunink/veliankeeper/internal/domain"
	"github.com/redsunink/veliankeeper/internal/errors"
	"github.com/redsunink/veliankeeper/internal/repository/sqlite"
)

// Presenter is the rendering surface the task lifecycle drives. Refresh is
// best-effort: rendering drift never rolls back a committed state change.
type Presenter interface {
	PublishTask(ctx context.Context, task domain.Task) (*domain.MessageRef, error)
	RefreshTask(ctx context.Context, task domain.Task)
	ArchiveTask(ctx context.Context, task domain.Task, reason domain.CloseReason) error
	RetractTask(ctx context.Context, task domain.Task) error
	PublishCustomTask(ctx context.Context, task domain.CustomTask) (*domain.MessageRef, error)
	RefreshCustomTask(ctx context.Context, task domain.CustomTask)
	RetractCustomTask(ctx context.Context, task domain.CustomTask) error
}

// CreateTaskInput carries the fields for a new production task. Item,
// facility and stockpile are free-text names resolved against the catalog.
type CreateTaskInput struct {
	ItemName      string
	Amount        int64
	FacilityName  string
	StockpileName string
	CreatedBy     string
}

// CreateCustomTaskInput carries the fields for a new freeform task.
type CreateCustomTaskInput struct {
	Header      string
	Location    string
	Description string
	CreatedBy   string
}

// ProgressResult reports the outcome of a progress submission.
type ProgressResult struct {
	Task      *domain.Task
	Added     int64
	Completed bool
}

// Service is the task lifecycle surface: creation, assignment toggling,
// progress accumulation and closure. Every state transition is committed
// through a conditional write so concurrent mutations of the same task
// never silently drop each other.
type Service interface {
	Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error)
	Get(ctx context.Context, id int64) (*domain.Task, error)
	Close(ctx context.Context, id int64, reason domain.CloseReason) error
	ToggleAssignment(ctx context.Context, id int64, userID string) (*domain.Task, bool, error)
	SubmitProgress(ctx context.Context, id int64, rawAmount string) (*ProgressResult, error)
	PurgeTasks(ctx context.Context) error

	CreateCustom(ctx context.Context, input CreateCustomTaskInput) (*domain.CustomTask, error)
	GetCustom(ctx context.Context, id int64) (*domain.CustomTask, error)
	CloseCustom(ctx context.Context, id int64) error
	ToggleCustomAssignment(ctx context.Context, id int64, userID string) (*domain.CustomTask, bool, error)
	PurgeCustomTasks(ctx context.Context) error
}

type serviceImpl struct {
	repo       sqlite.Repository
	catalog    catalog.Service
	presenter  Presenter
	mapper     *domain.Mapper
	logger     *slog.Logger
	retryLimit int
}

// NewService creates a new task lifecycle Service instance. retryLimit
// bounds how often a conditional write is retried after losing a race.
func NewService(repo sqlite.Repository, catalogSvc catalog.Service, presenter Presenter, retryLimit int, logger *slog.Logger) Service {
	if retryLimit < 1 {
		retryLimit = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &serviceImpl{
		repo:       repo,
		catalog:    catalogSvc,
		presenter:  presenter,
		mapper:     domain.NewMapper(),
		logger:     logger,
		retryLimit: retryLimit,
	}
}

// Create resolves the referenced catalog entries, stores the task and
// publishes its live rendering. An unknown item, facility or stockpile
// fails the creation with a NotFoundError before anything is written.
func (s *serviceImpl) Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	if input.Amount <= 0 {
		return nil, errors.NewValidationError("amount must be a positive whole number", nil)
	}
	if strings.TrimSpace(input.CreatedBy) == "" {
		return nil, errors.NewValidationError("task creator cannot be empty", nil)
	}

	item, err := s.catalog.FindItem(ctx, input.ItemName)
	if err != nil {
		return nil, err
	}
	facility, err := s.catalog.FindFacility(ctx, input.FacilityName)
	if err != nil {
		return nil, err
	}
	stockpile, err := s.catalog.FindStockpile(ctx, input.StockpileName)
	if err != nil {
		return nil, err
	}

	task := domain.Task{
		ItemID:        item.ID,
		Amount:        input.Amount,
		CurrentAmount: 0,
		FacilityID:    facility.ID,
		StockpileID:   stockpile.ID,
		CreatedBy:     input.CreatedBy,
		AssignedUsers: []string{input.CreatedBy},
		Thumbnail:     item.ImageURL,
		Status:        domain.StatusRunning,
		ItemName:      item.Name,
		FacilityName:  facility.Name,
		StockpileName: stockpile.Name,
	}

	dbTask := s.mapper.Task.ToDatabase(task)
	if err := s.repo.CreateTask(ctx, &dbTask); err != nil {
		return nil, err
	}
	task.ID = dbTask.ID

	ref, err := s.presenter.PublishTask(ctx, task)
	if err != nil {
		return nil, err
	}
	task.Message = ref
	return &task, nil
}

// Get loads a task with its catalog display names resolved.
func (s *serviceImpl) Get(ctx context.Context, id int64) (*domain.Task, error) {
	dbTask, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	task := s.mapper.Task.FromDatabase(*dbTask)
	return &task, nil
}

// Close ends a task's lifecycle: an archive artifact is rendered, the live
// rendering is retracted and the row is deleted. Closing a task that does
// not exist reports a NotFoundError, which also covers repeated closes.
func (s *serviceImpl) Close(ctx context.Context, id int64, reason domain.CloseReason) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	task.Status = domain.StatusClosed

	if err := s.presenter.ArchiveTask(ctx, *task, reason); err != nil {
		return err
	}
	if err := s.presenter.RetractTask(ctx, *task); err != nil {
		return err
	}
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.logger.Info("task closed", "task_id", id, "reason", string(reason))
	return nil
}

// PurgeTasks deletes every production task. Live renderings are not
// retracted; the next reconciliation pass reports them as orphaned.
func (s *serviceImpl) PurgeTasks(ctx context.Context) error {
	return s.repo.PurgeTasks(ctx)
}

// CreateCustom stores a freeform task and publishes its live rendering.
func (s *serviceImpl) CreateCustom(ctx context.Context, input CreateCustomTaskInput) (*domain.CustomTask, error) {
	if strings.TrimSpace(input.Header) == "" {
		return nil, errors.NewValidationError("task header cannot be empty", nil)
	}
	if strings.TrimSpace(input.CreatedBy) == "" {
		return nil, errors.NewValidationError("task creator cannot be empty", nil)
	}

	task := domain.CustomTask{
		Header:        input.Header,
		Location:      input.Location,
		Description:   input.Description,
		CreatedBy:     input.CreatedBy,
		AssignedUsers: []string{input.CreatedBy},
		Status:        domain.StatusRunning,
	}

	dbTask := s.mapper.CustomTask.ToDatabase(task)
	if err := s.repo.CreateCustomTask(ctx, &dbTask); err != nil {
		return nil, err
	}
	task.ID = dbTask.ID

	ref, err := s.presenter.PublishCustomTask(ctx, task)
	if err != nil {
		return nil, err
	}
	task.Message = ref
	return &task, nil
}

// GetCustom loads a freeform task.
func (s *serviceImpl) GetCustom(ctx context.Context, id int64) (*domain.CustomTask, error) {
	dbTask, err := s.repo.GetCustomTask(ctx, id)
	if err != nil {
		return nil, err
	}
	task := s.mapper.CustomTask.FromDatabase(*dbTask)
	return &task, nil
}

// CloseCustom ends a freeform task. Freeform tasks carry no archive
// artifact: the live rendering is retracted and the row deleted.
func (s *serviceImpl) CloseCustom(ctx context.Context, id int64) error {
	task, err := s.GetCustom(ctx, id)
	if err != nil {
		return err
	}
	if err := s.presenter.RetractCustomTask(ctx, *task); err != nil {
		return err
	}
	if err := s.repo.DeleteCustomTask(ctx, id); err != nil {
		return err
	}
	s.logger.Info("custom task closed", "task_id", id)
	return nil
}

// PurgeCustomTasks deletes every freeform task.
func (s *serviceImpl) PurgeCustomTasks(ctx context.Context) error {
	return s.repo.PurgeCustomTasks(ctx)
}
