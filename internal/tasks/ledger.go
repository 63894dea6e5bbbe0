package tasks

import (
	"context"
	"strconv"

	"github.com/redsunink/veliankeeper/internal/domain"
	"github.com/redsunink/veliankeeper/internal/errors"
)

// ToggleAssignment flips a user's membership in a task's assignment list.
// The write is conditioned on the version read, so two users toggling at
// the same time both land: the loser of the race re-reads and retries on
// the fresh state instead of overwriting it.
func (s *serviceImpl) ToggleAssignment(ctx context.Context, id int64, userID string) (*domain.Task, bool, error) {
	if userID == "" {
		return nil, false, errors.NewValidationError("user ID cannot be empty", nil)
	}

	for attempt := 0; attempt < s.retryLimit; attempt++ {
		task, err := s.Get(ctx, id)
		if err != nil {
			return nil, false, err
		}

		users, added := domain.ToggleMember(task.AssignedUsers, userID)
		err = s.repo.UpdateTaskState(ctx, id, domain.EncodeUserList(users), task.CurrentAmount, task.Version)
		if err == nil {
			task.AssignedUsers = users
			task.Version++
			s.presenter.RefreshTask(ctx, *task)
			s.logger.Info("assignment toggled", "task_id", id, "user_id", userID, "added", added)
			return task, added, nil
		}
		if !errors.IsErrorType(err, errors.ErrorTypeConflict) {
			return nil, false, err
		}
		s.logger.Debug("assignment update lost race, retrying", "task_id", id, "attempt", attempt+1)
	}
	return nil, false, errors.NewConflictError("task", strconv.FormatInt(id, 10))
}

// ToggleCustomAssignment is the freeform-task counterpart of ToggleAssignment.
func (s *serviceImpl) ToggleCustomAssignment(ctx context.Context, id int64, userID string) (*domain.CustomTask, bool, error) {
	if userID == "" {
		return nil, false, errors.NewValidationError("user ID cannot be empty", nil)
	}

	for attempt := 0; attempt < s.retryLimit; attempt++ {
		task, err := s.GetCustom(ctx, id)
		if err != nil {
			return nil, false, err
		}

		users, added := domain.ToggleMember(task.AssignedUsers, userID)
		err = s.repo.UpdateCustomTaskAssignees(ctx, id, domain.EncodeUserList(users), task.Version)
		if err == nil {
			task.AssignedUsers = users
			task.Version++
			s.presenter.RefreshCustomTask(ctx, *task)
			s.logger.Info("assignment toggled", "custom_task_id", id, "user_id", userID, "added", added)
			return task, added, nil
		}
		if !errors.IsErrorType(err, errors.ErrorTypeConflict) {
			return nil, false, err
		}
		s.logger.Debug("assignment update lost race, retrying", "custom_task_id", id, "attempt", attempt+1)
	}
	return nil, false, errors.NewConflictError("custom task", strconv.FormatInt(id, 10))
}
