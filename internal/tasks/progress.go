package tasks

import (
	"context"
	"strconv"
	"strings"

	"github.com/redsunink/veliankeeper/internal/domain"
	"github.com/redsunink/veliankeeper/internal/errors"
)

// ParseProgressAmount validates a free-text progress submission. Only a
// positive whole number is accepted; anything else is a ValidationError.
func ParseProgressAmount(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	amount, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, errors.NewValidationError("amount must be a positive whole number", err)
	}
	if amount <= 0 {
		return 0, errors.NewValidationError("amount must be a positive whole number", nil)
	}
	return amount, nil
}

// SubmitProgress adds a submitted amount to a task's accumulated progress.
// The sum is persisted as-is, never clamped to the target, so overshoot
// stays visible. When the sum reaches the target the task is closed as
// completed. Like the assignment ledger, the write is version-conditioned
// and retried on conflict so concurrent submissions both count.
func (s *serviceImpl) SubmitProgress(ctx context.Context, id int64, rawAmount string) (*ProgressResult, error) {
	amount, err := ParseProgressAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.retryLimit; attempt++ {
		task, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		newAmount := task.CurrentAmount + amount
		err = s.repo.UpdateTaskState(ctx, id, domain.EncodeUserList(task.AssignedUsers), newAmount, task.Version)
		if err == nil {
			task.CurrentAmount = newAmount
			task.Version++
			s.logger.Info("progress submitted", "task_id", id, "added", amount, "current", newAmount, "target", task.Amount)

			if task.TargetReached() {
				if err := s.Close(ctx, id, domain.CloseCompleted); err != nil {
					return nil, err
				}
				task.Status = domain.StatusClosed
				return &ProgressResult{Task: task, Added: amount, Completed: true}, nil
			}

			s.presenter.RefreshTask(ctx, *task)
			return &ProgressResult{Task: task, Added: amount, Completed: false}, nil
		}
		if !errors.IsErrorType(err, errors.ErrorTypeConflict) {
			return nil, err
		}
		s.logger.Debug("progress update lost race, retrying", "task_id", id, "attempt", attempt+1)
	}
	return nil, errors.NewConflictError("task", strconv.FormatInt(id, 10))
}
