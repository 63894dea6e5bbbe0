package presentation

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/redsunink/veliankeeper/internal/domain"
	"github.com/redsunink/veliankeeper/internal/errors"
	"github.com/redsunink/veliankeeper/internal/repository/sqlite"
)

// Presenter keeps the store and the chat surface consistent: it owns the
// task-to-message binding and is the only component allowed to mutate it.
type Presenter struct {
	channel          Channel
	repo             sqlite.Repository
	logger           *slog.Logger
	tasksChannelID   int64
	archiveChannelID int64
	historyLimit     int
	quotes           []string
}

// PresenterConfig carries the presenter's wiring.
type PresenterConfig struct {
	Channel          Channel
	Repository       sqlite.Repository
	Logger           *slog.Logger
	TasksChannelID   int64
	ArchiveChannelID int64
	HistoryLimit     int
	FooterQuotes     []string
}

// NewPresenter creates a Presenter.
func NewPresenter(cfg PresenterConfig) *Presenter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &Presenter{
		channel:          cfg.Channel,
		repo:             cfg.Repository,
		logger:           logger,
		tasksChannelID:   cfg.TasksChannelID,
		archiveChannelID: cfg.ArchiveChannelID,
		historyLimit:     historyLimit,
		quotes:           cfg.FooterQuotes,
	}
}

// PublishTask renders a task's first artifact and binds the message
// reference to the row. Called exactly once per task, on creation.
func (p *Presenter) PublishTask(ctx context.Context, task domain.Task) (*domain.MessageRef, error) {
	ref, err := p.channel.Render(ctx, p.tasksChannelID, BuildTaskArtifact(task, p.pickQuote()))
	if err != nil {
		return nil, err
	}
	if err := p.repo.SaveTaskMessage(ctx, task.ID, ref.MessageID, ref.ChannelID); err != nil {
		return nil, err
	}
	return &ref, nil
}

// RefreshTask re-renders a task's artifact in place. Drift (a missing
// artifact) is logged, not surfaced: the store update is authoritative and
// presentation is best-effort.
func (p *Presenter) RefreshTask(ctx context.Context, task domain.Task) {
	if task.Message == nil {
		p.logger.Warn("refresh skipped: task has no live artifact", "task_id", task.ID)
		return
	}
	if err := p.channel.Update(ctx, *task.Message, BuildTaskArtifact(task, p.pickQuote())); err != nil {
		p.logger.Warn("live artifact update failed",
			"task_id", task.ID, "error", errors.NewDriftError("refresh task", err))
	}
}

// ArchiveTask posts the terminal artifact to the archive channel and
// retracts the live artifact. An already-retracted live artifact is
// success.
func (p *Presenter) ArchiveTask(ctx context.Context, task domain.Task, reason domain.CloseReason) error {
	if _, err := p.channel.Render(ctx, p.archiveChannelID, BuildArchiveArtifact(task, reason, p.pickQuote())); err != nil {
		return err
	}
	return p.RetractTask(ctx, task)
}

// RetractTask removes a task's live artifact, tolerating "already gone".
func (p *Presenter) RetractTask(ctx context.Context, task domain.Task) error {
	if task.Message == nil {
		return nil
	}
	return p.channel.Retract(ctx, *task.Message)
}

// PublishCustomTask renders a custom task's first artifact and binds it.
func (p *Presenter) PublishCustomTask(ctx context.Context, task domain.CustomTask) (*domain.MessageRef, error) {
	ref, err := p.channel.Render(ctx, p.tasksChannelID, BuildCustomTaskArtifact(task))
	if err != nil {
		return nil, err
	}
	if err := p.repo.SaveCustomTaskMessage(ctx, task.ID, ref.MessageID, ref.ChannelID); err != nil {
		return nil, err
	}
	return &ref, nil
}

// RefreshCustomTask re-renders a custom task's artifact in place.
func (p *Presenter) RefreshCustomTask(ctx context.Context, task domain.CustomTask) {
	if task.Message == nil {
		p.logger.Warn("refresh skipped: custom task has no live artifact", "task_id", task.ID)
		return
	}
	if err := p.channel.Update(ctx, *task.Message, BuildCustomTaskArtifact(task)); err != nil {
		p.logger.Warn("live artifact update failed",
			"custom_task_id", task.ID, "error", errors.NewDriftError("refresh custom task", err))
	}
}

// RetractCustomTask removes a custom task's live artifact. Custom tasks
// have no archive step.
func (p *Presenter) RetractCustomTask(ctx context.Context, task domain.CustomTask) error {
	if task.Message == nil {
		return nil
	}
	return p.channel.Retract(ctx, *task.Message)
}

// Reconcile repairs drift between the store and the channel at startup.
// Unbound tasks are matched against recent channel history by footer
// fingerprint; bound tasks are verified to still have their message.
// Failures are logged per task and never abort startup.
func (p *Presenter) Reconcile(ctx context.Context) error {
	bindings, err := p.repo.ListTaskBindings(ctx)
	if err != nil {
		return err
	}
	for _, b := range bindings {
		p.reconcileBinding(ctx, b, TaskFingerprint(b.ID), p.repo.SaveTaskMessage)
	}

	customBindings, err := p.repo.ListCustomTaskBindings(ctx)
	if err != nil {
		return err
	}
	for _, b := range customBindings {
		p.reconcileBinding(ctx, b, CustomTaskFingerprint(b.ID), p.repo.SaveCustomTaskMessage)
	}
	return nil
}

func (p *Presenter) reconcileBinding(ctx context.Context, b *sqlite.TaskBinding, fingerprint string, save func(context.Context, int64, int64, int64) error) {
	if b.MessageID != nil && b.ChannelID != nil {
		ref := domain.MessageRef{MessageID: *b.MessageID, ChannelID: *b.ChannelID}
		if _, err := p.channel.Fetch(ctx, ref); err != nil {
			p.logger.Warn("bound artifact missing", "task_id", b.ID, "message_id", ref.MessageID, "error", err)
		}
		return
	}

	channelID := p.tasksChannelID
	if b.ChannelID != nil {
		channelID = *b.ChannelID
	}

	messages, err := p.channel.History(ctx, channelID, p.historyLimit)
	if err != nil {
		p.logger.Warn("history scan failed", "task_id", b.ID, "channel_id", channelID, "error", err)
		return
	}
	for _, msg := range messages {
		if FooterMatches(msg.Footer, fingerprint) {
			if err := save(ctx, b.ID, msg.Ref.MessageID, msg.Ref.ChannelID); err != nil {
				p.logger.Warn("binding repair failed", "task_id", b.ID, "error", err)
			} else {
				p.logger.Info("binding repaired from channel history", "task_id", b.ID, "message_id", msg.Ref.MessageID)
			}
			return
		}
	}
	p.logger.Warn("no artifact found in history window", "task_id", b.ID, "channel_id", channelID)
}

func (p *Presenter) pickQuote() string {
	if len(p.quotes) == 0 {
		return ""
	}
	return p.quotes[rand.Intn(len(p.quotes))]
}
