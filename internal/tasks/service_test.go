package tasks

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redsunink/veliankeeper/internal/catalog"
	"github.com/redsunink/veliankeeper/internal/domain"
	"github.com/redsunink/veliankeeper/internal/errors"
	"github.com/redsunink/veliankeeper/internal/repository/sqlite"
)

// fakeScraper returns a fixed thumbnail without network access.
type fakeScraper struct{}

func (fakeScraper) ScrapeImageURL(ctx context.Context, searchTerm string) (string, error) {
	return "https://example.com/" + searchTerm + ".png", nil
}

// fakePresenter records presentation calls and persists bindings the way
// the real presenter does.
type fakePresenter struct {
	mu        sync.Mutex
	repo      sqlite.Repository
	nextID    int64
	refreshes int
	archives  []domain.CloseReason
	retracts  int
}

func (f *fakePresenter) PublishTask(ctx context.Context, task domain.Task) (*domain.MessageRef, error) {
	f.mu.Lock()
	f.nextID++
	ref := domain.MessageRef{MessageID: f.nextID, ChannelID: 1000}
	f.mu.Unlock()
	if err := f.repo.SaveTaskMessage(ctx, task.ID, ref.MessageID, ref.ChannelID); err != nil {
		return nil, err
	}
	return &ref, nil
}

func (f *fakePresenter) RefreshTask(ctx context.Context, task domain.Task) {
	f.mu.Lock()
	f.refreshes++
	f.mu.Unlock()
}

func (f *fakePresenter) ArchiveTask(ctx context.Context, task domain.Task, reason domain.CloseReason) error {
	f.mu.Lock()
	f.archives = append(f.archives, reason)
	f.mu.Unlock()
	return nil
}

func (f *fakePresenter) RetractTask(ctx context.Context, task domain.Task) error {
	f.mu.Lock()
	f.retracts++
	f.mu.Unlock()
	return nil
}

func (f *fakePresenter) PublishCustomTask(ctx context.Context, task domain.CustomTask) (*domain.MessageRef, error) {
	f.mu.Lock()
	f.nextID++
	ref := domain.MessageRef{MessageID: f.nextID, ChannelID: 1000}
	f.mu.Unlock()
	if err := f.repo.SaveCustomTaskMessage(ctx, task.ID, ref.MessageID, ref.ChannelID); err != nil {
		return nil, err
	}
	return &ref, nil
}

func (f *fakePresenter) RefreshCustomTask(ctx context.Context, task domain.CustomTask) {
	f.mu.Lock()
	f.refreshes++
	f.mu.Unlock()
}

func (f *fakePresenter) RetractCustomTask(ctx context.Context, task domain.CustomTask) error {
	f.mu.Lock()
	f.retracts++
	f.mu.Unlock()
	return nil
}

func setupService(t *testing.T) (Service, *fakePresenter, sqlite.Repository) {
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "keeper.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	catalogSvc := catalog.NewService(repo, fakeScraper{}, nil)
	presenter := &fakePresenter{repo: repo}
	svc := NewService(repo, catalogSvc, presenter, 10, nil)

	ctx := context.Background()
	_, err = catalogSvc.AddFacility(ctx, catalog.AddFacilityInput{Name: "Factory", RawAliases: "fac"})
	require.NoError(t, err)
	_, err = catalogSvc.AddItem(ctx, catalog.AddItemInput{Name: "Basic Materials", RawAliases: "bmat,bmats", FacilityName: "Factory"})
	require.NoError(t, err)
	_, err = catalogSvc.AddStockpile(ctx, domain.Stockpile{Name: "Westgate Depot", Location: "Westgate"})
	require.NoError(t, err)

	return svc, presenter, repo
}

func createTask(t *testing.T, svc Service, amount int64) *domain.Task {
	task, err := svc.Create(context.Background(), CreateTaskInput{
		ItemName:      "bmat",
		Amount:        amount,
		FacilityName:  "Factory",
		StockpileName: "Westgate Depot",
		CreatedBy:     "900",
	})
	require.NoError(t, err)
	return task
}

func TestCreateTask(t *testing.T) {
	svc, _, _ := setupService(t)
	task := createTask(t, svc, 100)

	assert.Greater(t, task.ID, int64(0))
	assert.Equal(t, int64(0), task.CurrentAmount)
	assert.Equal(t, []string{"900"}, task.AssignedUsers)
	assert.Equal(t, domain.StatusRunning, task.Status)
	assert.Equal(t, "900", task.CreatedBy)
	assert.Equal(t, "Basic Materials", task.ItemName)
	assert.Equal(t, "https://example.com/Basic Materials.png", task.Thumbnail)
	require.NotNil(t, task.Message)

	// Creation published exactly one live artifact
	stored, err := svc.Get(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Message.MessageID, stored.Message.MessageID)
}

func TestCreateTaskUnknownCatalogEntry(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateTaskInput{
		ItemName: "nothing", Amount: 10, FacilityName: "Factory",
		StockpileName: "Westgate Depot", CreatedBy: "900",
	})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	_, err = svc.Create(ctx, CreateTaskInput{
		ItemName: "bmat", Amount: 10, FacilityName: "nowhere",
		StockpileName: "Westgate Depot", CreatedBy: "900",
	})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	_, err = svc.Create(ctx, CreateTaskInput{
		ItemName: "bmat", Amount: 10, FacilityName: "Factory",
		StockpileName: "nowhere", CreatedBy: "900",
	})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestCreateTaskInvalidAmount(t *testing.T) {
	svc, _, _ := setupService(t)

	for _, amount := range []int64{0, -5} {
		_, err := svc.Create(context.Background(), CreateTaskInput{
			ItemName: "bmat", Amount: amount, FacilityName: "Factory",
			StockpileName: "Westgate Depot", CreatedBy: "900",
		})
		assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
	}
}

func TestToggleAssignment(t *testing.T) {
	svc, presenter, _ := setupService(t)
	task := createTask(t, svc, 100)
	ctx := context.Background()

	// Creation seeded the creator; the first toggle signs a new user up
	updated, added, err := svc.ToggleAssignment(ctx, task.ID, "100")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"900", "100"}, updated.AssignedUsers)

	// Second user joins, list order is preserved
	updated, added, err = svc.ToggleAssignment(ctx, task.ID, "200")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"900", "100", "200"}, updated.AssignedUsers)

	// Toggling again drops the first user
	updated, added, err = svc.ToggleAssignment(ctx, task.ID, "100")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"900", "200"}, updated.AssignedUsers)

	// Every toggle refreshed the live artifact
	assert.Equal(t, 3, presenter.refreshes)
}

func TestToggleAssignmentMissingTask(t *testing.T) {
	svc, _, _ := setupService(t)

	_, _, err := svc.ToggleAssignment(context.Background(), 999, "100")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestConcurrentTogglesBothLand(t *testing.T) {
	svc, _, _ := setupService(t)
	task := createTask(t, svc, 100)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []string{"100", "200"} {
		wg.Add(1)
		go func(slot int, uid string) {
			defer wg.Done()
			_, _, errs[slot] = svc.ToggleAssignment(ctx, task.ID, uid)
		}(i, userID)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	final, err := svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"900", "100", "200"}, final.AssignedUsers)
}

func TestSubmitProgressAccumulates(t *testing.T) {
	svc, presenter, _ := setupService(t)
	task := createTask(t, svc, 100)
	ctx := context.Background()

	result, err := svc.SubmitProgress(ctx, task.ID, "40")
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, int64(40), result.Task.CurrentAmount)

	result, err = svc.SubmitProgress(ctx, task.ID, "35")
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, int64(75), result.Task.CurrentAmount)

	assert.Equal(t, 2, presenter.refreshes)
	assert.Empty(t, presenter.archives)
}

func TestSubmitProgressReachesTarget(t *testing.T) {
	svc, presenter, _ := setupService(t)
	task := createTask(t, svc, 100)
	ctx := context.Background()

	_, err := svc.SubmitProgress(ctx, task.ID, "40")
	require.NoError(t, err)

	result, err := svc.SubmitProgress(ctx, task.ID, "60")
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, int64(100), result.Task.CurrentAmount)
	assert.Equal(t, domain.StatusClosed, result.Task.Status)

	// Closure archived as completed, retracted the live artifact and
	// deleted the row
	assert.Equal(t, []domain.CloseReason{domain.CloseCompleted}, presenter.archives)
	assert.Equal(t, 1, presenter.retracts)

	_, err = svc.Get(ctx, task.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestSubmitProgressOvershootNotClamped(t *testing.T) {
	svc, _, _ := setupService(t)
	task := createTask(t, svc, 100)

	result, err := svc.SubmitProgress(context.Background(), task.ID, "150")
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, int64(150), result.Task.CurrentAmount)
}

func TestSubmitProgressRejectsBadInput(t *testing.T) {
	svc, _, _ := setupService(t)
	task := createTask(t, svc, 100)
	ctx := context.Background()

	for _, raw := range []string{"abc", "-5", "0", "1.5", "", "  ", "1e3"} {
		_, err := svc.SubmitProgress(ctx, task.ID, raw)
		assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation), "input %q", raw)
	}

	// Rejected submissions leave the task untouched
	current, err := svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), current.CurrentAmount)
	assert.Equal(t, domain.StatusRunning, current.Status)
}

func TestCloseManual(t *testing.T) {
	svc, presenter, _ := setupService(t)
	task := createTask(t, svc, 100)
	ctx := context.Background()

	require.NoError(t, svc.Close(ctx, task.ID, domain.CloseManual))

	assert.Equal(t, []domain.CloseReason{domain.CloseManual}, presenter.archives)
	assert.Equal(t, 1, presenter.retracts)

	_, err := svc.Get(ctx, task.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestClosedTaskRejectsFurtherActions(t *testing.T) {
	svc, _, _ := setupService(t)
	task := createTask(t, svc, 100)
	ctx := context.Background()

	require.NoError(t, svc.Close(ctx, task.ID, domain.CloseManual))

	err := svc.Close(ctx, task.ID, domain.CloseManual)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	_, _, err = svc.ToggleAssignment(ctx, task.ID, "100")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	_, err = svc.SubmitProgress(ctx, task.ID, "10")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestCustomTaskLifecycle(t *testing.T) {
	svc, presenter, _ := setupService(t)
	ctx := context.Background()

	task, err := svc.CreateCustom(ctx, CreateCustomTaskInput{
		Header:      "Scout the border",
		Location:    "Deadlands",
		Description: "Report enemy positions",
		CreatedBy:   "900",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, task.Status)
	require.NotNil(t, task.Message)

	updated, added, err := svc.ToggleCustomAssignment(ctx, task.ID, "100")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"900", "100"}, updated.AssignedUsers)

	require.NoError(t, svc.CloseCustom(ctx, task.ID))

	// Custom tasks retract without an archive artifact
	assert.Empty(t, presenter.archives)
	assert.Equal(t, 1, presenter.retracts)

	_, err = svc.GetCustom(ctx, task.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestCreateCustomTaskValidation(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.CreateCustom(context.Background(), CreateCustomTaskInput{Header: "", CreatedBy: "900"})
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
}

func TestPurgeTasks(t *testing.T) {
	svc, _, _ := setupService(t)
	task := createTask(t, svc, 100)
	ctx := context.Background()

	require.NoError(t, svc.PurgeTasks(ctx))
	_, err := svc.Get(ctx, task.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestEndToEndCompletionFlow(t *testing.T) {
	svc, presenter, _ := setupService(t)
	ctx := context.Background()

	task := createTask(t, svc, 100)

	result, err := svc.SubmitProgress(ctx, task.ID, "40")
	require.NoError(t, err)
	assert.Equal(t, int64(40), result.Task.CurrentAmount)
	assert.Equal(t, domain.StatusRunning, result.Task.Status)

	result, err = svc.SubmitProgress(ctx, task.ID, "60")
	require.NoError(t, err)
	assert.Equal(t, int64(100), result.Task.CurrentAmount)
	assert.Equal(t, domain.StatusClosed, result.Task.Status)
	assert.Equal(t, []domain.CloseReason{domain.CloseCompleted}, presenter.archives)

	_, err = svc.Get(ctx, task.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}
