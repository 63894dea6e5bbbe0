package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redsunink/veliankeeper/internal/errors"
)

func setupTestDB(t *testing.T) *SQLiteRepository {
	dbPath := filepath.Join(t.TempDir(), "keeper.db")
	repo, err := New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedCatalog(t *testing.T, repo *SQLiteRepository) (itemID, facilityID, stockpileID int64) {
	ctx := context.Background()

	item := &Item{
		Name:        "Basic Materials",
		Aliases:     "bmat,bmats",
		Facilities:  "Factory",
		CanBeCrated: "yes",
		CrateSize:   100,
	}
	require.NoError(t, repo.CreateItem(ctx, item))

	facility := &Facility{Name: "Factory", Aliases: "fac", Type: "production"}
	require.NoError(t, repo.CreateFacility(ctx, facility))

	stockpile := &Stockpile{Name: "Westgate Depot", Location: "Westgate", Passcode: 123456}
	require.NoError(t, repo.CreateStockpile(ctx, stockpile))

	return item.ID, facility.ID, stockpile.ID
}

func seedTask(t *testing.T, repo *SQLiteRepository) *Task {
	itemID, facilityID, stockpileID := seedCatalog(t, repo)
	task := &Task{
		ItemID:        itemID,
		Amount:        100,
		CurrentAmount: 0,
		FacilityID:    facilityID,
		StockpileID:   stockpileID,
		CreatedBy:     "900",
		AssignedUsers: "[]",
		Status:        "running",
	}
	require.NoError(t, repo.CreateTask(context.Background(), task))
	return task
}

func TestCreateAndGetTask(t *testing.T) {
	repo := setupTestDB(t)
	task := seedTask(t, repo)
	assert.Greater(t, task.ID, int64(0))

	retrieved, err := repo.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, retrieved.ID)
	assert.Equal(t, int64(100), retrieved.Amount)
	assert.Equal(t, int64(0), retrieved.CurrentAmount)
	assert.Equal(t, "[]", retrieved.AssignedUsers)
	assert.Equal(t, int64(0), retrieved.Version)
	assert.Nil(t, retrieved.MessageID)
	assert.Nil(t, retrieved.ChannelID)

	// Display names come from the catalog joins
	assert.Equal(t, "Basic Materials", retrieved.ItemName)
	assert.Equal(t, "Factory", retrieved.FacilityName)
	assert.Equal(t, "Westgate Depot", retrieved.StockpileName)
}

func TestGetTaskNotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetTask(context.Background(), 999)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestUpdateTaskState(t *testing.T) {
	repo := setupTestDB(t)
	task := seedTask(t, repo)
	ctx := context.Background()

	err := repo.UpdateTaskState(ctx, task.ID, `["100"]`, 40, 0)
	require.NoError(t, err)

	updated, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, `["100"]`, updated.AssignedUsers)
	assert.Equal(t, int64(40), updated.CurrentAmount)
	assert.Equal(t, int64(1), updated.Version)
}

func TestUpdateTaskStateStaleVersion(t *testing.T) {
	repo := setupTestDB(t)
	task := seedTask(t, repo)
	ctx := context.Background()

	// First writer moves the version forward
	require.NoError(t, repo.UpdateTaskState(ctx, task.ID, `["100"]`, 0, 0))

	// Second writer still holds version 0 and must lose
	err := repo.UpdateTaskState(ctx, task.ID, `["200"]`, 0, 0)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeConflict))

	// The first write is intact
	current, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, `["100"]`, current.AssignedUsers)
}

func TestExpiredContextReportsTimeout(t *testing.T) {
	repo := setupTestDB(t)
	task := seedTask(t, repo)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := repo.GetTask(ctx, task.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeTimeout))

	err = repo.UpdateTaskState(ctx, task.ID, "[]", 0, 0)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeTimeout))
}

func TestConcurrentWritesQueueOnPool(t *testing.T) {
	repo := setupTestDB(t)
	task := seedTask(t, repo)
	ctx := context.Background()

	// Parallel writers must queue on the single pooled connection rather
	// than fail with a busy error.
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			errs[slot] = repo.SaveTaskMessage(ctx, task.ID, int64(slot+1), 1000)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "writer %d", i)
	}
}

func TestUpdateTaskStateMissingRow(t *testing.T) {
	repo := setupTestDB(t)

	err := repo.UpdateTaskState(context.Background(), 999, "[]", 0, 0)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestSaveTaskMessage(t *testing.T) {
	repo := setupTestDB(t)
	task := seedTask(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.SaveTaskMessage(ctx, task.ID, 111, 222))

	bound, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, bound.MessageID)
	require.NotNil(t, bound.ChannelID)
	assert.Equal(t, int64(111), *bound.MessageID)
	assert.Equal(t, int64(222), *bound.ChannelID)
}

func TestDeleteTask(t *testing.T) {
	repo := setupTestDB(t)
	task := seedTask(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.DeleteTask(ctx, task.ID))

	_, err := repo.GetTask(ctx, task.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	// Deleting again reports not found
	err = repo.DeleteTask(ctx, task.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestListTaskBindings(t *testing.T) {
	repo := setupTestDB(t)
	task := seedTask(t, repo)
	ctx := context.Background()

	second := &Task{
		ItemID: task.ItemID, Amount: 50, FacilityID: task.FacilityID,
		StockpileID: task.StockpileID, CreatedBy: "901", AssignedUsers: "[]", Status: "running",
	}
	require.NoError(t, repo.CreateTask(ctx, second))
	require.NoError(t, repo.SaveTaskMessage(ctx, second.ID, 111, 222))

	bindings, err := repo.ListTaskBindings(ctx)
	require.NoError(t, err)
	require.Len(t, bindings, 2)

	assert.Equal(t, task.ID, bindings[0].ID)
	assert.Nil(t, bindings[0].MessageID)
	assert.Equal(t, second.ID, bindings[1].ID)
	require.NotNil(t, bindings[1].MessageID)
	assert.Equal(t, int64(111), *bindings[1].MessageID)
}

func TestPurgeTasks(t *testing.T) {
	repo := setupTestDB(t)
	task := seedTask(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.PurgeTasks(ctx))

	_, err := repo.GetTask(ctx, task.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestCustomTaskLifecycle(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	task := &CustomTask{
		Header:        "Scout the border",
		Location:      "Deadlands",
		Description:   "Report enemy positions",
		CreatedBy:     "900",
		AssignedUsers: "[]",
		Status:        "running",
	}
	require.NoError(t, repo.CreateCustomTask(ctx, task))
	assert.Greater(t, task.ID, int64(0))

	retrieved, err := repo.GetCustomTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Scout the border", retrieved.Header)
	assert.Equal(t, int64(0), retrieved.Version)

	require.NoError(t, repo.UpdateCustomTaskAssignees(ctx, task.ID, `["100"]`, 0))
	err = repo.UpdateCustomTaskAssignees(ctx, task.ID, `["200"]`, 0)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeConflict))

	require.NoError(t, repo.SaveCustomTaskMessage(ctx, task.ID, 333, 444))
	bindings, err := repo.ListCustomTaskBindings(ctx)
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	require.NotNil(t, bindings[0].MessageID)
	assert.Equal(t, int64(333), *bindings[0].MessageID)

	require.NoError(t, repo.DeleteCustomTask(ctx, task.ID))
	_, err = repo.GetCustomTask(ctx, task.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestGetItemByName(t *testing.T) {
	repo := setupTestDB(t)
	seedCatalog(t, repo)
	ctx := context.Background()

	tests := []struct {
		name      string
		lookup    string
		wantFound bool
	}{
		{"exact name", "Basic Materials", true},
		{"first alias", "bmat", true},
		{"second alias", "bmats", true},
		{"alias is case-sensitive", "BMAT", false},
		{"partial alias no match", "bma", false},
		{"unknown", "nothing", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := repo.GetItemByName(ctx, tt.lookup)
			if tt.wantFound {
				require.NoError(t, err)
				assert.Equal(t, "Basic Materials", item.Name)
			} else {
				assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
			}
		})
	}
}

func TestUpdateAndDeleteItem(t *testing.T) {
	repo := setupTestDB(t)
	itemID, _, _ := seedCatalog(t, repo)
	ctx := context.Background()

	item, err := repo.GetItemByName(ctx, "bmat")
	require.NoError(t, err)
	item.Aliases = "bmat,bmats,bm"
	item.CrateSize = 150
	require.NoError(t, repo.UpdateItem(ctx, item))

	updated, err := repo.GetItemByName(ctx, "bm")
	require.NoError(t, err)
	assert.Equal(t, int64(150), updated.CrateSize)

	require.NoError(t, repo.DeleteItem(ctx, itemID))
	_, err = repo.GetItemByName(ctx, "bmat")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestGetFacilityByName(t *testing.T) {
	repo := setupTestDB(t)
	seedCatalog(t, repo)
	ctx := context.Background()

	facility, err := repo.GetFacilityByName(ctx, "fac")
	require.NoError(t, err)
	assert.Equal(t, "Factory", facility.Name)

	// Alias matching does not fold case
	_, err = repo.GetFacilityByName(ctx, "FAC")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	_, err = repo.GetFacilityByName(ctx, "refinery")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestStockpiles(t *testing.T) {
	repo := setupTestDB(t)
	seedCatalog(t, repo)
	ctx := context.Background()

	stockpile, err := repo.GetStockpileByName(ctx, "Westgate Depot")
	require.NoError(t, err)
	assert.Equal(t, int64(123456), stockpile.Passcode)
	assert.Equal(t, "Westgate", stockpile.Location)

	require.NoError(t, repo.PurgeStockpiles(ctx))
	_, err = repo.GetStockpileByName(ctx, "Westgate Depot")
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestHealthCheck(t *testing.T) {
	repo := setupTestDB(t)
	assert.NoError(t, repo.HealthCheck(context.Background()))
}
