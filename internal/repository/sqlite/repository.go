package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redsunink/veliankeeper/internal/errors"
	"github.com/redsunink/veliankeeper/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// Repository defines the interface for database operations
type Repository interface {
	// Production tasks
	CreateTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, id int64) (*Task, error)
	ListTaskBindings(ctx context.Context) ([]*TaskBinding, error)
	UpdateTaskState(ctx context.Context, id int64, assignedUsers string, currentAmount int64, expectedVersion int64) error
	SaveTaskMessage(ctx context.Context, id int64, messageID int64, channelID int64) error
	DeleteTask(ctx context.Context, id int64) error
	PurgeTasks(ctx context.Context) error

	// Custom tasks
	CreateCustomTask(ctx context.Context, task *CustomTask) error
	GetCustomTask(ctx context.Context, id int64) (*CustomTask, error)
	ListCustomTaskBindings(ctx context.Context) ([]*TaskBinding, error)
	UpdateCustomTaskAssignees(ctx context.Context, id int64, assignedUsers string, expectedVersion int64) error
	SaveCustomTaskMessage(ctx context.Context, id int64, messageID int64, channelID int64) error
	DeleteCustomTask(ctx context.Context, id int64) error
	PurgeCustomTasks(ctx context.Context) error

	// Catalog entities
	CreateItem(ctx context.Context, item *Item) error
	GetItemByName(ctx context.Context, nameOrAlias string) (*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id int64) error
	CreateFacility(ctx context.Context, facility *Facility) error
	GetFacilityByName(ctx context.Context, nameOrAlias string) (*Facility, error)
	CreateStockpile(ctx context.Context, stockpile *Stockpile) error
	GetStockpileByName(ctx context.Context, name string) (*Stockpile, error)
	PurgeStockpiles(ctx context.Context) error

	// Utility
	HealthCheck(ctx context.Context) error
	Close() error
}

// SQLiteRepository implements the Repository interface
type SQLiteRepository struct {
	db *sql.DB
}

// New creates a new SQLite repository instance
func New(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.NewDatabaseError("open database", err)
	}

	// SQLite allows one writer at a time; a single pooled connection keeps
	// concurrent callers queued on the pool instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Run migrations
	if err := migrations.RunMigrations(db); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("run migrations", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// HealthCheck verifies that the database is reachable and writable.
// A failure here is fatal at startup and non-fatal per action.
func (r *SQLiteRepository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return errors.NewDatabaseError("ping database", err)
	}
	var name string
	err := r.db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' LIMIT 1").Scan(&name)
	if err != nil && err != sql.ErrNoRows {
		return errors.NewDatabaseError("read schema", err)
	}
	if _, err := r.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS health_check (id INTEGER PRIMARY KEY)"); err != nil {
		return errors.NewDatabaseError("write probe", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM health_check"); err != nil {
		return errors.NewDatabaseError("write probe", err)
	}
	return nil
}

// CreateTask inserts a new production task row
func (r *SQLiteRepository) CreateTask(ctx context.Context, task *Task) error {
	query := `
	INSERT INTO tasks (item_id, amount, current_amount, facility_id, stockpile_id, created_by, assigned_users, thumbnail, status, version)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`

	id, err := ExecuteWithLastInsertID(ctx, r.db, query,
		task.ItemID, task.Amount, task.CurrentAmount, task.FacilityID, task.StockpileID,
		task.CreatedBy, task.AssignedUsers, task.Thumbnail, task.Status)
	if err != nil {
		return err
	}

	task.ID = id
	return nil
}

// GetTask retrieves a task by ID with its catalog display names joined in
func (r *SQLiteRepository) GetTask(ctx context.Context, id int64) (*Task, error) {
	query := `
	SELECT t.id, t.message_id, t.channel_id, t.item_id, t.amount, t.current_amount,
	       t.facility_id, t.stockpile_id, t.created_by, t.assigned_users, t.thumbnail,
	       t.status, t.version, i.item_name, f.facility_name, s.stockpile_name
	FROM tasks t
	JOIN items i ON t.item_id = i.id
	JOIN facilities f ON t.facility_id = f.id
	JOIN stockpiles s ON t.stockpile_id = s.id
	WHERE t.id = ?`

	return QuerySingle(ctx, r.db, query, ScanTask, "task", fmt.Sprintf("%d", id), id)
}

// ListTaskBindings retrieves the reconciliation projection of all tasks
func (r *SQLiteRepository) ListTaskBindings(ctx context.Context) ([]*TaskBinding, error) {
	query := `SELECT id, message_id, channel_id FROM tasks ORDER BY id ASC`
	return QueryMultiple(ctx, r.db, query, ScanTaskBindings, "tasks")
}

// UpdateTaskState writes the assignment list and progress counter of a task,
// conditioned on the version the caller read. A stale version yields a
// conflict error so the caller can re-read and retry.
func (r *SQLiteRepository) UpdateTaskState(ctx context.Context, id int64, assignedUsers string, currentAmount int64, expectedVersion int64) error {
	query := `
	UPDATE tasks
	SET assigned_users = ?, current_amount = ?, version = version + 1
	WHERE id = ? AND version = ?`

	result, err := r.db.ExecContext(ctx, query, assignedUsers, currentAmount, id, expectedVersion)
	if err != nil {
		return HandleDatabaseError("update task state", err)
	}

	return r.resolveConditionalUpdate(ctx, result, "tasks", "task", id)
}

// SaveTaskMessage binds a task to its live message
func (r *SQLiteRepository) SaveTaskMessage(ctx context.Context, id int64, messageID int64, channelID int64) error {
	query := `UPDATE tasks SET message_id = ?, channel_id = ? WHERE id = ?`
	return ExecuteWithRowsAffected(ctx, r.db, query, "task", fmt.Sprintf("%d", id), messageID, channelID, id)
}

// DeleteTask deletes a task by ID
func (r *SQLiteRepository) DeleteTask(ctx context.Context, id int64) error {
	query := `DELETE FROM tasks WHERE id = ?`
	return ExecuteWithRowsAffected(ctx, r.db, query, "task", fmt.Sprintf("%d", id), id)
}

// PurgeTasks deletes all tasks
func (r *SQLiteRepository) PurgeTasks(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return HandleDatabaseError("purge tasks", err)
	}
	return nil
}

// CreateCustomTask inserts a new custom task row
func (r *SQLiteRepository) CreateCustomTask(ctx context.Context, task *CustomTask) error {
	query := `
	INSERT INTO custom_tasks (task_header, task_location, task_description, created_by, assigned_users, status, version)
	VALUES (?, ?, ?, ?, ?, ?, 0)`

	id, err := ExecuteWithLastInsertID(ctx, r.db, query,
		task.Header, task.Location, task.Description, task.CreatedBy, task.AssignedUsers, task.Status)
	if err != nil {
		return err
	}

	task.ID = id
	return nil
}

// GetCustomTask retrieves a custom task by ID
func (r *SQLiteRepository) GetCustomTask(ctx context.Context, id int64) (*CustomTask, error) {
	query := `
	SELECT id, message_id, channel_id, task_header, task_location, task_description,
	       created_by, assigned_users, status, version
	FROM custom_tasks
	WHERE id = ?`

	return QuerySingle(ctx, r.db, query, ScanCustomTask, "custom task", fmt.Sprintf("%d", id), id)
}

// ListCustomTaskBindings retrieves the reconciliation projection of all custom tasks
func (r *SQLiteRepository) ListCustomTaskBindings(ctx context.Context) ([]*TaskBinding, error) {
	query := `SELECT id, message_id, channel_id FROM custom_tasks ORDER BY id ASC`
	return QueryMultiple(ctx, r.db, query, ScanTaskBindings, "custom tasks")
}

// UpdateCustomTaskAssignees writes the assignment list of a custom task,
// conditioned on the version the caller read.
func (r *SQLiteRepository) UpdateCustomTaskAssignees(ctx context.Context, id int64, assignedUsers string, expectedVersion int64) error {
	query := `
	UPDATE custom_tasks
	SET assigned_users = ?, version = version + 1
	WHERE id = ? AND version = ?`

	result, err := r.db.ExecContext(ctx, query, assignedUsers, id, expectedVersion)
	if err != nil {
		return HandleDatabaseError("update custom task assignees", err)
	}

	return r.resolveConditionalUpdate(ctx, result, "custom_tasks", "custom task", id)
}

// SaveCustomTaskMessage binds a custom task to its live message
func (r *SQLiteRepository) SaveCustomTaskMessage(ctx context.Context, id int64, messageID int64, channelID int64) error {
	query := `UPDATE custom_tasks SET message_id = ?, channel_id = ? WHERE id = ?`
	return ExecuteWithRowsAffected(ctx, r.db, query, "custom task", fmt.Sprintf("%d", id), messageID, channelID, id)
}

// DeleteCustomTask deletes a custom task by ID
func (r *SQLiteRepository) DeleteCustomTask(ctx context.Context, id int64) error {
	query := `DELETE FROM custom_tasks WHERE id = ?`
	return ExecuteWithRowsAffected(ctx, r.db, query, "custom task", fmt.Sprintf("%d", id), id)
}

// PurgeCustomTasks deletes all custom tasks
func (r *SQLiteRepository) PurgeCustomTasks(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM custom_tasks`); err != nil {
		return HandleDatabaseError("purge custom tasks", err)
	}
	return nil
}

// resolveConditionalUpdate distinguishes a stale-version write from a
// missing row after a conditional update touched zero rows.
func (r *SQLiteRepository) resolveConditionalUpdate(ctx context.Context, result sql.Result, table string, entityType string, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return HandleDatabaseError("get rows affected", err)
	}
	if rows > 0 {
		return nil
	}

	var one int64
	err = r.db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError(entityType, fmt.Sprintf("%d", id))
	}
	if err != nil {
		return HandleDatabaseError("check "+entityType+" existence", err)
	}
	return errors.NewConflictError(entityType, fmt.Sprintf("%d", id))
}

// CreateItem inserts a new catalog item
func (r *SQLiteRepository) CreateItem(ctx context.Context, item *Item) error {
	query := `
	INSERT INTO items (item_name, item_aliases, facilities, can_be_crated, can_be_palleted, crate_size, pallet_size, image_url)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := ExecuteWithLastInsertID(ctx, r.db, query,
		item.Name, item.Aliases, item.Facilities, item.CanBeCrated, item.CanBePalleted,
		item.CrateSize, item.PalletSize, item.ImageURL)
	if err != nil {
		return err
	}

	item.ID = id
	return nil
}

// GetItemByName retrieves an item by exact name or case-sensitive membership
// in its comma-delimited alias set. instr compares bytes, unlike LIKE, which
// folds ASCII case.
func (r *SQLiteRepository) GetItemByName(ctx context.Context, nameOrAlias string) (*Item, error) {
	query := `
	SELECT id, item_name, item_aliases, facilities, can_be_crated, can_be_palleted, crate_size, pallet_size, image_url
	FROM items
	WHERE item_name = ? OR instr(',' || item_aliases || ',', ',' || ? || ',') > 0`

	return QuerySingle(ctx, r.db, query, ScanItem, "item", nameOrAlias,
		nameOrAlias, nameOrAlias)
}

// UpdateItem updates an existing catalog item
func (r *SQLiteRepository) UpdateItem(ctx context.Context, item *Item) error {
	query := `
	UPDATE items
	SET item_name = ?, item_aliases = ?, facilities = ?, can_be_crated = ?, can_be_palleted = ?,
	    crate_size = ?, pallet_size = ?, image_url = ?
	WHERE id = ?`

	return ExecuteWithRowsAffected(ctx, r.db, query, "item", fmt.Sprintf("%d", item.ID),
		item.Name, item.Aliases, item.Facilities, item.CanBeCrated, item.CanBePalleted,
		item.CrateSize, item.PalletSize, item.ImageURL, item.ID)
}

// DeleteItem deletes a catalog item by ID
func (r *SQLiteRepository) DeleteItem(ctx context.Context, id int64) error {
	query := `DELETE FROM items WHERE id = ?`
	return ExecuteWithRowsAffected(ctx, r.db, query, "item", fmt.Sprintf("%d", id), id)
}

// CreateFacility inserts a new production facility
func (r *SQLiteRepository) CreateFacility(ctx context.Context, facility *Facility) error {
	query := `
	INSERT INTO facilities (facility_name, facility_aliases, facility_type, image_url)
	VALUES (?, ?, ?, ?)`

	id, err := ExecuteWithLastInsertID(ctx, r.db, query,
		facility.Name, facility.Aliases, facility.Type, facility.ImageURL)
	if err != nil {
		return err
	}

	facility.ID = id
	return nil
}

// GetFacilityByName retrieves a facility by exact name or case-sensitive
// alias membership
func (r *SQLiteRepository) GetFacilityByName(ctx context.Context, nameOrAlias string) (*Facility, error) {
	query := `
	SELECT id, facility_name, facility_aliases, facility_type, image_url
	FROM facilities
	WHERE facility_name = ? OR instr(',' || facility_aliases || ',', ',' || ? || ',') > 0`

	return QuerySingle(ctx, r.db, query, ScanFacility, "facility", nameOrAlias,
		nameOrAlias, nameOrAlias)
}

// CreateStockpile inserts a new stockpile
func (r *SQLiteRepository) CreateStockpile(ctx context.Context, stockpile *Stockpile) error {
	query := `
	INSERT INTO stockpiles (stockpile_name, stockpile_description, stockpile_location, stockpile_passcode)
	VALUES (?, ?, ?, ?)`

	id, err := ExecuteWithLastInsertID(ctx, r.db, query,
		stockpile.Name, stockpile.Description, stockpile.Location, stockpile.Passcode)
	if err != nil {
		return err
	}

	stockpile.ID = id
	return nil
}

// GetStockpileByName retrieves a stockpile by exact name only
func (r *SQLiteRepository) GetStockpileByName(ctx context.Context, name string) (*Stockpile, error) {
	query := `
	SELECT id, stockpile_name, stockpile_description, stockpile_location, stockpile_passcode
	FROM stockpiles
	WHERE stockpile_name = ?`

	return QuerySingle(ctx, r.db, query, ScanStockpile, "stockpile", name, name)
}

// PurgeStockpiles deletes all stockpiles
func (r *SQLiteRepository) PurgeStockpiles(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stockpiles`); err != nil {
		return HandleDatabaseError("purge stockpiles", err)
	}
	return nil
}
