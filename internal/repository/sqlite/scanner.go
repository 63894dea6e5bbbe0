package sqlite

import (
	"database/sql"
)

// Scanner interface defines the common scanning behavior for both sql.Row and sql.Rows
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Rows interface defines the common behavior for sql.Rows
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// ScanTask scans a single joined task row
func ScanTask(scanner Scanner) (*Task, error) {
	task := &Task{}
	var messageID, channelID sql.NullInt64

	err := scanner.Scan(
		&task.ID,
		&messageID,
		&channelID,
		&task.ItemID,
		&task.Amount,
		&task.CurrentAmount,
		&task.FacilityID,
		&task.StockpileID,
		&task.CreatedBy,
		&task.AssignedUsers,
		&task.Thumbnail,
		&task.Status,
		&task.Version,
		&task.ItemName,
		&task.FacilityName,
		&task.StockpileName,
	)
	if err != nil {
		return nil, err
	}

	if messageID.Valid {
		task.MessageID = &messageID.Int64
	}
	if channelID.Valid {
		task.ChannelID = &channelID.Int64
	}

	return task, nil
}

// ScanCustomTask scans a single custom task row
func ScanCustomTask(scanner Scanner) (*CustomTask, error) {
	task := &CustomTask{}
	var messageID, channelID sql.NullInt64

	err := scanner.Scan(
		&task.ID,
		&messageID,
		&channelID,
		&task.Header,
		&task.Location,
		&task.Description,
		&task.CreatedBy,
		&task.AssignedUsers,
		&task.Status,
		&task.Version,
	)
	if err != nil {
		return nil, err
	}

	if messageID.Valid {
		task.MessageID = &messageID.Int64
	}
	if channelID.Valid {
		task.ChannelID = &channelID.Int64
	}

	return task, nil
}

// ScanTaskBinding scans a single reconciliation projection row
func ScanTaskBinding(scanner Scanner) (*TaskBinding, error) {
	binding := &TaskBinding{}
	var messageID, channelID sql.NullInt64

	if err := scanner.Scan(&binding.ID, &messageID, &channelID); err != nil {
		return nil, err
	}

	if messageID.Valid {
		binding.MessageID = &messageID.Int64
	}
	if channelID.Valid {
		binding.ChannelID = &channelID.Int64
	}

	return binding, nil
}

// ScanTaskBindings scans multiple reconciliation projection rows
func ScanTaskBindings(rows Rows) ([]*TaskBinding, error) {
	var bindings []*TaskBinding
	for rows.Next() {
		binding, err := ScanTaskBinding(rows)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// ScanItem scans a single item row
func ScanItem(scanner Scanner) (*Item, error) {
	item := &Item{}
	err := scanner.Scan(
		&item.ID,
		&item.Name,
		&item.Aliases,
		&item.Facilities,
		&item.CanBeCrated,
		&item.CanBePalleted,
		&item.CrateSize,
		&item.PalletSize,
		&item.ImageURL,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ScanFacility scans a single facility row
func ScanFacility(scanner Scanner) (*Facility, error) {
	facility := &Facility{}
	err := scanner.Scan(
		&facility.ID,
		&facility.Name,
		&facility.Aliases,
		&facility.Type,
		&facility.ImageURL,
	)
	if err != nil {
		return nil, err
	}
	return facility, nil
}

// ScanStockpile scans a single stockpile row
func ScanStockpile(scanner Scanner) (*Stockpile, error) {
	stockpile := &Stockpile{}
	err := scanner.Scan(
		&stockpile.ID,
		&stockpile.Name,
		&stockpile.Description,
		&stockpile.Location,
		&stockpile.Passcode,
	)
	if err != nil {
		return nil, err
	}
	return stockpile, nil
}
