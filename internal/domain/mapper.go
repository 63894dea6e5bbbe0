package domain

import (
	"encoding/json"

	"github.com/redsunink/veliankeeper/internal/repository/sqlite"
)

// TaskMapper handles conversion between domain and database Task models.
// The JSON encoding of the assignment list is a serialization boundary
// concern that lives here, not in the state machine.
type TaskMapper struct{}

// NewTaskMapper creates a new TaskMapper instance.
func NewTaskMapper() *TaskMapper {
	return &TaskMapper{}
}

// ToDatabase converts a domain Task to a database Task.
func (m *TaskMapper) ToDatabase(domainTask Task) sqlite.Task {
	dbTask := sqlite.Task{
		ID:            domainTask.ID,
		ItemID:        domainTask.ItemID,
		Amount:        domainTask.Amount,
		CurrentAmount: domainTask.CurrentAmount,
		FacilityID:    domainTask.FacilityID,
		StockpileID:   domainTask.StockpileID,
		CreatedBy:     domainTask.CreatedBy,
		AssignedUsers: EncodeUserList(domainTask.AssignedUsers),
		Thumbnail:     domainTask.Thumbnail,
		Status:        string(domainTask.Status),
		Version:       domainTask.Version,
	}
	if domainTask.Message != nil {
		messageID := domainTask.Message.MessageID
		channelID := domainTask.Message.ChannelID
		dbTask.MessageID = &messageID
		dbTask.ChannelID = &channelID
	}
	return dbTask
}

// FromDatabase converts a database Task to a domain Task.
func (m *TaskMapper) FromDatabase(dbTask sqlite.Task) Task {
	return Task{
		ID:            dbTask.ID,
		ItemID:        dbTask.ItemID,
		Amount:        dbTask.Amount,
		CurrentAmount: dbTask.CurrentAmount,
		FacilityID:    dbTask.FacilityID,
		StockpileID:   dbTask.StockpileID,
		CreatedBy:     dbTask.CreatedBy,
		AssignedUsers: DecodeUserList(dbTask.AssignedUsers),
		Thumbnail:     dbTask.Thumbnail,
		Status:        Status(dbTask.Status),
		Message:       messageRefFromColumns(dbTask.MessageID, dbTask.ChannelID),
		Version:       dbTask.Version,
		ItemName:      dbTask.ItemName,
		FacilityName:  dbTask.FacilityName,
		StockpileName: dbTask.StockpileName,
	}
}

// CustomTaskMapper handles conversion between domain and database CustomTask models.
type CustomTaskMapper struct{}

// NewCustomTaskMapper creates a new CustomTaskMapper instance.
func NewCustomTaskMapper() *CustomTaskMapper {
	return &CustomTaskMapper{}
}

// ToDatabase converts a domain CustomTask to a database CustomTask.
func (m *CustomTaskMapper) ToDatabase(domainTask CustomTask) sqlite.CustomTask {
	dbTask := sqlite.CustomTask{
		ID:            domainTask.ID,
		Header:        domainTask.Header,
		Location:      domainTask.Location,
		Description:   domainTask.Description,
		CreatedBy:     domainTask.CreatedBy,
		AssignedUsers: EncodeUserList(domainTask.AssignedUsers),
		Status:        string(domainTask.Status),
		Version:       domainTask.Version,
	}
	if domainTask.Message != nil {
		messageID := domainTask.Message.MessageID
		channelID := domainTask.Message.ChannelID
		dbTask.MessageID = &messageID
		dbTask.ChannelID = &channelID
	}
	return dbTask
}

// FromDatabase converts a database CustomTask to a domain CustomTask.
func (m *CustomTaskMapper) FromDatabase(dbTask sqlite.CustomTask) CustomTask {
	return CustomTask{
		ID:            dbTask.ID,
		Header:        dbTask.Header,
		Location:      dbTask.Location,
		Description:   dbTask.Description,
		CreatedBy:     dbTask.CreatedBy,
		AssignedUsers: DecodeUserList(dbTask.AssignedUsers),
		Status:        Status(dbTask.Status),
		Message:       messageRefFromColumns(dbTask.MessageID, dbTask.ChannelID),
		Version:       dbTask.Version,
	}
}

// ItemMapper handles conversion between domain and database Item models.
type ItemMapper struct{}

// NewItemMapper creates a new ItemMapper instance.
func NewItemMapper() *ItemMapper {
	return &ItemMapper{}
}

// ToDatabase converts a domain Item to a database Item.
func (m *ItemMapper) ToDatabase(domainItem Item) sqlite.Item {
	return sqlite.Item{
		ID:            domainItem.ID,
		Name:          domainItem.Name,
		Aliases:       JoinAliases(domainItem.Aliases),
		Facilities:    domainItem.Facilities,
		CanBeCrated:   domainItem.CanBeCrated,
		CanBePalleted: domainItem.CanBePalleted,
		CrateSize:     domainItem.CrateSize,
		PalletSize:    domainItem.PalletSize,
		ImageURL:      domainItem.ImageURL,
	}
}

// FromDatabase converts a database Item to a domain Item.
func (m *ItemMapper) FromDatabase(dbItem sqlite.Item) Item {
	return Item{
		ID:            dbItem.ID,
		Name:          dbItem.Name,
		Aliases:       NormalizeAliases(dbItem.Aliases),
		Facilities:    dbItem.Facilities,
		CanBeCrated:   dbItem.CanBeCrated,
		CanBePalleted: dbItem.CanBePalleted,
		CrateSize:     dbItem.CrateSize,
		PalletSize:    dbItem.PalletSize,
		ImageURL:      dbItem.ImageURL,
	}
}

// FacilityMapper handles conversion between domain and database Facility models.
type FacilityMapper struct{}

// NewFacilityMapper creates a new FacilityMapper instance.
func NewFacilityMapper() *FacilityMapper {
	return &FacilityMapper{}
}

// ToDatabase converts a domain Facility to a database Facility.
func (m *FacilityMapper) ToDatabase(domainFacility Facility) sqlite.Facility {
	return sqlite.Facility{
		ID:       domainFacility.ID,
		Name:     domainFacility.Name,
		Aliases:  JoinAliases(domainFacility.Aliases),
		Type:     domainFacility.Type,
		ImageURL: domainFacility.ImageURL,
	}
}

// FromDatabase converts a database Facility to a domain Facility.
func (m *FacilityMapper) FromDatabase(dbFacility sqlite.Facility) Facility {
	return Facility{
		ID:       dbFacility.ID,
		Name:     dbFacility.Name,
		Aliases:  NormalizeAliases(dbFacility.Aliases),
		Type:     dbFacility.Type,
		ImageURL: dbFacility.ImageURL,
	}
}

// StockpileMapper handles conversion between domain and database Stockpile models.
type StockpileMapper struct{}

// NewStockpileMapper creates a new StockpileMapper instance.
func NewStockpileMapper() *StockpileMapper {
	return &StockpileMapper{}
}

// ToDatabase converts a domain Stockpile to a database Stockpile.
func (m *StockpileMapper) ToDatabase(domainStockpile Stockpile) sqlite.Stockpile {
	return sqlite.Stockpile{
		ID:          domainStockpile.ID,
		Name:        domainStockpile.Name,
		Description: domainStockpile.Description,
		Location:    domainStockpile.Location,
		Passcode:    domainStockpile.Passcode,
	}
}

// FromDatabase converts a database Stockpile to a domain Stockpile.
func (m *StockpileMapper) FromDatabase(dbStockpile sqlite.Stockpile) Stockpile {
	return Stockpile{
		ID:          dbStockpile.ID,
		Name:        dbStockpile.Name,
		Description: dbStockpile.Description,
		Location:    dbStockpile.Location,
		Passcode:    dbStockpile.Passcode,
	}
}

// Mapper provides a unified interface for all mapping operations.
type Mapper struct {
	Task       *TaskMapper
	CustomTask *CustomTaskMapper
	Item       *ItemMapper
	Facility   *FacilityMapper
	Stockpile  *StockpileMapper
}

// NewMapper creates a new Mapper instance with all sub-mappers.
func NewMapper() *Mapper {
	return &Mapper{
		Task:       NewTaskMapper(),
		CustomTask: NewCustomTaskMapper(),
		Item:       NewItemMapper(),
		Facility:   NewFacilityMapper(),
		Stockpile:  NewStockpileMapper(),
	}
}

// EncodeUserList renders an assignment list to its JSON wire form.
func EncodeUserList(users []string) string {
	if users == nil {
		users = []string{}
	}
	encoded, err := json.Marshal(users)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

// DecodeUserList parses the JSON wire form of an assignment list. A blank
// or malformed column decodes to an empty list rather than failing the read.
func DecodeUserList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var users []string
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return []string{}
	}
	if users == nil {
		return []string{}
	}
	return users
}

func messageRefFromColumns(messageID, channelID *int64) *MessageRef {
	if messageID == nil || channelID == nil {
		return nil
	}
	return &MessageRef{MessageID: *messageID, ChannelID: *channelID}
}
