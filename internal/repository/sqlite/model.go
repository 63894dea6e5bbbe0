package sqlite

// Task is the database shape of a production task. AssignedUsers carries a
// JSON-encoded string list; decoding to the domain model happens in the
// domain mapper.
type Task struct {
	ID            int64
	MessageID     *int64 // Using pointers to allow NULL values
	ChannelID     *int64
	ItemID        int64
	Amount        int64
	CurrentAmount int64
	FacilityID    int64
	StockpileID   int64
	CreatedBy     string
	AssignedUsers string
	Thumbnail     string
	Status        string
	Version       int64

	// Joined display columns, populated by GetTask only.
	ItemName      string
	FacilityName  string
	StockpileName string
}

// CustomTask is the database shape of a freeform task.
type CustomTask struct {
	ID            int64
	MessageID     *int64
	ChannelID     *int64
	Header        string
	Location      string
	Description   string
	CreatedBy     string
	AssignedUsers string
	Status        string
	Version       int64
}

// TaskBinding is the minimal projection used by startup reconciliation.
type TaskBinding struct {
	ID        int64
	MessageID *int64
	ChannelID *int64
}

// Item is the database shape of a catalog item. Aliases is the
// comma-delimited alias set.
type Item struct {
	ID            int64
	Name          string
	Aliases       string
	Facilities    string
	CanBeCrated   string
	CanBePalleted string
	CrateSize     int64
	PalletSize    int64
	ImageURL      string
}

// Facility is the database shape of a production facility.
type Facility struct {
	ID       int64
	Name     string
	Aliases  string
	Type     string
	ImageURL string
}

// Stockpile is the database shape of a stockpile.
type Stockpile struct {
	ID          int64
	Name        string
	Description string
	Location    string
	Passcode    int64
}
