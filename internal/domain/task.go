package domain

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusRunning Status = "running"
	StatusClosed  Status = "closed"
)

// CloseReason records why a task left the running state.
type CloseReason string

const (
	CloseCompleted CloseReason = "completed"
	CloseManual    CloseReason = "manual"
)

// MessageRef identifies the live rendered message for a task.
// A nil *MessageRef on a task means the task has not been rendered yet.
type MessageRef struct {
	MessageID int64
	ChannelID int64
}

// Task represents a production task: deliver Amount units of an item
// to a stockpile, produced at a facility.
type Task struct {
	ID            int64
	ItemID        int64
	Amount        int64
	CurrentAmount int64
	FacilityID    int64
	StockpileID   int64
	CreatedBy     string
	AssignedUsers []string
	Thumbnail     string
	Status        Status
	Message       *MessageRef
	Version       int64

	// Display names resolved by the joined task read.
	ItemName      string
	FacilityName  string
	StockpileName string
}

// TargetReached reports whether accumulated progress meets the target.
// Overshoot counts as reached; progress is never clamped.
func (t Task) TargetReached() bool {
	return t.CurrentAmount >= t.Amount
}

// IsAssigned reports whether the user is in the assignment list.
func (t Task) IsAssigned(userID string) bool {
	for _, u := range t.AssignedUsers {
		if u == userID {
			return true
		}
	}
	return false
}

// CustomTask represents a freeform task without a quantity dimension.
type CustomTask struct {
	ID            int64
	Header        string
	Location      string
	Description   string
	CreatedBy     string
	AssignedUsers []string
	Status        Status
	Message       *MessageRef
	Version       int64
}

// IsAssigned reports whether the user is in the assignment list.
func (t CustomTask) IsAssigned(userID string) bool {
	for _, u := range t.AssignedUsers {
		if u == userID {
			return true
		}
	}
	return false
}

// ToggleMember flips a user's membership in an assignment list. It returns
// the new list and whether the user was added. Order of the remaining
// entries is preserved and the result never contains duplicates.
func ToggleMember(users []string, userID string) ([]string, bool) {
	if containsMember(users, userID) {
		return RemoveMember(users, userID), false
	}
	return AddMember(users, userID), true
}

// AddMember appends a user to an assignment list unless already present.
func AddMember(users []string, userID string) []string {
	if containsMember(users, userID) {
		return users
	}
	out := make([]string, 0, len(users)+1)
	out = append(out, users...)
	return append(out, userID)
}

// RemoveMember removes a user from an assignment list, preserving the
// order of the remaining entries. Removing a non-member is a no-op.
func RemoveMember(users []string, userID string) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		if u != userID {
			out = append(out, u)
		}
	}
	return out
}

func containsMember(users []string, userID string) bool {
	for _, u := range users {
		if u == userID {
			return true
		}
	}
	return false
}
