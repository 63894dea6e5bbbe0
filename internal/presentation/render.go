package presentation

import (
	"fmt"
	"strings"

	"github.com/redsunink/veliankeeper/internal/domain"
)

// TaskFingerprint is the footer fragment that identifies a task's artifact.
// Reconciliation matches on it, so it must stay stable across renders.
func TaskFingerprint(taskID int64) string {
	return fmt.Sprintf("Task ID: %d", taskID)
}

// CustomTaskFingerprint is the footer fragment for custom task artifacts.
func CustomTaskFingerprint(taskID int64) string {
	return fmt.Sprintf("Custom Task ID: %d", taskID)
}

// FooterMatches reports whether a message footer carries the given
// fingerprint, either alone or followed by a quote separator.
func FooterMatches(footer, fingerprint string) bool {
	return footer == fingerprint || strings.HasPrefix(footer, fingerprint+" | ")
}

// BuildTaskArtifact renders a production task to its live artifact form.
func BuildTaskArtifact(task domain.Task, quote string) Artifact {
	footer := TaskFingerprint(task.ID)
	if quote != "" {
		footer += " | " + quote
	}
	return Artifact{
		Title:       fmt.Sprintf("Task: %d x %s to %s", task.Amount, task.ItemName, task.StockpileName),
		Description: fmt.Sprintf("Task created by <@%s>", task.CreatedBy),
		Color:       ColorRunning,
		Fields: []Field{
			{Name: "Status", Value: capitalize(string(task.Status)), Inline: true},
			{Name: "Progress", Value: fmt.Sprintf("%d / %d", task.CurrentAmount, task.Amount), Inline: true},
			{Name: "Facility", Value: task.FacilityName, Inline: true},
			{Name: "Stockpile", Value: task.StockpileName, Inline: true},
			{Name: "Assigned Users", Value: formatAssignedUsers(task.AssignedUsers), Inline: false},
		},
		Thumbnail: task.Thumbnail,
		Footer:    footer,
	}
}

// BuildArchiveArtifact renders the terminal artifact posted to the archive
// channel when a task closes.
func BuildArchiveArtifact(task domain.Task, reason domain.CloseReason, quote string) Artifact {
	artifact := BuildTaskArtifact(task, quote)
	switch reason {
	case domain.CloseCompleted:
		artifact.Color = ColorCompleted
		artifact.Fields = append(artifact.Fields, Field{Name: "Status", Value: "Completed", Inline: false})
	default:
		artifact.Color = ColorClosed
		artifact.Fields = append(artifact.Fields, Field{Name: "Status", Value: "Closed", Inline: false})
	}
	return artifact
}

// BuildCustomTaskArtifact renders a custom task to its live artifact form.
func BuildCustomTaskArtifact(task domain.CustomTask) Artifact {
	return Artifact{
		Title:       fmt.Sprintf("Task: %s", task.Header),
		Description: fmt.Sprintf("Task created by <@%s>", task.CreatedBy),
		Color:       ColorRunning,
		Fields: []Field{
			{Name: "Description", Value: task.Description, Inline: false},
			{Name: "Location", Value: task.Location, Inline: false},
			{Name: "Assigned Users", Value: formatAssignedUsers(task.AssignedUsers), Inline: false},
		},
		Footer: CustomTaskFingerprint(task.ID),
	}
}

func formatAssignedUsers(users []string) string {
	if len(users) == 0 {
		return "None"
	}
	mentions := make([]string, len(users))
	for i, u := range users {
		mentions[i] = fmt.Sprintf("<@%s>", u)
	}
	return strings.Join(mentions, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
