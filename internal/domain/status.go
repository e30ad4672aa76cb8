package domain

import "strings"

// Status is a stage of the order fulfillment pipeline
type Status string

const (
	StatusPending    Status = "Pending"
	StatusVerifying  Status = "Verifying"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

var statuses = []Status{
	StatusPending,
	StatusVerifying,
	StatusProcessing,
	StatusShipped,
	StatusCompleted,
	StatusCancelled,
}

// Statuses returns every recognized status in pipeline order
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

// ParseStatus matches a requested status case-insensitively
func ParseStatus(value string) (Status, bool) {
	value = strings.TrimSpace(value)
	for _, s := range statuses {
		if strings.EqualFold(string(s), value) {
			return s, true
		}
	}
	return "", false
}

// IsTerminal reports whether the forward workflow ends at this status
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}
