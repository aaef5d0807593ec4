package model

// Resolution types
type Resolution string

const (
	Resolution480p Resolution = "480p"
	Resolution580p Resolution = "580p"
	Resolution720p Resolution = "720p"
)

// DefaultResolution is what a fresh job starts with.
const DefaultResolution = Resolution480p

var ValidResolutions = []Resolution{
	Resolution480p, Resolution580p, Resolution720p,
}

// ParseResolution reports whether s names one of the supported resolutions.
func ParseResolution(s string) (Resolution, bool) {
	for _, r := range ValidResolutions {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Job status
type JobStatus string

const (
	JobStatusIdle       JobStatus = "idle"
	JobStatusUploaded   JobStatus = "uploaded"
	JobStatusProcessing JobStatus = "processing"
	JobStatusSuccess    JobStatus = "success"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal returns true once a generation attempt has settled.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}

// Provider queue statuses
const (
	QueueStatusInQueue    = "IN_QUEUE"
	QueueStatusInProgress = "IN_PROGRESS"
	QueueStatusCompleted  = "COMPLETED"
)
