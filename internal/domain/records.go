package domain

import "time"

// UpdateType distinguishes incremental from full indexing runs.
type UpdateType string

const (
	UpdateTypeIncremental UpdateType = "INCREMENTAL"
	UpdateTypeFull        UpdateType = "FULL"
)

// RunResultStatus is the terminal outcome of a project indexer run.
type RunResultStatus string

const (
	RunResultOK          RunResultStatus = "OK"
	RunResultError       RunResultStatus = "ERROR"
	RunResultInterrupted RunResultStatus = "INTERRUPTED"
)

// WatermarkRecord is the persisted per-project, per-property watermark.
// Document id is "_" + PropertyName + "_" + ProjectKey.
type WatermarkRecord struct {
	ProjectKey   string `json:"projectKey"`
	PropertyName string `json:"propertyName"`
	Value        string `json:"value"` // RFC3339 timestamp
}

// ActivityLogRecord is the optional, per-run outcome record.
type ActivityLogRecord struct {
	ProjectKey    string          `json:"projectKey"`
	UpdateType    UpdateType      `json:"updateType"`
	Result        RunResultStatus `json:"result"`
	StartDate     time.Time       `json:"startDate"`
	TimeElapsedMs int64           `json:"timeElapsed"`
	IssuesUpdated int             `json:"issuesUpdated"`
	IssuesDeleted int             `json:"issuesDeleted"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
}

// IndexDocument is the flat document written to the search backend under id
// equal to the issue key.
type IndexDocument map[string]interface{}

// CommentDocument is the flat document written for a single comment when
// comment_mode is "child" or "standalone".
type CommentDocument map[string]interface{}
