package jobs

import "time"

// Kind names the capability a job ran.
type Kind string

const (
	KindDownload      Kind = "download"
	KindTranscribe    Kind = "transcribe"
	KindBootAnimation Kind = "bootanimation"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is one ledger row.
type Record struct {
	ID           string     `json:"id"`
	Kind         Kind       `json:"kind"`
	Status       Status     `json:"status"`
	Source       string     `json:"source,omitempty"`
	Artifact     string     `json:"artifact,omitempty"`
	Detail       string     `json:"detail,omitempty"`
	ErrorMessage string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Duration reports how long a finished job ran.
func (r Record) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.CreatedAt)
}

// ParseKind reports whether s names a known kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindDownload, KindTranscribe, KindBootAnimation:
		return k, true
	default:
		return "", false
	}
}

// Filter narrows List results.
type Filter struct {
	Kinds []Kind
	Limit int
}
