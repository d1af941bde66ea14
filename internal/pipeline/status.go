// Package pipeline implements the five-phase research run: web search,
// social scraping, image analysis, data processing and recommendations.
// A Controller owns all mutable run state; the caller observes it through a
// single synchronous callback that receives immutable snapshots.
package pipeline

import "time"

// Phase identifies the pipeline's current stage. Idle means no run is in
// progress (including after completion or cancellation).
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseWebSearch       Phase = "webSearch"
	PhaseSocialScraping  Phase = "socialScraping"
	PhaseImageAnalysis   Phase = "imageAnalysis"
	PhaseDataProcessing  Phase = "dataProcessing"
	PhaseRecommendations Phase = "recommendations"
)

// workPhases is the execution order. Progress jumps to the checkpoint value
// when the phase completes, giving the observer a stable sense of advancement
// even when a phase is skipped for lack of credentials.
var workPhases = []struct {
	Phase      Phase
	Checkpoint int
}{
	{PhaseWebSearch, 30},
	{PhaseSocialScraping, 50},
	{PhaseImageAnalysis, 70},
	{PhaseDataProcessing, 85},
	{PhaseRecommendations, 100},
}

// SubState is a phase's own lifecycle, independent of the overall phase enum.
// A phase can be failed while the run still advances past it.
type SubState string

const (
	SubPending   SubState = "pending"
	SubRunning   SubState = "running"
	SubCompleted SubState = "completed"
	SubFailed    SubState = "failed"
)

// PhaseStatus is one phase's sub-status.
type PhaseStatus struct {
	State    SubState `json:"state"`
	Progress int      `json:"progress"` // 0..100 within the phase
	Message  string   `json:"message,omitempty"`
}

// Severity classifies run-log entries.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// LogEntry is one append-only run-log line. The run log is part of the
// user-facing run surface, distinct from operational slog output.
type LogEntry struct {
	Time     time.Time `json:"time"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// Status is a point-in-time snapshot of a run. The Controller is the only
// writer; observers receive deep copies and may retain them freely.
type Status struct {
	Phase      Phase                 `json:"phase"`
	Progress   int                   `json:"progress"` // 0..100 overall
	Phases     map[Phase]PhaseStatus `json:"phases"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt *time.Time            `json:"finished_at,omitempty"`
	Err        string                `json:"error,omitempty"`
	Log        []LogEntry            `json:"log"`
}

// Observer receives a snapshot after every status mutation. Invoked
// synchronously; keep it fast.
type Observer func(Status)

func newStatus() *Status {
	phases := make(map[Phase]PhaseStatus, len(workPhases))
	for _, p := range workPhases {
		phases[p.Phase] = PhaseStatus{State: SubPending}
	}
	return &Status{
		Phase:     PhaseIdle,
		Phases:    phases,
		StartedAt: time.Now(),
	}
}

// snapshot deep-copies the status so observers never share mutable state with
// the controller.
func (s *Status) snapshot() Status {
	out := *s
	out.Phases = make(map[Phase]PhaseStatus, len(s.Phases))
	for k, v := range s.Phases {
		out.Phases[k] = v
	}
	out.Log = append([]LogEntry(nil), s.Log...)
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		out.FinishedAt = &t
	}
	return out
}
