package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ArtifactStatus enumerates the lifecycle states of a generated artifact.
type ArtifactStatus string

const (
	StatusPending   ArtifactStatus = "pending"
	StatusFailed    ArtifactStatus = "failed"
	StatusReady     ArtifactStatus = "ready"
	StatusScheduled ArtifactStatus = "scheduled"
	StatusDiscarded ArtifactStatus = "discarded"
)

// InitHandlePrefix marks a placeholder render handle written at artifact
// creation time, before the real render has been dispatched. Pollers must
// never forward an init handle to the external render service.
const InitHandlePrefix = "init"

// failedReasonLimit bounds the failure reason stored in the encoded state.
const failedReasonLimit = 120

// ArtifactState is the tagged union behind the legacy prefix-encoded string
// field. Exactly one branch is meaningful per status.
type ArtifactState struct {
	Status      ArtifactStatus
	Handle      string    // StatusPending
	Reason      string    // StatusFailed
	URL         string    // StatusReady
	ScheduledAt time.Time // StatusScheduled
}

// PendingState returns a pending state carrying the render handle.
func PendingState(handle string) ArtifactState {
	return ArtifactState{Status: StatusPending, Handle: handle}
}

// FailedState returns a failed state, truncating the reason for storage.
// Truncation lands on a rune boundary so the encoded state stays valid
// UTF-8.
func FailedState(reason string) ArtifactState {
	reason = strings.TrimSpace(reason)
	if len(reason) > failedReasonLimit {
		cut := failedReasonLimit
		for cut > 0 && !utf8.RuneStart(reason[cut]) {
			cut--
		}
		reason = reason[:cut]
	}
	return ArtifactState{Status: StatusFailed, Reason: reason}
}

// ReadyState returns a ready state carrying the final asset URL.
func ReadyState(url string) ArtifactState {
	return ArtifactState{Status: StatusReady, URL: url}
}

// ScheduledState returns a scheduled state.
func ScheduledState(at time.Time) ArtifactState {
	return ArtifactState{Status: StatusScheduled, ScheduledAt: at.UTC()}
}

// DiscardedState returns a discarded state.
func DiscardedState() ArtifactState {
	return ArtifactState{Status: StatusDiscarded}
}

// IsInitHandle reports whether the handle is a not-yet-dispatched placeholder.
func IsInitHandle(handle string) bool {
	return strings.HasPrefix(handle, InitHandlePrefix)
}

// Encode serializes the state into the single URL-like string field. The
// format is compatible with previously stored records: "pending:<handle>",
// "failed:<reason>", "scheduled:<rfc3339>", "discarded:" and a bare URL for
// ready artifacts.
func (s ArtifactState) Encode() string {
	switch s.Status {
	case StatusPending:
		return "pending:" + s.Handle
	case StatusFailed:
		return "failed:" + s.Reason
	case StatusScheduled:
		return "scheduled:" + s.ScheduledAt.Format(time.RFC3339)
	case StatusDiscarded:
		return "discarded:"
	case StatusReady:
		return s.URL
	default:
		return "failed:unknown state"
	}
}

// DecodeState reconstructs the state purely from the string's prefix. Any
// string without a recognized prefix is treated as a ready URL.
func DecodeState(encoded string) ArtifactState {
	switch {
	case strings.HasPrefix(encoded, "pending:"):
		return PendingState(strings.TrimPrefix(encoded, "pending:"))
	case strings.HasPrefix(encoded, "failed:"):
		return ArtifactState{Status: StatusFailed, Reason: strings.TrimPrefix(encoded, "failed:")}
	case strings.HasPrefix(encoded, "scheduled:"):
		raw := strings.TrimPrefix(encoded, "scheduled:")
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return FailedState(fmt.Sprintf("bad schedule timestamp %q", raw))
		}
		return ScheduledState(at)
	case strings.HasPrefix(encoded, "discarded:"):
		return DiscardedState()
	default:
		return ReadyState(encoded)
	}
}

// Terminal reports whether no further lifecycle transition is expected.
func (s ArtifactState) Terminal() bool {
	return s.Status != StatusPending
}

// Artifact is a persisted record representing one generated reel or post.
type Artifact struct {
	ID         string
	BusinessID string
	Type       ArtifactType
	State      ArtifactState
	MediaIDs   []string
	TraceID    string
	Feedback   *float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
