package model

// Voice types offered by the speech synthesizer
type VoiceType string

const (
	VoiceAlloy   VoiceType = "alloy"
	VoiceShimmer VoiceType = "shimmer"
	VoiceNova    VoiceType = "nova"
	VoiceEcho    VoiceType = "echo"
	VoiceFable   VoiceType = "fable"
	VoiceOnyx    VoiceType = "onyx"
)

var ValidVoices = []VoiceType{
	VoiceAlloy, VoiceShimmer, VoiceNova, VoiceEcho, VoiceFable, VoiceOnyx,
}

// IsValid reports whether v belongs to the closed voice set.
func (v VoiceType) IsValid() bool {
	for _, valid := range ValidVoices {
		if v == valid {
			return true
		}
	}
	return false
}

// Job status
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether no further updates are expected for the job
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// Submission states of a draft
type SubmissionState string

const (
	SubmissionIdle       SubmissionState = "idle"
	SubmissionSubmitting SubmissionState = "submitting"
)

// Notification severities
type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)
