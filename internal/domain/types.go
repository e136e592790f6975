package domain

// RecordingState models the capture lifecycle of one session.
type RecordingState string

const (
	RecordingStateIdle      RecordingState = "idle"
	RecordingStateRecording RecordingState = "recording"
	RecordingStateStopped   RecordingState = "stopped"
)

// JobState tracks one remote transcription job.
type JobState string

const (
	JobStateSubmitting JobState = "submitting"
	JobStateQueued     JobState = "queued"
	JobStateProcessing JobState = "processing"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

// Terminal reports whether a job state permits no further transitions.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// Word is one transcribed word with millisecond timing.
type Word struct {
	Text       string  `json:"text"`
	StartMs    int     `json:"startMs"`
	EndMs      int     `json:"endMs"`
	Speaker    string  `json:"speaker"`
	Confidence float64 `json:"confidence"`
}

// Utterance is one contiguous block of speech from a single speaker.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Words   []Word `json:"words"`
}

// Chapter is a synthesized summary segment spanning a time range.
type Chapter struct {
	Summary  string `json:"summary"`
	Headline string `json:"headline"`
	Gist     string `json:"gist"`
	StartMs  int    `json:"startMs"`
	EndMs    int    `json:"endMs"`
}

// Transcript is the completed output of one transcription job.
type Transcript struct {
	Utterances []Utterance `json:"utterances"`
	Chapters   []Chapter   `json:"chapters,omitempty"`
}

// TranscriptionJob is the pipeline-owned record of one remote job. A fresh
// value is created per submission and discarded when a new recording begins;
// it is never shared as ambient state.
type TranscriptionJob struct {
	ID           string     `json:"id"`
	State        JobState   `json:"state"`
	Transcript   Transcript `json:"transcript"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

// Recording is the finalized artifact of one capture session. Audio is
// immutable once the session stops; a new recording replaces it wholesale.
type Recording struct {
	SessionID       string `json:"sessionId"`
	Audio           []byte `json:"-"`
	DurationSeconds int    `json:"durationSeconds"`
	SizeBytes       int    `json:"sizeBytes"`
}

// PipelineStatus summarizes the backend for the UI.
type PipelineStatus struct {
	Recording RecordingState `json:"recording"`
	JobID     string         `json:"jobId,omitempty"`
	JobState  JobState       `json:"jobState,omitempty"`
	WordCount int            `json:"wordCount"`
}

// NoActiveWord is the active word index before any word has matched.
const NoActiveWord = -1
