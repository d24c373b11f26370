package domain

import (
	"time"

	"github.com/google/uuid"
)

type JobStage string

const (
	StageTranscription      JobStage = "transcription"
	StageTranslation        JobStage = "translation"
	StageSubtitleGeneration JobStage = "subtitle_generation"
	StageCompleted          JobStage = "completed"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ProcessingJob tracks one pipeline run for an audio file. Progress is
// monotonically non-decreasing across the milestones 0, 50, 60, 80, 100.
type ProcessingJob struct {
	ID           string    `json:"id"`
	AudioFileID  string    `json:"audio_file_id"`
	Stage        JobStage  `json:"stage"`
	Progress     int       `json:"progress"`
	Status       JobStatus `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewProcessingJob(audioFileID string) *ProcessingJob {
	now := time.Now()
	return &ProcessingJob{
		ID:          uuid.NewString(),
		AudioFileID: audioFileID,
		Stage:       StageTranscription,
		Progress:    0,
		Status:      JobStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *ProcessingJob) IsActive() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusProcessing
}

// Advance moves the job forward, never letting progress decrease.
func (j *ProcessingJob) Advance(stage JobStage, progress int) {
	j.Stage = stage
	if progress > j.Progress {
		j.Progress = progress
	}
	j.Status = JobStatusProcessing
	j.UpdatedAt = time.Now()
}

func (j *ProcessingJob) MarkCompleted() {
	j.Stage = StageCompleted
	j.Progress = 100
	j.Status = JobStatusCompleted
	j.UpdatedAt = time.Now()
}

func (j *ProcessingJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now()
}
