package port

import "github.com/torisu/jimaku/internal/domain"

// Store is the narrow persistence contract consumed by the pipeline. Every
// mutation is a single atomic unit; implementations must be safe for
// concurrent use.
type Store interface {
	CreateAudioFile(a *domain.AudioFile) error
	GetAudioFile(id string) (*domain.AudioFile, error)
	UpdateAudioFileStatus(id string, status domain.AudioStatus, errMsg string) error
	UpdateAudioFileDuration(id string, seconds float64) error

	CreateSubtitle(s *domain.Subtitle) error
	ListSubtitlesByAudioFile(audioFileID string) ([]domain.Subtitle, error)

	CreateProcessingJob(j *domain.ProcessingJob) error
	GetProcessingJob(id string) (*domain.ProcessingJob, error)
	UpdateProcessingJob(j *domain.ProcessingJob) error
	ListActiveProcessingJobs() ([]*domain.ProcessingJob, error)
}
