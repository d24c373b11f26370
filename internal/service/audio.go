package service

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/torisu/jimaku/internal/domain"
	"github.com/torisu/jimaku/internal/infrastructure/logger"
	"github.com/torisu/jimaku/internal/port"
)

// AudioService owns upload intake: it moves the uploaded file into place,
// records the audio file, and hands the pipeline its transient input.
type AudioService struct {
	store     port.Store
	prober    port.AudioProber
	pipeline  *Pipeline
	uploadDir string
}

func NewAudioService(store port.Store, prober port.AudioProber, pipeline *Pipeline, dataDir string) *AudioService {
	return &AudioService{
		store:     store,
		prober:    prober,
		pipeline:  pipeline,
		uploadDir: filepath.Join(dataDir, "uploads"),
	}
}

// Upload persists the audio file and starts its processing job. The job is
// returned immediately; the pipeline runs in the background.
func (s *AudioService) Upload(originalName string, file *os.File) (*domain.AudioFile, *domain.ProcessingJob, error) {
	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create upload directory: %w", err)
	}

	audio := domain.NewAudioFile("", originalName)
	storedName := audio.ID + filepath.Ext(originalName)
	audio.Filename = storedName

	uploadPath := filepath.Join(s.uploadDir, storedName)
	if err := os.Rename(file.Name(), uploadPath); err != nil {
		return nil, nil, fmt.Errorf("save upload: %w", err)
	}

	if s.prober != nil {
		if seconds, err := s.prober.Duration(uploadPath); err != nil {
			logger.Warn.Printf("duration probe failed for %s: %v", audio.ID, err)
		} else if seconds > 0 {
			audio.Duration.Float64 = seconds
			audio.Duration.Valid = true
		}
	}

	if err := s.store.CreateAudioFile(audio); err != nil {
		_ = os.Remove(uploadPath)
		return nil, nil, fmt.Errorf("save audio metadata: %w", err)
	}

	job, err := s.pipeline.Start(audio.ID, uploadPath)
	if err != nil {
		return nil, nil, fmt.Errorf("start processing: %w", err)
	}

	logger.Info.Printf("audio uploaded: id=%s name=%s job=%s", audio.ID, originalName, job.ID)
	return audio, job, nil
}

func (s *AudioService) Get(id string) (*domain.AudioFile, error) {
	return s.store.GetAudioFile(id)
}

func (s *AudioService) Subtitles(audioFileID string) ([]domain.Subtitle, error) {
	if _, err := s.store.GetAudioFile(audioFileID); err != nil {
		return nil, err
	}
	return s.store.ListSubtitlesByAudioFile(audioFileID)
}

func (s *AudioService) ActiveJobs() ([]*domain.ProcessingJob, error) {
	return s.store.ListActiveProcessingJobs()
}
