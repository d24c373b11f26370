package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/torisu/jimaku/internal/domain"
	"github.com/torisu/jimaku/internal/infrastructure/logger"
	"github.com/torisu/jimaku/internal/port"
	"github.com/torisu/jimaku/internal/retry"
)

// Progress milestones for a successful run.
const (
	progressStarted     = 0
	progressTranscribed = 50
	progressTranslating = 60
	progressAssembling  = 80
	progressDone        = 100
)

// Pipeline drives one audio file through transcription, translation and
// subtitle assembly, persisting job state and broadcasting status at each
// milestone. Runs are submitted to the runner so the caller never blocks.
type Pipeline struct {
	store       port.Store
	transcriber port.Transcriber
	batch       *Batch
	hub         *Hub
	runner      *Runner
	policy      retry.Policy
	sourceLang  string
}

func NewPipeline(
	store port.Store,
	transcriber port.Transcriber,
	translator port.Translator,
	hub *Hub,
	runner *Runner,
	policy retry.Policy,
	sourceLang string,
) *Pipeline {
	return &Pipeline{
		store:       store,
		transcriber: transcriber,
		batch:       NewBatch(translator, policy),
		hub:         hub,
		runner:      runner,
		policy:      policy,
		sourceLang:  sourceLang,
	}
}

// Start creates the processing job and schedules the run, returning the job
// immediately.
func (p *Pipeline) Start(audioFileID, path string) (*domain.ProcessingJob, error) {
	job := domain.NewProcessingJob(audioFileID)
	if err := p.store.CreateProcessingJob(job); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "pipeline", "create job", err)
	}

	if err := p.runner.Submit(func(ctx context.Context) {
		p.run(ctx, job, path)
	}); err != nil {
		p.fail(job, path, fmt.Errorf("schedule pipeline run: %w", err))
		return nil, err
	}

	return job, nil
}

func (p *Pipeline) run(ctx context.Context, job *domain.ProcessingJob, path string) {
	defer func() {
		if rec := recover(); rec != nil {
			p.fail(job, path, fmt.Errorf("pipeline panicked: %v", rec))
		}
	}()

	logger.Info.Printf("pipeline started: job=%s audio=%s", job.ID, job.AudioFileID)

	if err := p.advance(job, domain.StageTranscription, progressStarted); err != nil {
		p.fail(job, path, err)
		return
	}

	transcript, err := p.transcribe(ctx, path)
	if err != nil {
		p.fail(job, path, err)
		return
	}

	if err := p.store.UpdateAudioFileStatus(job.AudioFileID, domain.AudioStatusTranscribing, ""); err != nil {
		p.fail(job, path, domain.WrapError(domain.ErrPersistence, "transcription", "update audio status", err))
		return
	}
	if transcript.Duration > 0 {
		if err := p.store.UpdateAudioFileDuration(job.AudioFileID, transcript.Duration); err != nil {
			logger.Warn.Printf("failed to record duration for %s: %v", job.AudioFileID, err)
		}
	}
	if err := p.advance(job, domain.StageTranscription, progressTranscribed); err != nil {
		p.fail(job, path, err)
		return
	}

	if err := p.advance(job, domain.StageTranslation, progressTranslating); err != nil {
		p.fail(job, path, err)
		return
	}

	texts := make([]string, len(transcript.Segments))
	for i, seg := range transcript.Segments {
		texts[i] = seg.Text
	}
	translations, err := p.batch.Translate(ctx, texts)
	if err != nil {
		p.fail(job, path, err)
		return
	}

	if err := p.advance(job, domain.StageSubtitleGeneration, progressAssembling); err != nil {
		p.fail(job, path, err)
		return
	}

	created := p.assemble(job.AudioFileID, transcript.Segments, translations)
	logger.Info.Printf("assembled %d subtitles for %s", created, job.AudioFileID)

	if err := p.complete(job); err != nil {
		p.fail(job, path, err)
		return
	}
	p.removeTransient(path)
}

// transcribe invokes the provider under the retry policy and guarantees the
// result carries at least one segment.
func (p *Pipeline) transcribe(ctx context.Context, path string) (*domain.Transcript, error) {
	transcript, err := retry.Do(ctx, p.policy, func(ctx context.Context) (*domain.Transcript, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, domain.WrapError(domain.ErrValidation, "transcription", "open audio file", err)
		}
		defer func() { _ = f.Close() }()
		return p.transcriber.Transcribe(ctx, f, f.Name(), p.sourceLang)
	})
	if err != nil {
		return nil, err
	}

	if len(transcript.Segments) == 0 {
		// Provider returned no timed segments; downstream stages always
		// operate over segments, so span the whole file.
		transcript.Segments = []domain.Segment{{
			StartMS: 0,
			EndMS:   int64(transcript.Duration * 1000),
			Text:    transcript.Text,
		}}
	}
	return transcript, nil
}

const placeholderText = "..."

// assemble persists one subtitle per aligned (segment, translation) pair.
// A failed insert is logged and skipped; it never aborts the rest.
func (p *Pipeline) assemble(audioFileID string, segments []domain.Segment, translations []domain.Translation) int {
	n := min(len(segments), len(translations))
	created := 0
	for i := 0; i < n; i++ {
		sub := buildSubtitle(audioFileID, segments[i], translations[i])
		if err := p.store.CreateSubtitle(&sub); err != nil {
			wrapped := domain.WrapError(domain.ErrAssembly, "subtitle_generation",
				fmt.Sprintf("persist subtitle %d", i+1), err)
			logger.Error.Printf("%v", wrapped)
			continue
		}
		created++
	}
	return created
}

// buildSubtitle clamps timing so end >= start >= 0 even with malformed
// provider output, and never persists empty text fields.
func buildSubtitle(audioFileID string, seg domain.Segment, tr domain.Translation) domain.Subtitle {
	start := seg.StartMS
	if start < 0 {
		start = 0
	}
	end := seg.EndMS
	if end < seg.StartMS {
		end = seg.StartMS
	}
	if end < start {
		end = start
	}

	source := seg.Text
	if source == "" {
		source = placeholderText
	}
	target := tr.TranslatedText
	if target == "" {
		target = placeholderText
	}

	return domain.Subtitle{
		AudioFileID: audioFileID,
		StartMS:     start,
		EndMS:       end,
		SourceText:  source,
		TargetText:  target,
	}
}

func (p *Pipeline) advance(job *domain.ProcessingJob, stage domain.JobStage, progress int) error {
	job.Advance(stage, progress)
	if err := p.store.UpdateProcessingJob(job); err != nil {
		return domain.WrapError(domain.ErrPersistence, string(stage), "update job", err)
	}
	p.hub.Broadcast(Event{
		Type:        EventProcessingUpdate,
		AudioFileID: job.AudioFileID,
		Stage:       job.Stage,
		Progress:    job.Progress,
		Status:      job.Status,
	})
	return nil
}

func (p *Pipeline) complete(job *domain.ProcessingJob) error {
	if err := p.store.UpdateAudioFileStatus(job.AudioFileID, domain.AudioStatusCompleted, ""); err != nil {
		return domain.WrapError(domain.ErrPersistence, "pipeline", "mark audio completed", err)
	}
	job.MarkCompleted()
	if err := p.store.UpdateProcessingJob(job); err != nil {
		return domain.WrapError(domain.ErrPersistence, "pipeline", "mark job completed", err)
	}
	p.hub.Broadcast(Event{
		Type:        EventProcessingComplete,
		AudioFileID: job.AudioFileID,
		Stage:       job.Stage,
		Progress:    job.Progress,
		Status:      job.Status,
	})
	logger.Info.Printf("pipeline completed: job=%s audio=%s", job.ID, job.AudioFileID)
	return nil
}

// fail reports a terminal failure through four independent actions. Each is
// guarded so that one failing (an unreachable store, a vanished file) never
// prevents the others, and nothing here masks the original error.
func (p *Pipeline) fail(job *domain.ProcessingJob, path string, cause error) {
	msg := failureMessage(cause)
	logger.Error.Printf("pipeline failed: job=%s audio=%s: %v", job.ID, job.AudioFileID, cause)

	if err := p.store.UpdateAudioFileStatus(job.AudioFileID, domain.AudioStatusFailed, msg); err != nil {
		logger.Error.Printf("failed to mark audio file failed: %v", err)
	}

	job.MarkFailed(msg)
	if err := p.store.UpdateProcessingJob(job); err != nil {
		logger.Error.Printf("failed to persist job failure: %v", err)
	}

	p.hub.Broadcast(Event{
		Type:        EventProcessingError,
		AudioFileID: job.AudioFileID,
		Stage:       job.Stage,
		Progress:    job.Progress,
		Status:      domain.JobStatusFailed,
		Error:       msg,
	})

	p.removeTransient(path)
}

func (p *Pipeline) removeTransient(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn.Printf("failed to remove transient file %s: %v", path, err)
	}
}

func failureMessage(err error) string {
	if err == nil {
		return "processing failed"
	}
	return err.Error()
}
