package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/torisu/jimaku/internal/domain"
	"github.com/torisu/jimaku/internal/port"
	"github.com/torisu/jimaku/internal/retry"
)

// fakeStore is an in-memory Store that records every job update so tests can
// assert on the observed progress sequence.
type fakeStore struct {
	mu sync.Mutex

	audioFiles map[string]*domain.AudioFile
	jobs       map[string]*domain.ProcessingJob
	subtitles  []domain.Subtitle

	jobUpdates []domain.ProcessingJob

	createSubtitleErr func(s *domain.Subtitle) error
	updateAudioErr    error
	updateJobErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		audioFiles: make(map[string]*domain.AudioFile),
		jobs:       make(map[string]*domain.ProcessingJob),
	}
}

func (f *fakeStore) CreateAudioFile(a *domain.AudioFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *a
	f.audioFiles[a.ID] = &copied
	return nil
}

func (f *fakeStore) GetAudioFile(id string) (*domain.AudioFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.audioFiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeStore) UpdateAudioFileStatus(id string, status domain.AudioStatus, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateAudioErr != nil {
		return f.updateAudioErr
	}
	a, ok := f.audioFiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Status = status
	a.ErrorMessage = errMsg
	return nil
}

func (f *fakeStore) UpdateAudioFileDuration(id string, seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.audioFiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Duration.Float64 = seconds
	a.Duration.Valid = true
	return nil
}

func (f *fakeStore) CreateSubtitle(s *domain.Subtitle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createSubtitleErr != nil {
		if err := f.createSubtitleErr(s); err != nil {
			return err
		}
	}
	s.ID = int64(len(f.subtitles) + 1)
	f.subtitles = append(f.subtitles, *s)
	return nil
}

func (f *fakeStore) ListSubtitlesByAudioFile(audioFileID string) ([]domain.Subtitle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Subtitle
	for _, s := range f.subtitles {
		if s.AudioFileID == audioFileID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateProcessingJob(j *domain.ProcessingJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *j
	f.jobs[j.ID] = &copied
	return nil
}

func (f *fakeStore) GetProcessingJob(id string) (*domain.ProcessingJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *j
	return &copied, nil
}

func (f *fakeStore) UpdateProcessingJob(j *domain.ProcessingJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateJobErr != nil {
		return f.updateJobErr
	}
	copied := *j
	f.jobs[j.ID] = &copied
	f.jobUpdates = append(f.jobUpdates, copied)
	return nil
}

func (f *fakeStore) ListActiveProcessingJobs() ([]*domain.ProcessingJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ProcessingJob
	for _, j := range f.jobs {
		if j.IsActive() {
			copied := *j
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStore) progressSequence() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.jobUpdates))
	for i, j := range f.jobUpdates {
		out[i] = j.Progress
	}
	return out
}

var _ port.Store = (*fakeStore)(nil)

type fakeTranscriber struct {
	mu         sync.Mutex
	calls      int
	transcript *domain.Transcript
	err        error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename, language string) (*domain.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	copied := *f.transcript
	copied.Segments = append([]domain.Segment(nil), f.transcript.Segments...)
	return &copied, nil
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTranslator struct {
	mu      sync.Mutex
	calls   int
	failOn  map[string]bool
	failAll bool
}

func (f *fakeTranslator) Translate(ctx context.Context, text string) (domain.Translation, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failAll || f.failOn[text] {
		return domain.Translation{}, errors.New("translate failed")
	}
	return domain.Translation{
		SourceText:     text,
		TranslatedText: "EN:" + text,
		Confidence:     0.9,
	}, nil
}

func (f *fakeTranslator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// blockingTranscriber parks until released, for asserting non-blocking dispatch.
type blockingTranscriber struct {
	release chan struct{}
}

func (b *blockingTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename, language string) (*domain.Transcript, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &domain.Transcript{
		Text:     "テスト",
		Duration: 1,
		Segments: []domain.Segment{{StartMS: 0, EndMS: 1000, Text: "テスト"}},
	}, nil
}

// fastPolicy retries without really sleeping.
func fastPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.Sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return p
}
