package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torisu/jimaku/internal/domain"
)

type fakeProber struct {
	seconds float64
	err     error
}

func (f *fakeProber) Duration(path string) (float64, error) {
	return f.seconds, f.err
}

func newUploadFixture(t *testing.T, prober *fakeProber) (*AudioService, *fakeStore, string) {
	t.Helper()
	store := newFakeStore()
	runner := NewRunner(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	runner.Start(ctx)

	transcriber := &fakeTranscriber{transcript: &domain.Transcript{
		Text: "テスト", Duration: 1,
		Segments: []domain.Segment{{StartMS: 0, EndMS: 1000, Text: "テスト"}},
	}}
	pipeline := NewPipeline(store, transcriber, &fakeTranslator{}, NewHub(), runner, fastPolicy(), "ja")

	dataDir := t.TempDir()
	return NewAudioService(store, prober, pipeline, dataDir), store, dataDir
}

func newTempUpload(t *testing.T) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "upload_*.mp3")
	require.NoError(t, err)
	_, err = f.WriteString("fake audio bytes")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f
}

func TestAudioService_Upload(t *testing.T) {
	svc, store, dataDir := newUploadFixture(t, &fakeProber{seconds: 4.2})

	audio, job, err := svc.Upload("interview.mp3", newTempUpload(t))
	require.NoError(t, err)
	require.NotNil(t, audio)
	require.NotNil(t, job)

	assert.Equal(t, "interview.mp3", audio.OriginalName)
	assert.Equal(t, audio.ID+".mp3", audio.Filename)
	assert.InDelta(t, 4.2, audio.DurationSeconds(), 0.001)
	assert.Equal(t, audio.ID, job.AudioFileID)

	stored, err := store.GetAudioFile(audio.ID)
	require.NoError(t, err)
	assert.Equal(t, audio.ID, stored.ID)

	// The pipeline owns the transient file from here; give it a moment.
	assert.Eventually(t, func() bool {
		j, err := store.GetProcessingJob(job.ID)
		return err == nil && j.Status == domain.JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	_, err = os.Stat(filepath.Join(dataDir, "uploads", audio.Filename))
	assert.True(t, os.IsNotExist(err))
}

func TestAudioService_Upload_ProbeFailureIsNotFatal(t *testing.T) {
	svc, _, _ := newUploadFixture(t, &fakeProber{err: os.ErrNotExist})

	audio, _, err := svc.Upload("talk.wav", newTempUpload(t))
	require.NoError(t, err)
	assert.False(t, audio.Duration.Valid)
}

func TestAudioService_Upload_MissingSourceFile(t *testing.T) {
	svc, _, _ := newUploadFixture(t, &fakeProber{})

	f := newTempUpload(t)
	require.NoError(t, os.Remove(f.Name()))

	_, _, err := svc.Upload("gone.mp3", f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save upload")
}
