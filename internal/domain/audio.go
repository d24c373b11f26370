package domain

import (
	"crypto/rand"
	"database/sql"
	"encoding/base32"
	"encoding/json"
	"time"
)

type AudioStatus string

const (
	AudioStatusUploaded     AudioStatus = "uploaded"
	AudioStatusTranscribing AudioStatus = "transcribing"
	AudioStatusCompleted    AudioStatus = "completed"
	AudioStatusFailed       AudioStatus = "failed"
)

type AudioFile struct {
	ID           string          `json:"id"`
	Filename     string          `json:"filename"`
	OriginalName string          `json:"original_name"`
	Duration     sql.NullFloat64 `json:"-"`
	Status       AudioStatus     `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func NewAudioFile(filename, originalName string) *AudioFile {
	return &AudioFile{
		ID:           generateID(),
		Filename:     filename,
		OriginalName: originalName,
		Status:       AudioStatusUploaded,
		CreatedAt:    time.Now(),
	}
}

// DurationSeconds returns the probed duration, or 0 when unknown.
func (a *AudioFile) DurationSeconds() float64 {
	if a.Duration.Valid {
		return a.Duration.Float64
	}
	return 0
}

// MarshalJSON flattens the nullable duration into a plain seconds field.
func (a *AudioFile) MarshalJSON() ([]byte, error) {
	type alias AudioFile
	return json.Marshal(struct {
		*alias
		Duration float64 `json:"duration,omitempty"`
	}{(*alias)(a), a.DurationSeconds()})
}

func (a *AudioFile) IsTerminal() bool {
	return a.Status == AudioStatusCompleted || a.Status == AudioStatusFailed
}

func generateID() string {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base32.StdEncoding.EncodeToString(b)[:8]
}
