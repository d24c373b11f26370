package domain

import "time"

// Subtitle is one persisted bilingual, time-aligned entry. EndMS is never
// less than StartMS.
type Subtitle struct {
	ID          int64     `json:"id"`
	AudioFileID string    `json:"audio_file_id"`
	StartMS     int64     `json:"start_ms"`
	EndMS       int64     `json:"end_ms"`
	SourceText  string    `json:"source_text"`
	TargetText  string    `json:"target_text"`
	CreatedAt   time.Time `json:"created_at"`
}
