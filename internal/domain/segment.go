package domain

// Segment is a transcribed, time-bounded span of source-language text.
// Offsets are milliseconds from the start of the audio.
type Segment struct {
	StartMS int64
	EndMS   int64
	Text    string
}

// Transcript is the normalized output of the transcription provider.
type Transcript struct {
	Text     string
	Duration float64 // seconds
	Segments []Segment
}

// Translation is the result of translating a single segment text.
type Translation struct {
	SourceText     string
	TranslatedText string
	Confidence     float64
}
