package port

import (
	"context"
	"io"

	"github.com/torisu/jimaku/internal/domain"
)

// Transcriber converts speech audio to timed source-language text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename, language string) (*domain.Transcript, error)
}
