package port

import (
	"context"

	"github.com/torisu/jimaku/internal/domain"
)

// Translator converts a single source-language text to the target language.
type Translator interface {
	Translate(ctx context.Context, text string) (domain.Translation, error)
}
