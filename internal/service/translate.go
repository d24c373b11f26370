package service

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/torisu/jimaku/internal/domain"
	"github.com/torisu/jimaku/internal/infrastructure/logger"
	"github.com/torisu/jimaku/internal/port"
	"github.com/torisu/jimaku/internal/retry"
)

// FallbackMarker prefixes the source text when one item permanently fails,
// keeping the result array aligned with the input.
const FallbackMarker = "[翻訳失敗]"

// maxConcurrentTranslations bounds the per-segment fan-out.
const maxConcurrentTranslations = 4

// Batch translates texts independently and concurrently, one result per
// input in input order. An item that still fails after retries is replaced
// with a confidence-0 fallback carrying the original text; the batch as a
// whole fails only when zero items succeeded.
type Batch struct {
	translator port.Translator
	policy     retry.Policy
}

func NewBatch(translator port.Translator, policy retry.Policy) *Batch {
	return &Batch{
		translator: translator,
		policy:     policy,
	}
}

func (b *Batch) Translate(ctx context.Context, texts []string) ([]domain.Translation, error) {
	if len(texts) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "translation", "no texts to translate", nil)
	}

	results := make([]domain.Translation, len(texts))
	itemErrs := make([]error, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTranslations)

	for i, text := range texts {
		g.Go(func() error {
			translation, err := retry.Do(gctx, b.policy, func(ctx context.Context) (domain.Translation, error) {
				return b.translator.Translate(ctx, text)
			})
			if err != nil {
				logger.Warn.Printf("translation fell back for segment %d: %v", i, err)
				itemErrs[i] = err
				results[i] = fallbackTranslation(text)
				return nil
			}
			translation.SourceText = text
			results[i] = translation
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if succeeded(results) == 0 {
		return nil, domain.WrapError(domain.ErrProvider, "translation",
			fmt.Sprintf("all %d translations failed", len(texts)), multierr.Combine(itemErrs...))
	}

	return results, nil
}

func fallbackTranslation(text string) domain.Translation {
	return domain.Translation{
		SourceText:     text,
		TranslatedText: fmt.Sprintf("%s %s", FallbackMarker, text),
		Confidence:     0,
	}
}

func succeeded(results []domain.Translation) int {
	count := 0
	for _, r := range results {
		if r.Confidence > 0 {
			count++
		}
	}
	return count
}
