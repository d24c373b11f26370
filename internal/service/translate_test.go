package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torisu/jimaku/internal/domain"
)

func TestBatch_TranslatesInOrder(t *testing.T) {
	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("セグメント%d", i)
	}

	batch := NewBatch(&fakeTranslator{}, fastPolicy())
	results, err := batch.Translate(context.Background(), texts)

	require.NoError(t, err)
	require.Len(t, results, len(texts))
	for i, r := range results {
		assert.Equal(t, texts[i], r.SourceText)
		assert.Equal(t, "EN:"+texts[i], r.TranslatedText)
		assert.Greater(t, r.Confidence, 0.0)
	}
}

func TestBatch_SingleItemFallsBack(t *testing.T) {
	translator := &fakeTranslator{failOn: map[string]bool{"二": true}}
	batch := NewBatch(translator, fastPolicy())

	results, err := batch.Translate(context.Background(), []string{"一", "二", "三"})

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "EN:一", results[0].TranslatedText)
	assert.True(t, strings.HasPrefix(results[1].TranslatedText, FallbackMarker))
	assert.Contains(t, results[1].TranslatedText, "二", "fallback embeds the original text")
	assert.Zero(t, results[1].Confidence)
	assert.Equal(t, "EN:三", results[2].TranslatedText)
}

func TestBatch_FailedItemRetriesBeforeFallback(t *testing.T) {
	translator := &fakeTranslator{failOn: map[string]bool{"二": true}}
	batch := NewBatch(translator, fastPolicy())

	_, err := batch.Translate(context.Background(), []string{"一", "二"})
	require.NoError(t, err)

	// one success + three attempts on the failing item
	assert.Equal(t, 4, translator.callCount())
}

func TestBatch_AllItemsFail(t *testing.T) {
	batch := NewBatch(&fakeTranslator{failAll: true}, fastPolicy())

	_, err := batch.Translate(context.Background(), []string{"一", "二", "三"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Contains(t, err.Error(), "all 3 translations failed")
}

func TestBatch_EmptyInput(t *testing.T) {
	batch := NewBatch(&fakeTranslator{}, fastPolicy())

	_, err := batch.Translate(context.Background(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBatch_Translation(t *testing.T) {
	fb := fallbackTranslation("こんにちは")
	assert.Equal(t, "こんにちは", fb.SourceText)
	assert.Equal(t, "[翻訳失敗] こんにちは", fb.TranslatedText)
	assert.Zero(t, fb.Confidence)
}
