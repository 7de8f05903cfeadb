package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"nik-bot/internal/embedding"
	"nik-bot/internal/metrics"
)

// Writer creates records, attaching embeddings to user entries at write time.
// Embeddings are computed exactly once; stored records are never re-embedded.
type Writer struct {
	store Store
	embed embedding.Provider
	clock func() time.Time
}

func NewWriter(store Store, embed embedding.Provider) *Writer {
	return &Writer{store: store, embed: embed, clock: time.Now}
}

// SaveEntry stores a single conversation entry. Empty content is skipped
// rather than stored.
func (w *Writer) SaveEntry(ctx context.Context, role, content, sourceTag string) error {
	rec, err := w.newRecord(ctx, role, content, sourceTag)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	if err := w.store.Save(ctx, *rec); err != nil {
		return err
	}
	metrics.RecordsStored.Inc()
	return nil
}

// SaveExchange stores a question/answer pair under a shared pair id, so a
// later lookup can resolve the answer with an exact join instead of a second
// vector search.
func (w *Writer) SaveExchange(ctx context.Context, question, answer, sourceTag string) error {
	q, err := w.newRecord(ctx, RoleUser, question, sourceTag)
	if err != nil {
		return err
	}
	a, err := w.newRecord(ctx, RoleAssistant, answer, sourceTag)
	if err != nil {
		return err
	}
	if q == nil || a == nil {
		return nil
	}

	pairID := uuid.NewString()
	q.PairID = pairID
	a.PairID = pairID

	if err := w.store.Save(ctx, *q); err != nil {
		return err
	}
	metrics.RecordsStored.Inc()
	if err := w.store.Save(ctx, *a); err != nil {
		return fmt.Errorf("answer save after question save: %w", err)
	}
	metrics.RecordsStored.Inc()
	return nil
}

func (w *Writer) newRecord(ctx context.Context, role, content, sourceTag string) (*Record, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		log.Warn().Str("role", role).Msg("empty content, skipping storage")
		return nil, nil
	}

	rec := &Record{
		Role:      role,
		Content:   content,
		Timestamp: w.clock(),
		MessageID: uuid.NewString(),
		SourceTag: sourceTag,
	}
	if role == RoleUser {
		vec, err := w.embed.Embed(ctx, content)
		if err != nil {
			metrics.EmbeddingErrors.Inc()
			return nil, err
		}
		rec.Embedding = vec
	}
	return rec, nil
}
