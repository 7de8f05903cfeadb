package knowledge

import (
	"context"

	"github.com/rs/zerolog/log"

	"nik-bot/internal/embedding"
	"nik-bot/internal/metrics"
)

// Default certainty floors, tuned against the live knowledge base. The
// assistant floor is relaxed relative to the user floor because the stored
// answer is only semantically close to the query, not a restatement of it.
const (
	DefaultUserCertainty      = 0.75
	DefaultAssistantCertainty = 0.70
)

// Lookup finds a stored assistant answer for a query by matching the query
// against prior user entries.
type Lookup struct {
	store              Store
	embed              embedding.Provider
	userCertainty      float64
	assistantCertainty float64
}

func NewLookup(store Store, embed embedding.Provider, userCertainty, assistantCertainty float64) *Lookup {
	if userCertainty == 0 {
		userCertainty = DefaultUserCertainty
	}
	if assistantCertainty == 0 {
		assistantCertainty = DefaultAssistantCertainty
	}
	return &Lookup{
		store:              store,
		embed:              embed,
		userCertainty:      userCertainty,
		assistantCertainty: assistantCertainty,
	}
}

// FindMostSimilar returns the stored assistant answer for the user entry most
// similar to query, if one clears the certainty floor. A returned error means
// the lookup itself failed (embedding provider or store); callers treat that
// as a miss but should log it.
//
// Resolution is two-phase: match the nearest user entry at the strict floor,
// then resolve its answer — by exact pair id when the record carries one,
// otherwise by re-running the vector search over assistant entries at the
// relaxed floor with the same query embedding.
func (l *Lookup) FindMostSimilar(ctx context.Context, query string) (string, bool, error) {
	vec, err := l.embed.Embed(ctx, query)
	if err != nil {
		metrics.EmbeddingErrors.Inc()
		return "", false, err
	}

	userRec, ok, err := l.store.NearestByRole(ctx, RoleUser, vec, l.userCertainty)
	if err != nil {
		metrics.StoreErrors.Inc()
		return "", false, err
	}
	if !ok {
		metrics.LookupMisses.Inc()
		return "", false, nil
	}

	if userRec.PairID != "" {
		answer, found, err := l.store.ByPair(ctx, userRec.PairID, RoleAssistant)
		if err != nil {
			// Fall through to the heuristic; the pair join is an
			// optimization, not a prerequisite.
			metrics.StoreErrors.Inc()
			log.Warn().Err(err).Str("pair_id", userRec.PairID).Msg("pair join failed, falling back to vector search")
		} else if found {
			metrics.LookupHits.Inc()
			return answer.Content, true, nil
		}
	}

	assistantRec, ok, err := l.store.NearestByRole(ctx, RoleAssistant, vec, l.assistantCertainty)
	if err != nil {
		metrics.StoreErrors.Inc()
		return "", false, err
	}
	if !ok {
		metrics.LookupMisses.Inc()
		return "", false, nil
	}

	metrics.LookupHits.Inc()
	return assistantRec.Content, true, nil
}
