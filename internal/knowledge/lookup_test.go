package knowledge

import (
	"context"
	"errors"
	"testing"

	"nik-bot/internal/embedding"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

type simEntry struct {
	rec Record
	sim float64
}

type fakeStore struct {
	entries    []simEntry
	nearestErr error
	pairErr    error
}

func (s *fakeStore) Save(_ context.Context, rec Record) error {
	s.entries = append(s.entries, simEntry{rec: rec})
	return nil
}

func (s *fakeStore) NearestByRole(_ context.Context, role string, _ []float32, minCertainty float64) (Record, bool, error) {
	if s.nearestErr != nil {
		return Record{}, false, s.nearestErr
	}
	best := -1
	for i, e := range s.entries {
		if e.rec.Role != role || e.sim < minCertainty {
			continue
		}
		if best < 0 || e.sim > s.entries[best].sim {
			best = i
		}
	}
	if best < 0 {
		return Record{}, false, nil
	}
	return s.entries[best].rec, true, nil
}

func (s *fakeStore) ByPair(_ context.Context, pairID, role string) (Record, bool, error) {
	if s.pairErr != nil {
		return Record{}, false, s.pairErr
	}
	for _, e := range s.entries {
		if e.rec.PairID == pairID && e.rec.Role == role {
			return e.rec, true, nil
		}
	}
	return Record{}, false, nil
}

func (s *fakeStore) DeleteByContent(_ context.Context, content string) (int64, error) {
	var kept []simEntry
	var removed int64
	for _, e := range s.entries {
		if e.rec.Content == content {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed, nil
}

func (s *fakeStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.entries)), nil
}

func (s *fakeStore) ExportAll(_ context.Context, limit int) ([]Record, error) {
	var out []Record
	for _, e := range s.entries {
		if len(out) == limit {
			break
		}
		out = append(out, e.rec)
	}
	return out, nil
}

func newTestLookup(store Store) *Lookup {
	return NewLookup(store, &fakeEmbedder{vec: []float32{0.1, 0.2}}, 0.75, 0.70)
}

func TestThresholdBoundary(t *testing.T) {
	cases := []struct {
		name    string
		userSim float64
		wantHit bool
	}{
		{"just below floor", 0.749, false},
		{"exactly at floor", 0.75, true},
		{"just above floor", 0.751, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{entries: []simEntry{
				{rec: Record{Role: RoleUser, Content: "how much does it cost?"}, sim: tc.userSim},
				{rec: Record{Role: RoleAssistant, Content: "it costs $10"}, sim: 0.72},
			}}
			_, ok, err := newTestLookup(store).FindMostSimilar(context.Background(), "pricing?")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tc.wantHit {
				t.Fatalf("sim=%v: hit=%v, want %v", tc.userSim, ok, tc.wantHit)
			}
		})
	}
}

func TestPairingHeuristic(t *testing.T) {
	// Query close to both records: the assistant answer comes back.
	store := &fakeStore{entries: []simEntry{
		{rec: Record{Role: RoleUser, Content: "how much does it cost?"}, sim: 0.80},
		{rec: Record{Role: RoleAssistant, Content: "Our pricing starts at $99/mo"}, sim: 0.78},
	}}
	got, ok, err := newTestLookup(store).FindMostSimilar(context.Background(), "What is your pricing?")
	if err != nil || !ok {
		t.Fatalf("want hit, got ok=%v err=%v", ok, err)
	}
	if got != "Our pricing starts at $99/mo" {
		t.Fatalf("unexpected answer: %q", got)
	}

	// Query close to the user record only: no answer.
	store = &fakeStore{entries: []simEntry{
		{rec: Record{Role: RoleUser, Content: "how much does it cost?"}, sim: 0.80},
		{rec: Record{Role: RoleAssistant, Content: "Our pricing starts at $99/mo"}, sim: 0.40},
	}}
	_, ok, err = newTestLookup(store).FindMostSimilar(context.Background(), "What is your pricing?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("want miss when only the user record is close")
	}
}

func TestPairJoinPreferredOverHeuristic(t *testing.T) {
	// The linked answer wins even when another assistant record is nearer.
	store := &fakeStore{entries: []simEntry{
		{rec: Record{Role: RoleUser, Content: "refund policy?", PairID: "p1"}, sim: 0.90},
		{rec: Record{Role: RoleAssistant, Content: "linked answer", PairID: "p1"}, sim: 0.71},
		{rec: Record{Role: RoleAssistant, Content: "nearer but unrelated"}, sim: 0.95},
	}}
	got, ok, _ := newTestLookup(store).FindMostSimilar(context.Background(), "can I get a refund?")
	if !ok || got != "linked answer" {
		t.Fatalf("pair join not preferred: ok=%v got=%q", ok, got)
	}
}

func TestPairJoinFailureFallsBackToHeuristic(t *testing.T) {
	store := &fakeStore{
		pairErr: ErrStoreQuery,
		entries: []simEntry{
			{rec: Record{Role: RoleUser, Content: "refund policy?", PairID: "p1"}, sim: 0.90},
			{rec: Record{Role: RoleAssistant, Content: "heuristic answer"}, sim: 0.80},
		},
	}
	got, ok, _ := newTestLookup(store).FindMostSimilar(context.Background(), "can I get a refund?")
	if !ok || got != "heuristic answer" {
		t.Fatalf("heuristic fallback not taken: ok=%v got=%q", ok, got)
	}
}

func TestEmptyStoreIsMiss(t *testing.T) {
	_, ok, err := newTestLookup(&fakeStore{}).FindMostSimilar(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("empty store produced a hit")
	}
}

func TestEmbeddingFailureIsMissWithError(t *testing.T) {
	l := NewLookup(&fakeStore{}, &fakeEmbedder{err: embedding.ErrProvider}, 0.75, 0.70)
	_, ok, err := l.FindMostSimilar(context.Background(), "anything")
	if ok {
		t.Fatalf("embedding failure produced a hit")
	}
	if !errors.Is(err, embedding.ErrProvider) {
		t.Fatalf("want ErrProvider, got %v", err)
	}
}

func TestStoreFailureIsMissWithError(t *testing.T) {
	store := &fakeStore{nearestErr: ErrStoreQuery}
	_, ok, err := newTestLookup(store).FindMostSimilar(context.Background(), "anything")
	if ok {
		t.Fatalf("store failure produced a hit")
	}
	if !errors.Is(err, ErrStoreQuery) {
		t.Fatalf("want ErrStoreQuery, got %v", err)
	}
}
