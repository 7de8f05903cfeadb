package knowledge

import (
	"context"
	"testing"
	"time"
)

func newTestWriter(store Store) *Writer {
	w := NewWriter(store, &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3}})
	w.clock = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return w
}

func TestSaveEntryEmbedsUserRecordsOnly(t *testing.T) {
	store := &fakeStore{}
	w := newTestWriter(store)

	if err := w.SaveEntry(context.Background(), RoleUser, "a question", SourceLiveChat); err != nil {
		t.Fatalf("save user: %v", err)
	}
	if err := w.SaveEntry(context.Background(), RoleAssistant, "an answer", SourceLiveChat); err != nil {
		t.Fatalf("save assistant: %v", err)
	}

	if len(store.entries) != 2 {
		t.Fatalf("want 2 records, got %d", len(store.entries))
	}
	if len(store.entries[0].rec.Embedding) == 0 {
		t.Fatalf("user record missing embedding")
	}
	if len(store.entries[1].rec.Embedding) != 0 {
		t.Fatalf("assistant record should not carry an embedding")
	}
}

func TestSaveEntrySkipsEmptyContent(t *testing.T) {
	store := &fakeStore{}
	w := newTestWriter(store)

	if err := w.SaveEntry(context.Background(), RoleUser, "   ", SourceLiveChat); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(store.entries) != 0 {
		t.Fatalf("empty content was stored")
	}
}

func TestNoDeduplication(t *testing.T) {
	store := &fakeStore{}
	w := newTestWriter(store)

	before, _ := store.Count(context.Background())
	if err := w.SaveEntry(context.Background(), RoleUser, "same content", SourceLiveChat); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := w.SaveEntry(context.Background(), RoleUser, "same content", SourceLiveChat); err != nil {
		t.Fatalf("save: %v", err)
	}
	after, _ := store.Count(context.Background())
	if after-before != 2 {
		t.Fatalf("want count +2, got +%d", after-before)
	}
}

func TestSaveExchangeSharesPairID(t *testing.T) {
	store := &fakeStore{}
	w := newTestWriter(store)

	if err := w.SaveExchange(context.Background(), "a question", "an answer", SourceVideoImport); err != nil {
		t.Fatalf("save exchange: %v", err)
	}
	if len(store.entries) != 2 {
		t.Fatalf("want 2 records, got %d", len(store.entries))
	}
	q, a := store.entries[0].rec, store.entries[1].rec
	if q.Role != RoleUser || a.Role != RoleAssistant {
		t.Fatalf("unexpected roles: %s/%s", q.Role, a.Role)
	}
	if q.PairID == "" || q.PairID != a.PairID {
		t.Fatalf("pair id not shared: %q vs %q", q.PairID, a.PairID)
	}
	if q.SourceTag != SourceVideoImport {
		t.Fatalf("source tag lost: %q", q.SourceTag)
	}
}

func TestDeleteByContent(t *testing.T) {
	store := &fakeStore{}
	w := newTestWriter(store)
	_ = w.SaveEntry(context.Background(), RoleUser, "keep me", SourceLiveChat)
	_ = w.SaveEntry(context.Background(), RoleUser, "drop me", SourceLiveChat)
	_ = w.SaveEntry(context.Background(), RoleUser, "drop me", SourceLiveChat)

	removed, err := store.DeleteByContent(context.Background(), "drop me")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 2 {
		t.Fatalf("want 2 removed, got %d", removed)
	}
	if n, _ := store.Count(context.Background()); n != 1 {
		t.Fatalf("want 1 remaining, got %d", n)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 30, 45, 987654321, time.FixedZone("UTC+3", 3*3600))
	got := FormatTimestamp(ts)
	if got != "2025-03-01T09:30:45Z" {
		t.Fatalf("unexpected format: %q", got)
	}
}
