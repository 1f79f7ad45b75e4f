package watermark

import (
	"context"
	"testing"
	"time"
)

type fakeBackend struct {
	docs map[string]map[string]interface{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{docs: map[string]map[string]interface{}{}}
}

func (f *fakeBackend) Get(id string) (map[string]interface{}, bool, error) {
	doc, ok := f.docs[id]
	return doc, ok, nil
}

func (f *fakeBackend) Put(id string, doc map[string]interface{}) error {
	f.docs[id] = doc
	return nil
}

func (f *fakeBackend) Delete(id string) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeBackend) Refresh() error { return nil }

func TestReadDatetimeValue_MissingReturnsNotOK(t *testing.T) {
	s := New(newFakeBackend())
	_, ok, err := s.ReadDatetimeValue(context.Background(), "PROJ", "updated")
	if err != nil {
		t.Fatalf("ReadDatetimeValue: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false when no watermark has been stored")
	}
}

func TestStoreThenReadDatetimeValue_RoundTrips(t *testing.T) {
	s := New(newFakeBackend())
	want := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)

	if err := s.StoreDatetimeValue(context.Background(), "PROJ", "updated", want); err != nil {
		t.Fatalf("StoreDatetimeValue: %v", err)
	}

	got, ok, err := s.ReadDatetimeValue(context.Background(), "PROJ", "updated")
	if err != nil {
		t.Fatalf("ReadDatetimeValue: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true after storing a watermark")
	}
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestStoreDatetimeValue_TruncatesToTheMinute(t *testing.T) {
	s := New(newFakeBackend())
	given := time.Date(2026, 8, 1, 12, 30, 45, 123456789, time.UTC)

	if err := s.StoreDatetimeValue(context.Background(), "PROJ", "updated", given); err != nil {
		t.Fatalf("StoreDatetimeValue: %v", err)
	}

	got, ok, err := s.ReadDatetimeValue(context.Background(), "PROJ", "updated")
	if err != nil {
		t.Fatalf("ReadDatetimeValue: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true after storing a watermark")
	}
	want := given.Truncate(time.Minute)
	if !got.Equal(want) {
		t.Errorf("stored watermark = %v, want minute-truncated %v", got, want)
	}
}

func TestDocID_IsProjectAndPropertyScoped(t *testing.T) {
	if docID("updated", "PROJ") == docID("updated", "OTHER") {
		t.Errorf("watermark ids must be project-scoped")
	}
	if docID("updated", "PROJ") == docID("created", "PROJ") {
		t.Errorf("expected different properties to produce different ids")
	}
}

func TestDeleteDatetimeValue_ClearsWatermark(t *testing.T) {
	s := New(newFakeBackend())
	_ = s.StoreDatetimeValue(context.Background(), "PROJ", "updated", time.Now())

	if err := s.DeleteDatetimeValue(context.Background(), "PROJ", "updated"); err != nil {
		t.Fatalf("DeleteDatetimeValue: %v", err)
	}
	_, ok, err := s.ReadDatetimeValue(context.Background(), "PROJ", "updated")
	if err != nil {
		t.Fatalf("ReadDatetimeValue: %v", err)
	}
	if ok {
		t.Fatalf("expected watermark to be cleared")
	}
}
