package watchlist

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kalambet/lookbook/internal/metrics"
	"github.com/kalambet/lookbook/internal/storage"
)

type flakyKV struct {
	*storage.MemoryKV
	getErr error
	setErr error
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.MemoryKV.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryKV.Set(ctx, key, value)
}

var (
	dune    = Movie{ID: "438631", Title: "Dune", Year: "2021"}
	arrival = Movie{ID: "329865", Title: "Arrival", Year: "2016"}
)

func TestList_Empty(t *testing.T) {
	s := NewStore(storage.NewMemoryKV())
	got := s.List(context.Background())
	if got == nil || len(got) != 0 {
		t.Errorf("List = %v, want empty non-nil", got)
	}
}

func TestAdd_PreservesInsertionOrder(t *testing.T) {
	s := NewStore(storage.NewMemoryKV())
	ctx := context.Background()

	for _, m := range []Movie{dune, arrival} {
		if res := s.Add(ctx, m); !res.Success {
			t.Fatalf("Add(%s) = %+v", m.ID, res)
		}
	}
	if diff := cmp.Diff([]Movie{dune, arrival}, s.List(ctx)); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestAdd_Duplicate(t *testing.T) {
	s := NewStore(storage.NewMemoryKV())
	ctx := context.Background()
	before := testutil.ToFloat64(metrics.WatchlistOps.WithLabelValues("add", "duplicate"))

	s.Add(ctx, dune)
	res := s.Add(ctx, Movie{ID: dune.ID, Title: "Dune (again)"})

	if res.Success {
		t.Error("duplicate Add should not succeed")
	}
	if !errors.Is(res.Err, ErrAlreadyPresent) {
		t.Errorf("Err = %v, want ErrAlreadyPresent", res.Err)
	}
	if res.Message == "" {
		t.Error("duplicate Add should carry an informational message")
	}
	list := s.List(ctx)
	if len(list) != 1 || list[0].Title != "Dune" {
		t.Errorf("list after duplicate Add = %+v", list)
	}
	after := testutil.ToFloat64(metrics.WatchlistOps.WithLabelValues("add", "duplicate"))
	if after != before+1 {
		t.Errorf("duplicate counter = %v, want %v", after, before+1)
	}
}

func TestRemove(t *testing.T) {
	s := NewStore(storage.NewMemoryKV())
	ctx := context.Background()
	s.Add(ctx, dune)
	s.Add(ctx, arrival)

	if res := s.Remove(ctx, dune.ID); !res.Success {
		t.Fatalf("Remove = %+v", res)
	}
	if s.Contains(ctx, dune.ID) {
		t.Error("removed movie still listed")
	}
	if !s.Contains(ctx, arrival.ID) {
		t.Error("unrelated movie was removed")
	}
}

func TestRemove_UnknownIsNoop(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := NewStore(kv)
	ctx := context.Background()
	s.Add(ctx, dune)

	res := s.Remove(ctx, "nope")
	if !res.Success {
		t.Errorf("Remove of unknown id = %+v, want success", res)
	}
	if got := len(s.List(ctx)); got != 1 {
		t.Errorf("list length = %d, want 1", got)
	}
}

func TestReReadsOnEveryCall(t *testing.T) {
	kv := storage.NewMemoryKV()
	a := NewStore(kv)
	b := NewStore(kv)
	ctx := context.Background()

	a.Add(ctx, dune)
	if !b.Contains(ctx, dune.ID) {
		t.Error("second store instance did not observe the write")
	}
	if res := b.Add(ctx, dune); res.Success {
		t.Error("second store instance accepted a duplicate")
	}
}

func TestGet(t *testing.T) {
	s := NewStore(storage.NewMemoryKV())
	ctx := context.Background()
	s.Add(ctx, arrival)

	got, ok := s.Get(ctx, arrival.ID)
	if !ok || got != arrival {
		t.Errorf("Get = %+v, %v", got, ok)
	}
	if _, ok := s.Get(ctx, dune.ID); ok {
		t.Error("Get of unlisted id reported present")
	}
}

func TestAddRemove_KeepUnknownCatalogFields(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()
	_ = kv.Set(ctx, StorageKey, `[{"id":"m1","title":"Heat","poster_path":"/x.jpg","release_date":"1995-12-15"}]`)
	s := NewStore(kv)

	if res := s.Add(ctx, Movie{ID: "m2", Title: "Ronin"}); !res.Success {
		t.Fatalf("Add = %+v", res)
	}
	if res := s.Remove(ctx, "m2"); !res.Success {
		t.Fatalf("Remove = %+v", res)
	}

	raw, _, _ := kv.Get(ctx, StorageKey)
	var stored []map[string]any
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("stored watchlist is not JSON: %v", err)
	}
	want := []map[string]any{{
		"id":           "m1",
		"title":        "Heat",
		"poster_path":  "/x.jpg",
		"release_date": "1995-12-15",
	}}
	if diff := cmp.Diff(want, stored); diff != "" {
		t.Errorf("stored watchlist mismatch (-want +got):\n%s", diff)
	}
}

func TestNumericCatalogIDs(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()
	_ = kv.Set(ctx, StorageKey, `[{"id":550,"title":"Fight Club"},{"title":"no id"}]`)
	s := NewStore(kv)

	want := []Movie{{ID: "550", Title: "Fight Club"}}
	if diff := cmp.Diff(want, s.List(ctx)); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
	if !s.Contains(ctx, "550") {
		t.Error("Contains(550) = false")
	}
	if res := s.Add(ctx, Movie{ID: "550", Title: "Fight Club"}); !errors.Is(res.Err, ErrAlreadyPresent) {
		t.Errorf("Add of numeric duplicate = %+v", res)
	}
	if res := s.Remove(ctx, "550"); !res.Success {
		t.Fatalf("Remove = %+v", res)
	}
	if raw, _, _ := kv.Get(ctx, StorageKey); raw != `[{"title":"no id"}]` {
		t.Errorf("stored = %s, want only the entry without id", raw)
	}
}

func TestStorageFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("read", func(t *testing.T) {
		s := NewStore(&flakyKV{MemoryKV: storage.NewMemoryKV(), getErr: errors.New("disk gone")})
		if got := s.List(ctx); len(got) != 0 {
			t.Errorf("List = %v, want empty", got)
		}
		if s.Contains(ctx, dune.ID) {
			t.Error("Contains should be false")
		}
		if res := s.Add(ctx, dune); res.Success || res.Err == nil {
			t.Errorf("Add = %+v, want failure", res)
		}
		if res := s.Remove(ctx, dune.ID); res.Success {
			t.Errorf("Remove = %+v, want failure", res)
		}
	})

	t.Run("write", func(t *testing.T) {
		kv := &flakyKV{MemoryKV: storage.NewMemoryKV()}
		s := NewStore(kv)
		s.Add(ctx, dune)
		kv.setErr = errors.New("read-only")

		if res := s.Add(ctx, arrival); res.Success {
			t.Error("Add should fail when the write fails")
		}
		if res := s.Remove(ctx, dune.ID); res.Success {
			t.Error("Remove should fail when the write fails")
		}
		if !s.Contains(ctx, dune.ID) {
			t.Error("failed Remove must leave the list intact")
		}
	})
}
