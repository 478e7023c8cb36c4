package corpus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestProvisionerPrefersCache(t *testing.T) {
	dir := t.TempDir()
	goals := `{"mul0001": {"hotel": {"informable": {"area": "east"}, "requestable": ["phone"]}}}`
	if err := os.WriteFile(filepath.Join(dir, "goals.json"), []byte(goals), 0o644); err != nil {
		t.Fatal(err)
	}

	// An unreachable base URL proves the cached copy is used.
	p := &Provisioner{CacheDir: dir, EvalDataURL: "http://127.0.0.1:1"}
	got, err := p.Goals(context.Background())
	if err != nil {
		t.Fatalf("Goals: %v", err)
	}
	goal, ok := got["mul0001"]
	if !ok {
		t.Fatal("missing dialogue mul0001")
	}
	if goal[DomainHotel].Informable["area"] != "east" {
		t.Errorf("informable = %v, want area=east", goal[DomainHotel].Informable)
	}
}

func TestProvisionerDownloadsAndCaches(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/booked_domains.json" {
			http.NotFound(w, r)
			return
		}
		hits++
		w.Write([]byte(`{"mul0001": [[], ["hotel"], ["hotel", "train"]]}`))
	}))
	defer srv.Close()

	p := &Provisioner{CacheDir: t.TempDir(), EvalDataURL: srv.URL}
	for i := 0; i < 2; i++ {
		booked, err := p.BookedDomains(context.Background())
		if err != nil {
			t.Fatalf("BookedDomains: %v", err)
		}
		set := booked["mul0001"]
		if !set.Has(DomainHotel) || !set.Has(DomainTrain) || set.Has(DomainTaxi) {
			t.Errorf("booked set = %v, want {hotel, train}", set)
		}
	}
	if hits != 1 {
		t.Errorf("server hit %d times, want 1 (second call should use the cache)", hits)
	}
}
