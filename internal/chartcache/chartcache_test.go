package chartcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/tween"
)

type fakeFetcher struct {
	chartUpdated string
	downloads    int32
}

func (f *fakeFetcher) FetchMetadata(ctx context.Context, id string) (string, error) {
	return f.chartUpdated, nil
}

func (f *fakeFetcher) Download(ctx context.Context, id string) (*chart.Info, *chart.Chart, error) {
	atomic.AddInt32(&f.downloads, 1)
	info := &chart.Info{ID: id, ChartUpdated: f.chartUpdated}
	line := &chart.JudgeLine{
		Object: chart.NewObject(), Ctrl: chart.NewCtrlObject(),
		Height: tween.Fixed[tween.Float](0), Incline: tween.Fixed[tween.Float](0),
		Color: tween.Fixed[tween.Color](tween.Color{A: 1}), Parent: -1,
	}
	bpm := chart.NewBpmListFromChanges([]chart.BpmChange{{Beats: 0, Bpm: 120}})
	c, err := chart.New([]*chart.JudgeLine{line}, bpm, 0, chart.Settings{})
	return info, c, err
}

func TestGetMissThenHit(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{chartUpdated: "v1"}
	cache, err := New(dir, fetcher)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := cache.Get(context.Background(), "chart-a")
	if err != nil {
		t.Fatalf("Get (miss): %v", err)
	}
	if res.Hit {
		t.Error("expected first Get to be a miss")
	}
	if fetcher.downloads != 1 {
		t.Errorf("downloads = %d, want 1", fetcher.downloads)
	}

	res2, err := cache.Get(context.Background(), "chart-a")
	if err != nil {
		t.Fatalf("Get (hit): %v", err)
	}
	if !res2.Hit {
		t.Error("expected second Get to be a hit")
	}
	if fetcher.downloads != 1 {
		t.Errorf("downloads after hit = %d, want 1 (no re-download)", fetcher.downloads)
	}
	if res.BinPath != res2.BinPath {
		t.Errorf("bin path changed across hit: %q vs %q", res.BinPath, res2.BinPath)
	}
}

func TestGetInvalidatesOnMetadataChange(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{chartUpdated: "v1"}
	cache, _ := New(dir, fetcher)

	if _, err := cache.Get(context.Background(), "chart-b"); err != nil {
		t.Fatal(err)
	}

	fetcher.chartUpdated = "v2"
	res, err := cache.Get(context.Background(), "chart-b")
	if err != nil {
		t.Fatal(err)
	}
	if res.Hit {
		t.Error("expected a miss after chart_updated changed")
	}
	if fetcher.downloads != 2 {
		t.Errorf("downloads = %d, want 2", fetcher.downloads)
	}
}

func TestGetConcurrentCallersDedupe(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{chartUpdated: "v1"}
	cache, _ := New(dir, fetcher)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(context.Background(), "chart-c"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if fetcher.downloads != 1 {
		t.Errorf("downloads = %d, want 1 (singleflight should dedupe)", fetcher.downloads)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{chartUpdated: "v1"}
	cache, _ := New(dir, fetcher)

	if _, err := cache.Get(context.Background(), "chart-d"); err != nil {
		t.Fatal(err)
	}

	info, c, err := cache.Load("chart-d")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if info.ID != "chart-d" {
		t.Errorf("info.ID = %q, want chart-d", info.ID)
	}
	if len(c.Lines) != 1 {
		t.Errorf("lines = %d, want 1", len(c.Lines))
	}
}
