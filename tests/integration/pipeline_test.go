// Package integration contains integration tests for the preview service
// running on the real file system, image and document adapters.
package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/user/wikipreview/pkg/adapters/ggrenderer"
	"github.com/user/wikipreview/pkg/adapters/logger"
	"github.com/user/wikipreview/pkg/adapters/nullsink"
	"github.com/user/wikipreview/pkg/adapters/osfilesystem"
	"github.com/user/wikipreview/pkg/adapters/themedoc"
	"github.com/user/wikipreview/pkg/coordinator"
	"github.com/user/wikipreview/pkg/hostpool"
	"github.com/user/wikipreview/pkg/mocks"
	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
	"github.com/user/wikipreview/pkg/wikipreview"
)

func newConfig(dir, version string) wikipreview.Config {
	return wikipreview.NewConfigBuilder().
		WithVersion(version).
		WithCacheDir(dir).
		WithDensity(1.5).
		WithThemeSizeDp(32, 48).
		WithTableSizeDp(64, 36).
		WithViewportWidth(240).
		WithHostTimeout(2*time.Second).
		WithRetry(2, 5*time.Millisecond).
		WithHeapLimit(64 << 20).
		Build()
}

func newService(cfg wikipreview.Config) *wikipreview.Service {
	return wikipreview.New(cfg, wikipreview.Dependencies{
		Loader:     &mocks.ContentLoader{},
		Builder:    themedoc.New(),
		FileSystem: osfilesystem.New(),
		Images:     ggrenderer.New(),
		Sink:       nullsink.New(),
		Logger:     logger.NewNoop(),
	})
}

// attach registers a mock host for the lifetime of the test.
func attach(t *testing.T, svc *wikipreview.Service, host *mocks.Host) *hostpool.Handle {
	t.Helper()
	handle := svc.Attach(host)
	t.Cleanup(func() { runtime.KeepAlive(handle) })
	return handle
}

func storedPath(cfg wikipreview.Config, key preview.Key) string {
	return filepath.Join(cfg.CacheDir, key.Kind.CacheDir(), key.FileName())
}

func TestDiskTierSurvivesRestart(t *testing.T) {
	cfg := newConfig(t.TempDir(), "1.0")
	ctx := context.Background()

	first := newService(cfg)
	attach(t, first, mocks.NewHost("host-1"))
	rendered := first.GetPreview(ctx, preview.KindTable, preview.ThemeSepia, true)
	first.Close()

	key := preview.NewTableKey(preview.ThemeSepia, true, "1.0")
	if _, err := os.Stat(storedPath(cfg, key)); err != nil {
		t.Fatalf("expected stored preview: %v", err)
	}

	// No host: the preview must come from disk.
	second := newService(cfg)
	defer second.Close()
	loaded, err := second.Get(ctx, key)
	if err != nil {
		t.Fatalf("expected disk hit, got %v", err)
	}
	if loaded.Size() != rendered.Size() {
		t.Errorf("expected %+v, got %+v", rendered.Size(), loaded.Size())
	}
	if !bytes.Equal(loaded.Image.Pix, rendered.Image.Pix) {
		t.Error("expected identical pixels after the disk round trip")
	}
	if st := second.Stats()[1]; st.DiskHits != 1 || st.Renders != 0 {
		t.Errorf("expected 1 disk hit and no render, got %+v", st)
	}
}

func TestCorruptFileIsRegenerated(t *testing.T) {
	cfg := newConfig(t.TempDir(), "1.0")
	key := preview.NewThemeKey(preview.ThemeDark, "1.0")
	path := storedPath(cfg, key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	svc := newService(cfg)
	defer svc.Close()
	host := mocks.NewHost("host-1")
	attach(t, svc, host)

	bmp, err := svc.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bmp.Size() != cfg.Target(preview.KindTheme) {
		t.Errorf("unexpected size %+v", bmp.Size())
	}
	if len(host.Surfaces()) != 1 {
		t.Errorf("expected one render, got %d surfaces", len(host.Surfaces()))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected regenerated file: %v", err)
	}
	img, err := ggrenderer.New().DecodeImage(data, ports.FormatPNG)
	if err != nil {
		t.Fatalf("expected a valid PNG: %v", err)
	}
	if img.Bounds().Dx() != bmp.Width() {
		t.Errorf("expected stored width %d, got %d", bmp.Width(), img.Bounds().Dx())
	}
}

func TestVersionUpgradePrunesOldFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	old := newService(newConfig(dir, "1.0"))
	attach(t, old, mocks.NewHost("host-1"))
	if err := old.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := old.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	old.Close()

	cfg := newConfig(dir, "1.1")
	upgraded := newService(cfg)
	defer upgraded.Close()
	n, err := upgraded.PruneStale(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if want := len(cfg.Themes) + 2; n != want {
		t.Errorf("expected %d pruned files, got %d", want, n)
	}

	for _, kind := range []preview.SubjectKind{preview.KindTheme, preview.KindTable} {
		entries, err := os.ReadDir(filepath.Join(dir, kind.CacheDir()))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("expected empty %s directory, got %d files", kind, len(entries))
		}
	}
}

func TestRenderWaitsForLateHost(t *testing.T) {
	cfg := newConfig(t.TempDir(), "1.0")
	svc := newService(cfg)
	defer svc.Close()

	done := make(chan preview.Bitmap, 1)
	go func() {
		done <- svc.GetPreview(context.Background(), preview.KindTheme, preview.ThemeBlack, false)
	}()

	time.Sleep(50 * time.Millisecond)
	host := mocks.NewHost("late")
	attach(t, svc, host)

	select {
	case bmp := <-done:
		if bmp.Size() != cfg.Target(preview.KindTheme) {
			t.Errorf("unexpected size %+v", bmp.Size())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("render did not resume after the host arrived")
	}

	if len(host.Surfaces()) != 1 {
		t.Errorf("expected the late host to render, got %d surfaces", len(host.Surfaces()))
	}
	key := preview.NewThemeKey(preview.ThemeBlack, "1.0")
	if _, err := os.Stat(storedPath(cfg, key)); err != nil {
		t.Errorf("expected the rendered preview to be stored: %v", err)
	}
}

func TestConcurrentRequestsShareOneRender(t *testing.T) {
	cfg := newConfig(t.TempDir(), "1.0")
	svc := newService(cfg)
	defer svc.Close()
	host := mocks.NewHost("host-1")
	host.Configure = func(s *mocks.Surface) { s.RasterizeDelay = 30 * time.Millisecond }
	attach(t, svc, host)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.GetPreview(context.Background(), preview.KindTable, preview.ThemeLight, false)
		}()
	}
	wg.Wait()

	if got := len(host.Surfaces()); got != 1 {
		t.Errorf("expected 1 render, got %d", got)
	}
	if st := svc.Stats()[1]; st.Renders != 1 {
		t.Errorf("expected 1 cached render, got %d", st.Renders)
	}
}

func TestBackgroundRunAndClear(t *testing.T) {
	cfg := newConfig(t.TempDir(), "1.0")
	svc := newService(cfg)
	defer svc.Close()
	attach(t, svc, mocks.NewHost("host-1"))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got := svc.Coordinator().State(); got != coordinator.StateCompleted {
		t.Fatalf("expected completed, got %s", got)
	}

	svc.OnThemeChanged(ctx, preview.ThemeDark)
	if err := svc.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	for _, collapsed := range []bool{true, false} {
		key := preview.NewTableKey(preview.ThemeDark, collapsed, "1.0")
		if _, err := os.Stat(storedPath(cfg, key)); err != nil {
			t.Errorf("expected %s to be stored: %v", key, err)
		}
	}

	if err := svc.ClearCache(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	for _, kind := range []preview.SubjectKind{preview.KindTheme, preview.KindTable} {
		entries, _ := os.ReadDir(filepath.Join(cfg.CacheDir, kind.CacheDir()))
		if len(entries) != 0 {
			t.Errorf("expected empty %s directory after clear, got %d files", kind, len(entries))
		}
	}
}
