package chromehost

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/user/wikipreview/pkg/adapters/themedoc"
	"github.com/user/wikipreview/pkg/ports"
)

func launch(t *testing.T) *Host {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Chrome test in short mode")
	}
	if ResolveChromePath("") == "" {
		t.Skip("Chrome not installed")
	}

	host, err := Launch(context.Background(), Options{Headless: true, NoSandbox: true})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	t.Cleanup(func() { host.Close() })
	return host
}

func TestHost_RendersThemedDocument(t *testing.T) {
	host := launch(t)
	if !host.Alive() {
		t.Fatal("expected host to be alive")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	surface, err := host.NewSurface(ctx, ports.SurfaceOptions{Width: 200, Height: 300, Density: 2})
	if err != nil {
		t.Fatalf("new surface: %v", err)
	}
	defer surface.Close()

	doc, err := themedoc.New().BuildDocument("Earth", "<p>Earth</p><table><tr><td>Mass</td></tr></table>", "light", false)
	if err != nil {
		t.Fatalf("build document: %v", err)
	}

	if err := surface.Load(ctx, doc); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := surface.WaitLoadFinished(ctx); err != nil {
		t.Fatalf("wait load: %v", err)
	}
	if err := surface.WaitReadyForDisplay(ctx); err != nil {
		t.Fatalf("wait ready: %v", err)
	}

	if err := surface.ApplyState(ctx, "dark", true); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := surface.WaitStateApplied(ctx); err != nil {
		t.Fatalf("wait state: %v", err)
	}
	ok, err := surface.VerifyState(ctx, "dark", true)
	if err != nil || !ok {
		t.Fatalf("expected dark collapsed state, got %v, %v", ok, err)
	}

	img, err := surface.Rasterize(ctx)
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	if got := img.Bounds().Dx(); got != 400 {
		t.Errorf("expected width 400 at density 2, got %d", got)
	}
}

func loadThemed(t *testing.T, ctx context.Context, host *Host) *Surface {
	t.Helper()
	surface, err := host.NewSurface(ctx, ports.SurfaceOptions{Width: 200, Height: 300, Density: 1})
	if err != nil {
		t.Fatalf("new surface: %v", err)
	}
	t.Cleanup(func() { surface.Close() })

	doc, err := themedoc.New().BuildDocument("Earth", "<p>Earth</p><table><tr><td>Mass</td></tr></table>", "light", false)
	if err != nil {
		t.Fatalf("build document: %v", err)
	}
	if err := surface.Load(ctx, doc); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := surface.WaitLoadFinished(ctx); err != nil {
		t.Fatalf("wait load: %v", err)
	}
	if err := surface.ApplyState(ctx, "dark", true); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := surface.WaitStateApplied(ctx); err != nil {
		t.Fatalf("wait state: %v", err)
	}
	return surface.(*Surface)
}

func TestSurface_VerifyStateRejectsWrongState(t *testing.T) {
	host := launch(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tests := []struct {
		name      string
		style     string
		theme     string
		collapsed bool
	}{
		{name: "other theme", theme: "sepia", collapsed: true},
		{name: "expanded", theme: "dark", collapsed: false},
		{name: "body repainted", style: "body { background-color: rgb(255, 0, 0) !important; }", theme: "dark", collapsed: true},
		{name: "table still shown", style: "table { display: table !important; }", theme: "dark", collapsed: true},
		{name: "header hidden", style: ".wp-table-header { display: none !important; }", theme: "dark", collapsed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface := loadThemed(t, ctx, host)
			if ok, err := surface.VerifyState(ctx, "dark", true); err != nil || !ok {
				t.Fatalf("expected applied state to verify, got %v, %v", ok, err)
			}

			if tt.style != "" {
				inject := `(function (css) { var s = document.createElement("style"); s.textContent = css; document.head.appendChild(s); return true; })(` + strconv.Quote(tt.style) + `)`
				var done bool
				if err := surface.run(ctx, chromedp.Evaluate(inject, &done)); err != nil {
					t.Fatalf("inject style: %v", err)
				}
			}

			ok, err := surface.VerifyState(ctx, tt.theme, tt.collapsed)
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if ok {
				t.Errorf("expected VerifyState(%q, %v) to be false", tt.theme, tt.collapsed)
			}
		})
	}
}

func TestHost_CloseMarksDead(t *testing.T) {
	host := launch(t)
	if err := host.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if host.Alive() {
		t.Error("expected host to be dead after Close")
	}
	if _, err := host.NewSurface(context.Background(), ports.SurfaceOptions{Width: 10, Height: 10}); err == nil {
		t.Error("expected NewSurface to fail on a closed host")
	}
}
