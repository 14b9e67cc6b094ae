package document

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/user/wikipreview/pkg/adapters/logger"
	"github.com/user/wikipreview/pkg/mocks"
	"github.com/user/wikipreview/pkg/pipeline"
	"github.com/user/wikipreview/pkg/preview"
)

func TestStage_ThemeUsesFeedDocument(t *testing.T) {
	loader := &mocks.ContentLoader{}
	stage := NewStage(loader, &mocks.DocumentBuilder{}, &mocks.NullSink{}, logger.NewNoop(), 0)

	result, err := stage.Execute(context.Background(), pipeline.DocumentInput{
		Key: preview.NewThemeKey(preview.ThemeDark, "1.0"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.HTML, `data-theme="dark"`) {
		t.Errorf("expected dark feed document, got %q", result.HTML)
	}
	if loader.Calls() != 0 {
		t.Errorf("theme previews should not load content, got %d loads", loader.Calls())
	}
}

func TestStage_TableLoadsArticleOnce(t *testing.T) {
	loader := &mocks.ContentLoader{}
	sink := mocks.NewDebugSink(true)
	stage := NewStage(loader, &mocks.DocumentBuilder{}, sink, logger.NewNoop(), 0)

	for _, collapsed := range []bool{true, false} {
		key := preview.NewTableKey(preview.ThemeLight, collapsed, "1.0")
		result, err := stage.Execute(context.Background(), pipeline.DocumentInput{Key: key, Title: "Earth"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(result.HTML, "Earth") {
			t.Errorf("expected article content in document")
		}
		if _, ok := sink.Documents[key.String()]; !ok {
			t.Errorf("expected document saved for %s", key)
		}
	}

	if loader.Calls() != 1 {
		t.Errorf("expected 1 article load, got %d", loader.Calls())
	}

	stage.Forget()
	stage.Execute(context.Background(), pipeline.DocumentInput{
		Key:   preview.NewTableKey(preview.ThemeLight, true, "1.0"),
		Title: "Earth",
	})
	if loader.Calls() != 2 {
		t.Errorf("expected reload after Forget, got %d loads", loader.Calls())
	}
}

func TestStage_LoadFailure(t *testing.T) {
	loader := &mocks.ContentLoader{
		LoadArticleFunc: func(ctx context.Context, title string) (string, error) {
			return "", errors.New("503 service unavailable")
		},
	}
	stage := NewStage(loader, &mocks.DocumentBuilder{}, &mocks.NullSink{}, logger.NewNoop(), 0)

	_, err := stage.Execute(context.Background(), pipeline.DocumentInput{
		Key:   preview.NewTableKey(preview.ThemeLight, false, "1.0"),
		Title: "Earth",
	})
	if preview.KindOf(err) != preview.ErrContentLoad {
		t.Errorf("expected content load failure, got %v", err)
	}
}

func TestStage_LoadTimeoutIsContentLoadFailure(t *testing.T) {
	loader := &mocks.ContentLoader{
		LoadArticleFunc: func(ctx context.Context, title string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	stage := NewStage(loader, &mocks.DocumentBuilder{}, &mocks.NullSink{}, logger.NewNoop(), 20*time.Millisecond)

	_, err := stage.Execute(context.Background(), pipeline.DocumentInput{
		Key:   preview.NewTableKey(preview.ThemeLight, false, "1.0"),
		Title: "Earth",
	})
	if preview.KindOf(err) != preview.ErrContentLoad {
		t.Errorf("expected content load failure, got %v", err)
	}
}

func TestStage_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loader := &mocks.ContentLoader{
		LoadArticleFunc: func(c context.Context, title string) (string, error) {
			cancel()
			return "", c.Err()
		},
	}
	stage := NewStage(loader, &mocks.DocumentBuilder{}, &mocks.NullSink{}, logger.NewNoop(), 0)

	_, err := stage.Execute(ctx, pipeline.DocumentInput{
		Key:   preview.NewTableKey(preview.ThemeLight, false, "1.0"),
		Title: "Earth",
	})
	if preview.KindOf(err) != preview.ErrCancelled {
		t.Errorf("expected cancelled, got %v", err)
	}
}

func TestStage_BuildFailure(t *testing.T) {
	builder := &mocks.DocumentBuilder{
		BuildFeedDocumentFunc: func(theme string) (string, error) {
			return "", errors.New("template error")
		},
	}
	stage := NewStage(&mocks.ContentLoader{}, builder, &mocks.NullSink{}, logger.NewNoop(), 0)

	_, err := stage.Execute(context.Background(), pipeline.DocumentInput{
		Key: preview.NewThemeKey(preview.ThemeSepia, "1.0"),
	})
	if preview.KindOf(err) != preview.ErrDocumentBuild {
		t.Errorf("expected document build failure, got %v", err)
	}
}
