package themedoc

import (
	"html/template"

	"github.com/user/wikipreview/pkg/preview"
)

// TemplateVars contains variables for the document templates.
type TemplateVars struct {
	Title     string
	Theme     string
	Collapsed bool
	Body      template.HTML
	Themes    []ThemeVars
	Script    template.JS
	Feed      []FeedCard
}

// ThemeVars are the CSS custom properties of one theme.
type ThemeVars struct {
	Name       string
	Background string
	Surface    string
	Text       string
	Muted      string
	Accent     string
	Border     string
}

// FeedCard is one card of the home feed document.
type FeedCard struct {
	Heading string
	Title   string
	Lines   int
	Image   bool
}

func themeVars() []ThemeVars {
	names := []string{preview.ThemeLight, preview.ThemeDark, preview.ThemeBlack, preview.ThemeSepia}
	vars := make([]ThemeVars, 0, len(names))
	for _, name := range names {
		p := preview.PaletteFor(name)
		vars = append(vars, ThemeVars{
			Name:       name,
			Background: preview.Hex(p.Background),
			Surface:    preview.Hex(p.Surface),
			Text:       preview.Hex(p.Text),
			Muted:      preview.Hex(p.Muted),
			Accent:     preview.Hex(p.Accent),
			Border:     preview.Hex(p.Border),
		})
	}
	return vars
}

// stateScript installs window.__wikipreview. apply switches theme and
// collapse state and marks the state settled two frames later; verify
// checks the attributes, that the body's computed background is the
// theme's, and that tables and their headers are shown or hidden as the
// collapse state requires.
const stateScript = `(function () {
  var root = document.documentElement;
  var api = { ready: false, settled: true };
  function afterFrames(fn) {
    requestAnimationFrame(function () { requestAnimationFrame(fn); });
  }
  function markReady() {
    var fonts = document.fonts ? document.fonts.ready : Promise.resolve();
    fonts.then(function () { afterFrames(function () { api.ready = true; }); });
  }
  api.apply = function (theme, collapsed) {
    api.settled = false;
    root.setAttribute("data-theme", theme);
    root.setAttribute("data-collapsed", collapsed ? "true" : "false");
    afterFrames(function () {
      api.settled = true;
      document.dispatchEvent(new CustomEvent("wikipreview:settled"));
    });
    return true;
  };
  function resolveColor(value) {
    var el = document.createElement("div");
    el.style.backgroundColor = value;
    document.body.appendChild(el);
    var rgb = getComputedStyle(el).backgroundColor;
    document.body.removeChild(el);
    return rgb;
  }
  function shown(selector) {
    var el = document.querySelector(selector);
    return el ? getComputedStyle(el).display !== "none" : null;
  }
  api.verify = function (theme, collapsed) {
    if (root.getAttribute("data-theme") !== theme) return false;
    if (root.getAttribute("data-collapsed") !== (collapsed ? "true" : "false")) return false;
    var want = getComputedStyle(root).getPropertyValue("--wp-background").trim();
    if (want === "" || resolveColor(want) !== getComputedStyle(document.body).backgroundColor) return false;
    var table = shown("table");
    if (table !== null && table === collapsed) return false;
    var header = shown(".wp-table-header");
    if (header !== null && header !== collapsed) return false;
    return true;
  };
  window.__wikipreview = api;
  if (document.readyState === "complete") markReady();
  else window.addEventListener("load", markReady);
})();`

// documentTemplate wraps article and feed content. Every theme's palette is
// declared so the theme can be switched in place.
const documentTemplate = `<!DOCTYPE html>
<html data-theme="{{.Theme}}" data-collapsed="{{.Collapsed}}">
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.Title}}</title>
    <style>
{{- range .Themes}}
      html[data-theme="{{.Name}}"] {
        --wp-background: {{.Background}};
        --wp-surface: {{.Surface}};
        --wp-text: {{.Text}};
        --wp-muted: {{.Muted}};
        --wp-accent: {{.Accent}};
        --wp-border: {{.Border}};
      }
{{- end}}
      * {
        box-sizing: border-box;
      }
      body {
        margin: 0;
        padding: 16px;
        font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
        font-size: 16px;
        line-height: 1.6;
        background-color: var(--wp-background);
        color: var(--wp-text);
      }
      a {
        color: var(--wp-accent);
        text-decoration: none;
      }
      h1 {
        font-family: Georgia, "Times New Roman", serif;
        font-weight: normal;
        font-size: 28px;
        margin: 0 0 12px;
        padding-bottom: 8px;
        border-bottom: 1px solid var(--wp-border);
      }
      img {
        max-width: 100%;
        height: auto;
      }
      table {
        border-collapse: collapse;
        background-color: var(--wp-surface);
        border: 1px solid var(--wp-border);
        margin: 12px 0;
        width: 100%;
      }
      th, td {
        border: 1px solid var(--wp-border);
        padding: 4px 8px;
      }
      .wp-table-header {
        display: none;
        padding: 8px 12px;
        margin: 12px 0;
        border: 1px solid var(--wp-border);
        background-color: var(--wp-surface);
        color: var(--wp-muted);
        font-weight: bold;
      }
      html[data-collapsed="true"] table {
        display: none;
      }
      html[data-collapsed="true"] .wp-table-header {
        display: block;
      }
      .wp-card {
        background-color: var(--wp-surface);
        border: 1px solid var(--wp-border);
        border-radius: 4px;
        padding: 12px;
        margin-bottom: 16px;
      }
      .wp-card h2 {
        font-size: 12px;
        letter-spacing: 1px;
        text-transform: uppercase;
        color: var(--wp-muted);
        margin: 0 0 8px;
      }
      .wp-card h3 {
        font-family: Georgia, "Times New Roman", serif;
        font-weight: normal;
        font-size: 20px;
        margin: 0 0 8px;
      }
      .wp-image {
        height: 120px;
        border-radius: 2px;
        background-color: var(--wp-border);
        margin-bottom: 8px;
      }
      .wp-line {
        height: 10px;
        border-radius: 5px;
        background-color: var(--wp-muted);
        opacity: 0.35;
        margin: 8px 0;
      }
      .wp-line:last-child {
        width: 60%;
      }
    </style>
  </head>
  <body>
{{- if .Feed}}
{{- range .Feed}}
    <div class="wp-card">
      <h2>{{.Heading}}</h2>
      {{- if .Image}}
      <div class="wp-image"></div>
      {{- end}}
      <h3>{{.Title}}</h3>
      {{- range seq .Lines}}
      <div class="wp-line"></div>
      {{- end}}
    </div>
{{- end}}
{{- else}}
    <h1>{{.Title}}</h1>
    {{.Body}}
{{- end}}
    <script>{{.Script}}</script>
  </body>
</html>
`

var funcs = template.FuncMap{
	"seq": func(n int) []struct{} { return make([]struct{}, n) },
}
