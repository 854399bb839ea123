package templates

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/credential-relay/internal/domain"
)

//go:embed defaults/*.html defaults/*.txt
var defaultsFS embed.FS

// ErrNotFound is returned by a Source when no template exists for a key.
var ErrNotFound = errors.New("template not found")

// Template is raw template text plus its output format.
type Template struct {
	Text string
	HTML bool
}

// Source loads raw templates by key. Keys have no extension; sources look up
// "<key>.html" first and "<key>.txt" second.
type Source interface {
	Load(ctx context.Context, key string) (Template, error)
}

// FSSource reads templates from an fs.FS.
type FSSource struct {
	fsys fs.FS
}

func NewFSSource(fsys fs.FS) *FSSource { return &FSSource{fsys: fsys} }

// Defaults returns the templates compiled into the binary.
func Defaults() *FSSource {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		panic("embedded templates: " + err.Error())
	}
	return NewFSSource(sub)
}

// Dir returns a source reading templates from a directory on disk.
func Dir(path string) *FSSource { return NewFSSource(os.DirFS(path)) }

func (s *FSSource) Load(_ context.Context, key string) (Template, error) {
	if !fs.ValidPath(key) || strings.Contains(key, "/") {
		return Template{}, fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	for _, ext := range []string{".html", ".txt"} {
		b, err := fs.ReadFile(s.fsys, key+ext)
		if err == nil {
			return Template{Text: string(b), HTML: ext == ".html"}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return Template{}, fmt.Errorf("read template %s: %w", key+ext, err)
		}
	}
	return Template{}, fmt.Errorf("%q: %w", key, ErrNotFound)
}

// Rendered is a fully substituted message body.
type Rendered struct {
	Body string
	HTML bool
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Renderer substitutes {{name}} placeholders. Loaded templates are cached for
// the life of the process.
type Renderer struct {
	src   Source
	mu    sync.RWMutex
	cache map[string]Template
}

func NewRenderer(src Source) *Renderer {
	return &Renderer{src: src, cache: make(map[string]Template)}
}

// Render loads the template for key and substitutes every placeholder from
// values. Values are HTML-escaped for HTML templates. It fails with
// TemplateMissing for an unknown key and PlaceholderMissing when the template
// references a name absent from values.
func (r *Renderer) Render(ctx context.Context, key string, values map[string]string) (Rendered, error) {
	const op = "templates.render"
	tpl, err := r.load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Rendered{}, domain.E(domain.KindTemplateMissing, op, "no template for "+key, err)
		}
		return Rendered{}, domain.E(domain.KindInternal, op, "load "+key, err)
	}

	missing := map[string]struct{}{}
	body := placeholderRe.ReplaceAllStringFunc(tpl.Text, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		v, ok := values[name]
		if !ok {
			missing[name] = struct{}{}
			return m
		}
		if tpl.HTML {
			return html.EscapeString(v)
		}
		return v
	})
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for n := range missing {
			names = append(names, n)
		}
		sort.Strings(names)
		return Rendered{}, domain.E(domain.KindPlaceholderMissing, op,
			fmt.Sprintf("template %s needs %s", key, strings.Join(names, ", ")), nil)
	}
	return Rendered{Body: body, HTML: tpl.HTML}, nil
}

func (r *Renderer) load(ctx context.Context, key string) (Template, error) {
	r.mu.RLock()
	tpl, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return tpl, nil
	}
	tpl, err := r.src.Load(ctx, key)
	if err != nil {
		return Template{}, err
	}
	r.mu.Lock()
	r.cache[key] = tpl
	r.mu.Unlock()
	return tpl, nil
}
