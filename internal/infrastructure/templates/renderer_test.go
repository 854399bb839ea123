package templates

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/credential-relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	Source
	calls int
}

func (c *countingSource) Load(ctx context.Context, key string) (Template, error) {
	c.calls++
	return c.Source.Load(ctx, key)
}

func TestRender_SubstitutesAndEscapesHTML(t *testing.T) {
	src := NewFSSource(fstest.MapFS{
		"greet.html": {Data: []byte("<p>Hello {{ name }}, id {{id}}</p>")},
	})
	r := NewRenderer(src)

	out, err := r.Render(context.Background(), "greet", map[string]string{"name": "<Bob & Co>", "id": "DOC047"})
	require.NoError(t, err)
	assert.True(t, out.HTML)
	assert.Equal(t, "<p>Hello &lt;Bob &amp; Co&gt;, id DOC047</p>", out.Body)
}

func TestRender_PlainTextNotEscaped(t *testing.T) {
	src := NewFSSource(fstest.MapFS{"sms.txt": {Data: []byte("code {{otp}} & more")}})
	out, err := NewRenderer(src).Render(context.Background(), "sms", map[string]string{"otp": "<1>"})
	require.NoError(t, err)
	assert.False(t, out.HTML)
	assert.Equal(t, "code <1> & more", out.Body)
}

func TestRender_TemplateMissing(t *testing.T) {
	r := NewRenderer(NewFSSource(fstest.MapFS{}))
	_, err := r.Render(context.Background(), "nurse_credentials", nil)
	assert.True(t, errors.Is(err, domain.ErrTemplateMissing))
}

func TestRender_RejectsPathKeys(t *testing.T) {
	r := NewRenderer(NewFSSource(fstest.MapFS{"x/y.html": {Data: []byte("hi")}}))
	_, err := r.Render(context.Background(), "x/y", nil)
	assert.True(t, errors.Is(err, domain.ErrTemplateMissing))
}

func TestRender_PlaceholderMissingListsNames(t *testing.T) {
	src := NewFSSource(fstest.MapFS{"t.html": {Data: []byte("{{b}} {{a}} {{b}} {{c}}")}})
	_, err := NewRenderer(src).Render(context.Background(), "t", map[string]string{"c": "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPlaceholderMissing))
	assert.Contains(t, err.Error(), "needs a, b")
}

func TestRender_EmptyValueIsNotMissing(t *testing.T) {
	src := NewFSSource(fstest.MapFS{"t.html": {Data: []byte("[{{phone}}]")}})
	out, err := NewRenderer(src).Render(context.Background(), "t", map[string]string{"phone": ""})
	require.NoError(t, err)
	assert.Equal(t, "[]", out.Body)
}

func TestRender_CachesLoadedTemplates(t *testing.T) {
	src := &countingSource{Source: NewFSSource(fstest.MapFS{"t.txt": {Data: []byte("x")}})}
	r := NewRenderer(src)
	for i := 0; i < 3; i++ {
		_, err := r.Render(context.Background(), "t", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, src.calls)
}

func TestDefaults_AllTemplatesPresent(t *testing.T) {
	src := Defaults()
	for _, key := range []string{"otp", "otp_sms", "doctor_credentials", "lab_credentials", "hospital_credentials"} {
		tpl, err := src.Load(context.Background(), key)
		require.NoError(t, err, key)
		assert.NotEmpty(t, tpl.Text, key)
	}
}

func TestDir_LoadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "otp.txt"), []byte("code {{otp}}"), 0o600))

	out, err := NewRenderer(Dir(dir)).Render(context.Background(), "otp", map[string]string{"otp": "123456"})
	require.NoError(t, err)
	assert.Equal(t, "code 123456", out.Body)
}
