package batch_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesh254/wp2md/internal/api"
	"github.com/tesh254/wp2md/internal/batch"
	"github.com/tesh254/wp2md/internal/storage"
	"github.com/tesh254/wp2md/internal/translator"
)

func writeInput(t *testing.T, dir, rel, content string) {
	t.Helper()

	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestTargetPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("out", "2020", "hello.md"), batch.TargetPath("out", filepath.Join("2020", "hello.html")))
	assert.Equal(t, filepath.Join("out", "page.md"), batch.TargetPath("out", "page.HTM"))
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeInput(t, src, "b.html", "b")
	writeInput(t, src, filepath.Join("2020", "a.HTML"), "a")
	writeInput(t, src, "notes.txt", "skip")

	r := batch.New(api.NewAPI(nil, translator.NewConverter()), src, t.TempDir(), nil)
	files, err := r.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("2020", "a.HTML"), "b.html"}, files)
}

func TestRun(t *testing.T) {
	t.Parallel()

	src, dst := t.TempDir(), t.TempDir()
	writeInput(t, src, "hello.html", "<h1>Hello</h1>\n\nFirst.\n\nSecond.")
	writeInput(t, src, filepath.Join("2021", "video.html"), `<iframe src="https://www.youtube.com/embed/abc"></iframe>`)

	st, err := storage.NewStorage(filepath.Join(t.TempDir(), "wp2md.db"))
	require.NoError(t, err)
	defer st.Close()

	a := api.NewAPI(st, translator.NewConverter())

	var out bytes.Buffer
	cfg := batch.DefaultConfig()
	cfg.MaxConcurrent = 2
	cfg.Verbose = true
	cfg.Out = &out

	r := batch.New(a, src, dst, cfg)
	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &batch.Summary{Converted: 2}, summary)
	assert.NoError(t, r.Err())
	assert.NotEmpty(t, r.RunID)

	hello, err := os.ReadFile(filepath.Join(dst, "hello.md"))
	require.NoError(t, err)
	assert.Contains(t, string(hello), "# Hello")

	video, err := os.ReadFile(filepath.Join(dst, "2021", "video.md"))
	require.NoError(t, err)
	assert.Contains(t, string(video), `<iframe src="https://www.youtube.com/embed/abc"></iframe>`)

	assert.Contains(t, out.String(), "hello.html")
	assert.Contains(t, out.String(), "Converted: 2")

	again := batch.New(a, src, dst, &batch.Config{MaxConcurrent: 1, Out: &out})
	summary, err = again.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &batch.Summary{Cached: 2}, summary)
}

func TestRunKeysBySourcePath(t *testing.T) {
	t.Parallel()

	first, second := t.TempDir(), t.TempDir()
	writeInput(t, first, "post.html", "<p>first tree</p>")
	writeInput(t, second, "post.html", "<p>second tree</p>")

	st, err := storage.NewStorage(filepath.Join(t.TempDir(), "wp2md.db"))
	require.NoError(t, err)
	defer st.Close()

	a := api.NewAPI(st, translator.NewConverter())
	cfg := &batch.Config{MaxConcurrent: 1, Out: &bytes.Buffer{}}

	for _, src := range []string{first, second} {
		_, err := batch.New(a, src, t.TempDir(), cfg).Run(context.Background())
		require.NoError(t, err)
	}

	docs, err := st.ListDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 2)

	for _, src := range []string{first, second} {
		abs, err := filepath.Abs(filepath.Join(src, "post.html"))
		require.NoError(t, err)
		_, err = st.GetDocument(abs)
		assert.NoError(t, err)

		summary, err := batch.New(a, src, t.TempDir(), cfg).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, &batch.Summary{Cached: 1}, summary)
	}
}

func TestRunMissingSource(t *testing.T) {
	t.Parallel()

	r := batch.New(api.NewAPI(nil, translator.NewConverter()), filepath.Join(t.TempDir(), "missing"), t.TempDir(), nil)
	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeInput(t, src, "a.html", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := batch.New(api.NewAPI(nil, translator.NewConverter()), src, t.TempDir(), nil)
	summary, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, &batch.Summary{}, summary)
}
