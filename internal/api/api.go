package api

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tesh254/wp2md/internal/logging"
	"github.com/tesh254/wp2md/internal/storage"
	"github.com/tesh254/wp2md/internal/translator"
)

// API converts post bodies and keeps the results in storage.
type API struct {
	storage   *storage.Storage
	converter translator.Converter
	now       func() time.Time
}

// NewAPI creates a new API instance. st may be nil, in which case nothing is
// cached.
func NewAPI(st *storage.Storage, conv translator.Converter) *API {
	return &API{
		storage:   st,
		converter: conv,
		now:       time.Now,
	}
}

// Result is the outcome of a Render call.
type Result struct {
	Markdown string
	Checksum string
	Cached   bool
}

// Checksum identifies an input together with the options and the rule set
// version it is rendered with.
func Checksum(content string, opts translator.Options) string {
	return checksum(translator.RulesVersion, content, opts)
}

func checksum(version, content string, opts translator.Options) string {
	sum := sha256.Sum256([]byte(version + "\x00" + strconv.FormatBool(opts.ImagesSavedLocally) + "\x00" + content))
	return fmt.Sprintf("%x", sum)
}

// Render converts content to Markdown. When key is set and storage is
// configured, an unchanged input is served from storage and a fresh
// conversion is stored under key.
func (a *API) Render(ctx context.Context, key, content string, opts translator.Options) (*Result, error) {
	logger := logging.FromContext(ctx)
	checksum := Checksum(content, opts)

	if a.storage != nil && key != "" {
		doc, err := a.storage.GetDocument(key)
		switch {
		case err == nil && doc.Checksum == checksum:
			logger.Debug("served from cache", "key", key)
			return &Result{Markdown: doc.Markdown, Checksum: checksum, Cached: true}, nil
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			logger.Warn("cache lookup failed, converting", "key", key, "err", err)
		}
	}

	markdown, err := translator.RenderMarkdownContext(ctx, content, a.converter, opts)
	if err != nil {
		return nil, err
	}

	if a.storage != nil && key != "" {
		doc := &storage.Document{
			Key:         key,
			Checksum:    checksum,
			Markdown:    markdown,
			ConvertedAt: a.now().UTC(),
		}
		if err := a.storage.StoreDocument(doc); err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", key, err)
		}
	}

	return &Result{Markdown: markdown, Checksum: checksum}, nil
}

// GetDocument retrieves a stored conversion by key.
func (a *API) GetDocument(key string) (*storage.Document, error) {
	if a.storage == nil {
		return nil, storage.ErrNotFound
	}
	return a.storage.GetDocument(key)
}

// DeleteDocument deletes a stored conversion by key.
func (a *API) DeleteDocument(key string) error {
	if a.storage == nil {
		return storage.ErrNotFound
	}
	return a.storage.DeleteDocument(key)
}

// ListDocuments lists all stored conversions.
func (a *API) ListDocuments() ([]*storage.Document, error) {
	if a.storage == nil {
		return nil, nil
	}
	return a.storage.ListDocuments()
}
