// Package source retrieves the raw bytes of a CSV resource from a URL,
// a local file or an injected buffer.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Resource is the raw content of one fetched location.
type Resource struct {
	Location    string
	ContentType string
	Data        []byte
	FetchedAt   time.Time
}

// Size returns the number of bytes in the resource.
func (r *Resource) Size() int {
	return len(r.Data)
}

// Fetcher retrieves a resource by location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (*Resource, error)
}

// ErrEmptyLocation is returned when no location was given.
var ErrEmptyLocation = errors.New("resource location is empty")

const fileScheme = "file://"

// FileFetcher reads resources from the local filesystem.
type FileFetcher struct{}

// Fetch reads the file at location. A file:// prefix is accepted.
func (FileFetcher) Fetch(ctx context.Context, location string) (*Resource, error) {
	if location == "" {
		return nil, ErrEmptyLocation
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}

	path := strings.TrimPrefix(location, fileScheme)

	//nolint:gosec // G304: reading the user-selected input is the purpose of this fetcher.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return &Resource{
		Location:  location,
		Data:      data,
		FetchedAt: time.Now(),
	}, nil
}

// StaticFetcher serves pre-fetched bytes regardless of the location.
type StaticFetcher struct {
	Data        []byte
	ContentType string
}

// Fetch returns the injected bytes.
func (s StaticFetcher) Fetch(_ context.Context, location string) (*Resource, error) {
	return &Resource{
		Location:    location,
		ContentType: s.ContentType,
		Data:        s.Data,
		FetchedAt:   time.Now(),
	}, nil
}

// Router dispatches http(s) locations to HTTP and everything else to File.
type Router struct {
	HTTP Fetcher
	File Fetcher
}

// Fetch implements Fetcher.
func (r Router) Fetch(ctx context.Context, location string) (*Resource, error) {
	if IsRemote(location) {
		return r.HTTP.Fetch(ctx, location)
	}

	return r.File.Fetch(ctx, location)
}

// IsRemote reports whether location is an http or https URL.
func IsRemote(location string) bool {
	lower := strings.ToLower(location)

	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
