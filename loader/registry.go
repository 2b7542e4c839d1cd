package loader

import (
	"context"
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/viant/afs"
	"github.com/viant/procos/abi"
	"github.com/viant/procos/internal/debug"
	"gopkg.in/yaml.v3"
)

// DefaultCacheSize is the number of resolved images kept by default.
const DefaultCacheSize = 64

// Registry is a Loader over registered programs and manifest layouts.
// Resolved images are cached.
type Registry struct {
	mu        sync.RWMutex
	programs  map[string]abi.Program
	layouts   map[string]*Layout
	cache     *lru.Cache[string, *Image]
	cacheSize int
	fs        afs.Service
}

// Option configures a Registry.
type Option func(r *Registry)

// WithCacheSize sets the number of cached images.
func WithCacheSize(size int) Option {
	return func(r *Registry) { r.cacheSize = size }
}

// WithFS sets the storage service used to read manifests.
func WithFS(fs afs.Service) Option {
	return func(r *Registry) { r.fs = fs }
}

// New creates an empty registry.
func New(options ...Option) *Registry {
	ret := &Registry{
		programs:  make(map[string]abi.Program),
		layouts:   make(map[string]*Layout),
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.cacheSize <= 0 {
		ret.cacheSize = DefaultCacheSize
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	ret.cache, _ = lru.New[string, *Image](ret.cacheSize)
	return ret
}

// Register adds or replaces a program.
func (r *Registry) Register(name string, program abi.Program) {
	r.mu.Lock()
	r.programs[name] = program
	r.mu.Unlock()
	r.cache.Remove(name)
}

// RegisterAll adds every program of programs.
func (r *Registry) RegisterAll(programs map[string]abi.Program) {
	for name, program := range programs {
		r.Register(name, program)
	}
}

// SetLayout adds or replaces the layout of an image.
func (r *Registry) SetLayout(layout *Layout) error {
	if err := layout.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.layouts[layout.Name] = layout
	r.mu.Unlock()
	r.cache.Remove(layout.Name)
	return nil
}

// DecodeManifest parses YAML manifest data and installs its layouts.
func (r *Registry) DecodeManifest(data []byte) error {
	manifest := &Manifest{}
	if err := yaml.Unmarshal(data, manifest); err != nil {
		return fmt.Errorf("failed to decode manifest: %w", err)
	}
	for _, layout := range manifest.Images {
		if err := r.SetLayout(layout); err != nil {
			return err
		}
	}
	return nil
}

// LoadManifest reads a YAML manifest from URL and installs its layouts.
func (r *Registry) LoadManifest(ctx context.Context, URL string) error {
	data, err := r.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return fmt.Errorf("failed to download manifest %v: %w", URL, err)
	}
	return r.DecodeManifest(data)
}

// Resolve implements Loader.
func (r *Registry) Resolve(name string) (*Image, error) {
	if image, ok := r.cache.Get(name); ok {
		return image, nil
	}
	r.mu.RLock()
	program, ok := r.programs[name]
	layout := r.layouts[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, name)
	}
	if layout == nil {
		layout = DefaultLayout(name)
	}
	segments, err := layout.segments()
	if err != nil {
		return nil, err
	}
	image := &Image{Name: name, Entry: program, Segments: segments}
	r.cache.Add(name, image)
	debug.DPrintf(debug.LOADER, "resolved %v: %d segments", name, len(segments))
	return image, nil
}

// Names returns registered program names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]string, 0, len(r.programs))
	for name := range r.programs {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Cached reports whether name is in the image cache.
func (r *Registry) Cached(name string) bool {
	return r.cache.Contains(name)
}

var _ Loader = (*Registry)(nil)
