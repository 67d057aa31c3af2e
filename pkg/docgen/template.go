package docgen

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/gcloudforge/docgen/pkg/storage"
)

// DefaultTemplateName is the conventional template filename used when no
// explicit template is configured.
const DefaultTemplateName = "service_description_template.docx"

// TemplateSource is one strategy for locating template bytes. Load returns
// found=false when the source has nothing to offer, reserving errors for
// genuine failures.
type TemplateSource interface {
	Describe() string
	Load(ctx context.Context) (data []byte, found bool, err error)
}

// FileSource loads a template from an explicit filesystem path.
type FileSource struct {
	Fs   afero.Fs
	Path string
}

func (s *FileSource) Describe() string { return "file:" + s.Path }

func (s *FileSource) Load(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	ok, err := afero.Exists(s.Fs, s.Path)
	if err != nil || !ok {
		return nil, false, err
	}
	data, err := afero.ReadFile(s.Fs, s.Path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read template %s: %w", s.Path, err)
	}
	return data, true, nil
}

// DirSource loads the first document found in a directory, in lexical
// order for determinism.
type DirSource struct {
	Fs  afero.Fs
	Dir string
}

func (s *DirSource) Describe() string { return "dir:" + s.Dir }

func (s *DirSource) Load(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	matches, err := afero.Glob(s.Fs, filepath.Join(s.Dir, "*.docx"))
	if err != nil || len(matches) == 0 {
		return nil, false, err
	}
	sort.Strings(matches)
	data, err := afero.ReadFile(s.Fs, matches[0])
	if err != nil {
		return nil, false, fmt.Errorf("failed to read template %s: %w", matches[0], err)
	}
	return data, true, nil
}

// BackendSource loads a template from a storage backend key.
type BackendSource struct {
	Backend storage.Backend
	Key     string
}

func (s *BackendSource) Describe() string { return "storage:" + s.Key }

func (s *BackendSource) Load(ctx context.Context) ([]byte, bool, error) {
	data, err := s.Backend.Get(ctx, s.Key)
	if err == storage.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read template %s: %w", s.Key, err)
	}
	return data, true, nil
}

// TemplateLoader resolves a template through an ordered list of sources,
// caching resolved bytes per source.
type TemplateLoader struct {
	sources []TemplateSource
	cache   *templateCache
}

// NewTemplateLoader builds a loader trying the sources in order.
func NewTemplateLoader(sources ...TemplateSource) *TemplateLoader {
	return &TemplateLoader{sources: sources, cache: newTemplateCache()}
}

// DefaultSources returns the conventional resolution order: explicit path
// (when set), the docs directory, the templates directory, and finally the
// conventional template path.
func DefaultSources(fs afero.Fs, explicitPath, docsDir, templatesDir string) []TemplateSource {
	var sources []TemplateSource
	if explicitPath != "" {
		sources = append(sources, &FileSource{Fs: fs, Path: explicitPath})
	}
	if docsDir != "" {
		sources = append(sources, &DirSource{Fs: fs, Dir: docsDir})
	}
	if templatesDir != "" {
		sources = append(sources, &DirSource{Fs: fs, Dir: templatesDir})
		sources = append(sources, &FileSource{Fs: fs, Path: filepath.Join(templatesDir, DefaultTemplateName)})
	}
	return sources
}

// Resolve returns the first template the sources produce. All failed
// candidates are listed in the not-found error.
func (l *TemplateLoader) Resolve(ctx context.Context) ([]byte, string, error) {
	var candidates []string
	for _, src := range l.sources {
		desc := src.Describe()
		if data, ok := l.cache.get(desc); ok {
			return data, desc, nil
		}
		data, found, err := src.Load(ctx)
		if err != nil {
			return nil, "", err
		}
		if !found {
			candidates = append(candidates, desc)
			continue
		}
		l.cache.put(desc, data)
		return data, desc, nil
	}
	return nil, "", NewTemplateNotFoundError(candidates)
}
