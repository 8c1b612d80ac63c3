// Package tz exposes the IANA timezone database and the wall clock as small
// injectable capabilities.
package tz

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// Provider resolves IANA timezone names.
type Provider interface {
	Resolve(name string) (*time.Location, error)
}

// UnknownTimeZoneError is returned when a provider does not know a zone name.
type UnknownTimeZoneError struct {
	Name string
	Err  error
}

func (e *UnknownTimeZoneError) Error() string {
	return fmt.Sprintf("unknown timezone %q", e.Name)
}

func (e *UnknownTimeZoneError) Unwrap() error {
	return e.Err
}

// checkName rejects names that the Go loader would otherwise map to a zone
// implicitly ("" to UTC, "Local" to the host zone).
func checkName(name string) error {
	if name == "" || name == "Local" {
		return &UnknownTimeZoneError{Name: name}
	}
	return nil
}

// SystemProvider resolves names with time.LoadLocation. The embedded tzdata
// package is used when the host has no zoneinfo installed. Names that miss
// are retried with the canonical spelling from the host zoneinfo tree, so
// lookups are case-insensitive.
type SystemProvider struct {
	index *zoneIndex
}

func NewSystemProvider() *SystemProvider {
	return &SystemProvider{index: newZoneIndex(hostZones)}
}

func (p *SystemProvider) Resolve(name string) (*time.Location, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		if canonical, ok := p.index.canonical(name); ok && canonical != name {
			loc, err = time.LoadLocation(canonical)
		}
	}
	if err != nil {
		return nil, &UnknownTimeZoneError{Name: name, Err: err}
	}
	return loc, nil
}

// hostZoneinfoDirs are searched in the same order as the Go runtime loader.
var hostZoneinfoDirs = []string{
	"/usr/share/zoneinfo",
	"/usr/share/lib/zoneinfo",
	"/usr/lib/locale/TZ",
	"/etc/zoneinfo",
}

func hostZones() ([]string, error) {
	osFs := afero.NewOsFs()
	for _, dir := range hostZoneinfoDirs {
		if ok, _ := afero.DirExists(osFs, dir); ok {
			return ListZones(afero.NewBasePathFs(osFs, dir))
		}
	}
	return nil, nil
}

// DirectoryProvider reads TZif files from a zoneinfo tree. Loaded locations
// are cached for the lifetime of the provider. Lookups are case-insensitive.
type DirectoryProvider struct {
	fs    afero.Fs
	index *zoneIndex

	mu    sync.Mutex
	cache map[string]*time.Location
}

// NewDirectoryProvider serves zones from fsys, which must be rooted at the
// zoneinfo directory.
func NewDirectoryProvider(fsys afero.Fs) *DirectoryProvider {
	return &DirectoryProvider{
		fs: fsys,
		index: newZoneIndex(func() ([]string, error) {
			return ListZones(fsys)
		}),
		cache: make(map[string]*time.Location),
	}
}

// NewDirectoryProviderFromPath serves zones from the zoneinfo directory at root.
func NewDirectoryProviderFromPath(root string) (*DirectoryProvider, error) {
	info, err := afero.NewOsFs().Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat zoneinfo directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("zoneinfo path %s is not a directory", root)
	}
	return NewDirectoryProvider(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

func (p *DirectoryProvider) Resolve(name string) (*time.Location, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if !validZoneName(name) {
		return nil, &UnknownTimeZoneError{Name: name}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if loc, ok := p.cache[name]; ok {
		return loc, nil
	}

	loc, err := p.load(name)
	if err != nil {
		if canonical, ok := p.index.canonical(name); ok && canonical != name {
			loc, err = p.load(canonical)
		}
	}
	if err != nil {
		return nil, &UnknownTimeZoneError{Name: name, Err: err}
	}

	p.cache[name] = loc
	return loc, nil
}

func (p *DirectoryProvider) load(name string) (*time.Location, error) {
	data, err := afero.ReadFile(p.fs, name)
	if err != nil {
		return nil, err
	}
	return time.LoadLocationFromTZData(name, data)
}

// zoneIndex maps lower-cased zone names to their canonical spelling. The zone
// list is loaded once, on the first lookup that needs it.
type zoneIndex struct {
	once  sync.Once
	load  func() ([]string, error)
	names map[string]string
}

func newZoneIndex(load func() ([]string, error)) *zoneIndex {
	return &zoneIndex{load: load}
}

func (x *zoneIndex) canonical(name string) (string, bool) {
	if strings.EqualFold(name, "UTC") {
		return "UTC", true
	}
	if x == nil {
		return "", false
	}

	x.once.Do(func() {
		zones, err := x.load()
		if err != nil {
			return
		}
		x.names = lo.SliceToMap(zones, func(zone string) (string, string) {
			return strings.ToLower(zone), zone
		})
	})

	canonical, ok := x.names[strings.ToLower(name)]
	return canonical, ok
}

// validZoneName mirrors the restrictions of time.LoadLocation: relative,
// slash separated, without dot-dot elements.
func validZoneName(name string) bool {
	if strings.HasPrefix(name, "/") || strings.Contains(name, `\`) {
		return false
	}
	return path.Clean(name) == name && !slices.Contains(strings.Split(name, "/"), "..")
}

// ListZones walks a zoneinfo tree and returns the sorted names of the files
// that parse as TZif data. The posix/ and right/ mirrors are skipped.
func ListZones(fsys afero.Fs) ([]string, error) {
	var files []string
	err := afero.Walk(fsys, ".", func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p == "posix" || p == "right" {
				return fs.SkipDir
			}
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk zoneinfo directory: %w", err)
	}

	zones := lo.Filter(files, func(name string, _ int) bool {
		return isTZif(fsys, name)
	})
	slices.Sort(zones)
	return zones, nil
}

func isTZif(fsys afero.Fs, name string) bool {
	f, err := fsys.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return false
	}
	return string(magic) == "TZif"
}
