// Package usecase keeps the list of protocol versions served by /versions.
package usecase

import (
	"slices"
	"sync"

	"github.com/allisson/ocpi/internal/errors"
	"github.com/allisson/ocpi/internal/version/domain"
)

// Directory holds VersionInformation unique by id.
type Directory interface {
	// Add registers a version; the id must not be taken.
	Add(v domain.VersionInformation) error

	// Get returns the version with id.
	Get(id string) (domain.VersionInformation, bool)

	// List returns all versions sorted by id.
	List() []domain.VersionInformation
}

type directory struct {
	mu       sync.RWMutex
	versions map[string]domain.VersionInformation
}

// NewDirectory creates a directory preloaded with versions.
func NewDirectory(versions ...domain.VersionInformation) (Directory, error) {
	d := &directory{versions: make(map[string]domain.VersionInformation, len(versions))}
	for _, v := range versions {
		if err := d.Add(v); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Add implements Directory.
func (d *directory) Add(v domain.VersionInformation) error {
	if err := v.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.versions[v.ID]; ok {
		return errors.Wrapf(domain.ErrDuplicateVersion, "%s", v.ID)
	}
	d.versions[v.ID] = v
	return nil
}

// Get implements Directory.
func (d *directory) Get(id string) (domain.VersionInformation, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, ok := d.versions[id]
	return v, ok
}

// List implements Directory.
func (d *directory) List() []domain.VersionInformation {
	d.mu.RLock()
	versions := make([]domain.VersionInformation, 0, len(d.versions))
	for _, v := range d.versions {
		versions = append(versions, v)
	}
	d.mu.RUnlock()

	slices.SortFunc(versions, func(a, b domain.VersionInformation) int {
		return domain.CompareIDs(a.ID, b.ID)
	})
	return versions
}
