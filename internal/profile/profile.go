// Package profile manages named manifests and the pointer to the active one.
package profile

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/keshon/fossil/internal/apperr"
	"github.com/keshon/fossil/internal/config"
	"github.com/keshon/fossil/internal/fs"
	"github.com/keshon/fossil/internal/manifest"
)

// MaxNameLen bounds profile names; they end up in file names.
const MaxNameLen = 64

var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Profile is a named manifest.
type Profile struct {
	Name   string
	Active bool
}

// pointer is the content of <base>/config.
type pointer struct {
	ActiveProfile string `yaml:"active_profile"`
}

// Registry lists, creates and selects profiles under a base directory.
type Registry struct {
	FS     afero.Fs
	Layout config.Layout
	Home   string
}

// NewRegistry returns a Registry over layout; manifests resolve paths against home.
func NewRegistry(fsys afero.Fs, layout config.Layout, home string) *Registry {
	return &Registry{FS: fsys, Layout: layout, Home: home}
}

// ValidateName checks that name is usable as a profile and file name.
func ValidateName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.Length(1, MaxNameLen),
		validation.Match(namePattern),
		validation.NotIn(".", ".."),
	)
	if err != nil {
		return fmt.Errorf("%w %q: %v", apperr.ErrInvalidName, name, err)
	}
	return nil
}

// Init lays out the base directory and creates the default profile,
// selected. An already initialized base is left alone and created is false.
func (r *Registry) Init() (created bool, err error) {
	if fs.Exists(r.FS, r.Layout.ConfigFile()) {
		return false, nil
	}

	for _, d := range []string{r.Layout.Base, r.Layout.ProfilesDir(), r.Layout.SnapshotsDir()} {
		if err := r.FS.MkdirAll(d, 0o755); err != nil {
			return false, fmt.Errorf("create dir %q: %w", d, err)
		}
	}

	if !r.exists(config.DefaultProfile) {
		if _, err := r.Create(config.DefaultProfile); err != nil {
			return false, err
		}
	}
	if err := r.writePointer(config.DefaultProfile); err != nil {
		return false, err
	}
	return true, nil
}

// Create writes an empty manifest for name.
func (r *Registry) Create(name string) (Profile, error) {
	if err := ValidateName(name); err != nil {
		return Profile{}, err
	}
	if r.exists(name) {
		return Profile{}, apperr.Path("create profile", name, apperr.ErrAlreadyExists)
	}
	if err := r.Store(name).Create(); err != nil {
		return Profile{}, fmt.Errorf("create profile %q: %w", name, err)
	}
	return Profile{Name: name}, nil
}

// Remove deletes the manifest of name. Snapshots of the profile stay on disk.
// Removing the active profile leaves no profile selected.
func (r *Registry) Remove(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if !r.exists(name) {
		return apperr.Path("remove profile", name, apperr.ErrNotFound)
	}
	if err := r.FS.Remove(r.Layout.ProfileManifest(name)); err != nil {
		return fmt.Errorf("remove profile %q: %w", name, err)
	}

	active, err := r.readPointer()
	if err != nil {
		return err
	}
	if active == name {
		return r.writePointer("")
	}
	return nil
}

// Rename gives the active profile a new name and keeps it selected.
func (r *Registry) Rename(newName string) (Profile, error) {
	if err := ValidateName(newName); err != nil {
		return Profile{}, err
	}
	cur, err := r.Active()
	if err != nil {
		return Profile{}, err
	}
	if cur.Name == newName {
		return cur, nil
	}
	if r.exists(newName) {
		return Profile{}, apperr.Path("rename profile", newName, apperr.ErrAlreadyExists)
	}

	from, to := r.Layout.ProfileManifest(cur.Name), r.Layout.ProfileManifest(newName)
	if err := r.FS.Rename(from, to); err != nil {
		return Profile{}, fmt.Errorf("rename profile %q to %q: %w", cur.Name, newName, err)
	}
	if err := r.writePointer(newName); err != nil {
		return Profile{}, err
	}
	return Profile{Name: newName, Active: true}, nil
}

// Select makes name the active profile.
func (r *Registry) Select(name string) (Profile, error) {
	if err := ValidateName(name); err != nil {
		return Profile{}, err
	}
	if !r.exists(name) {
		return Profile{}, apperr.Path("select profile", name, apperr.ErrNotFound)
	}
	if err := r.writePointer(name); err != nil {
		return Profile{}, err
	}
	return Profile{Name: name, Active: true}, nil
}

// List returns all profiles sorted by name.
func (r *Registry) List() ([]Profile, error) {
	entries, err := afero.ReadDir(r.FS, r.Layout.ProfilesDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profiles dir %q: %w", r.Layout.ProfilesDir(), err)
	}
	active, err := r.readPointer()
	if err != nil {
		return nil, err
	}

	out := make([]Profile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name, ok := config.ProfileName(e.Name())
		if !ok {
			continue
		}
		out = append(out, Profile{Name: name, Active: name == active})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Active returns the selected profile. A pointer to a profile whose
// manifest no longer exists counts as no selection.
func (r *Registry) Active() (Profile, error) {
	name, err := r.readPointer()
	if err != nil {
		return Profile{}, err
	}
	if name == "" || !r.exists(name) {
		return Profile{}, apperr.ErrNoActiveProfile
	}
	return Profile{Name: name, Active: true}, nil
}

// Store opens the manifest of name with the ignore rules of the base dir.
func (r *Registry) Store(name string) *manifest.Store {
	s := manifest.NewStore(r.FS, r.Layout.ProfileManifest(name), r.Home)
	s.Ignore = manifest.NewIgnore(r.FS, r.Layout.IgnoreFile(), relToHome(r.Home, r.Layout.Base))
	return s
}

func (r *Registry) exists(name string) bool {
	return fs.Exists(r.FS, r.Layout.ProfileManifest(name))
}

func (r *Registry) readPointer() (string, error) {
	data, err := afero.ReadFile(r.FS, r.Layout.ConfigFile())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read %q: %w", r.Layout.ConfigFile(), err)
	}
	var p pointer
	if err := yaml.Unmarshal(data, &p); err != nil {
		return "", fmt.Errorf("parse %q: %w", r.Layout.ConfigFile(), err)
	}
	return p.ActiveProfile, nil
}

func (r *Registry) writePointer(name string) error {
	data, err := yaml.Marshal(pointer{ActiveProfile: name})
	if err != nil {
		return fmt.Errorf("marshal active profile: %w", err)
	}
	if err := fs.WriteFileAtomic(r.FS, r.Layout.ConfigFile(), data, 0o644); err != nil {
		return fmt.Errorf("write active profile: %w", err)
	}
	return nil
}
