package repo

import (
	"context"

	"github.com/keshon/fossil/internal/profile"
)

// ActiveProfile returns the selected profile.
func (r *Repository) ActiveProfile() (profile.Profile, error) {
	return r.Profiles.Active()
}

// ListProfiles returns all profiles sorted by name.
func (r *Repository) ListProfiles() ([]profile.Profile, error) {
	return r.Profiles.List()
}

// CreateProfile creates an empty profile and, with activate, selects it
// under the same lock.
func (r *Repository) CreateProfile(ctx context.Context, name string, activate bool) (p profile.Profile, err error) {
	err = r.locked(ctx, func() error {
		if p, err = r.Profiles.Create(name); err != nil || !activate {
			return err
		}
		p, err = r.Profiles.Select(name)
		return err
	})
	return p, err
}

// RemoveProfile deletes a profile's manifest. Its snapshots are kept.
func (r *Repository) RemoveProfile(ctx context.Context, name string) error {
	return r.locked(ctx, func() error {
		return r.Profiles.Remove(name)
	})
}

// RenameProfile renames the active profile.
func (r *Repository) RenameProfile(ctx context.Context, newName string) (p profile.Profile, err error) {
	err = r.locked(ctx, func() error {
		p, err = r.Profiles.Rename(newName)
		return err
	})
	return p, err
}

// SelectProfile makes name the active profile.
func (r *Repository) SelectProfile(ctx context.Context, name string) (p profile.Profile, err error) {
	err = r.locked(ctx, func() error {
		p, err = r.Profiles.Select(name)
		return err
	})
	return p, err
}
