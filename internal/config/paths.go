package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Layout derives every path fossil reads or writes under its base directory.
//
//	<base>/config
//	<base>/profiles/<name>.manifest
//	<base>/snapshots/<profile>/<profile>[<n>].archive
//	<base>/buffer/
type Layout struct {
	Base string
}

func (l Layout) ConfigFile() string   { return filepath.Join(l.Base, ConfigFile) }
func (l Layout) SettingsFile() string { return filepath.Join(l.Base, SettingsFile) }
func (l Layout) ProfilesDir() string  { return filepath.Join(l.Base, ProfilesDir) }
func (l Layout) SnapshotsDir() string { return filepath.Join(l.Base, SnapshotsDir) }
func (l Layout) BufferDir() string    { return filepath.Join(l.Base, BufferDir) }
func (l Layout) CatalogFile() string  { return filepath.Join(l.Base, CatalogFile) }
func (l Layout) LockFile() string     { return filepath.Join(l.Base, LockFile) }
func (l Layout) IgnoreFile() string   { return filepath.Join(l.Base, IgnoreFile) }

// ProfileManifest returns the manifest path of the named profile.
func (l Layout) ProfileManifest(name string) string {
	return filepath.Join(l.ProfilesDir(), name+ManifestExt)
}

// ProfileSnapshotsDir returns the directory holding the archives of a profile.
func (l Layout) ProfileSnapshotsDir(profile string) string {
	return filepath.Join(l.SnapshotsDir(), profile)
}

// ArchivePath returns the archive path for the given profile and sequence number.
func (l Layout) ArchivePath(profile string, seq int) string {
	return filepath.Join(l.ProfileSnapshotsDir(profile), ArchiveName(profile, seq))
}

// ArchiveName formats an archive file name, e.g. "work[3].archive".
func ArchiveName(profile string, seq int) string {
	return fmt.Sprintf("%s[%d]%s", profile, seq, ArchiveExt)
}

// ParseArchiveName extracts the sequence number from an archive file name
// belonging to profile.
func ParseArchiveName(profile, name string) (int, bool) {
	prefix := profile + "["
	suffix := "]" + ArchiveExt
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ProfileName strips the manifest extension from a file in the profiles dir.
func ProfileName(file string) (string, bool) {
	if !strings.HasSuffix(file, ManifestExt) {
		return "", false
	}
	name := strings.TrimSuffix(file, ManifestExt)
	return name, name != ""
}
