// Package manifest defines the updater manifest JSON shape produced by the
// Generator and finalised by the Packager.
package manifest

import (
	"encoding/json"

	"github.com/obsproject/obs-updater-builder/internal/obsversion"
)

// FileEntry is one shipped file within a package.
type FileEntry struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
	Size uint64 `json:"size"`
}

// Package is a named, independently fetchable subset of the shipped files.
type Package struct {
	Name         string      `json:"name"`
	RemovedFiles []string    `json:"removed_files"`
	Files        []FileEntry `json:"files"`
}

// Manifest is the top-level updater manifest. Notes and the VC redist
// hashes are left blank by the Generator; the Packager fills them in.
type Manifest struct {
	Notes           string    `json:"notes"`
	Packages        []Package `json:"packages"`
	VersionMajor    uint8     `json:"version_major"`
	VersionMinor    uint8     `json:"version_minor"`
	VersionPatch    uint8     `json:"version_patch"`
	Beta            uint8     `json:"beta"`
	RC              uint8     `json:"rc"`
	Commit          string    `json:"commit"`
	VC2019RedistX64 string    `json:"vc2019_redist_x64"`
	VC2019RedistX86 string    `json:"vc2019_redist_x86"`
}

// New creates a Manifest carrying the version fields of v and nothing else.
func New(v obsversion.Version) Manifest {
	return Manifest{
		VersionMajor: v.Major,
		VersionMinor: v.Minor,
		VersionPatch: v.Patch,
		Beta:         v.Beta,
		RC:           v.RC,
		Commit:       v.Commit,
	}
}

// Marshal renders the manifest as JSON, pretty-printed (two-space indent)
// when pretty is set, compact otherwise.
func (m Manifest) Marshal(pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(m, "", "  ")
	}
	return json.Marshal(m)
}
