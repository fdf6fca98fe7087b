package generator

import (
	"sort"
	"strings"

	"github.com/obsproject/obs-updater-builder/internal/manifest"
)

// createManifest assembles the updater manifest from the analysis and
// package routing: one manifest.Package per configured package, each with
// its routed files/removed_files sorted case-insensitively, the packages
// themselves sorted the same way. Notes and the VC redist hashes are left
// blank for the Packager to fill in.
func (g *Generator) createManifest(a *analysis) manifest.Manifest {
	m := manifest.New(g.version)

	for _, pkgCfg := range g.cfg.Generate.Packages {
		pkg := manifest.Package{Name: pkgCfg.Name}

		for name := range a.removedFiles {
			if packageFor(a, name) == pkgCfg.Name {
				pkg.RemovedFiles = append(pkg.RemovedFiles, name)
			}
		}
		for name, info := range a.inputMap {
			if packageFor(a, name) == pkgCfg.Name {
				pkg.Files = append(pkg.Files, manifest.FileEntry{
					Name: name,
					Hash: info.Hash,
					Size: info.Size,
				})
			}
		}

		sort.Slice(pkg.RemovedFiles, func(i, j int) bool {
			return strings.ToLower(pkg.RemovedFiles[i]) < strings.ToLower(pkg.RemovedFiles[j])
		})
		sort.Slice(pkg.Files, func(i, j int) bool {
			return strings.ToLower(pkg.Files[i].Name) < strings.ToLower(pkg.Files[j].Name)
		})

		m.Packages = append(m.Packages, pkg)
	}

	sort.Slice(m.Packages, func(i, j int) bool {
		return strings.ToLower(m.Packages[i].Name) < strings.ToLower(m.Packages[j].Name)
	})

	return m
}
