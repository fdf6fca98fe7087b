package generator

// patternEntry is one (pattern, package name) pair in config order.
type patternEntry struct {
	pattern string
	pkg     string
}

// fillPackageMap builds the pattern list from the configured packages (in
// order) and assigns every path in a.allFiles that matches a pattern to
// that package, first-match-wins. Unmatched paths are resolved to the
// default package at lookup time via packageFor, not stored here.
func (g *Generator) fillPackageMap(a *analysis) {
	packages := g.cfg.Generate.Packages

	a.defaultPkg = packages[len(packages)-1].Name
	defaultSet := false
	var patterns []patternEntry
	for _, pkg := range packages {
		if pkg.IncludeFiles == nil {
			if !defaultSet {
				a.defaultPkg = pkg.Name
				defaultSet = true
			}
			continue
		}
		for _, pattern := range pkg.IncludeFiles {
			patterns = append(patterns, patternEntry{pattern: pattern, pkg: pkg.Name})
		}
	}

	for filename := range a.allFiles {
		for _, entry := range patterns {
			if containsAny(filename, []string{entry.pattern}) {
				a.packageMap[filename] = entry.pkg
				break
			}
		}
	}
}

// packageFor resolves a path to its routed package name, falling back to
// the default package when no pattern matched.
func packageFor(a *analysis, name string) string {
	if pkg, ok := a.packageMap[name]; ok {
		return pkg
	}
	return a.defaultPkg
}
