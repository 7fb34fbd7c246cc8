package modules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sanohiro/qi-lang-sub000/internal/config"
)

// Resolver maps a use-path to a source file on disk. It never reads
// the file; callers own loading and caching.
type Resolver struct {
	// ExeDir is the directory of the interpreter binary, used for the
	// bundled standard library. Empty disables exe-relative lookups.
	ExeDir string
}

func NewResolver() *Resolver {
	r := &Resolver{}
	if exe, err := os.Executable(); err == nil {
		r.ExeDir = filepath.Dir(exe)
	}
	return r
}

// Resolve returns the absolute path of the source file behind name.
// fromDir is the directory of the file containing the use form (or the
// working directory for the REPL and -e).
func (r *Resolver) Resolve(name, fromDir string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty module path")
	}

	if filepath.IsAbs(name) || strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../") {
		p := withExt(name)
		if !filepath.IsAbs(p) {
			p = filepath.Join(fromDir, p)
		}
		if fileExists(p) {
			return filepath.Abs(p)
		}
		return "", fmt.Errorf("module %q not found at %s", name, p)
	}

	if rest, ok := strings.CutPrefix(name, config.StdDirName+"/"); ok {
		candidates := []string{
			filepath.Join(".", config.StdDirName, withExt(rest)),
		}
		if r.ExeDir != "" {
			candidates = append(candidates, filepath.Join(r.ExeDir, config.StdDirName, withExt(rest)))
		}
		return firstExisting(name, candidates)
	}

	candidates := []string{
		filepath.Join(fromDir, withExt(name)),
		filepath.Join(".", config.StdDirName, config.StdLibDirName, withExt(name)),
	}
	if r.ExeDir != "" {
		candidates = append(candidates, filepath.Join(r.ExeDir, config.StdDirName, config.StdLibDirName, withExt(name)))
	}
	candidates = append(candidates, filepath.Join(".", config.PackagesDirName, name, config.ModEntryFile))
	if home, err := os.UserHomeDir(); err == nil {
		if p := highestVersionEntry(filepath.Join(home, config.HomePackagesDir, name)); p != "" {
			candidates = append(candidates, p)
		}
	}
	return firstExisting(name, candidates)
}

func withExt(p string) string {
	if strings.HasSuffix(p, config.SourceFileExt) {
		return p
	}
	return p + config.SourceFileExt
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func firstExisting(name string, candidates []string) (string, error) {
	for _, c := range candidates {
		if fileExists(c) {
			return filepath.Abs(c)
		}
	}
	return "", fmt.Errorf("module %q not found (searched %s)", name, strings.Join(candidates, ", "))
}

// highestVersionEntry picks <dir>/<highest-semver>/mod.qi among the
// version subdirectories of an installed package.
func highestVersionEntry(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var versions []semver
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if v, ok := parseSemver(e.Name()); ok {
			versions = append(versions, v)
		}
	}
	if len(versions) == 0 {
		return ""
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].less(versions[j]) })
	best := versions[len(versions)-1]
	return filepath.Join(dir, best.raw, config.ModEntryFile)
}

type semver struct {
	major, minor, patch int
	raw                 string
}

func (a semver) less(b semver) bool {
	if a.major != b.major {
		return a.major < b.major
	}
	if a.minor != b.minor {
		return a.minor < b.minor
	}
	return a.patch < b.patch
}

func parseSemver(s string) (semver, bool) {
	raw := s
	s = strings.TrimPrefix(s, "v")
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		return semver{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return semver{}, false
		}
		nums[i] = n
	}
	return semver{major: nums[0], minor: nums[1], patch: nums[2], raw: raw}, true
}
