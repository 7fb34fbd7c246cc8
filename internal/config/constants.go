package config

// SourceFileExt is the extension of Qi source files.
const SourceFileExt = ".qi"

// StdDirName is the directory searched for std/ modules, first relative
// to the working directory and then relative to the qi executable.
const StdDirName = "std"

// StdLibDirName is the subdirectory of StdDirName holding bare-name libraries.
const StdLibDirName = "lib"

// PackagesDirName is the project-local package directory (./qi_packages/<name>/mod.qi).
const PackagesDirName = "qi_packages"

// HomePackagesDir is the per-user package store under the home directory
// (~/.qi/packages/<name>/<semver>/mod.qi).
const HomePackagesDir = ".qi/packages"

// ModEntryFile is the entry file of a packaged module.
const ModEntryFile = "mod" + SourceFileExt

// DocPrefix is the environment key prefix under which doc strings are stored.
const DocPrefix = "__doc__"

// Built-in function names referenced outside the evaluator.
const (
	PrintFuncName   = "print"
	PrintlnFuncName = "println"
	StrFuncName     = "str"
	DocFuncName     = "doc"
)
