// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package appdata

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrNoDataDir is returned when none of the candidate data directories
	// for the current platform could be created and written to.
	ErrNoDataDir = errors.New("no usable data directory")

	// ErrBaseUnset is returned by Candidate.Path when the base directory of
	// the candidate is not known, for example because the environment
	// variable it is derived from is empty.
	ErrBaseUnset = errors.New("base directory is not set")
)

// NotDirError describes a path segment that exists on disk but is not a
// directory, which prevents the data directory from being created below it.
type NotDirError struct {
	Path string
}

// Error satisfies the error interface.
func (e *NotDirError) Error() string {
	return fmt.Sprintf("%s exists but is not a directory", e.Path)
}

// Env provides the parts of the process environment the resolver depends on.
// It exists so the per-platform rules can be evaluated for a platform other
// than the running one.
type Env interface {
	Getenv(key string) string
	HomeDir() (string, error)
}

type osEnv struct{}

func (osEnv) Getenv(key string) string  { return os.Getenv(key) }
func (osEnv) HomeDir() (string, error) { return os.UserHomeDir() }

// OSEnv is the Env backed by the running process.
var OSEnv Env = osEnv{}

// Candidate is one strategy for locating the data directory.  The directory
// is the base directory joined with Elem.
type Candidate struct {
	Name string
	Base func() (string, error)
	Elem []string
}

// Path returns the directory the candidate points at without touching the
// filesystem.
func (c Candidate) Path() (string, error) {
	base, err := c.Base()
	if err != nil {
		return "", err
	}
	if base == "" {
		return "", ErrBaseUnset
	}
	return filepath.Join(append([]string{base}, c.Elem...)...), nil
}

// Candidates returns the ordered list of data directory strategies for the
// given operating system and application name.  An unsupported operating
// system or an empty application name yields no candidates.
//
// The rules are:
//
//	linux, bsd, solaris, ...: $HOME/.<appname lowercase>
//	darwin:                   $HOME/Library/Application Support/<AppName>
//	windows:                  %APPDATA%/<AppName>, then
//	                          $HOME/AppData/Roaming/<AppName>
//	plan9:                    $home/<appname lowercase>
func Candidates(goos, appName string, env Env) []Candidate {
	appName = strings.TrimPrefix(appName, ".")
	if appName == "" {
		return nil
	}

	// Get the OS specific home directory via the provided environment.
	home := func() (string, error) {
		return env.HomeDir()
	}

	first, size := utf8.DecodeRuneInString(appName)
	appNameUpper := string(unicode.ToUpper(first)) + appName[size:]
	appNameLower := strings.ToLower(appName)

	switch goos {
	case "windows":
		appData := func() (string, error) {
			return env.Getenv("APPDATA"), nil
		}
		return []Candidate{
			{Name: "appdata", Base: appData, Elem: []string{appNameUpper}},
			{Name: "roaming", Base: home,
				Elem: []string{"AppData", "Roaming", appNameUpper}},
		}

	case "darwin":
		return []Candidate{{
			Name: "application support",
			Base: home,
			Elem: []string{"Library", "Application Support", appNameUpper},
		}}

	case "plan9":
		return []Candidate{{Name: "home", Base: home,
			Elem: []string{appNameLower}}}

	case "js", "wasip1", "ios", "android":
		return nil

	default:
		return []Candidate{{Name: "home", Base: home,
			Elem: []string{"." + appNameLower}}}
	}
}

// Resolve evaluates the candidates for goos in order and returns the first
// directory that exists or could be created and is writable.  Candidates with
// an unset base, a directory that cannot be created, or a directory that is
// not writable are skipped.  A path segment that exists as a regular file is
// fatal and returned immediately as a *NotDirError.
func Resolve(goos, appName string, env Env) (string, error) {
	candidates := Candidates(goos, appName, env)
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: unsupported platform %q or "+
			"application name %q", ErrNoDataDir, goos, appName)
	}

	errs := []error{ErrNoDataDir}
	for _, candidate := range candidates {
		dir, err := candidate.Path()
		if err != nil {
			log.Debugf("Skipping %s data directory: %v",
				candidate.Name, err)
			errs = append(errs, fmt.Errorf("%s: %w", candidate.Name, err))
			continue
		}

		err = EnsureDir(dir)
		if err != nil {
			var notDir *NotDirError
			if errors.As(err, &notDir) {
				return "", err
			}
			log.Debugf("Unable to create %s: %v", dir, err)
			errs = append(errs, fmt.Errorf("%s: %w", candidate.Name, err))
			continue
		}

		if err := checkWritable(dir); err != nil {
			log.Debugf("Data directory %s is not writable: %v", dir, err)
			errs = append(errs, fmt.Errorf("%s: %w", candidate.Name, err))
			continue
		}

		return dir, nil
	}

	return "", errors.Join(errs...)
}

// CookieDir returns the data directory of appName on the running platform,
// creating it when needed.
func CookieDir(appName string) (string, error) {
	return Resolve(runtime.GOOS, appName, OSEnv)
}

// EnsureDir creates every missing segment of path.  Segments that already
// exist as directories are left alone, so calling it repeatedly is safe.
func EnsureDir(path string) error {
	for _, segment := range segments(filepath.Clean(path)) {
		fi, err := os.Stat(segment)
		switch {
		case err == nil:
			if !fi.IsDir() {
				return &NotDirError{Path: segment}
			}
			continue

		case !errors.Is(err, fs.ErrNotExist):
			return err
		}

		err = os.Mkdir(segment, 0700)
		if errors.Is(err, fs.ErrExist) {
			// Lost a race with another creator, make sure it made a
			// directory.
			fi, err = os.Stat(segment)
			if err == nil && !fi.IsDir() {
				return &NotDirError{Path: segment}
			}
		}
		if err != nil {
			return err
		}
		log.Debugf("Created directory %s", segment)
	}

	return nil
}

// segments returns path and each of its parents, outermost first.
func segments(path string) []string {
	var parts []string
	for {
		parts = append(parts, path)
		parent := filepath.Dir(path)
		if parent == path {
			break
		}
		path = parent
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}
