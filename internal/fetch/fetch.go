// Package fetch retrieves the checker tool and the fix packages named by a report.
//
// Transfers go through wget, which handles the http, https and ftp URLs the fix servers
// publish; archives are unpacked in-process.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/dlminvestments/ansible-power-aix/internal/install"
	"github.com/dlminvestments/ansible-power-aix/internal/system"
)

const DefaultWget = "/bin/wget"

// wgetFileError is the wget exit status for a local file I/O failure, such as a full disk.
const wgetFileError = 3

var (
	// ErrNoWget indicates wget is not installed.
	ErrNoWget = errors.New("wget not found")

	reURL     = regexp.MustCompile(`^(.*?)://(.*?)/(.*)/(.*)$`)
	reEpkg    = regexp.MustCompile(`\b[\w.-]+.epkg.Z\b`)
	reEpkgEnd = regexp.MustCompile(`(\b[\w.-]+.epkg.Z\b)$`)
)

// Fetcher downloads into Dir. Tar members are extracted under Dir/tardir.
type Fetcher struct {
	Runner   system.Runner
	Dir      string
	Wget     string
	Insecure bool
	// GrowFS grows the filesystem by 100M and retries once when a download or an
	// extraction fails to write.
	GrowFS bool
}

// Result lists what a Fetch found and what it could store locally.
type Result struct {
	Discover []string
	Download []string
	Messages []string
}

func (f *Fetcher) wget() string {
	if f.Wget == "" {
		return DefaultWget
	}
	return f.Wget
}

// Download fetches url into dst's directory unless dst already exists.
func (f *Fetcher) Download(ctx context.Context, url, dst string) error {
	logger := log.FromContext(ctx).WithName("fetch")

	if _, err := os.Stat(dst); err == nil {
		logger.V(1).Info("already downloaded", "file", dst)
		return nil
	}
	if _, err := os.Stat(f.wget()); err != nil {
		return fmt.Errorf("cannot locate %s, please install related package: %w", f.wget(), ErrNoWget)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}

	args := []string{}
	if f.Insecure {
		args = append(args, "--no-check-certificate")
	}
	args = append(args, url, "-P", filepath.Dir(dst))

	logger.V(1).Info("downloading", "url", url, "dst", dst)
	res := f.Runner.Run(ctx, f.wget(), args...)
	if res.ExitCode == wgetFileError && f.grow(ctx, filepath.Dir(dst)) {
		// wget would not overwrite the partial file, it would write dst.1
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove partial download %s: %w", dst, err)
		}
		res = f.Runner.Run(ctx, f.wget(), args...)
	}
	if !res.OK() {
		return fmt.Errorf("cannot download %s: %w", url, res.Err)
	}
	return nil
}

// grow enlarges the filesystem holding dir when GrowFS is set. It reports whether a retry
// is worth attempting.
func (f *Fetcher) grow(ctx context.Context, dir string) bool {
	if !f.GrowFS {
		return false
	}
	if err := install.Grow(ctx, f.Runner, dir); err != nil {
		log.FromContext(ctx).WithName("fetch").Info("cannot grow filesystem", "dir", dir, "error", err.Error())
		return false
	}
	return true
}

// Listing returns the body of a directory URL.
func (f *Fetcher) Listing(ctx context.Context, url string) (string, error) {
	if _, err := os.Stat(f.wget()); err != nil {
		return "", fmt.Errorf("cannot locate %s, please install related package: %w", f.wget(), ErrNoWget)
	}
	args := []string{"-q", "-O", "-"}
	if f.Insecure {
		args = append(args, "--no-check-certificate")
	}
	res := f.Runner.Run(ctx, f.wget(), append(args, url)...)
	if !res.OK() {
		return "", fmt.Errorf("cannot list %s: %w", url, res.Err)
	}
	return res.Stdout, nil
}

// Fetch resolves each URL to epkg files on disk. A URL may name an epkg, a tar of epkgs,
// or a directory whose listing names epkgs. Failures are per URL and reported as messages.
func (f *Fetcher) Fetch(ctx context.Context, urls []string) Result {
	logger := log.FromContext(ctx).WithName("fetch")
	var out Result

	for _, url := range urls {
		m := reURL.FindStringSubmatch(url)
		if m == nil {
			out.Messages = append(out.Messages, fmt.Sprintf("Cannot parse URL %s", url))
			continue
		}
		name := m[4]

		switch {
		case strings.Contains(name, ".epkg.Z"):
			out.Discover = append(out.Discover, name)
			dst := filepath.Join(f.Dir, name)
			if err := f.Download(ctx, url, dst); err != nil {
				logger.Error(err, "download failed", "url", url)
				out.Messages = append(out.Messages, err.Error())
				continue
			}
			out.Download = append(out.Download, dst)

		case strings.Contains(name, ".tar"):
			dst := filepath.Join(f.Dir, name)
			if err := f.Download(ctx, url, dst); err != nil {
				logger.Error(err, "download failed", "url", url)
				out.Messages = append(out.Messages, err.Error())
				continue
			}
			found, extracted, msgs := f.extractEpkgs(ctx, dst, filepath.Join(f.Dir, "tardir"))
			logger.V(1).Info("epkgs in tar file", "tar", dst, "count", len(found))
			out.Discover = append(out.Discover, found...)
			out.Download = append(out.Download, extracted...)
			out.Messages = append(out.Messages, msgs...)

		default:
			body, err := f.Listing(ctx, url)
			if err != nil {
				logger.Error(err, "directory listing failed", "url", url)
				out.Messages = append(out.Messages, err.Error())
				continue
			}
			epkgs := uniqueMatches(body)
			logger.V(1).Info("epkgs in directory listing", "url", url, "count", len(epkgs))
			out.Discover = append(out.Discover, epkgs...)
			for _, e := range epkgs {
				dst := filepath.Join(f.Dir, e)
				if err := f.Download(ctx, strings.TrimSuffix(url, "/")+"/"+e, dst); err != nil {
					out.Messages = append(out.Messages, err.Error())
					continue
				}
				out.Download = append(out.Download, dst)
			}
		}
	}
	return out
}

func uniqueMatches(body string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, e := range reEpkg.FindAllString(body, -1) {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
