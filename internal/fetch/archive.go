package fetch

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

const (
	ToolArchive = "FLRTVC-latest.zip"
	ToolScript  = "flrtvc.ksh"
)

// extractEpkgs extracts every epkg member of the tar file into dir, keeping member paths.
// A member that cannot be written is retried once after growing the filesystem.
func (f *Fetcher) extractEpkgs(ctx context.Context, tarPath, dir string) (found, extracted, msgs []string) {
	fh, err := os.Open(tarPath)
	if err != nil {
		return nil, nil, []string{fmt.Sprintf("Cannot open tar file %s: %v", tarPath, err)}
	}
	defer fh.Close()

	tr := tar.NewReader(fh)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("Cannot read tar file %s: %v", tarPath, err))
			break
		}
		if hdr.Typeflag != tar.TypeReg || !reEpkgEnd.MatchString(hdr.Name) {
			continue
		}
		found = append(found, hdr.Name)

		dst, err := safeJoin(dir, hdr.Name)
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("Cannot extract tar file %s: %v", hdr.Name, err))
			continue
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("Cannot extract tar file %s: %v", hdr.Name, err))
			continue
		}
		err = writeFile(dst, bytes.NewReader(body), 0o644)
		if err != nil && f.grow(ctx, dir) {
			err = writeFile(dst, bytes.NewReader(body), 0o644)
		}
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("Cannot extract tar file %s: %v", hdr.Name, err))
			continue
		}
		extracted = append(extracted, dst)
	}
	return found, extracted, msgs
}

// FetchTool downloads the checker archive into workdir and installs its script into binDir
// as an executable, replacing any previous copy. It returns the script path.
func (f *Fetcher) FetchTool(ctx context.Context, url, workdir, binDir string) (string, error) {
	logger := log.FromContext(ctx).WithName("fetch")

	script := filepath.Join(binDir, ToolScript)
	if err := os.Remove(script); err != nil && !os.IsNotExist(err) {
		logger.Info("cannot remove previous checker script", "path", script, "error", err.Error())
	}

	archive := filepath.Join(workdir, ToolArchive)
	if err := f.Download(ctx, url, archive); err != nil {
		return "", fmt.Errorf("failed to download %s: %w", ToolArchive, err)
	}
	err := unzip(archive, binDir)
	if err != nil && f.grow(ctx, binDir) {
		err = unzip(archive, binDir)
	}
	if err != nil {
		return "", fmt.Errorf("failed to unzip %s: %w", ToolArchive, err)
	}

	st, err := os.Stat(script)
	if err != nil {
		return "", fmt.Errorf("%s not found in %s: %w", ToolScript, ToolArchive, err)
	}
	if st.Mode()&0o111 == 0 {
		if err := os.Chmod(script, st.Mode()|0o111); err != nil {
			return "", fmt.Errorf("chmod %s: %w", script, err)
		}
	}
	logger.V(1).Info("checker installed", "path", script)
	return script, nil
}

func unzip(src, dir string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, zf := range zr.File {
		dst, err := safeJoin(dir, zf.Name)
		if err != nil {
			return err
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return err
		}
		perm := zf.Mode().Perm()
		if perm == 0 {
			perm = 0o644
		}
		err = writeFile(dst, rc, perm)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func safeJoin(dir, name string) (string, error) {
	dst := filepath.Join(dir, name)
	if dst != filepath.Clean(dir) && !strings.HasPrefix(dst, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("member %q escapes %s", name, dir)
	}
	return dst, nil
}

func writeFile(dst string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
