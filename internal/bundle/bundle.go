// Package bundle packages a populated install prefix for distribution to
// machines that will link against it rather than build it.
package bundle

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Bundle writes the install prefix at prefixDir to dest. A ".zip" or
// ".tar.xz" suffix selects the archive format; any other destination
// receives a plain directory copy. A prefix without a lib directory is
// refused: it has not been through a build.
func Bundle(prefixDir, dest string) error {
	fi, err := os.Stat(filepath.Join(prefixDir, "lib"))
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("%s has no lib directory; run a build first", prefixDir)
	}
	switch {
	case strings.HasSuffix(dest, ".zip"):
		return zipDir(prefixDir, dest)
	case strings.HasSuffix(dest, ".tar.xz"):
		return tarXZDir(prefixDir, dest)
	default:
		return copyFS(dest, os.DirFS(prefixDir))
	}
}

// copyFS mirrors os.CopyFS, which the minimum supported toolchain (pre-1.23)
// does not have: directories are made with 0o777 before umask, regular files
// keep their execute bits, and an existing destination file is an error.
func copyFS(dir string, fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		newPath := filepath.Join(dir, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(newPath, 0o777)
		}
		if !d.Type().IsRegular() {
			return &os.PathError{Op: "CopyFS", Path: path, Err: os.ErrInvalid}
		}
		r, err := fsys.Open(path)
		if err != nil {
			return err
		}
		defer r.Close()
		info, err := r.Stat()
		if err != nil {
			return err
		}
		w, err := os.OpenFile(newPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o666|info.Mode()&0o777)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, r); err != nil {
			w.Close()
			return &os.PathError{Op: "Copy", Path: newPath, Err: err}
		}
		return w.Close()
	})
}

// zipDir creates a zip archive at dest from the contents of srcDir.
func zipDir(srcDir, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	w := zip.NewWriter(f)
	defer w.Close()

	return filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		header.Method = zip.Deflate

		writer, err := w.CreateHeader(header)
		if err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(writer, file)
		return err
	})
}

// tarXZDir creates an xz-compressed tarball at dest from the contents of
// srcDir. The tar and xz writers are closed explicitly; xz buffers
// aggressively and a missed flush means a truncated archive.
func tarXZDir(srcDir, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	xw, err := xz.NewWriter(f)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(xw)

	walkErr := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(tw, file)
		return err
	})
	if walkErr != nil {
		tw.Close()
		xw.Close()
		return walkErr
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return xw.Close()
}
