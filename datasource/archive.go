package datasource

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// IsArchive reports whether name has an extension Extract understands.
func IsArchive(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".zip") || strings.HasSuffix(name, ".tgz") || strings.HasSuffix(name, ".tar.gz")
}

// Extract unpacks a .zip, .tgz or .tar.gz archive into dst.
func Extract(archive, dst string) error {
	name := strings.ToLower(archive)
	switch {
	case strings.HasSuffix(name, ".zip"):
		return Unzip(archive, dst)
	case strings.HasSuffix(name, ".tgz"), strings.HasSuffix(name, ".tar.gz"):
		return Untar(archive, dst)
	default:
		return errors.Errorf("unknown archive type: %s", archive)
	}
}

// target resolves an archive member below dst and rejects names that would
// escape it.
func target(dst, name string) (string, error) {
	p := filepath.Join(dst, name)
	root := filepath.Clean(dst)
	if p != root && !strings.HasPrefix(p, root+string(os.PathSeparator)) {
		return "", errors.Errorf("invalid file path in archive: %s", name)
	}
	return p, nil
}

func writeFile(p string, mode os.FileMode, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func Unzip(filePath, dst string) error {
	zipFile, err := zip.OpenReader(filePath)
	if err != nil {
		return errors.Wrapf(err, "open %s", filePath)
	}
	defer zipFile.Close()

	for _, f := range zipFile.File {
		p, err := target(dst, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(p, 0755); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeFile(p, f.Mode().Perm()|0200, rc)
		rc.Close()
		if err != nil {
			return errors.Wrapf(err, "extract %s", f.Name)
		}
	}
	log.Debug("[Fetch] Extracted ", len(zipFile.File), " entries of ", filePath)
	return nil
}

func Untar(filePath, dst string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return errors.Wrapf(err, "open %s", filePath)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "read %s", filePath)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	n := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", filePath)
		}
		p, err := target(dst, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(p, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(p, os.FileMode(hdr.Mode).Perm()|0200, tr); err != nil {
				return errors.Wrapf(err, "extract %s", hdr.Name)
			}
			n++
		}
	}
	log.Debug("[Fetch] Extracted ", n, " files of ", filePath)
	return nil
}
