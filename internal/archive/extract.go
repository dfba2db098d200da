package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extract unpacks the yearly file from the ZIP at src into dst. The data is
// written to a temporary file first so dst only appears once complete.
func extract(src string, year int, dst string) (err error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = zr.Close() }()

	member, err := pick(zr.File, year)
	if err != nil {
		return err
	}

	rc, err := member.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", member.Name, err)
	}
	defer func() { _ = rc.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+FileName(year)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, rc); err != nil {
		return fmt.Errorf("unpack %s: %w", member.Name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename to %s: %w", dst, err)
	}
	return nil
}

// pick finds the yearly file in the archive, falling back to the only
// regular member.
func pick(files []*zip.File, year int) (*zip.File, error) {
	want := FileName(year)
	var regular []*zip.File
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Base(f.Name), want) {
			return f, nil
		}
		regular = append(regular, f)
	}
	if len(regular) == 1 {
		return regular[0], nil
	}
	if len(regular) == 0 {
		return nil, errors.New("archive is empty")
	}
	return nil, fmt.Errorf("archive has %d files and none is %s", len(regular), want)
}
