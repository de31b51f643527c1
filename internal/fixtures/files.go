package fixtures

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const mebibyte = 1024 * 1024

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// Copy describes one file copied into a fixture directory.
type Copy struct {
	From string
	To   string
}

// CopyAll copies each entry from srcDir into dstDir, creating dstDir first.
func CopyAll(srcDir, dstDir string, copies []Copy) error {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dstDir, err)
	}
	for _, c := range copies {
		if err := CopyFile(filepath.Join(srcDir, c.From), filepath.Join(dstDir, c.To)); err != nil {
			return fmt.Errorf("copy %s: %w", c.From, err)
		}
	}
	return nil
}

// Rename describes one file renamed inside a fixture directory.
type Rename struct {
	From string
	To   string
}

// RenameAll applies renames inside dir in order. A missing source is an
// error: the set would not match what the suite expects.
func RenameAll(dir string, renames []Rename) error {
	for _, r := range renames {
		if err := os.Rename(filepath.Join(dir, r.From), filepath.Join(dir, r.To)); err != nil {
			return fmt.Errorf("rename %s: %w", r.From, err)
		}
	}
	return nil
}

// WriteRandom writes sizeMB mebibytes of random data to path, blockMB at a
// time.
func WriteRandom(path string, sizeMB, blockMB int) error {
	if sizeMB <= 0 {
		return errors.New("size must be positive")
	}
	if blockMB <= 0 || blockMB > sizeMB {
		blockMB = sizeMB
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	remaining := int64(sizeMB) * mebibyte
	block := int64(blockMB) * mebibyte
	for remaining > 0 {
		n := min(block, remaining)
		if _, err := io.CopyN(f, rand.Reader, n); err != nil {
			return fmt.Errorf("write random block: %w", err)
		}
		remaining -= n
	}
	return f.Close()
}

// CorruptAt overwrites bytes of path at offset with data, in place.
func CorruptAt(path string, offset int64, data []byte) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteAt(data, offset); err != nil {
		return fmt.Errorf("corrupt %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// SplitFile cuts dir/name into parts of partSize bytes named name.001,
// name.002, ... and removes the original. It returns the part names.
func SplitFile(dir, name string, partSize int64) ([]string, error) {
	if partSize <= 0 {
		return nil, errors.New("part size must be positive")
	}
	src := filepath.Join(dir, name)
	in, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	info, err := in.Stat()
	if err != nil {
		in.Close()
		return nil, err
	}

	var parts []string
	for written := int64(0); written < info.Size(); written += partSize {
		part := fmt.Sprintf("%s.%03d", name, len(parts)+1)
		if err := writePart(filepath.Join(dir, part), in, partSize); err != nil {
			in.Close()
			return nil, err
		}
		parts = append(parts, part)
	}
	if err := in.Close(); err != nil {
		return nil, err
	}
	if err := os.Remove(src); err != nil {
		return nil, err
	}
	return parts, nil
}

func writePart(path string, r io.Reader, size int64) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.CopyN(out, r, size); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return out.Close()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
