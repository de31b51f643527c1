package teardown

import "os"

// FS is the filesystem surface RemoveWorkDir needs.
type FS interface {
	Exists(path string) (bool, error)
	Rename(oldpath, newpath string) error
	RemoveAll(path string) error
}

// OSFS implements FS on the host filesystem.
type OSFS struct{}

func (OSFS) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (OSFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (OSFS) RemoveAll(path string) error { return os.RemoveAll(path) }
