package node

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const maxConfigFileBytes = 1 << 20

func readFileByPath(path string) ([]byte, error) {
	return readFileFromDir(filepath.Dir(path), filepath.Base(path), maxConfigFileBytes)
}

// readFileFromDir reads one regular file of at most limit bytes from dir.
// name must be a bare file name.
func readFileFromDir(dir, name string, limit int64) ([]byte, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid file name: %q", name)
	}
	fsys := os.DirFS(dir)
	st, err := fs.Stat(fsys, name)
	if err != nil {
		return nil, err
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", name)
	}
	if st.Size() > limit {
		return nil, fmt.Errorf("%s is %d bytes, limit is %d", name, st.Size(), limit)
	}
	return fs.ReadFile(fsys, name)
}
