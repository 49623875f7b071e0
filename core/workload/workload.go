package workload


import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"surfpool-replay/core"
)


// Find the transaction files of a replay in `dir`.
// The files matching `pattern` are returned sorted by name, each with its
// source already read. The order of the returned descriptors is the replay
// order.
//
func Discover(dir, pattern string) ([]*core.TransactionDescriptor, error) {
	var descs []*core.TransactionDescriptor
	var paths []string
	var info os.FileInfo
	var source []byte
	var path string
	var err error

	info, err = os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("transactions directory: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("transactions directory: %s is not " +
			"a directory", dir)
	}

	paths, err = filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}

	sort.Strings(paths)

	descs = make([]*core.TransactionDescriptor, 0, len(paths))

	for _, path = range paths {
		info, err = os.Stat(path)
		if err != nil {
			return nil, err
		} else if info.IsDir() {
			continue
		}

		source, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		descs = append(descs, &core.TransactionDescriptor{
			Name: filepath.Base(path),
			Path: path,
			Source: source,
		})
	}

	return descs, nil
}
