package results

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// checkFileExists is a simple stat check to ensure that the file
// exists at the given path.
func checkFileExists(path string) bool {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return true
}

// writeResults marshals the data into JSON and writes the result as a JSON
// file. The file is replaced, never appended to.
func writeResults(path string, data []ReplayResult) error {
	f, err := json.MarshalIndent(data, "", "  ")

	if err != nil {
		return err
	}

	tmp := path + ".tmp"

	err = os.WriteFile(tmp, append(f, '\n'), 0644)
	if err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// WriteResultsToFile writes the ordered result records of the summary to the
// given path, creating the containing directory if needed.
func WriteResultsToFile(path string, summary RunSummary) error {
	dir := filepath.Dir(path)

	// First, check that the directory exists
	if !checkFileExists(dir) {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return err
		}
	}

	results := summary.Results
	if results == nil {
		results = []ReplayResult{}
	}

	return writeResults(path, results)
}

// WriteSummary encodes the complete summary, counts included
func WriteSummary(path string, summary RunSummary) error {
	f, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(f, '\n'), 0644)
}
