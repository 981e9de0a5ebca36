package migration

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// CaseIDList is the content of a case id file.
type CaseIDList struct {
	// IDs holds unique ids in file order.
	IDs []string

	// Duplicates counts lines repeating an earlier id.
	Duplicates int
}

// ReadCaseIDs reads one case id per line. Surrounding whitespace is trimmed,
// blank lines are ignored and repeated ids are kept once.
func ReadCaseIDs(fs afero.Fs, path string) (*CaseIDList, error) {
	if path == "" {
		return nil, fmt.Errorf("case id file path is required")
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open case id file: %w", err)
	}
	defer f.Close()

	list := &CaseIDList{}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		if seen[id] {
			list.Duplicates++
			continue
		}
		seen[id] = true
		list.IDs = append(list.IDs, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read case id file: %w", err)
	}

	return list, nil
}
