package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// AvailableList is the plain-text list of available domains. Each domain is
// appended and synced the moment it is found, so the list survives a crash.
type AvailableList struct {
	mu    sync.Mutex
	path  string
	file  *os.File
	known map[string]struct{}
}

// OpenAvailableList opens (or creates) the list at path. Domains already in
// the file are remembered so a resumed run never lists one twice. A last line
// without its newline was cut short by a crash and is dropped; the result
// record of that domain was never written, so the resumed run lists it again.
func OpenAvailableList(path string) (*AvailableList, error) {
	domains, complete, err := readAvailable(path)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		known[d] = struct{}{}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if info, err := f.Stat(); err == nil && info.Size() > complete {
		if err := f.Truncate(complete); err != nil {
			f.Close()
			return nil, fmt.Errorf("dropping partial line of %s: %w", path, err)
		}
	}

	return &AvailableList{path: path, file: f, known: known}, nil
}

// Append writes domain on its own line and syncs the file. Domains already
// listed are ignored.
func (a *AvailableList) Append(domain string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.known[domain]; ok {
		return nil
	}
	if _, err := a.file.WriteString(domain + "\n"); err != nil {
		return fmt.Errorf("appending to %s: %w", a.path, err)
	}
	if err := a.file.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", a.path, err)
	}
	a.known[domain] = struct{}{}
	return nil
}

// Len is the number of listed domains, including ones from earlier runs.
func (a *AvailableList) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.known)
}

// Close closes the underlying file.
func (a *AvailableList) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}

// ReadAvailable returns the domains listed at path in file order. Blank lines
// and '#' comments are ignored, as is a final line without its newline; a
// missing file is an empty list.
func ReadAvailable(path string) ([]string, error) {
	domains, _, err := readAvailable(path)
	return domains, err
}

// readAvailable also returns the byte length of the complete lines.
func readAvailable(path string) ([]string, int64, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var (
		domains  []string
		complete int64
	)
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("reading %s: %w", path, err)
		}
		complete += int64(len(line))

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	return domains, complete, nil
}
