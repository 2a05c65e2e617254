package htfile

import (
	"bytes"
	"fmt"
	"strings"

	"htadmin/internal/auth"
	"htadmin/internal/fsutil"
)

// PasswdFile is an in-memory view of one htpasswd file. Load it, mutate it,
// then Save to persist; nothing touches the disk in between.
type PasswdFile struct {
	path string
	pf   parsedFile[CredEntry]
}

func LoadPasswd(path string) (*PasswdFile, error) {
	b, err := fsutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	f := &PasswdFile{path: path}
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "#") {
			f.pf.lines = append(f.pf.lines, rawLine[CredEntry]{raw: line})
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			// Preserve unknown line as-is.
			f.pf.lines = append(f.pf.lines, rawLine[CredEntry]{raw: line})
			continue
		}
		e := CredEntry{Name: parts[0], Hash: parts[1]}
		f.pf.lines = append(f.pf.lines, rawLine[CredEntry]{entry: &e})
	}
	return f, nil
}

func (f *PasswdFile) find(name string) *CredEntry {
	for _, e := range f.pf.entries() {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func (f *PasswdFile) Exists(name string) bool {
	return f.find(name) != nil
}

func (f *PasswdFile) Users() []string {
	out := make([]string, 0)
	for _, e := range f.pf.entries() {
		out = append(out, e.Name)
	}
	return out
}

// Hash returns the stored hash for name, and whether the entry exists.
func (f *PasswdFile) Hash(name string) (string, bool) {
	e := f.find(name)
	if e == nil {
		return "", false
	}
	return e.Hash, true
}

// Add creates a new entry, hashing the cleartext password.
func (f *PasswdFile) Add(name, password string) error {
	if f.find(name) != nil {
		return fmt.Errorf("user already exists: %s", name)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	e := CredEntry{Name: name, Hash: hash}
	f.pf.lines = append(f.pf.lines, rawLine[CredEntry]{entry: &e})
	return nil
}

// SetPassword replaces an existing entry's hash.
func (f *PasswdFile) SetPassword(name, password string) error {
	e := f.find(name)
	if e == nil {
		return fmt.Errorf("user not found: %s", name)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	e.Hash = hash
	return nil
}

func (f *PasswdFile) Bytes() []byte {
	var buf strings.Builder
	for _, ln := range f.pf.lines {
		if ln.entry != nil {
			e := ln.entry
			buf.WriteString(e.Name)
			buf.WriteByte(':')
			buf.WriteString(e.Hash)
			buf.WriteByte('\n')
			continue
		}
		buf.WriteString(ln.raw)
		buf.WriteString("\n")
	}
	return []byte(buf.String())
}

func (f *PasswdFile) Save() error {
	return fsutil.WriteFileAtomic(f.path, f.Bytes(), 0644)
}
