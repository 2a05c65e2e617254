package htfile

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"htadmin/internal/fsutil"
)

// GroupFile is an in-memory view of one htgroup file.
type GroupFile struct {
	path string
	pf   parsedFile[GroupEntry]
}

func LoadGroup(path string) (*GroupFile, error) {
	b, err := fsutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	f := &GroupFile{path: path}
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "#") {
			f.pf.lines = append(f.pf.lines, rawLine[GroupEntry]{raw: line})
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			f.pf.lines = append(f.pf.lines, rawLine[GroupEntry]{raw: line})
			continue
		}
		e := GroupEntry{
			Name:    strings.TrimSpace(parts[0]),
			Members: strings.Fields(parts[1]),
		}
		f.pf.lines = append(f.pf.lines, rawLine[GroupEntry]{entry: &e})
	}
	return f, nil
}

func (f *GroupFile) find(name string) *GroupEntry {
	for _, e := range f.pf.entries() {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func (f *GroupFile) Exists(name string) bool {
	return f.find(name) != nil
}

func (f *GroupFile) Groups() []string {
	out := make([]string, 0)
	for _, e := range f.pf.entries() {
		out = append(out, e.Name)
	}
	sort.Strings(out)
	return out
}

func (f *GroupFile) IsMember(user, group string) bool {
	g := f.find(group)
	if g == nil {
		return false
	}
	for _, m := range g.Members {
		if m == user {
			return true
		}
	}
	return false
}

// AddMember adds user to an existing group. Adding twice is a no-op.
func (f *GroupFile) AddMember(user, group string) error {
	g := f.find(group)
	if g == nil {
		return fmt.Errorf("group not found: %s", group)
	}
	for _, m := range g.Members {
		if m == user {
			return nil
		}
	}
	g.Members = append(g.Members, user)
	return nil
}

// RemoveMember removes user from group. Removing an absent member is a no-op.
func (f *GroupFile) RemoveMember(user, group string) {
	g := f.find(group)
	if g == nil {
		return
	}
	var out []string
	for _, m := range g.Members {
		if m != user {
			out = append(out, m)
		}
	}
	g.Members = out
}

func (f *GroupFile) Bytes() []byte {
	var buf strings.Builder
	for _, ln := range f.pf.lines {
		if ln.entry != nil {
			e := ln.entry
			buf.WriteString(e.Name)
			buf.WriteString(": ")
			buf.WriteString(strings.Join(e.Members, " "))
			buf.WriteByte('\n')
			continue
		}
		buf.WriteString(ln.raw)
		buf.WriteString("\n")
	}
	return []byte(buf.String())
}

func (f *GroupFile) Save() error {
	return fsutil.WriteFileAtomic(f.path, f.Bytes(), 0644)
}
