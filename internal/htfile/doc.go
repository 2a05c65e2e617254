package htfile

// Package htfile implements the Apache-style credential and group files.
//
//	htpasswd:  username:hash          one entry per line
//	htgroup:   group: alice bob       members separated by spaces
//
// Parsing preserves comments, blank lines and unrecognized lines verbatim
// so a rewrite never destroys hand-maintained content. Writes are atomic.
