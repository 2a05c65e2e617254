package htfile

import "regexp"

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// ValidUsername reports whether u is safe to store in a colon-separated
// credential file. Colons and whitespace would corrupt the line format.
func ValidUsername(u string) bool {
	return usernameRe.MatchString(u)
}
