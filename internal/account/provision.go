package account

import (
	"fmt"
	"os"
	"path/filepath"
)

// provisionHomes creates base/username under every configured base path.
// All paths are checked before any directory is created: if one already
// exists the whole request is rejected and nothing is provisioned. A
// creation failure mid-sequence is fatal to the request; directories
// already created are not rolled back.
func provisionHomes(bases []string, username string) error {
	homes := make([]string, 0, len(bases))
	for _, base := range bases {
		homes = append(homes, filepath.Join(base, username))
	}
	for _, home := range homes {
		if _, err := os.Stat(home); err == nil {
			return reject(msgHomeExists)
		}
	}
	for _, home := range homes {
		if err := os.Mkdir(home, 0755); err != nil {
			return fmt.Errorf("create home %s: %w", home, err)
		}
	}
	return nil
}
