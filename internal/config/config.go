// Package config holds the daemon configuration. It is loaded once at
// startup and handed to each component's constructor; nothing reads
// configuration through package-level state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	RoutePrefix string `yaml:"route_prefix"`

	PasswdFile string `yaml:"passwd_file"`
	GroupFile  string `yaml:"group_file"`

	// AdminGroup names the group whose members may change other users'
	// passwords, create users and edit group memberships.
	AdminGroup string `yaml:"admin_group"`

	// RequireRemoteUser rejects password requests that arrive without an
	// upstream-asserted identity.
	RequireRemoteUser bool `yaml:"require_remote_user"`
	// RemoteUserHeader is the request header carrying the identity asserted
	// by the upstream proxy.
	RemoteUserHeader string `yaml:"remote_user_header"`
	// TrustedJWTSecret, when set, treats RemoteUserHeader as an HS256-signed
	// assertion from the proxy instead of a plain username.
	TrustedJWTSecret string `yaml:"trusted_jwt_secret"`

	// PasswordPattern must stay compatible with the HTML5 form pattern
	// syntax so the same expression drives client- and server-side checks.
	PasswordPattern     string `yaml:"password_pattern"`
	PasswordPatternHelp string `yaml:"password_pattern_help"`
	AskOldPassword      bool   `yaml:"ask_old_password"`

	// HomePaths lists base directories in which a new user's home is
	// provisioned (one per base) when CreateHome is on.
	HomePaths  []string `yaml:"home_paths"`
	CreateHome bool     `yaml:"create_home"`

	UseDatabase  bool   `yaml:"use_database"`
	DatabaseFile string `yaml:"database_file"`

	// Notice is optional markdown shown on every page.
	Notice string `yaml:"notice"`

	LogDir string `yaml:"log_dir"`
}

func Default() Config {
	return Config{
		ListenAddr:          ":8080",
		PasswdFile:          "htpasswd",
		GroupFile:           "htgroup",
		AdminGroup:          "admin",
		RequireRemoteUser:   true,
		RemoteUserHeader:    "Remote-User",
		PasswordPattern:     `(?=.*\d)(?=.*[a-z])(?=.*[A-Z!@#$%^&*\-.,]).{8,}`,
		PasswordPatternHelp: "Lower case, numeric and upper case or special char. At least 8 char",
		AskOldPassword:      false,
		HomePaths:           nil,
		CreateHome:          false,
		UseDatabase:         true,
		DatabaseFile:        "htadmin.db",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.PasswdFile == "" || cfg.GroupFile == "" {
		return Config{}, fmt.Errorf("config: passwd_file and group_file must be set")
	}
	return cfg, nil
}
