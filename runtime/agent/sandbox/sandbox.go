// Package sandbox generates OS sandbox profiles for shell-class tools, per
// §6. A profile denies by default and selectively allows process execution,
// file read/write under specified subpaths, and network access by policy.
package sandbox

import (
	"fmt"
	"strings"
	"time"
)

type (
	// NetworkPolicy controls what network access a sandboxed process is
	// granted.
	NetworkPolicy string

	// FilePolicyKind selects the file-access shape of a Config.
	FilePolicyKind string

	// FilePolicy describes file-system access. For Custom, Read/Write list
	// allowed subpaths.
	FilePolicy struct {
		Kind  FilePolicyKind
		Read  []string
		Write []string
	}

	// Config is the Sandbox Configuration of §3.
	Config struct {
		NetworkPolicy     NetworkPolicy
		File              FilePolicy
		AllowSubprocesses bool
		// WorkingDirectory is the subpath WorkingDirectoryOnly profiles
		// scope file-write access to; ReadOnly and Custom profiles ignore it.
		WorkingDirectory string
		// Timeout bounds subprocess execution; must satisfy 0 < Timeout <=
		// MaxTimeout. Zero is replaced by DefaultTimeout at profile build time.
		Timeout time.Duration
	}

	// Profile is a generated, escaped sandbox profile ready to hand to the
	// platform's sandbox mechanism (e.g. Seatbelt/SBPL on Darwin, a seccomp
	// filter on Linux).
	Profile struct {
		Rules   []string
		Timeout time.Duration
	}
)

const (
	NetworkNone  NetworkPolicy = "none"
	NetworkLocal NetworkPolicy = "local"
	NetworkFull  NetworkPolicy = "full"

	FilePolicyReadOnly             FilePolicyKind = "read_only"
	FilePolicyWorkingDirectoryOnly FilePolicyKind = "working_directory_only"
	FilePolicyCustom               FilePolicyKind = "custom"

	// DefaultTimeout is used when Config.Timeout is zero.
	DefaultTimeout = 120 * time.Second
	// MaxTimeout is the hard cap on sandbox execution time.
	MaxTimeout = 24 * time.Hour
)

// NonePreset is the Sandbox Configuration considered "effectively disabled"
// by §3: matching it exactly means the sandbox middleware passes through
// without injecting a profile.
var NonePreset = Config{
	NetworkPolicy:     NetworkNone,
	File:              FilePolicy{Kind: FilePolicyReadOnly},
	AllowSubprocesses: false,
}

// Disabled reports whether cfg matches the .none preset exactly.
func (c Config) Disabled() bool {
	return c.NetworkPolicy == NonePreset.NetworkPolicy &&
		c.File.Kind == NonePreset.File.Kind &&
		len(c.File.Read) == 0 && len(c.File.Write) == 0 &&
		c.AllowSubprocesses == NonePreset.AllowSubprocesses
}

// escapeSubpath escapes backslashes and quotes before a subpath is inserted
// into a generated profile, preventing profile injection (§6).
func escapeSubpath(p string) string {
	p = strings.ReplaceAll(p, `\`, `\\`)
	p = strings.ReplaceAll(p, `"`, `\"`)
	return p
}

// Build generates a Profile from cfg. A zero Timeout becomes DefaultTimeout;
// any other Timeout outside (0, MaxTimeout] is an error.
func Build(cfg Config) (Profile, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if timeout <= 0 || timeout > MaxTimeout {
		return Profile{}, fmt.Errorf("sandbox: timeout must satisfy 0 < timeout <= %s, got %s", MaxTimeout, timeout)
	}

	rules := []string{
		"(deny default)",
		`(allow sysctl-read)`,
		`(allow mach-lookup)`,
		`(allow signal)`,
		`(allow process-info*)`,
		`(allow process-exec)`,
	}
	if cfg.AllowSubprocesses {
		rules = append(rules, `(allow process-fork)`)
	}

	switch cfg.File.Kind {
	case FilePolicyReadOnly:
		rules = append(rules, `(allow file-read*)`)
	case FilePolicyWorkingDirectoryOnly:
		rules = append(rules, `(allow file-read*)`)
		if cfg.WorkingDirectory != "" {
			rules = append(rules, fmt.Sprintf(`(allow file-write* (subpath "%s"))`, escapeSubpath(cfg.WorkingDirectory)))
		}
		rules = append(rules, writeTempDirRules()...)
	case FilePolicyCustom:
		for _, p := range cfg.File.Read {
			rules = append(rules, fmt.Sprintf(`(allow file-read* (subpath "%s"))`, escapeSubpath(p)))
		}
		for _, p := range cfg.File.Write {
			rules = append(rules, fmt.Sprintf(`(allow file-write* (subpath "%s"))`, escapeSubpath(p)))
		}
	}

	switch cfg.NetworkPolicy {
	case NetworkNone:
		rules = append(rules, `(deny network*)`)
	case NetworkLocal:
		rules = append(rules, `(allow network* (local ip))`)
	case NetworkFull:
		rules = append(rules, `(allow network*)`)
	}

	return Profile{Rules: rules, Timeout: timeout}, nil
}

func writeTempDirRules() []string {
	return []string{
		`(allow file-write* (subpath "/tmp"))`,
		`(allow file-write* (subpath "/var/folders"))`,
	}
}
