package domain

// LinkMethod determines how downloaded content is placed in the game's Mods directory
type LinkMethod int

const (
	LinkSymlink  LinkMethod = iota // Default: symlink (space efficient)
	LinkHardlink                   // Hardlink (transparent to the game)
	LinkCopy                       // Copy (survives steamcmd cleanup)
)

func (m LinkMethod) String() string {
	switch m {
	case LinkSymlink:
		return "symlink"
	case LinkHardlink:
		return "hardlink"
	case LinkCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// ParseLinkMethod converts a string to LinkMethod
func ParseLinkMethod(s string) LinkMethod {
	switch s {
	case "hardlink":
		return LinkHardlink
	case "copy":
		return LinkCopy
	default:
		return LinkSymlink
	}
}

// HookConfig defines scripts run around an install
type HookConfig struct {
	BeforeAll string `yaml:"before_all,omitempty"`
	AfterEach string `yaml:"after_each,omitempty"`
	AfterAll  string `yaml:"after_all,omitempty"`
}

// IsEmpty returns true if no hooks are configured
func (h HookConfig) IsEmpty() bool {
	return h.BeforeAll == "" && h.AfterEach == "" && h.AfterAll == ""
}
