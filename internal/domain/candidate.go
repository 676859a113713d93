package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// WorkshopAppID is RimWorld's Steam application ID
const WorkshopAppID = "294100"

var (
	queryIDRe    = regexp.MustCompile(`[?&]id=(\d+)`)
	steamURLIDRe = regexp.MustCompile(`^steam://url/CommunityFilePage/(\d+)`)
)

// Candidate is a mod identity plus metadata, sourced from the workshop
// catalog or from a local Mods directory. Candidates are passed by value and
// never modified after construction.
type Candidate struct {
	ID           uint64   // Steam Workshop ID (authoritative key)
	Title        string   // Display name
	Author       string   // Uploader or About.xml author
	Description  string   // Free text
	Dependencies []string // Declared dependency identifiers, in declaration order

	// Populated by the local scanner only
	PackageID string
	Versions  []string
	Path      string
}

// Validate reports whether the record can be handed to the installer
func (c Candidate) Validate() error {
	if c.ID == 0 {
		return fmt.Errorf("%w: missing workshop id", ErrInvalidCandidate)
	}
	if c.Title == "" {
		return fmt.Errorf("%w: %d has no title", ErrInvalidCandidate, c.ID)
	}
	return nil
}

// IDString returns the workshop ID in decimal form
func (c Candidate) IDString() string {
	return strconv.FormatUint(c.ID, 10)
}

// ParseWorkshopID parses a decimal workshop ID. Zero is rejected.
func ParseWorkshopID(s string) (uint64, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// ExtractWorkshopID recognizes decimal IDs and workshop page URLs, both the
// https form (?id=<n>) and the steam:// form used in About.xml
func ExtractWorkshopID(identifier string) (uint64, bool) {
	identifier = strings.TrimSpace(identifier)
	if id, ok := ParseWorkshopID(identifier); ok {
		return id, true
	}
	for _, re := range []*regexp.Regexp{queryIDRe, steamURLIDRe} {
		if m := re.FindStringSubmatch(identifier); m != nil {
			return ParseWorkshopID(m[1])
		}
	}
	return 0, false
}
