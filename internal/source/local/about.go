package local

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rwm/internal/domain"
)

const (
	aboutDir      = "About"
	aboutFile     = "About.xml"
	publishedFile = "PublishedFileId.txt"
)

// About is the subset of About/About.xml the manager reads
type About struct {
	Name              string       `xml:"name"`
	Author            string       `xml:"author"`
	PackageID         string       `xml:"packageId"`
	Description       string       `xml:"description"`
	SupportedVersions []string     `xml:"supportedVersions>li"`
	ModDependencies   []Dependency `xml:"modDependencies>li"`
}

// Dependency is one <modDependencies> entry
type Dependency struct {
	PackageID        string `xml:"packageId"`
	DisplayName      string `xml:"displayName"`
	SteamWorkshopURL string `xml:"steamWorkshopUrl"`
}

// Identifier returns what the installer should resolve for this dependency:
// the workshop ID when the URL carries one, otherwise the display name
func (d Dependency) Identifier() string {
	if id, ok := domain.ExtractWorkshopID(d.SteamWorkshopURL); ok {
		return strconv.FormatUint(id, 10)
	}
	if name := strings.TrimSpace(d.DisplayName); name != "" {
		return name
	}
	return strings.TrimSpace(d.PackageID)
}

// DependencyIdentifiers returns the non-empty identifiers in declaration order
func (a *About) DependencyIdentifiers() []string {
	var ids []string
	for _, d := range a.ModDependencies {
		if id := d.Identifier(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ParseAbout decodes an About.xml document
func ParseAbout(r io.Reader) (*About, error) {
	var about About
	dec := xml.NewDecoder(r)
	// Mod authors ship files declaring encodings Go doesn't know; the
	// content is UTF-8 in practice.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := dec.Decode(&about); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", aboutFile, err)
	}
	about.Name = strings.TrimSpace(about.Name)
	about.Author = strings.TrimSpace(about.Author)
	about.PackageID = strings.TrimSpace(about.PackageID)
	about.Description = strings.TrimSpace(about.Description)
	return &about, nil
}

// ReadAbout reads <modDir>/About/About.xml
func ReadAbout(modDir string) (*About, error) {
	f, err := os.Open(filepath.Join(modDir, aboutDir, aboutFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseAbout(f)
}

// readPublishedID reads <modDir>/About/PublishedFileId.txt
func readPublishedID(modDir string) (uint64, bool) {
	data, err := os.ReadFile(filepath.Join(modDir, aboutDir, publishedFile))
	if err != nil {
		return 0, false
	}
	return domain.ParseWorkshopID(strings.TrimSpace(string(data)))
}
