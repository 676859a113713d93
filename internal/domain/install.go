package domain

// VisitedSet holds the workshop IDs already attempted during one install call
type VisitedSet map[uint64]struct{}

// Has reports whether id has been attempted
func (v VisitedSet) Has(id uint64) bool {
	_, ok := v[id]
	return ok
}

// Add marks id as attempted
func (v VisitedSet) Add(id uint64) {
	v[id] = struct{}{}
}

// InstallRequest is the input of one install invocation
type InstallRequest struct {
	Requested           []string
	ResolveDependencies bool
	Filter              FilterSpec
	Visited             VisitedSet
}

// NewInstallRequest builds a request, dropping exact duplicate identifiers.
// Duplicates that only collide after resolution are caught by Visited.
func NewInstallRequest(identifiers []string, resolveDeps bool) *InstallRequest {
	seen := make(map[string]bool, len(identifiers))
	requested := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		requested = append(requested, id)
	}
	return &InstallRequest{
		Requested:           requested,
		ResolveDependencies: resolveDeps,
		Visited:             make(VisitedSet),
	}
}

// InstallOutcome records what happened to one attempted mod
type InstallOutcome struct {
	Identifier string // As requested or declared
	ID         uint64 // Zero when resolution failed
	Title      string
	Depth      int
	Succeeded  bool
	Message    string // Raw downloader output or error text
	Err        error
}

// CountFailed returns the number of failed outcomes
func CountFailed(outcomes []InstallOutcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.Succeeded {
			n++
		}
	}
	return n
}
