package core

import (
	"fmt"
	"slices"
)

// CleanReport describes what Clean removed
type CleanReport struct {
	Searches  int64    // Expired cached searches
	Downloads []uint64 // Downloaded items that were never deployed
}

// Clean prunes cached searches older than the catalog TTL. With downloads
// set it also deletes downloaded items that have no deployed files.
// dryRun reports the items without deleting them.
func (s *Service) Clean(downloads, dryRun bool) (*CleanReport, error) {
	report := &CleanReport{}

	if !dryRun {
		n, err := s.db.PruneSearches(s.config.Catalog.CacheTTL)
		if err != nil {
			return nil, err
		}
		report.Searches = n
	}
	if !downloads {
		return report, nil
	}

	cached, err := s.cache.Items()
	if err != nil {
		return nil, err
	}
	deployed, err := s.db.DeployedItems()
	if err != nil {
		return nil, err
	}

	for _, id := range cached {
		if slices.Contains(deployed, id) {
			continue
		}
		if !dryRun {
			if err := s.cache.Delete(id); err != nil {
				return report, fmt.Errorf("removing %d: %w", id, err)
			}
			s.logger.Info("removed download", "id", id)
		}
		report.Downloads = append(report.Downloads, id)
	}
	return report, nil
}
