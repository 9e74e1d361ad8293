package catalog

import "microteca/pkg/models"

type Stats struct {
	Total     int `json:"total"`
	Bacteria  int `json:"bacteria"`
	Fungi     int `json:"fungi"`
	Available int `json:"available"`
}

// ComputeStats counts records per category and those marked exactly
// as available. Unlike the listing filter, availability here is strict equality.
func ComputeStats(records []models.Microorganism) Stats {
	st := Stats{Total: len(records)}
	for _, r := range records {
		switch r.TaxonomicCategory {
		case models.CategoryBacteria:
			st.Bacteria++
		case models.CategoryFungus:
			st.Fungi++
		}
		if r.Availability == models.AvailabilityAvailable {
			st.Available++
		}
	}
	return st
}
