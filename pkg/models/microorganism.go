package models

// Taxonomic categories accepted by the admin form.
const (
	CategoryBacteria = "Bacteria"
	CategoryFungus   = "Fungus"
)

// Availability labels offered by the admin form. The public filter also
// offers the broader "Unavailable" label, which matches both unavailable states.
const (
	AvailabilityAvailable   = "Available"
	AvailabilityUnavailable = "Unavailable"
	AvailabilityUnderReview = "Unavailable - Under review"
	AvailabilityDepleted    = "Unavailable - Depleted"
)

// Fields is a catalog entry without its identity. Forms, CSV rows and
// updates all carry Fields; the store assigns the id.
type Fields struct {
	InternalCode        string `json:"internal_code" yaml:"internal_code"`
	Genus               string `json:"genus" yaml:"genus"`
	Species             string `json:"species" yaml:"species"`
	FullName            string `json:"full_name" yaml:"full_name"` // canonical display name
	TaxonomicCategory   string `json:"taxonomic_category" yaml:"taxonomic_category"`
	IsolationSource     string `json:"isolation_source" yaml:"isolation_source"`
	Host                string `json:"host" yaml:"host"`
	GeographicLocation  string `json:"geographic_location" yaml:"geographic_location"`
	IsolationDate       string `json:"isolation_date" yaml:"isolation_date"` // display text, not parsed
	MaldiIdentification string `json:"maldi_identification" yaml:"maldi_identification"`
	Availability        string `json:"availability" yaml:"availability"`
	ConservationType    string `json:"conservation_type" yaml:"conservation_type"`
	AdditionalNotes     string `json:"additional_notes" yaml:"additional_notes"`
}

// Microorganism is one strain record of the collection.
type Microorganism struct {
	ID     int `json:"id" yaml:"id"`
	Fields `yaml:",inline"`
}
