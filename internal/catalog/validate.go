package catalog

import (
	"errors"
	"fmt"
	"strings"

	"microteca/pkg/models"
)

var ErrValidation = errors.New("validation failed")

// Validate checks the fields the admin form requires. Only empty values
// are rejected; whitespace counts as a value.
func Validate(f models.Fields) error {
	var missing []string
	if f.InternalCode == "" {
		missing = append(missing, "internal_code")
	}
	if f.FullName == "" {
		missing = append(missing, "full_name")
	}
	if f.TaxonomicCategory == "" {
		missing = append(missing, "taxonomic_category")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: required fields missing: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
