package storage

import (
	"context"
	"fmt"

	"github.com/mwhitford/sortinghat/internal/model"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return nil
}

func validateString(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

func validateContacts(contacts []model.Contact) error {
	for i, c := range contacts {
		if c.Email == "" {
			return fmt.Errorf("contact %d has no email", i)
		}
	}
	return nil
}

func validateAssociations(associations []model.Association) error {
	for i, a := range associations {
		if a.ContactID <= 0 {
			return fmt.Errorf("association %d has invalid contact ID %d", i, a.ContactID)
		}
		if a.BucketID <= 0 {
			return fmt.Errorf("association %d has invalid bucket ID %d", i, a.BucketID)
		}
	}
	return nil
}
