package services

import (
	"agritrack_backend/internal/models"
	"agritrack_backend/internal/repositories"
	"agritrack_backend/pkg/apperrors"
)

// RecipientResolver turns a targeting rule into a concrete, de-duplicated
// set of recipient user ids. Purely a query; nothing is written.
//
// filter meaning follows recipientType: district ids for by_district, region
// ids for by_region, role names for by_role, ignored for all.
type RecipientResolver interface {
	Resolve(recipientType models.BroadcastRecipientType, filter []string) ([]string, error)
}

type recipientResolver struct {
	directoryRepo repositories.DirectoryRepository
}

func NewRecipientResolver(directoryRepo repositories.DirectoryRepository) RecipientResolver {
	return &recipientResolver{directoryRepo: directoryRepo}
}

func (r *recipientResolver) Resolve(recipientType models.BroadcastRecipientType, filter []string) ([]string, error) {
	var (
		ids []string
		err error
	)

	switch recipientType {
	case models.RecipientTypeAll:
		ids, err = r.directoryRepo.ActiveNonAdminIDs()
	case models.RecipientTypeByDistrict:
		if len(filter) == 0 {
			return nil, apperrors.ErrInvalidTargeting("district filter must not be empty")
		}
		ids, err = r.directoryRepo.ActiveIDsByDistrict(filter)
	case models.RecipientTypeByRegion:
		if len(filter) == 0 {
			return nil, apperrors.ErrInvalidTargeting("region filter must not be empty")
		}
		ids, err = r.directoryRepo.ActiveIDsByRegion(filter)
	case models.RecipientTypeByRole:
		if len(filter) == 0 {
			return nil, apperrors.ErrInvalidTargeting("role filter must not be empty")
		}
		ids, err = r.directoryRepo.ActiveIDsByRole(filter)
	default:
		return nil, apperrors.ErrInvalidTargeting("unknown recipient type: " + string(recipientType))
	}
	if err != nil {
		return nil, err
	}

	return dedupe(ids), nil
}

// dedupe keeps first occurrences: a user matching two districts in the same
// filter still receives one notification.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
