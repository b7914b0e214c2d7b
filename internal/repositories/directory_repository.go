package repositories

import (
	"errors"
	"fmt"

	"agritrack_backend/internal/models"

	"gorm.io/gorm"
)

// ErrDirectoryUnavailable wraps any failure to query the user directory.
// The recipient resolver surfaces it as-is; broadcast creation turns it into
// a failed broadcast record instead of a thrown error.
var ErrDirectoryUnavailable = errors.New("user directory unavailable")

// DirectoryRepository is the read-only view onto the platform's user
// directory. All lookups return only active, unlocked accounts.
type DirectoryRepository interface {
	ActiveNonAdminIDs() ([]string, error)
	ActiveIDsByDistrict(districtIDs []string) ([]string, error)
	ActiveIDsByRegion(regionIDs []string) ([]string, error)
	ActiveIDsByRole(roles []string) ([]string, error)
}

type DirectoryRepositoryImpl struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &DirectoryRepositoryImpl{db: db}
}

func (r *DirectoryRepositoryImpl) activeAccounts() *gorm.DB {
	return r.db.Model(&models.UserAccount{}).
		Where("user_accounts.status = ? AND user_accounts.is_locked = ?", models.UserStatusActive, false)
}

// ActiveNonAdminIDs backs "all" targeting: every active account except
// administrators (admins do not broadcast to themselves).
func (r *DirectoryRepositoryImpl) ActiveNonAdminIDs() ([]string, error) {
	var ids []string
	err := r.activeAccounts().
		Joins("JOIN user_profiles ON user_profiles.user_id = user_accounts.id").
		Where("user_profiles.role <> ?", models.UserRoleAdmin).
		Pluck("user_accounts.id", &ids).Error
	if err != nil {
		return nil, directoryErr(err)
	}
	return ids, nil
}

func (r *DirectoryRepositoryImpl) ActiveIDsByDistrict(districtIDs []string) ([]string, error) {
	var ids []string
	err := r.activeAccounts().
		Where("user_accounts.district_id IN ?", districtIDs).
		Pluck("user_accounts.id", &ids).Error
	if err != nil {
		return nil, directoryErr(err)
	}
	return ids, nil
}

func (r *DirectoryRepositoryImpl) ActiveIDsByRegion(regionIDs []string) ([]string, error) {
	var ids []string
	err := r.activeAccounts().
		Joins("JOIN user_regions ON user_regions.user_id = user_accounts.id").
		Where("user_regions.region_id IN ?", regionIDs).
		Distinct().
		Pluck("user_accounts.id", &ids).Error
	if err != nil {
		return nil, directoryErr(err)
	}
	return ids, nil
}

func (r *DirectoryRepositoryImpl) ActiveIDsByRole(roles []string) ([]string, error) {
	var ids []string
	err := r.activeAccounts().
		Joins("JOIN user_profiles ON user_profiles.user_id = user_accounts.id").
		Where("user_profiles.role IN ?", roles).
		Pluck("user_accounts.id", &ids).Error
	if err != nil {
		return nil, directoryErr(err)
	}
	return ids, nil
}

func directoryErr(err error) error {
	return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
}
