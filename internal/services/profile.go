package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"LF-DOCGEN/internal/models"
	"LF-DOCGEN/internal/store"
)

type ProfileService struct {
	store store.Store
}

func NewProfileService(st store.Store) *ProfileService {
	return &ProfileService{store: st}
}

// SaveProfile upserts an attorney profile by (firm, bar number). Profile
// values feed signature blocks during generation and never come from the
// end user.
func (s *ProfileService) SaveProfile(ctx context.Context, profile *models.AttorneyProfile) error {
	if profile.FirmID == "" {
		return errors.New("firm id is required")
	}
	if profile.AttorneyName == "" || profile.BarNumber == "" {
		return errors.New("attorney name and bar number are required")
	}
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if err := s.store.SaveAttorneyProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save attorney profile: %w", err)
	}
	return nil
}

// FirmProfile returns the firm's primary profile, or nil when the firm has
// not set one up yet.
func (s *ProfileService) FirmProfile(ctx context.Context, firmID string) (*models.AttorneyProfile, error) {
	profile, err := s.store.GetFirmProfile(ctx, firmID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return profile, err
}
