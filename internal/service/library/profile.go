package library

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"problembox/internal/config"
	"problembox/internal/domain"
	models "problembox/internal/domain/models/library"
	svc "problembox/internal/domain/services/library"
)

// UpdateProfile applies the non-nil fields of req over the stored profile.
func (s *treeService) UpdateProfile(ctx context.Context, userID string, req *svc.UpdateProfileRequest) (*models.Profile, error) {
	if err := validateUpdateProfile(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	current, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := &models.Profile{ID: userID}
	if current != nil {
		profile.Name, profile.Avatar = current.Name, current.Avatar
	}
	if req.Name != nil {
		profile.Name = strings.TrimSpace(*req.Name)
	}
	if req.Avatar != nil {
		profile.Avatar = strings.TrimSpace(*req.Avatar)
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	s.logger.Debug("profile updated", "user_id", userID)
	return profile, nil
}

func validateUpdateProfile(req *svc.UpdateProfileRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.By(func(value interface{}) error {
				name, _ := value.(*string)
				if name == nil {
					return nil
				}
				return validation.Validate(strings.TrimSpace(*name),
					validation.Required,
					validation.RuneLength(1, config.MaxProfileNameLength),
				)
			}),
		),
		validation.Field(&req.Avatar, is.URL),
	)
}
