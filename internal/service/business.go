package service

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"

	"bizpass/internal/dto"
	"bizpass/internal/model"
	"bizpass/internal/repo"
	"bizpass/pkg/validator"
)

// activeBusinessKey is the user-settings key holding the id of the
// business the user is currently working in.
const activeBusinessKey = "active_business"

func (s *service) CreateBusiness(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	var req dto.CreateBusinessRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse create business request")
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	business := &model.Business{
		ID:               uuid.NewString(),
		UserID:           uid,
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Website:          req.Website,
		Address:          req.Address,
		TownCity:         req.TownCity,
		Region:           req.Region,
		BusinessCategory: req.BusinessCategory,
		TaxID:            req.TaxID,
		RegistrationNo:   req.RegistrationNumber,
		SocialMediaLinks: req.SocialMediaLinks,
	}

	if req.Logo != nil {
		url, err := s.saveLogo(uid, req.Logo)
		if err != nil {
			dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid logo payload")
			return
		}
		if url != "" {
			business.LogoURL = &url
		}
	}

	if err := s.repo.CreateBusiness(ctx, business); err != nil {
		s.log.Error().Err(err).Msg("failed to create business in DB")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Str("business_id", business.ID).Msg("business created successfully")
	dto.SuccessCreatedResponse(ctx, business)
}

// saveLogo decodes the base64 logo payload and stores it. A storage
// failure degrades to no logo rather than failing the whole request.
func (s *service) saveLogo(uid string, logo *dto.LogoUpload) (string, error) {
	data, err := base64.StdEncoding.DecodeString(logo.Data)
	if err != nil {
		return "", fmt.Errorf("decode logo: %w", err)
	}
	url, err := s.store.SaveLogo(uid, logo.FileName, data)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to store logo, continuing without it")
		return "", nil
	}
	return url, nil
}

func (s *service) GetBusinesses(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	businesses, err := s.repo.GetBusinessesByUser(ctx, uid)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get businesses")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, businesses)
}

func (s *service) GetBusiness(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	business, err := s.repo.GetBusinessByID(ctx, ctx.Param("id"), uid)
	if err != nil {
		if errors.Is(err, repo.ErrBusinessNotFound) {
			dto.BusinessNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to get business")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, business)
}

func (s *service) UpdateBusiness(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	var req dto.UpdateBusinessRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	business, err := s.repo.GetBusinessByID(ctx, ctx.Param("id"), uid)
	if err != nil {
		if errors.Is(err, repo.ErrBusinessNotFound) {
			dto.BusinessNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to get business for update")
		dto.InternalServerError(ctx)
		return
	}

	applyIf(&business.Name, req.Name)
	applyIf(&business.Email, req.Email)
	applyIf(&business.Phone, req.Phone)
	applyIf(&business.Website, req.Website)
	applyIf(&business.Address, req.Address)
	applyIf(&business.TownCity, req.TownCity)
	applyIf(&business.Region, req.Region)
	applyIf(&business.BusinessCategory, req.BusinessCategory)
	applyIf(&business.TaxID, req.TaxID)
	applyIf(&business.RegistrationNo, req.RegistrationNumber)
	if req.SocialMediaLinks != nil {
		business.SocialMediaLinks = req.SocialMediaLinks
	}
	if req.Logo != nil {
		url, err := s.saveLogo(uid, req.Logo)
		if err != nil {
			dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid logo payload")
			return
		}
		if url != "" {
			business.LogoURL = &url
		}
	}

	if err := s.repo.UpdateBusiness(ctx, business); err != nil {
		s.log.Error().Err(err).Msg("failed to update business")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, business)
}

func (s *service) DeleteBusiness(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	if err := s.repo.DeleteBusiness(ctx, ctx.Param("id"), uid); err != nil {
		if errors.Is(err, repo.ErrBusinessNotFound) {
			dto.BusinessNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to delete business")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, nil)
}

// GetActiveBusiness resolves the business the user is working in. A
// stale or missing selection falls back to the user's first business;
// a user with no businesses gets an empty payload, not an error.
func (s *service) GetActiveBusiness(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	business, err := s.resolveActiveBusiness(ctx, uid)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to resolve active business")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, business)
}

func (s *service) resolveActiveBusiness(ctx *ginext.Context, uid string) (*model.Business, error) {
	selected, err := s.repo.GetUserSetting(ctx, uid, activeBusinessKey)
	if err != nil {
		return nil, err
	}

	if selected != "" {
		business, err := s.repo.GetBusinessByID(ctx, selected, uid)
		if err == nil {
			return business, nil
		}
		if !errors.Is(err, repo.ErrBusinessNotFound) {
			return nil, err
		}
	}

	businesses, err := s.repo.GetBusinessesByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(businesses) == 0 {
		return nil, nil
	}
	return &businesses[0], nil
}

// SwitchBusiness changes the active business. Switching to an id the
// user does not own is a no-op: the current selection is returned
// unchanged.
func (s *service) SwitchBusiness(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	var req dto.SwitchBusinessRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	business, err := s.repo.GetBusinessByID(ctx, req.BusinessID, uid)
	if err != nil {
		if errors.Is(err, repo.ErrBusinessNotFound) {
			current, rerr := s.resolveActiveBusiness(ctx, uid)
			if rerr != nil {
				s.log.Error().Err(rerr).Msg("failed to resolve active business")
				dto.InternalServerError(ctx)
				return
			}
			dto.SuccessResponse(ctx, current)
			return
		}
		s.log.Error().Err(err).Msg("failed to get business for switch")
		dto.InternalServerError(ctx)
		return
	}

	if err := s.repo.SetUserSetting(ctx, uid, activeBusinessKey, business.ID); err != nil {
		s.log.Error().Err(err).Msg("failed to persist active business")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Str("business_id", business.ID).Msg("active business switched")
	dto.SuccessResponse(ctx, business)
}

// applyIf copies a patch field onto the current value when present.
func applyIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
