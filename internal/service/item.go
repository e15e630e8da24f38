package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"

	"bizpass/internal/dto"
	"bizpass/internal/model"
	"bizpass/internal/repo"
	"bizpass/pkg/validator"
)

func (s *service) CreateItem(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	var req dto.CreateItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	if _, err := s.repo.GetBusinessByID(ctx, req.BusinessID, uid); err != nil {
		if errors.Is(err, repo.ErrBusinessNotFound) {
			dto.BusinessNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to check business for item")
		dto.InternalServerError(ctx)
		return
	}

	item := &model.BusinessItem{
		ID:          uuid.NewString(),
		BusinessID:  req.BusinessID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Unit:        req.Unit,
		Category:    req.Category,
		SKU:         req.SKU,
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		s.log.Error().Err(err).Msg("failed to create item in DB")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessCreatedResponse(ctx, item)
}

func (s *service) GetItems(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	businessID := ctx.Query("business_id")
	if businessID == "" {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "business_id query parameter is required")
		return
	}

	items, err := s.repo.GetItemsByBusiness(ctx, businessID, uid)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get items")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, items)
}

func (s *service) UpdateItem(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	var req dto.UpdateItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	item, err := s.repo.GetItemByID(ctx, ctx.Param("id"), uid)
	if err != nil {
		if errors.Is(err, repo.ErrItemNotFound) {
			dto.ItemNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to get item for update")
		dto.InternalServerError(ctx)
		return
	}

	applyIf(&item.Name, req.Name)
	applyIf(&item.Description, req.Description)
	applyIf(&item.Unit, req.Unit)
	applyIf(&item.Category, req.Category)
	applyIf(&item.SKU, req.SKU)
	if req.Price != nil {
		item.Price = req.Price
	}

	if err := s.repo.UpdateItem(ctx, item, uid); err != nil {
		if errors.Is(err, repo.ErrItemNotFound) {
			dto.ItemNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to update item")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, item)
}

func (s *service) DeleteItem(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	if err := s.repo.DeleteItem(ctx, ctx.Param("id"), uid); err != nil {
		if errors.Is(err, repo.ErrItemNotFound) {
			dto.ItemNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to delete item")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, nil)
}
