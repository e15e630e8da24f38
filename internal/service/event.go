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

func (s *service) CreateEvent(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "end_date must not be before start_date")
		return
	}

	if _, err := s.repo.GetBusinessByID(ctx, req.BusinessID, uid); err != nil {
		if errors.Is(err, repo.ErrBusinessNotFound) {
			dto.BusinessNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to check business for event")
		dto.InternalServerError(ctx)
		return
	}

	event := &model.Event{
		ID:          uuid.NewString(),
		BusinessID:  req.BusinessID,
		Name:        req.Name,
		Description: req.Description,
		Venue:       req.Venue,
		TownCity:    req.TownCity,
		Region:      req.Region,
		GPSAddress:  req.GPSAddress,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		MaxCapacity: req.MaxCapacity,
		EntryFee:    req.EntryFee,
		IsActive:    true,
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		s.log.Error().Err(err).Msg("failed to create event in DB")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Str("event_id", event.ID).Msg("event created successfully")
	dto.SuccessCreatedResponse(ctx, event)
}

func (s *service) GetEvents(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	businessID := ctx.Query("business_id")
	if businessID == "" {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "business_id query parameter is required")
		return
	}

	events, err := s.repo.GetEventsByBusiness(ctx, businessID, uid)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get events")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, events)
}

func (s *service) GetEvent(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	event, err := s.repo.GetEventByID(ctx, ctx.Param("id"), uid)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to get event")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, event)
}

func (s *service) UpdateEvent(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	event, err := s.repo.GetEventByID(ctx, ctx.Param("id"), uid)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to get event for update")
		dto.InternalServerError(ctx)
		return
	}

	applyIf(&event.Name, req.Name)
	applyIf(&event.Description, req.Description)
	applyIf(&event.Venue, req.Venue)
	applyIf(&event.TownCity, req.TownCity)
	applyIf(&event.Region, req.Region)
	applyIf(&event.GPSAddress, req.GPSAddress)
	if req.StartDate != nil {
		event.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		event.EndDate = req.EndDate
	}
	if req.MaxCapacity != nil {
		event.MaxCapacity = req.MaxCapacity
	}
	if req.EntryFee != nil {
		event.EntryFee = req.EntryFee
	}
	applyIf(&event.IsActive, req.IsActive)

	if event.StartDate != nil && event.EndDate != nil && event.EndDate.Before(*event.StartDate) {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "end_date must not be before start_date")
		return
	}

	if err := s.repo.UpdateEvent(ctx, event, uid); err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to update event")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, event)
}

func (s *service) DeleteEvent(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	if err := s.repo.DeleteEvent(ctx, ctx.Param("id"), uid); err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to delete event")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, nil)
}
