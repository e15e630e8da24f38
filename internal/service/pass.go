package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"

	"bizpass/internal/dto"
	"bizpass/internal/mailer"
	"bizpass/internal/model"
	"bizpass/internal/passkit"
	"bizpass/internal/repo"
	"bizpass/pkg/validator"
)

// passCodeAttempts bounds retries when a generated pass code collides
// with an existing one.
const passCodeAttempts = 5

func (s *service) CreatePass(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	var req dto.CreatePassRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	if req.ValidFrom != nil && req.ValidUntil != nil && req.ValidUntil.Before(*req.ValidFrom) {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "valid_until must not be before valid_from")
		return
	}

	event, err := s.repo.GetEventByID(ctx, req.EventID, uid)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to get event for pass")
		dto.InternalServerError(ctx)
		return
	}

	// Window defaults come from the event schedule.
	validFrom := req.ValidFrom
	if validFrom == nil {
		validFrom = event.StartDate
	}
	validUntil := req.ValidUntil
	if validUntil == nil {
		validUntil = event.EndDate
	}

	id := uuid.NewString()
	verifyURL := passkit.VerificationURL(s.origin, id)

	// A QR failure degrades to a pass without the inline image; the
	// verification URL still works.
	qr, err := s.qrEncode(verifyURL)
	if err != nil {
		s.log.Warn().Err(err).Str("pass_id", id).Msg("failed to encode QR, issuing pass without it")
		qr = ""
	}

	pass := &model.EntryPass{
		ID:              id,
		EventID:         event.ID,
		HolderName:      req.HolderName,
		HolderEmail:     req.HolderEmail,
		HolderPhone:     req.HolderPhone,
		ValidFrom:       validFrom,
		ValidUntil:      validUntil,
		Status:          model.PassActive,
		QRCodeURL:       qr,
		VerificationURL: verifyURL,
	}

	if err := s.insertWithFreshCode(ctx, pass); err != nil {
		s.log.Error().Err(err).Msg("failed to create pass in DB")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Str("pass_id", pass.ID).
		Str("event_id", event.ID).
		Msg("entry pass created successfully")

	s.scheduleExpiry(pass)

	if pass.HolderEmail != "" {
		if err := mailer.SendPassEmail(s.log, "issued", pass.HolderEmail,
			pass.HolderName, event.Name, pass.PassCode, pass.VerificationURL); err != nil {
			s.log.Warn().Err(err).Msg("failed to send pass issuance mail")
		}
	}

	dto.SuccessCreatedResponse(ctx, pass)
}

// insertWithFreshCode regenerates the pass code on a collision with
// an existing pass. Collisions are rare at 36^8 codes; the bound is a
// circuit breaker, not an expected path.
func (s *service) insertWithFreshCode(ctx *ginext.Context, pass *model.EntryPass) error {
	var err error
	for range passCodeAttempts {
		pass.PassCode = passkit.NewPassCode()
		err = s.repo.CreatePass(ctx, pass)
		if !errors.Is(err, repo.ErrPassCodeTaken) {
			return err
		}
		s.log.Warn().Str("pass_id", pass.ID).Msg("pass code collision, regenerating")
	}
	return err
}

// scheduleExpiry publishes a delayed message that fires when the
// validity window closes. Passes without a window never auto-expire.
func (s *service) scheduleExpiry(pass *model.EntryPass) {
	if s.publish == nil || pass.ValidUntil == nil {
		return
	}

	delaySeconds := int64(time.Until(*pass.ValidUntil).Seconds())
	if delaySeconds < 0 {
		delaySeconds = 0
	}

	msg := dto.PassExpiryMessage{
		PassID:   pass.ID,
		ExpireAt: *pass.ValidUntil,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal expiry message")
		return
	}
	if err := s.publish(payload, delaySeconds); err != nil {
		s.log.Error().Err(err).Msg("failed to publish expiry message to RabbitMQ")
	}
}

func (s *service) GetPasses(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	var (
		passes []model.PassWithEvent
		err    error
	)
	if eventID := ctx.Query("event_id"); eventID != "" {
		passes, err = s.repo.GetPassesByEvent(ctx, eventID, uid)
	} else {
		passes, err = s.repo.GetPassesForUser(ctx, uid)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get passes")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, passes)
}

func (s *service) GetPass(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	pass, err := s.repo.GetPassByID(ctx, ctx.Param("id"), uid)
	if err != nil {
		if errors.Is(err, repo.ErrPassNotFound) {
			dto.PassNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to get pass")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, pass)
}

// UpdatePass edits holder details and the validity window. The pass
// id, code, event binding and QR artifact are fixed at creation.
func (s *service) UpdatePass(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	var req dto.UpdatePassRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	pass, err := s.repo.GetPassByID(ctx, ctx.Param("id"), uid)
	if err != nil {
		if errors.Is(err, repo.ErrPassNotFound) {
			dto.PassNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to get pass for update")
		dto.InternalServerError(ctx)
		return
	}

	applyIf(&pass.HolderName, req.HolderName)
	applyIf(&pass.HolderEmail, req.HolderEmail)
	applyIf(&pass.HolderPhone, req.HolderPhone)
	if req.ValidFrom != nil {
		pass.ValidFrom = req.ValidFrom
	}
	if req.ValidUntil != nil {
		pass.ValidUntil = req.ValidUntil
	}

	if pass.ValidFrom != nil && pass.ValidUntil != nil && pass.ValidUntil.Before(*pass.ValidFrom) {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "valid_until must not be before valid_from")
		return
	}

	if err := s.repo.UpdatePassHolder(ctx, &pass.EntryPass, uid); err != nil {
		if errors.Is(err, repo.ErrPassNotFound) {
			dto.PassNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to update pass")
		dto.InternalServerError(ctx)
		return
	}

	// A moved window needs a fresh expiry message; the consumer ignores
	// any earlier one whose instant no longer matches the stored window.
	if req.ValidUntil != nil {
		s.scheduleExpiry(&pass.EntryPass)
	}

	dto.SuccessResponse(ctx, pass)
}

func (s *service) CancelPass(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	cancelled, err := s.repo.CancelPassTx(ctx, ctx.Param("id"), uid)
	if err != nil {
		if errors.Is(err, repo.ErrPassNotFound) {
			dto.PassNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to cancel pass")
		dto.InternalServerError(ctx)
		return
	}
	if !cancelled {
		dto.BadResponseError(ctx, dto.InvalidTransition, "Only an active pass can be cancelled")
		return
	}

	s.log.Info().Str("pass_id", ctx.Param("id")).Msg("pass cancelled")
	dto.SuccessResponse(ctx, nil)
}

func (s *service) GetPassScans(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	passID := ctx.Param("id")
	if _, err := s.repo.GetPassByID(ctx, passID, uid); err != nil {
		if errors.Is(err, repo.ErrPassNotFound) {
			dto.PassNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to get pass for scan history")
		dto.InternalServerError(ctx)
		return
	}

	scans, err := s.repo.GetScansByPass(ctx, passID, uid)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get pass scans")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, scans)
}
