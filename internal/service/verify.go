package service

import (
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"

	"bizpass/internal/dto"
	"bizpass/internal/model"
	"bizpass/internal/repo"
)

// GetVerification serves the public pass lookup behind the QR code.
// No authentication: the unguessable pass id in the URL is the
// credential, and the payload omits holder contact details.
func (s *service) GetVerification(ctx *ginext.Context) {
	pass, err := s.repo.GetPassPublicByID(ctx, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, repo.ErrPassNotFound) {
			dto.PassNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to get pass for verification")
		dto.InternalServerError(ctx)
		return
	}

	// The delayed expiry message may not have fired yet; a pass past
	// its window is reported expired regardless of the stored status.
	usable, reason := pass.EvaluateScan(time.Now().UTC())
	status := pass.Status
	if reason == model.ScanRejectedLate {
		status = model.PassExpired
	}

	dto.SuccessResponse(ctx, dto.VerificationResponse{
		PassID:     pass.ID,
		PassCode:   pass.PassCode,
		HolderName: pass.HolderName,
		Status:     string(status),
		EventName:  pass.EventName,
		EventVenue: pass.EventVenue,
		ValidFrom:  pass.ValidFrom,
		ValidUntil: pass.ValidUntil,
		Usable:     usable,
	})
}

// ScanPass records a verification attempt and consumes the pass when
// it is usable. Rejections are recorded too and reported with a 200;
// only an unknown pass id is an error.
func (s *service) ScanPass(ctx *ginext.Context) {
	var req dto.ScanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	scan := &model.PassScan{
		ID:          uuid.NewString(),
		PassID:      ctx.Param("id"),
		ScannedAt:   time.Now().UTC(),
		ScannerInfo: req.ScannerInfo,
		Location:    req.Location,
	}

	pass, reason, err := s.repo.VerifyPassTx(ctx, scan)
	if err != nil {
		if errors.Is(err, repo.ErrPassNotFound) {
			dto.PassNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to verify pass")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Str("pass_id", scan.PassID).
		Str("result", reason).
		Msg("pass scan recorded")

	dto.SuccessResponse(ctx, dto.ScanResponse{
		Result: reason,
		Status: string(pass.Status),
		ScanID: scan.ID,
		At:     scan.ScannedAt,
	})
}
