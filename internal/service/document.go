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

func contentFromPayload(p dto.DocumentContentPayload) model.DocumentContent {
	content := model.DocumentContent{
		Client: model.DocumentClient{
			Name:    p.Client.Name,
			Email:   p.Client.Email,
			Phone:   p.Client.Phone,
			Address: p.Client.Address,
		},
		DueDate: p.DueDate,
		Notes:   p.Notes,
	}
	for _, it := range p.Items {
		content.Items = append(content.Items, model.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}
	return content
}

func (s *service) CreateDocument(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	var req dto.CreateDocumentRequest
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
		s.log.Error().Err(err).Msg("failed to check business for document")
		dto.InternalServerError(ctx)
		return
	}

	docType := model.DocumentType(req.Type)
	content := contentFromPayload(req.Content)
	content.Normalize()

	document := &model.Document{
		ID:          uuid.NewString(),
		BusinessID:  req.BusinessID,
		Type:        docType,
		Title:       req.Title,
		Status:      model.DefaultDocumentStatus(docType),
		TotalAmount: content.Total(),
		Content:     content,
		TemplateID:  req.TemplateID,
	}

	if err := s.repo.CreateDocumentTx(ctx, document); err != nil {
		s.log.Error().Err(err).Msg("failed to create document in DB")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Str("document_id", document.ID).
		Str("number", document.Number).
		Msg("document created successfully")
	dto.SuccessCreatedResponse(ctx, document)
}

func (s *service) GetDocuments(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	businessID := ctx.Query("business_id")
	if businessID == "" {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "business_id query parameter is required")
		return
	}

	docType := model.DocumentType(ctx.Query("type"))
	if docType != "" && !docType.Valid() {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "type must be invoice or receipt")
		return
	}

	docs, err := s.repo.GetDocumentsByBusiness(ctx, businessID, docType, uid)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get documents")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, docs)
}

func (s *service) GetDocument(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	document, err := s.repo.GetDocumentByID(ctx, ctx.Param("id"), uid)
	if err != nil {
		if errors.Is(err, repo.ErrDocumentNotFound) {
			dto.DocumentNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to get document")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, document)
}

// UpdateDocument patches title, content, pdf_url and status. The
// document number and type assigned at creation never change, and
// status only moves forward: draft -> published -> archived.
func (s *service) UpdateDocument(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	var req dto.UpdateDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	document, err := s.repo.GetDocumentByID(ctx, ctx.Param("id"), uid)
	if err != nil {
		if errors.Is(err, repo.ErrDocumentNotFound) {
			dto.DocumentNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to get document for update")
		dto.InternalServerError(ctx)
		return
	}

	if req.Status != nil {
		next := model.DocumentStatus(*req.Status)
		if !document.Status.CanTransition(next) {
			dto.BadResponseError(ctx, dto.InvalidTransition,
				fmt.Sprintf("cannot move document from %s to %s", document.Status, next))
			return
		}
		document.Status = next
	}

	applyIf(&document.Title, req.Title)
	if req.Content != nil {
		content := contentFromPayload(*req.Content)
		content.Normalize()
		document.Content = content
		document.TotalAmount = content.Total()
	}
	if req.PDFURL != nil {
		document.PDFURL = req.PDFURL
	}

	if err := s.repo.UpdateDocument(ctx, document, uid); err != nil {
		if errors.Is(err, repo.ErrDocumentNotFound) {
			dto.DocumentNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to update document")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, document)
}

func (s *service) DeleteDocument(ctx *ginext.Context) {
	uid, ok := userID(ctx)
	if !ok {
		return
	}

	if err := s.repo.DeleteDocument(ctx, ctx.Param("id"), uid); err != nil {
		if errors.Is(err, repo.ErrDocumentNotFound) {
			dto.DocumentNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to delete document")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, nil)
}
