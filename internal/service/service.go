// Package service contains the HTTP handlers. Each handler binds and
// validates its request, calls the repository and writes the shared
// response envelope.
package service

import (
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"bizpass/internal/dto"
	"bizpass/internal/passkit"
	"bizpass/internal/rabbit"
	"bizpass/internal/repo"
	"bizpass/internal/storage"
)

type Service interface {
	CreateBusiness(ctx *ginext.Context)
	GetBusinesses(ctx *ginext.Context)
	GetBusiness(ctx *ginext.Context)
	UpdateBusiness(ctx *ginext.Context)
	DeleteBusiness(ctx *ginext.Context)
	GetActiveBusiness(ctx *ginext.Context)
	SwitchBusiness(ctx *ginext.Context)

	CreateItem(ctx *ginext.Context)
	GetItems(ctx *ginext.Context)
	UpdateItem(ctx *ginext.Context)
	DeleteItem(ctx *ginext.Context)

	CreateDocument(ctx *ginext.Context)
	GetDocuments(ctx *ginext.Context)
	GetDocument(ctx *ginext.Context)
	UpdateDocument(ctx *ginext.Context)
	DeleteDocument(ctx *ginext.Context)

	CreateEvent(ctx *ginext.Context)
	GetEvents(ctx *ginext.Context)
	GetEvent(ctx *ginext.Context)
	UpdateEvent(ctx *ginext.Context)
	DeleteEvent(ctx *ginext.Context)

	CreatePass(ctx *ginext.Context)
	GetPasses(ctx *ginext.Context)
	GetPass(ctx *ginext.Context)
	UpdatePass(ctx *ginext.Context)
	CancelPass(ctx *ginext.Context)
	GetPassScans(ctx *ginext.Context)

	GetVerification(ctx *ginext.Context)
	ScanPass(ctx *ginext.Context)

	GetDashboard(ctx *ginext.Context)
}

type service struct {
	repo   repo.Repository
	log    *zerolog.Logger
	store  *storage.Store
	origin string

	// qrEncode is passkit.QRDataURL and publish is the rabbit client's
	// Publish; both are fields so tests can intercept them.
	qrEncode func(string) (string, error)
	publish  func(payload []byte, delaySeconds int64) error
}

func NewService(repo repo.Repository, logger *zerolog.Logger, rbt *rabbit.Client, store *storage.Store, origin string) Service {
	s := &service{
		repo:     repo,
		log:      logger,
		store:    store,
		origin:   origin,
		qrEncode: passkit.QRDataURL,
	}
	if rbt != nil {
		s.publish = rbt.Publish
	}
	return s
}

// userID reads the authenticated subject set by the auth middleware.
func userID(ctx *ginext.Context) (string, bool) {
	v, ok := ctx.Get("user_id")
	if !ok {
		dto.UnauthorizedError(ctx)
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		dto.UnauthorizedError(ctx)
		return "", false
	}
	return id, true
}
