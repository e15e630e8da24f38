package service

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"bizpass/internal/dto"
	"bizpass/internal/model"
	"bizpass/internal/passkit"
	"bizpass/internal/repo"
)

// fakeRepo embeds the Repository interface so each test only
// overrides the methods its handler touches; anything else panics.
type fakeRepo struct {
	repo.Repository

	createBusiness      func(ctx context.Context, b *model.Business) error
	getBusinessesByUser func(ctx context.Context, userID string) ([]model.Business, error)
	getBusinessByID     func(ctx context.Context, id, userID string) (*model.Business, error)
	getUserSetting      func(ctx context.Context, userID, key string) (string, error)
	setUserSetting      func(ctx context.Context, userID, key, value string) error

	getDocumentByID func(ctx context.Context, id, userID string) (*model.Document, error)
	updateDocument  func(ctx context.Context, d *model.Document, userID string) error

	getEventByID func(ctx context.Context, id, userID string) (*model.Event, error)
	createPass   func(ctx context.Context, p *model.EntryPass) error

	getPassByID       func(ctx context.Context, id, userID string) (*model.PassWithEvent, error)
	updatePassHolder  func(ctx context.Context, p *model.EntryPass, userID string) error
	getPassPublicByID func(ctx context.Context, id string) (*model.PassWithEvent, error)

	getBusinessIDsForUser func(ctx context.Context, userID string) ([]string, error)
	getPublishedDocTotals func(ctx context.Context, businessIDs []string) ([]model.DocTotal, error)
	countEvents           func(ctx context.Context, businessIDs []string) (int, error)
	getRecentDocuments    func(ctx context.Context, businessIDs []string, limit int) ([]model.ActivityItem, error)
	getRecentEvents       func(ctx context.Context, businessIDs []string, limit int) ([]model.ActivityItem, error)
}

func (f *fakeRepo) CreateBusiness(ctx context.Context, b *model.Business) error {
	return f.createBusiness(ctx, b)
}

func (f *fakeRepo) GetBusinessesByUser(ctx context.Context, userID string) ([]model.Business, error) {
	return f.getBusinessesByUser(ctx, userID)
}

func (f *fakeRepo) GetBusinessByID(ctx context.Context, id, userID string) (*model.Business, error) {
	return f.getBusinessByID(ctx, id, userID)
}

func (f *fakeRepo) GetUserSetting(ctx context.Context, userID, key string) (string, error) {
	return f.getUserSetting(ctx, userID, key)
}

func (f *fakeRepo) SetUserSetting(ctx context.Context, userID, key, value string) error {
	return f.setUserSetting(ctx, userID, key, value)
}

func (f *fakeRepo) GetDocumentByID(ctx context.Context, id, userID string) (*model.Document, error) {
	return f.getDocumentByID(ctx, id, userID)
}

func (f *fakeRepo) UpdateDocument(ctx context.Context, d *model.Document, userID string) error {
	return f.updateDocument(ctx, d, userID)
}

func (f *fakeRepo) GetEventByID(ctx context.Context, id, userID string) (*model.Event, error) {
	return f.getEventByID(ctx, id, userID)
}

func (f *fakeRepo) CreatePass(ctx context.Context, p *model.EntryPass) error {
	return f.createPass(ctx, p)
}

func (f *fakeRepo) GetPassByID(ctx context.Context, id, userID string) (*model.PassWithEvent, error) {
	return f.getPassByID(ctx, id, userID)
}

func (f *fakeRepo) UpdatePassHolder(ctx context.Context, p *model.EntryPass, userID string) error {
	return f.updatePassHolder(ctx, p, userID)
}

func (f *fakeRepo) GetPassPublicByID(ctx context.Context, id string) (*model.PassWithEvent, error) {
	return f.getPassPublicByID(ctx, id)
}

func (f *fakeRepo) GetBusinessIDsForUser(ctx context.Context, userID string) ([]string, error) {
	return f.getBusinessIDsForUser(ctx, userID)
}

func (f *fakeRepo) GetPublishedDocTotals(ctx context.Context, businessIDs []string) ([]model.DocTotal, error) {
	return f.getPublishedDocTotals(ctx, businessIDs)
}

func (f *fakeRepo) CountEvents(ctx context.Context, businessIDs []string) (int, error) {
	return f.countEvents(ctx, businessIDs)
}

func (f *fakeRepo) GetRecentDocuments(ctx context.Context, businessIDs []string, limit int) ([]model.ActivityItem, error) {
	return f.getRecentDocuments(ctx, businessIDs, limit)
}

func (f *fakeRepo) GetRecentEvents(ctx context.Context, businessIDs []string, limit int) ([]model.ActivityItem, error) {
	return f.getRecentEvents(ctx, businessIDs, limit)
}

func newTestService(r repo.Repository) *service {
	log := zerolog.Nop()
	return &service{
		repo:     r,
		log:      &log,
		origin:   "http://test.local",
		qrEncode: passkit.QRDataURL,
	}
}

func testCtx(t *testing.T, method, target, body string) (*ginext.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set("user_id", "user-1")
	return c, w
}

type envelope struct {
	Status string          `json:"status"`
	Error  *dto.Error      `json:"error"`
	Data   json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return env
}

func TestCreateBusinessRejectsBlankName(t *testing.T) {
	inserted := false
	r := &fakeRepo{
		createBusiness: func(ctx context.Context, b *model.Business) error {
			inserted = true
			return nil
		},
	}
	s := newTestService(r)

	c, w := testCtx(t, "POST", "/v1/businesses", `{"name":"   "}`)
	s.CreateBusiness(c)

	if w.Code != 400 {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if inserted {
		t.Fatal("blank business name reached the repository")
	}
}

func TestSwitchBusinessUnknownIDIsNoOp(t *testing.T) {
	owned := model.Business{ID: "biz-1", UserID: "user-1", Name: "First"}
	settingWritten := false

	r := &fakeRepo{
		getBusinessByID: func(ctx context.Context, id, userID string) (*model.Business, error) {
			if id == owned.ID {
				return &owned, nil
			}
			return nil, repo.ErrBusinessNotFound
		},
		getUserSetting: func(ctx context.Context, userID, key string) (string, error) {
			return owned.ID, nil
		},
		setUserSetting: func(ctx context.Context, userID, key, value string) error {
			settingWritten = true
			return nil
		},
	}
	s := newTestService(r)

	c, w := testCtx(t, "PUT", "/v1/businesses/active", `{"business_id":"someone-elses"}`)
	s.SwitchBusiness(c)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if settingWritten {
		t.Fatal("unknown business id must not change the stored selection")
	}

	env := decodeEnvelope(t, w)
	var got model.Business
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.ID != owned.ID {
		t.Fatalf("active business = %s, want unchanged %s", got.ID, owned.ID)
	}
}

func TestGetActiveBusinessFallsBackToFirst(t *testing.T) {
	businesses := []model.Business{
		{ID: "biz-1", UserID: "user-1", Name: "First"},
		{ID: "biz-2", UserID: "user-1", Name: "Second"},
	}
	r := &fakeRepo{
		getUserSetting: func(ctx context.Context, userID, key string) (string, error) {
			return "deleted-biz", nil
		},
		getBusinessByID: func(ctx context.Context, id, userID string) (*model.Business, error) {
			return nil, repo.ErrBusinessNotFound
		},
		getBusinessesByUser: func(ctx context.Context, userID string) ([]model.Business, error) {
			return businesses, nil
		},
	}
	s := newTestService(r)

	c, w := testCtx(t, "GET", "/v1/businesses/active", "")
	s.GetActiveBusiness(c)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	env := decodeEnvelope(t, w)
	var got model.Business
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.ID != "biz-1" {
		t.Fatalf("active business = %s, want fallback biz-1", got.ID)
	}
}

func TestDashboardNoBusinesses(t *testing.T) {
	r := &fakeRepo{
		getBusinessIDsForUser: func(ctx context.Context, userID string) ([]string, error) {
			return nil, nil
		},
	}
	s := newTestService(r)

	c, w := testCtx(t, "GET", "/v1/dashboard", "")
	s.GetDashboard(c)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	env := decodeEnvelope(t, w)
	var stats model.DashboardStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if stats.TotalRevenue != 0 || stats.TotalInvoices != 0 || stats.TotalReceipts != 0 || stats.TotalEvents != 0 {
		t.Fatalf("expected all-zero stats, got %+v", stats)
	}
	if len(stats.RecentActivity) != 0 {
		t.Fatalf("expected empty feed, got %+v", stats.RecentActivity)
	}
}

func TestDashboardRevenueCountsInvoicesOnly(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r := &fakeRepo{
		getBusinessIDsForUser: func(ctx context.Context, userID string) ([]string, error) {
			return []string{"biz-1"}, nil
		},
		getPublishedDocTotals: func(ctx context.Context, businessIDs []string) ([]model.DocTotal, error) {
			return []model.DocTotal{
				{Type: model.DocInvoice, TotalAmount: 100},
				{Type: model.DocInvoice, TotalAmount: 250},
				{Type: model.DocReceipt, TotalAmount: 999},
			}, nil
		},
		countEvents: func(ctx context.Context, businessIDs []string) (int, error) {
			return 4, nil
		},
		getRecentDocuments: func(ctx context.Context, businessIDs []string, limit int) ([]model.ActivityItem, error) {
			if limit != recentDocsLimit {
				t.Errorf("document limit = %d, want %d", limit, recentDocsLimit)
			}
			return []model.ActivityItem{
				{ID: "d1", Kind: "document", CreatedAt: base.Add(5 * time.Minute)},
				{ID: "d2", Kind: "document", CreatedAt: base.Add(3 * time.Minute)},
				{ID: "d3", Kind: "document", CreatedAt: base.Add(1 * time.Minute)},
			}, nil
		},
		getRecentEvents: func(ctx context.Context, businessIDs []string, limit int) ([]model.ActivityItem, error) {
			if limit != recentEventsLimit {
				t.Errorf("event limit = %d, want %d", limit, recentEventsLimit)
			}
			return []model.ActivityItem{
				{ID: "e1", Kind: "event", CreatedAt: base.Add(4 * time.Minute)},
				{ID: "e2", Kind: "event", CreatedAt: base.Add(2 * time.Minute)},
			}, nil
		},
	}
	s := newTestService(r)

	c, w := testCtx(t, "GET", "/v1/dashboard", "")
	s.GetDashboard(c)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	env := decodeEnvelope(t, w)
	var stats model.DashboardStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	if stats.TotalRevenue != 350 {
		t.Errorf("revenue = %v, want 350 (receipts excluded)", stats.TotalRevenue)
	}
	if stats.TotalInvoices != 2 || stats.TotalReceipts != 1 || stats.TotalEvents != 4 {
		t.Errorf("counts = %d/%d/%d, want 2/1/4", stats.TotalInvoices, stats.TotalReceipts, stats.TotalEvents)
	}

	wantOrder := []string{"d1", "e1", "d2", "e2", "d3"}
	if len(stats.RecentActivity) != len(wantOrder) {
		t.Fatalf("feed length = %d, want %d", len(stats.RecentActivity), len(wantOrder))
	}
	for i, want := range wantOrder {
		if stats.RecentActivity[i].ID != want {
			t.Errorf("feed[%d] = %s, want %s", i, stats.RecentActivity[i].ID, want)
		}
	}
}

func TestUpdateDocumentRejectsBackwardTransition(t *testing.T) {
	updated := false
	r := &fakeRepo{
		getDocumentByID: func(ctx context.Context, id, userID string) (*model.Document, error) {
			return &model.Document{ID: id, Status: model.StatusPublished, Type: model.DocInvoice}, nil
		},
		updateDocument: func(ctx context.Context, d *model.Document, userID string) error {
			updated = true
			return nil
		},
	}
	s := newTestService(r)

	c, w := testCtx(t, "PUT", "/v1/documents/doc-1", `{"status":"draft"}`)
	c.Params = gin.Params{{Key: "id", Value: "doc-1"}}
	s.UpdateDocument(c)

	if w.Code != 400 {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Error == nil || env.Error.Code != dto.InvalidTransition {
		t.Fatalf("error = %+v, want %s", env.Error, dto.InvalidTransition)
	}
	if updated {
		t.Fatal("backward transition reached the repository")
	}
}

// A client that echoes the document's current status back, or retries
// an update, must not be rejected as an invalid transition.
func TestUpdateDocumentAcceptsSameStatus(t *testing.T) {
	var stored *model.Document
	r := &fakeRepo{
		getDocumentByID: func(ctx context.Context, id, userID string) (*model.Document, error) {
			return &model.Document{ID: id, Title: "Invoice #1", Status: model.StatusPublished, Type: model.DocInvoice}, nil
		},
		updateDocument: func(ctx context.Context, d *model.Document, userID string) error {
			stored = d
			return nil
		},
	}
	s := newTestService(r)

	c, w := testCtx(t, "PUT", "/v1/documents/doc-1", `{"status":"published","title":"Invoice #1 (final)"}`)
	c.Params = gin.Params{{Key: "id", Value: "doc-1"}}
	s.UpdateDocument(c)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if stored == nil {
		t.Fatal("same-status update never reached the repository")
	}
	if stored.Status != model.StatusPublished {
		t.Errorf("status = %s, want published", stored.Status)
	}
	if stored.Title != "Invoice #1 (final)" {
		t.Errorf("title = %q, want the updated one", stored.Title)
	}
}
