package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"bizpass/internal/dto"
	"bizpass/internal/model"
	"bizpass/internal/repo"
)

func testEvent() *model.Event {
	start := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(6 * time.Hour)
	return &model.Event{
		ID:         "event-1",
		BusinessID: "biz-1",
		Name:       "Launch Party",
		StartDate:  &start,
		EndDate:    &end,
	}
}

func TestCreatePass(t *testing.T) {
	var stored *model.EntryPass
	r := &fakeRepo{
		getEventByID: func(ctx context.Context, id, userID string) (*model.Event, error) {
			return testEvent(), nil
		},
		createPass: func(ctx context.Context, p *model.EntryPass) error {
			stored = p
			return nil
		},
	}
	s := newTestService(r)

	c, w := testCtx(t, "POST", "/v1/passes", `{"event_id":"event-1","holder_name":"Ama Mensah"}`)
	s.CreatePass(c)

	if w.Code != 201 {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if stored == nil {
		t.Fatal("pass never reached the repository")
	}
	if stored.Status != model.PassActive {
		t.Errorf("status = %s, want active", stored.Status)
	}
	if len(stored.PassCode) != 8 {
		t.Errorf("pass code %q, want 8 characters", stored.PassCode)
	}
	wantURL := "http://test.local/verify/" + stored.ID
	if stored.VerificationURL != wantURL {
		t.Errorf("verification url = %q, want %q", stored.VerificationURL, wantURL)
	}
	if !strings.HasPrefix(stored.QRCodeURL, "data:image/png;base64,") {
		t.Errorf("qr artifact = %q, want inline png data URL", stored.QRCodeURL)
	}

	// Window defaults come from the event schedule.
	ev := testEvent()
	if stored.ValidFrom == nil || !stored.ValidFrom.Equal(*ev.StartDate) {
		t.Errorf("valid_from = %v, want event start %v", stored.ValidFrom, ev.StartDate)
	}
	if stored.ValidUntil == nil || !stored.ValidUntil.Equal(*ev.EndDate) {
		t.Errorf("valid_until = %v, want event end %v", stored.ValidUntil, ev.EndDate)
	}
}

func TestCreatePassSurvivesQRFailure(t *testing.T) {
	var stored *model.EntryPass
	r := &fakeRepo{
		getEventByID: func(ctx context.Context, id, userID string) (*model.Event, error) {
			return testEvent(), nil
		},
		createPass: func(ctx context.Context, p *model.EntryPass) error {
			stored = p
			return nil
		},
	}
	s := newTestService(r)
	s.qrEncode = func(string) (string, error) {
		return "", errors.New("encoder blew up")
	}

	c, w := testCtx(t, "POST", "/v1/passes", `{"event_id":"event-1","holder_name":"Kofi Boateng"}`)
	s.CreatePass(c)

	if w.Code != 201 {
		t.Fatalf("status = %d, want 201 despite QR failure", w.Code)
	}
	if stored == nil {
		t.Fatal("pass never reached the repository")
	}
	if stored.QRCodeURL != "" {
		t.Errorf("qr artifact = %q, want empty after encode failure", stored.QRCodeURL)
	}
	if stored.VerificationURL == "" {
		t.Error("verification url must survive a QR failure")
	}
}

func TestCreatePassRetriesOnCodeCollision(t *testing.T) {
	codes := map[string]bool{}
	attempts := 0
	r := &fakeRepo{
		getEventByID: func(ctx context.Context, id, userID string) (*model.Event, error) {
			return testEvent(), nil
		},
		createPass: func(ctx context.Context, p *model.EntryPass) error {
			attempts++
			codes[p.PassCode] = true
			if attempts < 3 {
				return repo.ErrPassCodeTaken
			}
			return nil
		},
	}
	s := newTestService(r)

	c, w := testCtx(t, "POST", "/v1/passes", `{"event_id":"event-1","holder_name":"Esi Owusu"}`)
	s.CreatePass(c)

	if w.Code != 201 {
		t.Fatalf("status = %d, want 201 after retries", w.Code)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	if len(codes) != 3 {
		t.Fatalf("expected a fresh code per attempt, saw %d distinct codes", len(codes))
	}
}

// A pass for an event weeks away must schedule its expiry with a
// positive delay; the earlier 32-bit arithmetic wrapped long windows
// into a negative header and retired passes immediately.
func TestCreatePassSchedulesExpiryForLongWindow(t *testing.T) {
	start := time.Now().Add(time.Hour)
	end := time.Now().Add(30 * 24 * time.Hour)
	r := &fakeRepo{
		getEventByID: func(ctx context.Context, id, userID string) (*model.Event, error) {
			return &model.Event{ID: "event-1", BusinessID: "biz-1", Name: "Trade Fair", StartDate: &start, EndDate: &end}, nil
		},
		createPass: func(ctx context.Context, p *model.EntryPass) error {
			return nil
		},
	}
	s := newTestService(r)

	var published []dto.PassExpiryMessage
	var delays []int64
	s.publish = func(payload []byte, delaySeconds int64) error {
		var msg dto.PassExpiryMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("bad expiry payload: %v", err)
		}
		published = append(published, msg)
		delays = append(delays, delaySeconds)
		return nil
	}

	c, w := testCtx(t, "POST", "/v1/passes", `{"event_id":"event-1","holder_name":"Ama Mensah"}`)
	s.CreatePass(c)

	if w.Code != 201 {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if len(published) != 1 {
		t.Fatalf("published %d expiry messages, want 1", len(published))
	}
	if !published[0].ExpireAt.Equal(end) {
		t.Errorf("expiry instant = %v, want %v", published[0].ExpireAt, end)
	}
	wantMin := int64(29 * 24 * time.Hour / time.Second)
	if delays[0] < wantMin {
		t.Errorf("delay = %ds, want at least %ds for a thirty-day window", delays[0], wantMin)
	}
}

// Extending valid_until must schedule a fresh expiry message at the
// new instant; the one from creation would otherwise fire at the old
// close and the consumer needs the stored window to disagree with it.
func TestUpdatePassReschedulesExpiry(t *testing.T) {
	oldEnd := time.Now().Add(24 * time.Hour)
	newEnd := time.Now().Add(72 * time.Hour)
	r := &fakeRepo{
		getPassByID: func(ctx context.Context, id, userID string) (*model.PassWithEvent, error) {
			return &model.PassWithEvent{
				EntryPass: model.EntryPass{
					ID:         id,
					EventID:    "event-1",
					PassCode:   "ABCD1234",
					HolderName: "Ama Mensah",
					Status:     model.PassActive,
					ValidUntil: &oldEnd,
				},
			}, nil
		},
		updatePassHolder: func(ctx context.Context, p *model.EntryPass, userID string) error {
			return nil
		},
	}
	s := newTestService(r)

	var published []dto.PassExpiryMessage
	s.publish = func(payload []byte, delaySeconds int64) error {
		var msg dto.PassExpiryMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("bad expiry payload: %v", err)
		}
		published = append(published, msg)
		return nil
	}

	body := `{"valid_until":"` + newEnd.UTC().Format(time.RFC3339Nano) + `"}`
	c, w := testCtx(t, "PUT", "/v1/passes/pass-1", body)
	c.Params = gin.Params{{Key: "id", Value: "pass-1"}}
	s.UpdatePass(c)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if len(published) != 1 {
		t.Fatalf("published %d expiry messages, want 1", len(published))
	}
	if !published[0].ExpireAt.Equal(newEnd) {
		t.Errorf("expiry instant = %v, want the extended %v", published[0].ExpireAt, newEnd)
	}
	if published[0].PassID != "pass-1" {
		t.Errorf("pass id = %s, want pass-1", published[0].PassID)
	}
}

// The pass id, code and event binding are fixed at creation; a client
// sending them in an update body must not be able to move the pass.
func TestUpdatePassKeepsIdentifiers(t *testing.T) {
	var stored *model.EntryPass
	r := &fakeRepo{
		getPassByID: func(ctx context.Context, id, userID string) (*model.PassWithEvent, error) {
			return &model.PassWithEvent{
				EntryPass: model.EntryPass{
					ID:         id,
					EventID:    "event-1",
					PassCode:   "ABCD1234",
					HolderName: "Ama Mensah",
					Status:     model.PassActive,
				},
			}, nil
		},
		updatePassHolder: func(ctx context.Context, p *model.EntryPass, userID string) error {
			stored = p
			return nil
		},
	}
	s := newTestService(r)

	body := `{"holder_name":"Kofi Boateng","id":"other-pass","event_id":"event-2","pass_code":"ZZZZ9999"}`
	c, w := testCtx(t, "PUT", "/v1/passes/pass-1", body)
	c.Params = gin.Params{{Key: "id", Value: "pass-1"}}
	s.UpdatePass(c)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if stored == nil {
		t.Fatal("update never reached the repository")
	}
	if stored.ID != "pass-1" || stored.EventID != "event-1" || stored.PassCode != "ABCD1234" {
		t.Fatalf("identifiers changed: id=%s event=%s code=%s", stored.ID, stored.EventID, stored.PassCode)
	}
	if stored.HolderName != "Kofi Boateng" {
		t.Errorf("holder name = %q, want the updated one", stored.HolderName)
	}
}

func TestGetVerificationReportsExpiredPastWindow(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	r := &fakeRepo{
		getPassPublicByID: func(ctx context.Context, id string) (*model.PassWithEvent, error) {
			return &model.PassWithEvent{
				EntryPass: model.EntryPass{
					ID:          id,
					PassCode:    "ABCD1234",
					HolderName:  "Ama Mensah",
					HolderEmail: "ama@example.com",
					Status:      model.PassActive,
					ValidUntil:  &past,
				},
				EventName: "Launch Party",
			}, nil
		},
	}
	s := newTestService(r)

	c, w := testCtx(t, "GET", "/verify/pass-1", "")
	c.Params = gin.Params{{Key: "id", Value: "pass-1"}}
	s.GetVerification(c)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	env := decodeEnvelope(t, w)
	var resp struct {
		Status     string `json:"status"`
		Usable     bool   `json:"usable"`
		HolderName string `json:"holder_name"`
	}
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if resp.Status != string(model.PassExpired) {
		t.Errorf("status = %s, want expired before the delayed message fires", resp.Status)
	}
	if resp.Usable {
		t.Error("pass past its window must not be usable")
	}
}

func TestVerificationOmitsHolderContacts(t *testing.T) {
	r := &fakeRepo{
		getPassPublicByID: func(ctx context.Context, id string) (*model.PassWithEvent, error) {
			return &model.PassWithEvent{
				EntryPass: model.EntryPass{
					ID:          id,
					PassCode:    "ABCD1234",
					HolderName:  "Ama Mensah",
					HolderEmail: "ama@example.com",
					HolderPhone: "+233201234567",
					Status:      model.PassActive,
				},
				EventName: "Launch Party",
			}, nil
		},
	}
	s := newTestService(r)

	c, w := testCtx(t, "GET", "/verify/pass-1", "")
	c.Params = gin.Params{{Key: "id", Value: "pass-1"}}
	s.GetVerification(c)

	body := w.Body.String()
	if strings.Contains(body, "ama@example.com") || strings.Contains(body, "+233201234567") {
		t.Fatalf("public verification leaked holder contacts: %s", body)
	}
}
