package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/timegrid"
)

type stubReservationService struct {
	admitDetail   application.ReservationDetail
	admitWarnings []application.Warning
	admitErr      error
	lastAdmit     application.AdmitParams
	cancelErr     error
	myView        application.MyReservationsView
}

func (s *stubReservationService) Admit(_ context.Context, params application.AdmitParams) (application.ReservationDetail, []application.Warning, error) {
	s.lastAdmit = params
	return s.admitDetail, s.admitWarnings, s.admitErr
}

func (s *stubReservationService) AdmitOnBehalf(_ context.Context, params application.AdmitOnBehalfParams) (application.ReservationDetail, []application.Warning, error) {
	return s.admitDetail, s.admitWarnings, s.admitErr
}

func (s *stubReservationService) Cancel(context.Context, application.Principal, string) error {
	return s.cancelErr
}

func (s *stubReservationService) MyReservations(context.Context, application.Principal) (application.MyReservationsView, error) {
	return s.myView, nil
}

func (s *stubReservationService) GetReservation(context.Context, application.Principal, string) (application.ReservationDetail, error) {
	return s.admitDetail, nil
}

func (s *stubReservationService) ListForRoom(context.Context, application.Principal, string) ([]application.ReservationDetail, error) {
	return nil, nil
}

func sampleDetail() application.ReservationDetail {
	start := time.Date(2026, 3, 9, 12, 30, 0, 0, time.UTC)
	return application.ReservationDetail{
		Reservation: application.Reservation{
			ID:      "res-1",
			RoomID:  "room-1",
			UserID:  "user-1",
			StartAt: start,
			EndAt:   start.Add(time.Hour),
			Status:  application.ReservationActive,
		},
		Room: application.Room{ID: "room-1", Name: "Sala 101", Capacity: 6},
		User: application.User{ID: "user-1", Email: "ana@ufro.cl", DisplayName: "Ana", Role: application.RoleStudent},
	}
}

func withPrincipal(r *http.Request, principal application.Principal) *http.Request {
	return r.WithContext(ContextWithPrincipal(r.Context(), principal))
}

func TestCreateReservationReturnsID(t *testing.T) {
	service := &stubReservationService{admitDetail: sampleDetail()}
	handler := NewReservationHandler(service, nil)

	body := `{"roomId":"room-1","startAt":"2026-03-09T12:30:00Z","endAt":"2026-03-09T13:30:00Z","addToGoogleCalendar":true}`
	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(body))
	req = withPrincipal(req, application.Principal{UserID: "user-1", Role: application.RoleStudent})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "res-1" {
		t.Fatalf("expected res-1, got %q", resp.ID)
	}
	if !service.lastAdmit.Input.AddToCalendar {
		t.Fatal("expected calendar flag to be forwarded")
	}
}

func TestCreateReservationConflictMapsTo409(t *testing.T) {
	service := &stubReservationService{admitErr: booking.RejectConflict("res-9")}
	handler := NewReservationHandler(service, nil)

	body := `{"roomId":"room-1","startAt":"2026-03-09T12:30:00Z","endAt":"2026-03-09T13:30:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(body))
	req = withPrincipal(req, application.Principal{UserID: "user-1", Role: application.RoleStudent})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ErrorCode != "CONFLICT" {
		t.Fatalf("expected CONFLICT code, got %q", resp.ErrorCode)
	}
	if resp.ConflictID != "res-9" {
		t.Fatalf("expected conflicting id res-9, got %q", resp.ConflictID)
	}
}

func TestCreateReservationRejectsMalformedBody(t *testing.T) {
	handler := NewReservationHandler(&stubReservationService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(`{"roomId":`))
	req = withPrincipal(req, application.Principal{UserID: "user-1", Role: application.RoleStudent})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateReservationTimeoutMapsTo503(t *testing.T) {
	service := &stubReservationService{
		admitErr: booking.Reject(booking.ReasonTimeout, "no se pudo confirmar la reserva a tiempo, intenta nuevamente"),
	}
	handler := NewReservationHandler(service, nil)

	body := `{"roomId":"room-1","startAt":"2026-03-09T12:30:00Z","endAt":"2026-03-09T13:30:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(body))
	req = withPrincipal(req, application.Principal{UserID: "user-1", Role: application.RoleStudent})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestCreateReservationCarriesCalendarWarning(t *testing.T) {
	service := &stubReservationService{
		admitDetail: sampleDetail(),
		admitWarnings: []application.Warning{
			{Code: "CALENDAR_SYNC_FAILED", Message: "la reserva fue creada, pero no se pudo agregar al calendario"},
		},
	}
	handler := NewReservationHandler(service, nil)

	body := `{"roomId":"room-1","startAt":"2026-03-09T12:30:00Z","endAt":"2026-03-09T13:30:00Z","addToGoogleCalendar":true}`
	req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(body))
	req = withPrincipal(req, application.Principal{UserID: "user-1", Role: application.RoleStudent})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp reservationCreatedResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0].Code != "CALENDAR_SYNC_FAILED" {
		t.Fatalf("expected calendar warning, got %+v", resp.Warnings)
	}
}

func TestMyReservationsShape(t *testing.T) {
	detail := sampleDetail()
	service := &stubReservationService{
		myView: application.MyReservationsView{
			Current: &detail,
			Future:  []application.ReservationDetail{detail},
			Past:    nil,
		},
	}
	handler := NewReservationHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/reservations/my", nil)
	req = withPrincipal(req, application.Principal{UserID: "user-1", Role: application.RoleStudent})
	rec := httptest.NewRecorder()

	handler.My(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, key := range []string{"current", "future", "past"} {
		if _, ok := resp[key]; !ok {
			t.Fatalf("expected %q key in response", key)
		}
	}
	if string(resp["past"]) != "[]" {
		t.Fatalf("expected empty past list, got %s", resp["past"])
	}
}

type stubAvailabilityService struct {
	view application.DailyAvailability
	err  error
	loc  *time.Location
	got  time.Time
}

func (s *stubAvailabilityService) ForDate(_ context.Context, date time.Time) (application.DailyAvailability, error) {
	s.got = date
	return s.view, s.err
}

func (s *stubAvailabilityService) Location() *time.Location {
	if s.loc == nil {
		return time.UTC
	}
	return s.loc
}

func TestAvailabilityParsesDate(t *testing.T) {
	service := &stubAvailabilityService{
		view: application.DailyAvailability{
			Date:  time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			Rooms: []application.Room{{ID: "room-1", Name: "Sala 101", Capacity: 6}},
			Cells: []booking.Cell{{RoomID: "room-1", SlotID: "08:30-09:30", Available: true}},
		},
	}
	handler := NewAvailabilityHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/availability?date=2026-03-09", nil)
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := service.got.Format("2006-01-02"); got != "2026-03-09" {
		t.Fatalf("expected parsed date 2026-03-09, got %s", got)
	}

	var resp availabilityResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Availability) != 1 || resp.Availability[0].RoomID != "room-1" {
		t.Fatalf("unexpected availability payload %+v", resp.Availability)
	}
}

func TestAvailabilityResolvesDateInGridZone(t *testing.T) {
	// West of Greenwich, local midnight lies on the previous UTC day; the
	// requested calendar day must survive the round trip.
	zone := time.FixedZone("UTC-4", -4*60*60)
	service := &stubAvailabilityService{loc: zone}
	handler := NewAvailabilityHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/availability?date=2026-09-01", nil)
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := service.got.In(zone).Format("2006-01-02"); got != "2026-09-01" {
		t.Fatalf("expected the service to receive 2026-09-01 in the grid zone, got %s", got)
	}
}

func TestAvailabilitySlotPayloadCarriesClocks(t *testing.T) {
	service := &stubAvailabilityService{
		view: application.DailyAvailability{
			Date: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
			Slots: []timegrid.Slot{{
				ID:    "08:30-09:30",
				Label: "1° (08:30-09:30)",
				Start: timegrid.Clock{Hour: 8, Minute: 30},
				End:   timegrid.Clock{Hour: 9, Minute: 30},
			}},
		},
	}
	handler := NewAvailabilityHandler(service, nil)

	req := httptest.NewRequest(http.MethodGet, "/availability", nil)
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	var resp availabilityResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Slots) != 1 {
		t.Fatalf("expected one slot, got %+v", resp.Slots)
	}
	slot := resp.Slots[0]
	if slot.Start != "08:30" || slot.End != "09:30" {
		t.Fatalf("expected slot clocks 08:30/09:30, got %q/%q", slot.Start, slot.End)
	}
}

func TestAvailabilityRejectsBadDate(t *testing.T) {
	handler := NewAvailabilityHandler(&stubAvailabilityService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/availability?date=09-03-2026", nil)
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

type stubAuthService struct {
	result    application.AuthenticateResult
	err       error
	revokeErr error
}

func (s *stubAuthService) Authenticate(context.Context, application.AuthenticateParams) (application.AuthenticateResult, error) {
	return s.result, s.err
}

func (s *stubAuthService) RevokeSession(context.Context, string) error {
	return s.revokeErr
}

func TestCreateSessionIssuesToken(t *testing.T) {
	service := &stubAuthService{
		result: application.AuthenticateResult{
			User: application.User{ID: "user-1", Email: "ana@ufro.cl", DisplayName: "Ana", Role: application.RoleStudent},
			Session: application.Session{
				Token:     "token-1",
				ExpiresAt: time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC),
			},
		},
	}
	handler := NewAuthHandler(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"ana@ufro.cl","password":"secret123"}`))
	rec := httptest.NewRecorder()

	handler.CreateSession(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Session-Token") != "token-1" {
		t.Fatal("expected session token header")
	}
	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.User.Rol != "STUDENT" || resp.User.Nombre != "Ana" {
		t.Fatalf("unexpected user payload %+v", resp.User)
	}
}

func TestCreateSessionRejectsBadCredentials(t *testing.T) {
	service := &stubAuthService{err: application.ErrInvalidCredentials}
	handler := NewAuthHandler(service, nil)

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"ana@ufro.cl","password":"wrong"}`))
	rec := httptest.NewRecorder()

	handler.CreateSession(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
		t.Fatalf("unexpected error code %q", resp.ErrorCode)
	}
}
