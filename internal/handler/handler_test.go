package handler

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
    "github.com/sirupsen/logrus/hooks/test"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/mock"
    "github.com/stretchr/testify/require"

    "github.com/jrdriving/jrdriving-api/internal/config"
    "github.com/jrdriving/jrdriving-api/internal/model"
    "github.com/jrdriving/jrdriving-api/internal/service"
    "github.com/jrdriving/jrdriving-api/internal/utils"
)

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) Register(ctx context.Context, in service.RegisterInput) (service.Session, utils.AccessToken, error) {
    args := m.Called(in)
    return args.Get(0).(service.Session), args.Get(1).(utils.AccessToken), args.Error(2)
}

func (m *mockAccounts) Authenticate(ctx context.Context, in service.LoginInput) (service.Session, utils.AccessToken, error) {
    args := m.Called(in)
    return args.Get(0).(service.Session), args.Get(1).(utils.AccessToken), args.Error(2)
}

func (m *mockAccounts) Session(ctx context.Context, userID uint64) (service.Session, error) {
    args := m.Called(userID)
    return args.Get(0).(service.Session), args.Error(1)
}

func (m *mockAccounts) ForgotPassword(ctx context.Context, in service.ForgotPasswordInput) error {
    return m.Called(in).Error(0)
}

func (m *mockAccounts) ResetPassword(ctx context.Context, in service.ResetPasswordInput) error {
    return m.Called(in).Error(0)
}

type mockMissions struct{ mock.Mock }

func (m *mockMissions) TrackByNumber(ctx context.Context, number string) (service.TrackingView, error) {
    args := m.Called(number)
    return args.Get(0).(service.TrackingView), args.Error(1)
}

func (m *mockMissions) ListForCaller(ctx context.Context, userID uint64) ([]model.Mission, error) {
    args := m.Called(userID)
    return args.Get(0).([]model.Mission), args.Error(1)
}

func (m *mockMissions) ChangeStatus(ctx context.Context, missionID uint64, status string, userID uint64) (model.Mission, error) {
    args := m.Called(missionID, status, userID)
    return args.Get(0).(model.Mission), args.Error(1)
}

func (m *mockMissions) Create(ctx context.Context, in service.CreateMissionInput, userID uint64) (model.Mission, error) {
    args := m.Called(in, userID)
    return args.Get(0).(model.Mission), args.Error(1)
}

func (m *mockMissions) Assign(ctx context.Context, missionID, driverProfileID, userID uint64) (model.Mission, error) {
    args := m.Called(missionID, driverProfileID, userID)
    return args.Get(0).(model.Mission), args.Error(1)
}

type mockPurger struct{ mock.Mock }

func (m *mockPurger) Purge(ctx context.Context, path string) error {
    return m.Called(path).Error(0)
}

type mockQuotes struct{ mock.Mock }

func (m *mockQuotes) Create(ctx context.Context, in service.QuoteInput) (model.Quote, error) {
    args := m.Called(in)
    return args.Get(0).(model.Quote), args.Error(1)
}

func (m *mockQuotes) Update(ctx context.Context, id uint64, in service.UpdateQuoteInput) (model.Quote, error) {
    args := m.Called(id, in)
    return args.Get(0).(model.Quote), args.Error(1)
}

func (m *mockQuotes) Attachment(ctx context.Context, quoteID, attachmentID uint64) (model.Attachment, []byte, error) {
    args := m.Called(quoteID, attachmentID)
    return args.Get(0).(model.Attachment), args.Get(1).([]byte), args.Error(2)
}

type mockRecruitment struct{ mock.Mock }

func (m *mockRecruitment) Submit(ctx context.Context, in service.ApplicationInput) (model.DriverApplication, error) {
    args := m.Called(in)
    return args.Get(0).(model.DriverApplication), args.Error(1)
}

func (m *mockRecruitment) Attachment(ctx context.Context, applicationID, attachmentID uint64) (model.Attachment, []byte, error) {
    args := m.Called(applicationID, attachmentID)
    return args.Get(0).(model.Attachment), args.Get(1).([]byte), args.Error(2)
}

type mockDashboard struct{ mock.Mock }

func (m *mockDashboard) Build(ctx context.Context) (service.Dashboard, error) {
    args := m.Called()
    return args.Get(0).(service.Dashboard), args.Error(1)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func quiet() logrus.FieldLogger {
    l := logrus.New()
    l.SetOutput(io.Discard)
    return l
}

func newEcho() *echo.Echo {
    e := echo.New()
    e.Validator = Validator{}
    return e
}

// request runs h against a fresh context.  uid, when non-zero, plays the
// part of the authentication middleware.
func request(e *echo.Echo, method, target, body string, uid uint64, names []string, values []string, h echo.HandlerFunc) *httptest.ResponseRecorder {
    var rd io.Reader
    if body != "" {
        rd = strings.NewReader(body)
    }
    req := httptest.NewRequest(method, target, rd)
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if len(names) > 0 {
        c.SetParamNames(names...)
        c.SetParamValues(values...)
    }
    if uid != 0 {
        c.Set("user_id", uid)
        c.Set("role", model.RoleAdmin)
    }
    if err := h(c); err != nil {
        e.HTTPErrorHandler(err, c)
    }
    return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
    t.Helper()
    var out map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
    return out
}

func cookieConfig() config.CookieConfig {
    return config.CookieConfig{Name: "jr_session", SameSite: http.SameSiteLaxMode, MaxAge: time.Hour}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
    for _, ck := range rec.Result().Cookies() {
        if ck.Name == name {
            return ck
        }
    }
    return nil
}

func TestStatusFor(t *testing.T) {
    cases := []struct {
        err  error
        want int
    }{
        {&service.ValidationError{Message: "bad"}, http.StatusBadRequest},
        {service.ErrInvalidResetToken, http.StatusBadRequest},
        {service.ErrUnauthenticated, http.StatusUnauthorized},
        {service.ErrInvalidCredentials, http.StatusUnauthorized},
        {service.ErrInvalidToken, http.StatusUnauthorized},
        {service.ErrForbidden, http.StatusForbidden},
        {fmt.Errorf("mission 4: %w", service.ErrNotFound), http.StatusNotFound},
        {service.ErrConflict, http.StatusConflict},
        {errors.New("connection refused"), http.StatusInternalServerError},
    }
    for _, c := range cases {
        assert.Equal(t, c.want, statusFor(c.err), c.err.Error())
    }
}

func TestAuth_SignupSetsSessionCookie(t *testing.T) {
    acc := &mockAccounts{}
    exp := time.Now().Add(time.Hour).UTC()
    sess := service.Session{User: service.UserView{ID: 3, Email: "a@b.co"}, Profile: service.ProfileView{ID: 9, Role: model.RoleClient}}
    acc.On("Register", mock.MatchedBy(func(in service.RegisterInput) bool {
        return in.Email == "a@b.co" && in.FullName == "Ann"
    })).Return(sess, utils.AccessToken{Token: "tok", Exp: exp}, nil)
    h := NewAuthHandler(acc, cookieConfig(), quiet())

    rec := request(newEcho(), http.MethodPost, "/auth/signup", `{"email":"a@b.co","password":"secret123","fullName":"Ann"}`, 0, nil, nil, h.Signup)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    acc.AssertExpectations(t)

    ck := findCookie(rec, "jr_session")
    require.NotNil(t, ck)
    assert.Equal(t, "tok", ck.Value)
    assert.True(t, ck.HttpOnly)
    assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
    assert.Equal(t, "/", ck.Path)
    assert.Equal(t, 3600, ck.MaxAge)

    body := decode(t, rec)
    assert.Equal(t, "tok", body["token"])
    assert.Equal(t, "a@b.co", body["user"].(map[string]any)["email"])
}

func TestAuth_SignupConflict(t *testing.T) {
    acc := &mockAccounts{}
    acc.On("Register", mock.Anything).Return(service.Session{}, utils.AccessToken{}, service.ErrConflict)
    h := NewAuthHandler(acc, cookieConfig(), quiet())

    rec := request(newEcho(), http.MethodPost, "/auth/signup", `{"email":"a@b.co"}`, 0, nil, nil, h.Signup)
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Nil(t, findCookie(rec, "jr_session"))
}

func TestAuth_LoginRejected(t *testing.T) {
    acc := &mockAccounts{}
    acc.On("Authenticate", mock.Anything).Return(service.Session{}, utils.AccessToken{}, service.ErrInvalidCredentials)
    h := NewAuthHandler(acc, cookieConfig(), quiet())

    rec := request(newEcho(), http.MethodPost, "/auth/login", `{"email":"a@b.co","password":"wrong-one"}`, 0, nil, nil, h.Login)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.JSONEq(t, `{"error":"invalid email or password"}`, rec.Body.String())
}

func TestAuth_MalformedBody(t *testing.T) {
    h := NewAuthHandler(&mockAccounts{}, cookieConfig(), quiet())
    rec := request(newEcho(), http.MethodPost, "/auth/login", `{"email":`, 0, nil, nil, h.Login)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "invalid body", decode(t, rec)["error"])
}

func TestAuth_SessionClearsCookieForDeletedAccount(t *testing.T) {
    acc := &mockAccounts{}
    acc.On("Session", uint64(3)).Return(service.Session{}, service.ErrUnauthenticated)
    h := NewAuthHandler(acc, cookieConfig(), quiet())

    rec := request(newEcho(), http.MethodGet, "/auth/session", "", 3, nil, nil, h.Session)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    ck := findCookie(rec, "jr_session")
    require.NotNil(t, ck)
    assert.Empty(t, ck.Value)
    assert.Less(t, ck.MaxAge, 0)

    rec = request(newEcho(), http.MethodGet, "/auth/session", "", 0, nil, nil, h.Session)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_LogoutAndForgot(t *testing.T) {
    acc := &mockAccounts{}
    acc.On("ForgotPassword", service.ForgotPasswordInput{Email: "nobody@example.com"}).Return(nil)
    h := NewAuthHandler(acc, cookieConfig(), quiet())
    e := newEcho()

    rec := request(e, http.MethodPost, "/auth/logout", "", 0, nil, nil, h.Logout)
    assert.Equal(t, http.StatusNoContent, rec.Code)
    ck := findCookie(rec, "jr_session")
    require.NotNil(t, ck)
    assert.Less(t, ck.MaxAge, 0)

    rec = request(e, http.MethodPost, "/auth/forgot-password", `{"email":"nobody@example.com"}`, 0, nil, nil, h.ForgotPassword)
    assert.Equal(t, http.StatusAccepted, rec.Code)
    assert.JSONEq(t, `{"message":"If an account exists, a reset link will be sent."}`, rec.Body.String())
    acc.AssertExpectations(t)
}

func TestAuth_ResetPassword(t *testing.T) {
    acc := &mockAccounts{}
    acc.On("ResetPassword", mock.MatchedBy(func(in service.ResetPasswordInput) bool { return in.Token == "expired" })).Return(service.ErrInvalidResetToken)
    acc.On("ResetPassword", mock.Anything).Return(nil)
    h := NewAuthHandler(acc, cookieConfig(), quiet())
    e := newEcho()

    rec := request(e, http.MethodPost, "/auth/reset-password", `{"token":"expired","password":"new-secret"}`, 0, nil, nil, h.ResetPassword)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "invalid or expired reset token", decode(t, rec)["error"])

    rec = request(e, http.MethodPost, "/auth/reset-password", `{"token":"fresh","password":"new-secret"}`, 0, nil, nil, h.ResetPassword)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "password updated", decode(t, rec)["message"])
}

func TestMission_Track(t *testing.T) {
    ms := &mockMissions{}
    driver := "Luc Martin"
    ms.On("TrackByNumber", "JR-2024-001").Return(service.TrackingView{
        MissionNumber: "JR-2024-001", Status: model.MissionInProgress, DepartureCity: "Lyon", ArrivalCity: "Lille", DriverName: &driver,
    }, nil)
    ms.On("TrackByNumber", "JR-0000-404").Return(service.TrackingView{}, service.ErrNotFound)
    h := NewMissionHandler(ms, nil, quiet())
    e := newEcho()

    rec := request(e, http.MethodGet, "/missions/track/JR-2024-001", "", 0, []string{"missionNumber"}, []string{"JR-2024-001"}, h.Track)
    require.Equal(t, http.StatusOK, rec.Code)
    m := decode(t, rec)["mission"].(map[string]any)
    assert.Equal(t, "in_progress", m["status"])
    assert.Equal(t, "Luc Martin", m["driverName"])
    assert.NotContains(t, rec.Body.String(), "price")

    rec = request(e, http.MethodGet, "/missions/track/JR-0000-404", "", 0, []string{"missionNumber"}, []string{"JR-0000-404"}, h.Track)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}

func TestMission_TrackOnlyServesCanonicalPath(t *testing.T) {
    ms := &mockMissions{}
    ms.On("TrackByNumber", "jr-2024-001").Return(service.TrackingView{MissionNumber: "JR-2024-001"}, nil)
    h := NewMissionHandler(ms, nil, quiet())
    e := newEcho()

    rec := request(e, http.MethodGet, "/missions/track/JR-2024-001%20", "", 0, []string{"missionNumber"}, []string{"JR-2024-001 "}, h.Track)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, decode(t, rec)["fields"], "missionNumber")

    rec = request(e, http.MethodGet, "/missions/track/jr-2024-001", "", 0, []string{"missionNumber"}, []string{"jr-2024-001"}, h.Track)
    assert.Equal(t, http.StatusMovedPermanently, rec.Code)
    assert.Equal(t, TrackingPath("JR-2024-001"), rec.Header().Get(echo.HeaderLocation))
    ms.AssertNumberOfCalls(t, "TrackByNumber", 1)
}

func TestMission_List(t *testing.T) {
    ms := &mockMissions{}
    ms.On("ListForCaller", uint64(5)).Return([]model.Mission{{ID: 1, MissionNumber: "JR-1"}, {ID: 2, MissionNumber: "JR-2"}}, nil)
    h := NewMissionHandler(ms, nil, quiet())

    rec := request(newEcho(), http.MethodGet, "/missions", "", 5, nil, nil, h.List)
    require.Equal(t, http.StatusOK, rec.Code)
    list := decode(t, rec)["missions"].([]any)
    require.Len(t, list, 2)
    assert.Equal(t, "JR-2", list[1].(map[string]any)["missionNumber"])
}

func TestMission_UpdateStatusPurgesTracking(t *testing.T) {
    ms := &mockMissions{}
    ms.On("ChangeStatus", uint64(42), "in_progress", uint64(7)).Return(model.Mission{ID: 42, MissionNumber: "JR-1"}, nil)
    cache := &mockPurger{}
    cache.On("Purge", "/missions/track/JR-1").Return(nil).Once()
    h := NewMissionHandler(ms, cache, quiet())

    rec := request(newEcho(), http.MethodPatch, "/missions/42/status", `{"status":"in_progress"}`, 7, []string{"missionId"}, []string{"42"}, h.UpdateStatus)
    assert.Equal(t, http.StatusNoContent, rec.Code)
    assert.Empty(t, rec.Body.String())
    ms.AssertExpectations(t)
    cache.AssertExpectations(t)
}

func TestMission_UpdateStatusPurgeFailureIsIgnored(t *testing.T) {
    ms := &mockMissions{}
    ms.On("ChangeStatus", uint64(42), "completed", uint64(7)).Return(model.Mission{ID: 42, MissionNumber: "JR-1"}, nil)
    cache := &mockPurger{}
    cache.On("Purge", mock.Anything).Return(errors.New("redis down"))
    log, hook := test.NewNullLogger()
    h := NewMissionHandler(ms, cache, log)

    rec := request(newEcho(), http.MethodPatch, "/missions/42/status", `{"status":"completed"}`, 7, []string{"missionId"}, []string{"42"}, h.UpdateStatus)
    assert.Equal(t, http.StatusNoContent, rec.Code)
    require.NotNil(t, hook.LastEntry())
    assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestMission_UpdateStatusErrors(t *testing.T) {
    ms := &mockMissions{}
    ms.On("ChangeStatus", uint64(42), "pending", uint64(7)).Return(model.Mission{}, &service.ValidationError{
        Message: "invalid status transition", Fields: map[string]string{"status": "cannot move from completed to pending"},
    })
    ms.On("ChangeStatus", uint64(43), "completed", uint64(7)).Return(model.Mission{}, service.ErrForbidden)
    cache := &mockPurger{}
    h := NewMissionHandler(ms, cache, quiet())
    e := newEcho()
    id := []string{"missionId"}

    rec := request(e, http.MethodPatch, "/missions/42/status", `{"status":"pending"}`, 7, id, []string{"42"}, h.UpdateStatus)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    body := decode(t, rec)
    assert.Equal(t, "invalid status transition", body["error"])
    assert.Contains(t, body["fields"], "status")

    rec = request(e, http.MethodPatch, "/missions/43/status", `{"status":"completed"}`, 7, id, []string{"43"}, h.UpdateStatus)
    assert.Equal(t, http.StatusForbidden, rec.Code)

    rec = request(e, http.MethodPatch, "/missions/abc/status", `{"status":"completed"}`, 7, id, []string{"abc"}, h.UpdateStatus)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, decode(t, rec)["fields"], "missionId")

    rec = request(e, http.MethodPatch, "/missions/42/status", `{}`, 7, id, []string{"42"}, h.UpdateStatus)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, decode(t, rec)["fields"], "status")

    cache.AssertNotCalled(t, "Purge", mock.Anything)
}

func TestMission_CreateAndAssign(t *testing.T) {
    ms := &mockMissions{}
    ms.On("Create", mock.MatchedBy(func(in service.CreateMissionInput) bool { return in.DepartureCity == "Lyon" }), uint64(1)).
        Return(model.Mission{ID: 9, MissionNumber: "JR-9", Status: model.MissionPending}, nil)
    ms.On("Assign", uint64(9), uint64(70), uint64(1)).Return(model.Mission{ID: 9, MissionNumber: "JR-9", Status: model.MissionAssigned}, nil)
    cache := &mockPurger{}
    cache.On("Purge", "/missions/track/JR-9").Return(nil).Once()
    h := NewMissionHandler(ms, cache, quiet())
    e := newEcho()

    rec := request(e, http.MethodPost, "/admin/missions", `{"departureCity":"Lyon"}`, 1, nil, nil, h.Create)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    assert.Equal(t, "JR-9", decode(t, rec)["mission"].(map[string]any)["missionNumber"])

    rec = request(e, http.MethodPatch, "/admin/missions/9/assign", `{"driverId":70}`, 1, []string{"missionId"}, []string{"9"}, h.Assign)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, "assigned", decode(t, rec)["mission"].(map[string]any)["status"])
    cache.AssertExpectations(t)
}

func TestInternalErrorsAreHidden(t *testing.T) {
    ms := &mockMissions{}
    ms.On("ListForCaller", uint64(5)).Return([]model.Mission(nil), errors.New("dial tcp 10.0.0.3:3306: connection refused"))
    log, hook := test.NewNullLogger()
    h := NewMissionHandler(ms, nil, log)

    rec := request(newEcho(), http.MethodGet, "/missions", "", 5, nil, nil, h.List)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
    require.NotNil(t, hook.LastEntry())
    assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
    assert.Contains(t, hook.LastEntry().Data, "request_id")
}

func TestErrorHandler_HTTPError(t *testing.T) {
    e := newEcho()
    e.HTTPErrorHandler = ErrorHandler(quiet())
    e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}

func TestQuote_Create(t *testing.T) {
    qs := &mockQuotes{}
    qs.On("Create", mock.MatchedBy(func(in service.QuoteInput) bool {
        return in.FullName == "Jeanne" && len(in.Attachments) == 1 && in.Attachments[0].Name == "a.pdf"
    })).Return(model.Quote{ID: 12, Status: model.QuoteNew}, nil)
    qs.On("Create", mock.Anything).Return(model.Quote{}, &service.ValidationError{Message: "invalid input", Fields: map[string]string{"email": "must be a valid email"}})
    h := NewQuoteHandler(qs, quiet())
    e := newEcho()

    rec := request(e, http.MethodPost, "/quotes", `{"fullName":"Jeanne","attachments":[{"name":"a.pdf","type":"application/pdf","size":3,"data":"YWJj"}]}`, 0, nil, nil, h.Create)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    assert.JSONEq(t, `{"id":12,"status":"new"}`, rec.Body.String())

    rec = request(e, http.MethodPost, "/quotes", `{"fullName":"Other"}`, 0, nil, nil, h.Create)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.JSONEq(t, `{"error":"invalid input","fields":{"email":"must be a valid email"}}`, rec.Body.String())
}

func TestQuote_Update(t *testing.T) {
    qs := &mockQuotes{}
    qs.On("Update", uint64(12), mock.Anything).Return(model.Quote{ID: 12, Status: model.QuoteQuoted}, nil)
    h := NewQuoteHandler(qs, quiet())

    rec := request(newEcho(), http.MethodPatch, "/admin/quotes/12", `{"status":"quoted","estimatedPrice":900}`, 1, []string{"id"}, []string{"12"}, h.Update)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, "quoted", decode(t, rec)["quote"].(map[string]any)["status"])
}

func TestQuote_AttachmentDownload(t *testing.T) {
    qs := &mockQuotes{}
    pdf := "application/pdf"
    qs.On("Attachment", uint64(12), uint64(3)).Return(model.Attachment{ID: 3, OwnerID: 12, FileName: "devis juin.pdf", MimeType: &pdf}, []byte("%PDF-1.4"), nil)
    qs.On("Attachment", uint64(12), uint64(4)).Return(model.Attachment{}, []byte(nil), service.ErrNotFound)
    h := NewQuoteHandler(qs, quiet())
    e := newEcho()
    names := []string{"id", "attachmentId"}

    rec := request(e, http.MethodGet, "/quotes/12/attachments/3", "", 1, names, []string{"12", "3"}, h.Attachment)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "%PDF-1.4", rec.Body.String())
    assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
    assert.Equal(t, `attachment; filename="devis juin.pdf"`, rec.Header().Get("Content-Disposition"))
    assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

    rec = request(e, http.MethodGet, "/quotes/12/attachments/4", "", 1, names, []string{"12", "4"}, h.Attachment)
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecruitment(t *testing.T) {
    rs := &mockRecruitment{}
    rs.On("Submit", mock.MatchedBy(func(in service.ApplicationInput) bool { return in.YearsExperience == 4 })).
        Return(model.DriverApplication{ID: 31}, nil)
    rs.On("Attachment", uint64(31), uint64(2)).Return(model.Attachment{ID: 2, FileName: "permis.png"}, []byte{0x89, 'P', 'N', 'G'}, nil)
    h := NewRecruitmentHandler(rs, quiet())
    e := newEcho()

    rec := request(e, http.MethodPost, "/recruitment", `{"fullName":"Marc","yearsExperience":"4"}`, 0, nil, nil, h.Submit)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    assert.JSONEq(t, `{"id":31,"message":"application received"}`, rec.Body.String())

    rec = request(e, http.MethodGet, "/recruitment/applications/31/attachments/2", "", 1, []string{"id", "attachmentId"}, []string{"31", "2"}, h.Attachment)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "application/octet-stream", rec.Header().Get(echo.HeaderContentType))
    assert.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))
}

func TestAdmin_Dashboard(t *testing.T) {
    d := &mockDashboard{}
    d.On("Build").Return(service.Dashboard{
        Stats:      service.DashboardStats{TotalMissions: 4, PunctualityRate: 100},
        AIInsights: []string{service.InsightStable},
    }, nil)
    h := NewAdminHandler(d, quiet())

    rec := request(newEcho(), http.MethodGet, "/admin/dashboard", "", 1, nil, nil, h.GetDashboard)
    require.Equal(t, http.StatusOK, rec.Code)
    body := decode(t, rec)
    assert.EqualValues(t, 4, body["stats"].(map[string]any)["totalMissions"])
    assert.Equal(t, []any{service.InsightStable}, body["aiInsights"])
}

func TestHealth(t *testing.T) {
    e := newEcho()
    rec := request(e, http.MethodGet, "/healthz", "", 0, nil, nil, Health(pingFunc(func(context.Context) error { return nil })))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

    rec = request(e, http.MethodGet, "/healthz", "", 0, nil, nil, Health(pingFunc(func(context.Context) error { return errors.New("down") })))
    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
    assert.Equal(t, "degraded", decode(t, rec)["status"])
}
