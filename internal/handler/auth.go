package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/jrdriving/jrdriving-api/internal/config"
    "github.com/jrdriving/jrdriving-api/internal/service"
    "github.com/jrdriving/jrdriving-api/internal/utils"
)

// Accounts is the part of service.AuthService the auth endpoints use.
type Accounts interface {
    Register(ctx context.Context, in service.RegisterInput) (service.Session, utils.AccessToken, error)
    Authenticate(ctx context.Context, in service.LoginInput) (service.Session, utils.AccessToken, error)
    Session(ctx context.Context, userID uint64) (service.Session, error)
    ForgotPassword(ctx context.Context, in service.ForgotPasswordInput) error
    ResetPassword(ctx context.Context, in service.ResetPasswordInput) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Accounts Accounts
    Cookie   config.CookieConfig
    Log      logrus.FieldLogger
}

func NewAuthHandler(accounts Accounts, cookie config.CookieConfig, log logrus.FieldLogger) *AuthHandler {
    return &AuthHandler{Accounts: accounts, Cookie: cookie, Log: log}
}

// sessionResp is a session plus the token, for clients that send it as a
// bearer header instead of relying on the cookie.
type sessionResp struct {
    service.Session
    Token     string    `json:"token"`
    ExpiresAt time.Time `json:"expiresAt"`
}

type messageResp struct {
    Message string `json:"message"`
}

const forgotMessage = "If an account exists, a reset link will be sent."

func (h *AuthHandler) setSessionCookie(c echo.Context, tok utils.AccessToken) {
    maxAge := h.Cookie.MaxAge
    if maxAge <= 0 {
        maxAge = time.Until(tok.Exp)
    }
    c.SetCookie(&http.Cookie{
        Name:     h.Cookie.Name,
        Value:    tok.Token,
        Path:     "/",
        MaxAge:   int(maxAge / time.Second),
        Expires:  time.Now().Add(maxAge),
        HttpOnly: true,
        Secure:   h.Cookie.Secure,
        SameSite: h.Cookie.SameSite,
    })
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
    c.SetCookie(&http.Cookie{
        Name:     h.Cookie.Name,
        Value:    "",
        Path:     "/",
        MaxAge:   -1,
        Expires:  time.Unix(0, 0),
        HttpOnly: true,
        Secure:   h.Cookie.Secure,
        SameSite: h.Cookie.SameSite,
    })
}

// Signup creates a client or driver account and signs it in.
func (h *AuthHandler) Signup(c echo.Context) error {
    var req service.RegisterInput
    if err := c.Bind(&req); err != nil {
        return respondError(c, h.Log, &service.ValidationError{Message: "invalid body"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    sess, tok, err := h.Accounts.Register(ctx, req)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    h.setSessionCookie(c, tok)
    return c.JSON(http.StatusCreated, sessionResp{Session: sess, Token: tok.Token, ExpiresAt: tok.Exp})
}

// Login verifies credentials and signs the account in.
func (h *AuthHandler) Login(c echo.Context) error {
    var req service.LoginInput
    if err := c.Bind(&req); err != nil {
        return respondError(c, h.Log, &service.ValidationError{Message: "invalid body"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    sess, tok, err := h.Accounts.Authenticate(ctx, req)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    h.setSessionCookie(c, tok)
    return c.JSON(http.StatusOK, sessionResp{Session: sess, Token: tok.Token, ExpiresAt: tok.Exp})
}

// Session returns the signed-in account, re-read from the store.
func (h *AuthHandler) Session(c echo.Context) error {
    uid, err := callerID(c)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    sess, err := h.Accounts.Session(ctx, uid)
    if err != nil {
        if statusFor(err) == http.StatusUnauthorized {
            h.clearSessionCookie(c)
        }
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, sess)
}

// Logout clears the session cookie.  Tokens are stateless, so nothing is
// revoked server side.
func (h *AuthHandler) Logout(c echo.Context) error {
    h.clearSessionCookie(c)
    return c.NoContent(http.StatusNoContent)
}

// ForgotPassword always answers 202 for a well-formed email so the response
// does not reveal whether an account exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
    var req service.ForgotPasswordInput
    if err := c.Bind(&req); err != nil {
        return respondError(c, h.Log, &service.ValidationError{Message: "invalid body"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    if err := h.Accounts.ForgotPassword(ctx, req); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusAccepted, messageResp{Message: forgotMessage})
}

// ResetPassword redeems a reset token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
    var req service.ResetPasswordInput
    if err := c.Bind(&req); err != nil {
        return respondError(c, h.Log, &service.ValidationError{Message: "invalid body"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    if err := h.Accounts.ResetPassword(ctx, req); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, messageResp{Message: "password updated"})
}
