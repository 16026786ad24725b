package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/pranavOffl/EventBookingSystem/internal/config"
    "github.com/pranavOffl/EventBookingSystem/internal/middleware"
    "github.com/pranavOffl/EventBookingSystem/internal/model"
    "github.com/pranavOffl/EventBookingSystem/internal/repository"
    "github.com/pranavOffl/EventBookingSystem/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg       config.Config
    Users     *repository.UserRepo
    Tokens    *repository.TokenRepo
    Blocklist *repository.TokenBlocklist
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, bl *repository.TokenBlocklist) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Blocklist: bl}
}

// ----- DTOs -----

type registerReq struct {
    Email           string `json:"email" validate:"required,email"`
    Password        string `json:"password" validate:"required,min=8"`
    ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
    Role            string `json:"role" validate:"omitempty,oneof=attendee organizer"`
}
type adminSignupReq struct {
    Email           string `json:"email" validate:"required,email"`
    Password        string `json:"password" validate:"required,min=8"`
    ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}
type loginReq struct {
    Email    string `json:"email" validate:"required"`
    Password string `json:"password" validate:"required"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID    uuid.UUID `json:"id"`
    Email string    `json:"email"`
    Role  string    `json:"role"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
    return userPart{ID: u.ID, Email: u.Email, Role: string(u.Role)}
}

// Register: create an attendee or organizer and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := bindValid(c, &req); err != nil {
        return badRequest(c, err)
    }
    role := model.Role(strings.ToLower(strings.TrimSpace(req.Role)))
    if role == "" {
        role = model.RoleAttendee
    }
    return h.register(c, req.Email, req.Password, role)
}

// AdminSignup creates an admin account.  The route only exists when
// ADMIN_SIGNUP_ENABLED is set.
func (h *AuthHandler) AdminSignup(c echo.Context) error {
    var req adminSignupReq
    if err := bindValid(c, &req); err != nil {
        return badRequest(c, err)
    }
    return h.register(c, req.Email, req.Password, model.RoleAdmin)
}

func (h *AuthHandler) register(c echo.Context, email, password string, role model.Role) error {
    ctx, cancel := requestCtx(c)
    defer cancel()

    u, err := h.Users.Create(ctx, email, password, role, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        logrus.WithError(err).Error("create user failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }
    resp, err := h.issuePair(ctx, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusCreated, resp)
}

// Login: verify and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    return h.login(c, nil)
}

// AdminLogin is Login restricted to admin accounts.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
    return h.login(c, func(u model.User) bool { return u.Role == model.RoleAdmin })
}

func (h *AuthHandler) login(c echo.Context, allow func(model.User) bool) error {
    var req loginReq
    if err := bindValid(c, &req); err != nil {
        return badRequest(c, err)
    }

    ctx, cancel := requestCtx(c)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) || (allow != nil && !allow(u)) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    if utils.NeedsRehash(u.PasswordHash, h.Cfg.BcryptCost) {
        if err := h.Users.UpdatePassword(ctx, u.ID, req.Password, h.Cfg.BcryptCost); err != nil {
            logrus.WithError(err).WithField("user_id", u.ID).Warn("password rehash failed")
        }
    }

    resp, err := h.issuePair(ctx, u)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued.  A token can be rotated only once.
func (h *AuthHandler) Refresh(c echo.Context) error {
    hash, ok := refreshHash(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }

    ctx, cancel := requestCtx(c)
    defer cancel()

    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTL)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": errIssueTokens.Error()})
    }
    userID, err := h.Tokens.Rotate(ctx, hash, utils.HashRefreshRaw(refresh.Raw), refresh.Exp)
    if err != nil {
        return tokenError(c, err)
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        return tokenError(c, err)
    }
    resp, err := h.pair(u, refresh)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusOK, resp)
}

// tokenError maps refresh token lookups: a bad token or a deleted user is
// 401, anything else 500.
func tokenError(c echo.Context, err error) error {
    if errors.Is(err, repository.ErrTokenInvalid) || errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    logrus.WithError(err).Error("refresh token lookup failed")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
}

// RefreshAccess returns a new access token without rotating the refresh
// token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    hash, ok := refreshHash(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }

    ctx, cancel := requestCtx(c)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return tokenError(c, err)
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        return tokenError(c, err)
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, string(u.Role), h.Cfg.AccessTTL)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "access": tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Logout revokes the caller's access token until it expires.  A
// refresh_token in the body is revoked on its own; without one every
// refresh token of the user is revoked.  Runs behind JWTAuth.
func (h *AuthHandler) Logout(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return unauthorized(c)
    }
    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := requestCtx(c)
    defer cancel()

    if jti, exp := middleware.TokenID(c); jti != "" {
        if err := h.Blocklist.Add(ctx, jti, time.Until(exp)); err != nil {
            logrus.WithError(err).WithField("user_id", uid).Warn("blocklist access token failed")
        }
    }

    if refreshToken == "" {
        if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }

    hash := utils.HashRefreshRaw(refreshToken)
    owner, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil || owner != uid {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

func refreshHash(c echo.Context) (string, bool) {
    var req refreshReq
    if err := c.Bind(&req); err != nil {
        return "", false
    }
    raw := strings.TrimSpace(req.RefreshToken)
    if raw == "" {
        return "", false
    }
    return utils.HashRefreshRaw(raw), true
}

var errIssueTokens = errors.New("issue tokens failed")

// issuePair stores a fresh refresh token for u and returns it with a new
// access token.
func (h *AuthHandler) issuePair(ctx context.Context, u model.User) (authResp, error) {
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTL)
    if err != nil {
        return authResp{}, errIssueTokens
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        logrus.WithError(err).Error("save refresh token failed")
        return authResp{}, errIssueTokens
    }
    return h.pair(u, refresh)
}

func (h *AuthHandler) pair(u model.User, refresh utils.RefreshToken) (authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, string(u.Role), h.Cfg.AccessTTL)
    if err != nil {
        return authResp{}, errIssueTokens
    }
    return authResp{
        User:    toUserPart(u),
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
    }, nil
}
