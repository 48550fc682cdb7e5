package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/transit-booking/internal/config"
	"github.com/iliyamo/transit-booking/internal/logger"
	"github.com/iliyamo/transit-booking/internal/middleware"
	"github.com/iliyamo/transit-booking/internal/model"
	"github.com/iliyamo/transit-booking/internal/notify"
	"github.com/iliyamo/transit-booking/internal/repository"
	"github.com/iliyamo/transit-booking/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  repository.Users
	Tokens repository.VerificationTokens
	Mail   notify.Gateway
	Now    func() time.Time
}

func NewAuthHandler(cfg config.Config, u repository.Users, t repository.VerificationTokens, mail notify.Gateway) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Mail: mail, Now: time.Now}
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPart struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
	Verified bool   `json:"email_verified"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, Verified: u.Verified()}
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Register creates an unverified customer account and mails the
// verification link.  A failed email does not fail the registration.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return errorJSON(c, http.StatusBadRequest, "valid email required")
	}
	if len(req.Password) < utils.MinPasswordLength {
		return errorJSON(c, http.StatusBadRequest, "password must be at least 8 characters")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Users.CreateUser(ctx, model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         model.RoleCustomer,
	})
	if errors.Is(err, repository.ErrEmailExists) {
		return errorJSON(c, http.StatusConflict, "email already registered")
	}
	if err != nil {
		return respondError(c, err)
	}

	sent := h.sendVerification(c, u.Email)
	return c.JSON(http.StatusCreated, echo.Map{
		"user":                    toUserPart(u),
		"verification_email_sent": sent,
	})
}

func (h *AuthHandler) sendVerification(c echo.Context, email string) bool {
	ctx, cancel := requestCtx(c)
	defer cancel()
	log := logger.Get().With(zap.String("request_id", middleware.GetRequestID(c)))

	tok, err := utils.NewVerificationToken(h.Cfg.VerifyTokenTTL)
	if err != nil {
		log.Error("issue verification token failed", zap.Error(err))
		return false
	}
	if err := h.Tokens.StoreVerificationToken(ctx, email, utils.HashToken(tok.Raw), tok.Exp); err != nil {
		log.Error("store verification token failed", zap.Error(err))
		return false
	}
	if h.Mail == nil {
		return false
	}
	verifyURL := h.Cfg.AppURL + "/verify?token=" + url.QueryEscape(tok.Raw) + "&email=" + url.QueryEscape(email)
	res := h.Mail.SendVerificationEmail(ctx, notify.VerificationEmail{To: email, VerifyURL: verifyURL})
	if !res.Success {
		log.Warn("verification email not sent", zap.String("error", res.Error))
	}
	return res.Success
}

// Login checks the password of a verified account and issues an access
// token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "email/password required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return respondError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return errorJSON(c, http.StatusUnauthorized, "invalid credentials")
	}
	if !u.Verified() {
		return errorJSON(c, http.StatusForbidden, "email not verified")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":   toUserPart(u),
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Verify handles GET /v1/auth/verify?token=&email=.
func (h *AuthHandler) Verify(c echo.Context) error {
	token := strings.TrimSpace(c.QueryParam("token"))
	email := strings.ToLower(strings.TrimSpace(c.QueryParam("email")))
	if token == "" || email == "" {
		return errorJSON(c, http.StatusBadRequest, "token and email are required")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	now := h.Now().UTC()
	err := h.Tokens.ConsumeVerificationToken(ctx, email, utils.HashToken(token), now)
	if errors.Is(err, repository.ErrTokenInvalid) {
		return errorJSON(c, http.StatusBadRequest, "invalid or expired verification link")
	}
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Users.MarkEmailVerified(ctx, email, now); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return errorJSON(c, http.StatusBadRequest, "invalid or expired verification link")
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Me returns the profile of the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Users.GetUserByID(ctx, middleware.UserID(c))
	if errors.Is(err, repository.ErrUserNotFound) {
		return errorJSON(c, http.StatusNotFound, "user not found")
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}
