package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sales_api/internal/auth"
)

type usersHandler struct {
	authService *auth.Service
	logger      *zap.Logger
}

func NewUsersHandler(authService *auth.Service, logger *zap.Logger) *usersHandler {
	return &usersHandler{authService: authService, logger: logger}
}

func (h *usersHandler) handleRegister(ctx *gin.Context) {
	var req auth.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind register request", zap.Error(err))
		respondFailure(ctx, http.StatusBadRequest, MsgInvalidData)
		return
	}

	user, err := h.authService.Register(ctx.Request.Context(), req)
	if err != nil {
		if !isKnownAuthError(err) {
			h.logger.Error("failed to register user", zap.String("username", req.Username), zap.Error(err))
		}
		respondError(ctx, err)
		return
	}

	respond(ctx, http.StatusCreated, MsgRegistered, user)
}

func (h *usersHandler) handleLogin(ctx *gin.Context) {
	var req auth.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind login request", zap.Error(err))
		respondFailure(ctx, http.StatusBadRequest, MsgInvalidData)
		return
	}

	resp, err := h.authService.Login(ctx.Request.Context(), req)
	if err != nil {
		if !isKnownAuthError(err) {
			h.logger.Error("login failed", zap.String("username", req.Username), zap.Error(err))
		}
		respondError(ctx, err)
		return
	}

	respond(ctx, http.StatusOK, MsgLoggedIn, resp)
}

func (h *usersHandler) handleMe(ctx *gin.Context) {
	principal, ok := CurrentPrincipal(ctx)
	if !ok {
		respondFailure(ctx, http.StatusUnauthorized, MsgNotLoggedIn)
		return
	}
	respond(ctx, http.StatusOK, MsgSuccessful, principal)
}

func isKnownAuthError(err error) bool {
	return errors.Is(err, auth.ErrUserExists) ||
		errors.Is(err, auth.ErrInvalidCredentials) ||
		errors.Is(err, auth.ErrInvalidUsername)
}
