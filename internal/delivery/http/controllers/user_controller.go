package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"cleanuphub/internal/delivery/http/helpers"
	"cleanuphub/internal/delivery/http/middleware"
	"cleanuphub/internal/domain"
)

// maxUploadSize bounds avatar and event photo uploads.
const maxUploadSize = 5 << 20

// UpdateProfileRequest is the request body for PATCH /users/me. All fields
// optional; omitted fields are unchanged.
type UpdateProfileRequest struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

// Validate implements Validator.
func (u UpdateProfileRequest) Validate() []string {
	var errs []string
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		errs = append(errs, "name cannot be empty")
	}
	return errs
}

// UserSuccessResponse is the success response envelope for the /users/me endpoints (200).
type UserSuccessResponse struct {
	Data  *domain.User      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// UploadResponse is the data payload for POST /uploads (201).
type UploadResponse struct {
	URL string `json:"url"`
}

// UploadSuccessResponse is the success response envelope for POST /uploads (201).
type UploadSuccessResponse struct {
	Data  UploadResponse    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type UserController struct {
	Logger  *slog.Logger
	Service domain.UserService
	Files   domain.FileStore
}

func NewUserController(logger *slog.Logger, svc domain.UserService, files domain.FileStore) *UserController {
	return &UserController{Logger: logger, Service: svc, Files: files}
}

// Me godoc
// @Summary Get the current user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.UserSuccessResponse "data contains the user"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me [get]
func (c *UserController) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	user, err := c.Service.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "user not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// UpdateMe godoc
// @Summary Update the current user's profile
// @Description Updates name and/or avatar URL. Omitted fields are unchanged.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateProfileRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.UserSuccessResponse "data contains the updated user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me [patch]
func (c *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req UpdateProfileRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.UpdateProfile(r.Context(), userID, req.Name, req.AvatarURL)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "user not found")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// Upload godoc
// @Summary Upload a file
// @Description Accepts a multipart form with a "file" field (max 5 MB) and stores it under a per-user random key. Returns the public URL.
// @Tags users
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Success 201 {object} controllers.UploadSuccessResponse "data contains the public URL"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway (storage error)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /uploads [post]
func (c *UserController) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid multipart form or file too large")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	url, err := c.Files.Upload(r.Context(), userID, header.Filename, contentType, file)
	if err != nil {
		var extErr *domain.ExternalServiceError
		if errors.As(err, &extErr) {
			c.Logger.ErrorContext(r.Context(), "storage error", "path", r.URL.Path, "service", extErr.Service, "err", err)
			helpers.WriteJSONError(w, http.StatusBadGateway, helpers.ErrCodeBadGateway, "storage error")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, UploadResponse{URL: url})
}
