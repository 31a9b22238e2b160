package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"scriptvault/api/internal/apperr"
	"scriptvault/api/internal/config"
	"scriptvault/api/internal/middleware"
	"scriptvault/api/internal/models"
	"scriptvault/api/internal/service"
	"scriptvault/api/internal/session"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	auth     *service.AuthService
	codes    *service.AccessCodeService
	scripts  *service.ScriptService
	sessions *session.Manager
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	auth *service.AuthService,
	codes *service.AccessCodeService,
	scripts *service.ScriptService,
	sessions *session.Manager,
) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		auth:     auth,
		codes:    codes,
		scripts:  scripts,
		sessions: sessions,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.POST("/script", h.Dispatch)
}

// actionRequest is the flat action envelope every request arrives in,
// mirroring the wire format the deployed clients already speak. Fields
// are action-specific; unused ones stay empty.
type actionRequest struct {
	Action       string `json:"action"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	AccessCode   string `json:"access_code"`
	SessionToken string `json:"session_token"`
	ValidDays    int    `json:"valid_days"`
	NewUsername  string `json:"new_username"`
	NewPassword  string `json:"new_password"`
	NewRole      string `json:"new_role"`
	ScriptID     string `json:"script_id"`
	APIKey       string `json:"api_key"`
	ScriptCode   string `json:"script_code"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	AuthKey      string `json:"auth_key"`
}

// Dispatch routes an action envelope to its handler and maps any typed
// failure to a status and a wire-safe message.
func (h HandlerSet) Dispatch(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.New(apperr.KindValidation, "invalid request body"))
		return
	}

	c.Set(middleware.ActionKey, req.Action)

	var (
		payload gin.H
		err     error
	)

	switch req.Action {
	case "login":
		payload, err = h.login(c, req)
	case "register_user":
		payload, err = h.registerUser(c, req)
	case "generate_access_code":
		payload, err = h.generateAccessCode(c, req)
	case "list_access_codes":
		payload, err = h.listAccessCodes(c, req)
	case "create_user":
		payload, err = h.createUser(c, req)
	case "list_users":
		payload, err = h.listUsers(c, req)
	case "verify_session":
		payload, err = h.verifySession(c, req)
	case "logout":
		payload, err = h.logout(c, req)
	case "upload_script":
		payload, err = h.uploadScript(c, req)
	case "fetch_script":
		payload, err = h.fetchScript(c, req)
	case "list_scripts":
		payload, err = h.listScripts(c, req)
	default:
		err = apperr.New(apperr.KindValidation, "invalid action")
	}

	if err != nil {
		h.fail(c, err)
		return
	}

	payload["success"] = true
	c.JSON(http.StatusOK, payload)
}

func (h HandlerSet) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal || kind == apperr.KindStorageUnavailable {
		h.log.Error().Err(err).Str("action", c.GetString(middleware.ActionKey)).Msg("action failed")
	}

	c.JSON(statusFor(kind), gin.H{
		"success": false,
		"message": apperr.MessageOf(err),
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// requireFields yields a field-level validation error for the first
// missing required field.
func requireFields(fields map[string]string) error {
	// Stable order keeps the first-reported field deterministic.
	order := []string{
		"username", "password", "access_code", "session_token",
		"new_username", "new_password", "script_id", "api_key",
		"script_code", "auth_key",
	}
	for _, name := range order {
		if value, present := fields[name]; present && value == "" {
			return apperr.New(apperr.KindValidation, name+" is required")
		}
	}
	return nil
}

func (h HandlerSet) requireSession(token string) (session.Session, error) {
	if token == "" {
		return session.Session{}, apperr.New(apperr.KindUnauthorized, "session_token is required")
	}
	return h.sessions.Validate(token)
}

func (h HandlerSet) requireAdmin(token string) (session.Session, error) {
	if token == "" {
		return session.Session{}, apperr.New(apperr.KindUnauthorized, "session_token is required")
	}
	return h.sessions.RequireRole(token, models.UserRoleAdmin)
}
