package handlers

import (
	"github.com/gin-gonic/gin"

	"scriptvault/api/internal/apperr"
)

func (h HandlerSet) login(c *gin.Context, req actionRequest) (gin.H, error) {
	if err := requireFields(map[string]string{
		"username": req.Username,
		"password": req.Password,
	}); err != nil {
		return nil, err
	}

	// Opportunistic bootstrap: a cold store gets its admin record here.
	// A bootstrap failure is logged, not returned; the login below will
	// surface the storage fault if the store is really down.
	if state, err := h.auth.EnsureAdmin(c.Request.Context()); err != nil {
		h.log.Warn().Err(err).Str("state", string(state)).Msg("admin bootstrap failed")
	}

	sess, user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"session_token": sess.Token,
		"role":          string(user.Role),
		"username":      user.Username,
	}, nil
}

func (h HandlerSet) registerUser(c *gin.Context, req actionRequest) (gin.H, error) {
	if err := requireFields(map[string]string{
		"username":    req.Username,
		"password":    req.Password,
		"access_code": req.AccessCode,
	}); err != nil {
		return nil, err
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password, req.AccessCode)
	if err != nil {
		return nil, err
	}

	return gin.H{"username": user.Username}, nil
}

func (h HandlerSet) verifySession(c *gin.Context, req actionRequest) (gin.H, error) {
	if err := requireFields(map[string]string{
		"session_token": req.SessionToken,
	}); err != nil {
		return nil, err
	}

	sess, err := h.sessions.Validate(req.SessionToken)
	if err != nil {
		if apperr.IsKind(err, apperr.KindUnauthorized) {
			return gin.H{"valid": false, "message": apperr.MessageOf(err)}, nil
		}
		return nil, err
	}

	return gin.H{
		"valid":    true,
		"username": sess.Username,
		"role":     string(sess.Role),
	}, nil
}

func (h HandlerSet) logout(_ *gin.Context, req actionRequest) (gin.H, error) {
	if err := requireFields(map[string]string{
		"session_token": req.SessionToken,
	}); err != nil {
		return nil, err
	}

	if !h.sessions.Destroy(req.SessionToken) {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid session")
	}
	return gin.H{}, nil
}
