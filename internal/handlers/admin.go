package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"scriptvault/api/internal/models"
)

func (h HandlerSet) generateAccessCode(c *gin.Context, req actionRequest) (gin.H, error) {
	sess, err := h.requireAdmin(req.SessionToken)
	if err != nil {
		return nil, err
	}

	code, err := h.codes.Generate(c.Request.Context(), sess, req.ValidDays)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"access_code": code.Code,
		"expires":     code.ExpiresAt.Format(time.RFC3339),
	}, nil
}

type accessCodeResponse struct {
	Code      string     `json:"code"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	ValidDays int        `json:"valid_days"`
	Status    string     `json:"status"`
	UsedBy    string     `json:"used_by,omitempty"`
	UsedByAt  *time.Time `json:"used_by_at,omitempty"`
	CreatedBy string     `json:"created_by"`
}

func (h HandlerSet) listAccessCodes(c *gin.Context, req actionRequest) (gin.H, error) {
	if _, err := h.requireAdmin(req.SessionToken); err != nil {
		return nil, err
	}

	codes, err := h.codes.List(c.Request.Context())
	if err != nil {
		return nil, err
	}

	resp := make([]accessCodeResponse, 0, len(codes))
	for _, code := range codes {
		resp = append(resp, accessCodeResponse{
			Code:      code.Code,
			CreatedAt: code.CreatedAt,
			ExpiresAt: code.ExpiresAt,
			ValidDays: code.ValidDays,
			Status:    string(code.Status()),
			UsedBy:    code.UsedBy,
			UsedByAt:  code.UsedByAt,
			CreatedBy: code.CreatedBy,
		})
	}

	return gin.H{"codes": resp}, nil
}

func (h HandlerSet) createUser(c *gin.Context, req actionRequest) (gin.H, error) {
	sess, err := h.requireAdmin(req.SessionToken)
	if err != nil {
		return nil, err
	}

	if err := requireFields(map[string]string{
		"new_username": req.NewUsername,
		"new_password": req.NewPassword,
	}); err != nil {
		return nil, err
	}

	user, err := h.auth.CreateUser(c.Request.Context(), sess, req.NewUsername, req.NewPassword, models.UserRole(req.NewRole))
	if err != nil {
		return nil, err
	}

	return gin.H{
		"username": user.Username,
		"role":     string(user.Role),
	}, nil
}

type userResponse struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
}

func (h HandlerSet) listUsers(c *gin.Context, req actionRequest) (gin.H, error) {
	if _, err := h.requireAdmin(req.SessionToken); err != nil {
		return nil, err
	}

	users, err := h.auth.ListUsers(c.Request.Context())
	if err != nil {
		return nil, err
	}

	// Password hashes never reach the wire.
	resp := make([]userResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, userResponse{
			Username:  user.Username,
			Role:      string(user.Role),
			CreatedAt: user.CreatedAt,
			CreatedBy: user.CreatedBy,
		})
	}

	return gin.H{"users": resp}, nil
}
