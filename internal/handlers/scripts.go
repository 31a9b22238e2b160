package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"scriptvault/api/internal/models"
	"scriptvault/api/internal/service"
)

func (h HandlerSet) uploadScript(c *gin.Context, req actionRequest) (gin.H, error) {
	sess, err := h.requireSession(req.SessionToken)
	if err != nil {
		return nil, err
	}

	if err := requireFields(map[string]string{
		"script_id":   req.ScriptID,
		"api_key":     req.APIKey,
		"script_code": req.ScriptCode,
	}); err != nil {
		return nil, err
	}

	result, err := h.scripts.Upload(c.Request.Context(), sess.Username, service.UploadInput{
		ScriptID:    req.ScriptID,
		APIKey:      req.APIKey,
		Body:        req.ScriptCode,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	return gin.H{
		"auth_key":       result.AuthKey,
		"blob_url":       result.URL,
		"metadata_saved": result.MetaWritten,
	}, nil
}

// fetchScript is intentionally unauthenticated: deployed clients hold no
// session, only the auth_key capability.
func (h HandlerSet) fetchScript(c *gin.Context, req actionRequest) (gin.H, error) {
	if err := requireFields(map[string]string{
		"auth_key": req.AuthKey,
	}); err != nil {
		return nil, err
	}

	body, err := h.scripts.Fetch(c.Request.Context(), req.AuthKey)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"script":    body,
		"timestamp": time.Now().UnixMilli(),
	}, nil
}

type scriptResponse struct {
	AuthKey    string             `json:"auth_key"`
	Size       int64              `json:"size"`
	UploadedAt time.Time          `json:"uploaded_at"`
	URL        string             `json:"url,omitempty"`
	Metadata   *models.ScriptMeta `json:"metadata,omitempty"`
}

func (h HandlerSet) listScripts(c *gin.Context, req actionRequest) (gin.H, error) {
	if _, err := h.requireSession(req.SessionToken); err != nil {
		return nil, err
	}

	listings, err := h.scripts.List(c.Request.Context())
	if err != nil {
		return nil, err
	}

	resp := make([]scriptResponse, 0, len(listings))
	for _, listing := range listings {
		resp = append(resp, scriptResponse{
			AuthKey:    listing.AuthKey,
			Size:       listing.Size,
			UploadedAt: listing.UploadedAt,
			URL:        listing.URL,
			Metadata:   listing.Metadata,
		})
	}

	return gin.H{"scripts": resp}, nil
}
