// Token issuance HTTP handler.
//
// Kiosks and back-office consoles obtain their bearer tokens here during
// provisioning. The endpoint sits outside the authenticated group and is
// gated by a shared provisioning key instead; deployments that provision
// tokens out of band leave the key unset, which disables the endpoint.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stayport/go-kiosk-backend/internal/auth"
)

// TokenIssuer is the slice of the identity gateway the handler needs.
type TokenIssuer interface {
	Issue(p auth.Principal) (string, error)
}

// TokenRequest describes the principal a token is minted for.
type TokenRequest struct {
	UserID    string `json:"user_id"    binding:"required" example:"device-7"`
	Role      string `json:"role"       binding:"required" example:"kiosk"`
	KioskID   string `json:"kiosk_id"   example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	ProjectID string `json:"project_id" example:"proj-seoul-01"`
}

// TokenResponse carries the signed bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// IssueToken godoc
// @ID          issueToken
// @Summary     Issue a bearer token
// @Description Mints a signed token for the given principal. Requires the X-Provision-Key header to match the server's provisioning key.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       X-Provision-Key  header  string                 true  "Provisioning key"
// @Param       body             body    handlers.TokenRequest  true  "Principal to mint"
// @Success     200  {object}  handlers.TokenResponse
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse "Bad provisioning key"
// @Router      /auth/token [post]
func (h *Handlers) IssueToken(c *gin.Context) {
	if h.provisionKey == "" || c.GetHeader("X-Provision-Key") != h.provisionKey {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid provisioning key")
		return
	}
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id and role are required")
		return
	}

	token, err := h.tokens.Issue(auth.Principal{
		UserID:    strings.TrimSpace(req.UserID),
		Role:      strings.TrimSpace(req.Role),
		KioskID:   strings.TrimSpace(req.KioskID),
		ProjectID: strings.TrimSpace(req.ProjectID),
	})
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot issue token for principal")
		return
	}
	ok(c, http.StatusOK, TokenResponse{Token: token})
}
