package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsconductor/core/pkg/secrets"
)

// credentialUpsertHandler handles POST /internal/secrets/credential-upsert
// (spec §4.3, §6). Reached only through the internalOnly middleware; the
// broker's own serviceToken check against pkg/config's internal key is a
// second, independent gate.
func (s *Server) credentialUpsertHandler(c *gin.Context) {
	started := time.Now()
	var req CredentialUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, started, http.StatusBadRequest, errCodeValidation, "malformed request body")
		return
	}

	err := s.secretsBroker.UpsertCredential(c.Request.Context(), s.cfg.Secrets.InternalKey, req.Actor, req.Host, req.Purpose, req.Username, req.Password, req.Domain)
	if err != nil {
		writeSecretsError(c, started, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// credentialLookupHandler handles POST /internal/secrets/credential-lookup.
func (s *Server) credentialLookupHandler(c *gin.Context) {
	started := time.Now()
	var req CredentialLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, started, http.StatusBadRequest, errCodeValidation, "malformed request body")
		return
	}

	cred, err := s.secretsBroker.LookupCredential(c.Request.Context(), s.cfg.Secrets.InternalKey, req.Actor, req.Host, req.Purpose)
	if err != nil {
		writeSecretsError(c, started, err)
		return
	}
	c.JSON(http.StatusOK, CredentialLookupResponse{
		Username: cred.Username,
		Password: cred.Password,
		Domain:   cred.Domain,
	})
}

// credentialDeleteHandler handles POST /internal/secrets/credential-delete.
func (s *Server) credentialDeleteHandler(c *gin.Context) {
	started := time.Now()
	var req CredentialDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, started, http.StatusBadRequest, errCodeValidation, "malformed request body")
		return
	}

	if err := s.secretsBroker.DeleteCredential(c.Request.Context(), s.cfg.Secrets.InternalKey, req.Actor, req.Host, req.Purpose); err != nil {
		writeSecretsError(c, started, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeSecretsError(c *gin.Context, started time.Time, err error) {
	switch {
	case errors.Is(err, secrets.ErrNotFound):
		writeError(c, started, http.StatusNotFound, errCodeNotFound, "credential not found")
	case errors.Is(err, secrets.ErrInvalidServiceToken):
		writeError(c, started, http.StatusUnauthorized, errCodeUnauthorized, "invalid service token")
	case errors.Is(err, secrets.ErrDecryptFailed):
		writeError(c, started, http.StatusInternalServerError, errCodeInternal, "credential decrypt failed")
	default:
		writeError(c, started, http.StatusInternalServerError, errCodeInternal, err.Error())
	}
}
