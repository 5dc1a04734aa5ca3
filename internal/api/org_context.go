package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ignite/directmail/internal/pkg/httputil"
)

// ErrNoOrganization is returned when a request names no organization.
var ErrNoOrganization = errors.New("organization ID not found in request")

// OrgContextKey is the key for storing the organization ID.
type OrgContextKey struct{}

// UserContextKey is the key for storing the acting user.
type UserContextKey struct{}

// OrgContextProvider resolves the organization a request acts for.
// Priority: 1. X-Organization-ID header, 2. org_id query param, 3. the
// configured default organization.
type OrgContextProvider struct {
	defaultOrgID string
}

// NewOrgContextProvider creates a provider. defaultOrgID may be empty; an
// unparseable one is ignored.
func NewOrgContextProvider(defaultOrgID string) *OrgContextProvider {
	p := &OrgContextProvider{}
	if id, err := uuid.Parse(strings.TrimSpace(defaultOrgID)); err == nil {
		p.defaultOrgID = id.String()
	}
	return p
}

// ExtractOrgID returns the organization ID carried by the request.
func (p *OrgContextProvider) ExtractOrgID(r *http.Request) (string, error) {
	if orgID, ok := r.Context().Value(OrgContextKey{}).(string); ok && orgID != "" {
		return orgID, nil
	}

	if id, err := uuid.Parse(r.Header.Get("X-Organization-ID")); err == nil {
		return id.String(), nil
	}
	if id, err := uuid.Parse(r.URL.Query().Get("org_id")); err == nil {
		return id.String(), nil
	}
	if p.defaultOrgID != "" {
		return p.defaultOrgID, nil
	}
	return "", ErrNoOrganization
}

// RequireOrgMiddleware stores the organization ID and the acting user in
// the request context, or answers 401 when there is no organization.
func (p *OrgContextProvider) RequireOrgMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID, err := p.ExtractOrgID(r)
		if err != nil {
			httputil.Error(w, http.StatusUnauthorized, "organization context required")
			return
		}

		ctx := context.WithValue(r.Context(), OrgContextKey{}, orgID)
		if user := strings.TrimSpace(r.Header.Get("X-User-Email")); user != "" {
			ctx = context.WithValue(ctx, UserContextKey{}, user)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetOrgIDFromContext retrieves the organization ID from context.
func GetOrgIDFromContext(ctx context.Context) string {
	orgID, _ := ctx.Value(OrgContextKey{}).(string)
	return orgID
}

// GetUserFromContext retrieves the acting user, if the caller named one.
func GetUserFromContext(ctx context.Context) string {
	user, _ := ctx.Value(UserContextKey{}).(string)
	return user
}
