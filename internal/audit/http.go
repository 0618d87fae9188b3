package audit

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"parking-cloud/internal/auth"
)

// ClientIP extracts client ip from common headers or RemoteAddr.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// FromRequest builds an entry for the authenticated caller of r. metadata is
// stored as JSON and digested.
func FromRequest(r *http.Request, action, resourceType, resourceID, lotID string, metadata any) Entry {
	entry := Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		LotID:        lotID,
	}
	if r == nil {
		return entry
	}
	ctx := r.Context()
	entry.TenantID = auth.TenantIDFromContext(ctx)
	entry.Actor = auth.SubjectFromContext(ctx)
	entry.Role = string(auth.RoleFromContext(ctx))
	entry.RequestID = middleware.GetReqID(ctx)
	entry.IP = ClientIP(r)
	entry.UserAgent = r.UserAgent()
	if metadata != nil {
		if raw, err := json.Marshal(metadata); err == nil {
			entry.Metadata = raw
			entry.PayloadDigest = DigestJSON(raw)
		}
	}
	return entry
}
