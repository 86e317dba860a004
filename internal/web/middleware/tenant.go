package middleware

import (
	"context"
	"net/http"
	"strings"
)

// TenantHeader selects the tenant on requests without a session.
const TenantHeader = "X-Tenant"

const tenantContextKey contextKey = "tenant"

// WithTenant stores the request's tenant key in the context. An
// authenticated dealer is bound to the session's tenant and may not address
// another one; kiosk requests name their tenant with the X-Tenant header.
func WithTenant() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant := strings.TrimSpace(r.Header.Get(TenantHeader))
			if session := GetSessionFromContext(r.Context()); session != nil {
				if tenant != "" && tenant != session.Tenant {
					writeError(w, http.StatusForbidden, "forbidden", "session is not valid for this tenant")
					return
				}
				tenant = session.Tenant
			}
			next.ServeHTTP(w, r.WithContext(SetTenantInContext(r.Context(), tenant)))
		})
	}
}

// TenantFromContext returns the tenant key set by WithTenant, or the
// default tenant when none was set.
func TenantFromContext(ctx context.Context) string {
	tenant, _ := ctx.Value(tenantContextKey).(string)
	return tenant
}

// SetTenantInContext adds a tenant key to the context
func SetTenantInContext(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantContextKey, tenant)
}
