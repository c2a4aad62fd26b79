package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blogem/diesel-log/models"
	"github.com/blogem/diesel-log/repositories"
	"github.com/blogem/diesel-log/userctx"
)

// auditTimeout bounds the background write of one audit entry
const auditTimeout = 5 * time.Second

// AuditLogger middleware records all POST/PUT/DELETE requests with their outcome
func AuditLogger(auditRepo repositories.AuditRepository, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Only log mutation operations
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}

			entry := &models.AuditLogEntry{
				Timestamp: time.Now().UTC(),
				UserEmail: userctx.GetUserEmail(r.Context()),
				Method:    r.Method,
				Path:      r.URL.Path,
				UserAgent: r.UserAgent(),
				IPAddress: getIPAddress(r),
				FormData:  captureFormData(r),
			}

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			entry.StatusCode = rec.status

			// Log asynchronously to avoid blocking request
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
				defer cancel()
				if err := auditRepo.Create(ctx, entry); err != nil {
					logger.WithError(err).WithField("path", entry.Path).Warn("Failed to create audit log")
				}
			}()
		})
	}
}

// getIPAddress extracts IP address from request, checking X-Forwarded-For first
func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header (proxy/load balancer)
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		// Take first IP if multiple
		ips := strings.Split(forwarded, ",")
		return strings.TrimSpace(ips[0])
	}

	// Check X-Real-IP header
	realIP := r.Header.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	// Fall back to RemoteAddr
	ip := r.RemoteAddr
	// Remove port if present
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// captureFormData captures form data as JSON string
func captureFormData(r *http.Request) string {
	if err := r.ParseForm(); err != nil {
		return ""
	}

	formMap := make(map[string]interface{})
	for key, values := range r.PostForm {
		if len(values) == 1 {
			formMap[key] = values[0]
		} else {
			formMap[key] = values
		}
	}
	if len(formMap) == 0 {
		return ""
	}

	jsonData, err := json.Marshal(formMap)
	if err != nil {
		return ""
	}

	return string(jsonData)
}
