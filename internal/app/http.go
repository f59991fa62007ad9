package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"idealauncher/api/internal/auth"
	"idealauncher/api/internal/authpw"
	"idealauncher/api/internal/document"
	"idealauncher/api/internal/export"
	"idealauncher/api/internal/llm"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signup" {
		s.handleAuthSignUp(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signin" {
		s.handleAuthSignIn(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/verify-email" {
		s.handleAuthVerifyEmail(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password/request" {
		s.handleAuthRequestReset(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password" {
		s.handleAuthResetPassword(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "userName": session.UserName, "userId": session.UserID})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token":        session.Token,
			"refreshToken": session.RefreshToken,
			"userName":     session.UserName,
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/logout" {
		session := Session{}
		if token := bearerToken(r); token != "" {
			if parsed, err := s.service.SessionFromToken(r.Context(), token); err == nil {
				session = parsed
			}
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = decodeBody(r, &body)
		_ = s.service.Logout(r.Context(), session, body.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	r = r.WithContext(contextWithSession(r.Context(), session))

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		limit := 20
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be an integer", nil)
				return
			}
			limit = parsed
		}
		offset := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "offset must be an integer", nil)
				return
			}
			offset = parsed
		}
		writeJSON(w, http.StatusOK, s.service.SearchIdeas(r.Context(), session.UserID, q, limit, offset))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/domain-check" {
		var body struct {
			Domain string `json:"domain"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		res, err := s.service.CheckDomain(r.Context(), body.Domain)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) < 2 || parts[0] != "api" || parts[1] != "ideas" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	if len(parts) == 2 {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.ListIdeas(r.Context(), session.UserID)
			s.respond(w, http.StatusOK, payload, err)
		case http.MethodPost:
			var body struct {
				Title string `json:"title"`
				Pitch string `json:"pitch"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.CreateIdea(r.Context(), session.UserID, body.Title, body.Pitch)
			s.respond(w, http.StatusCreated, payload, err)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	ideaID := parts[2]

	if len(parts) == 3 {
		switch r.Method {
		case http.MethodGet:
			payload, err := s.service.GetIdea(r.Context(), session.UserID, ideaID)
			s.respond(w, http.StatusOK, payload, err)
		case http.MethodPut:
			var body struct {
				Title string `json:"title"`
				Pitch string `json:"pitch"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			err := s.service.UpdateIdea(r.Context(), session.UserID, ideaID, body.Title, body.Pitch)
			s.respond(w, http.StatusOK, map[string]any{"ok": true}, err)
		case http.MethodDelete:
			err := s.service.DeleteIdea(r.Context(), session.UserID, ideaID)
			s.respond(w, http.StatusOK, map[string]any{"ok": true}, err)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	switch parts[3] {
	case "chat":
		if len(parts) == 4 && r.Method == http.MethodGet {
			payload, err := s.service.ChatTranscript(r.Context(), session.UserID, ideaID)
			s.respond(w, http.StatusOK, payload, err)
			return
		}
		if len(parts) == 4 && r.Method == http.MethodPost {
			s.handleChatStream(w, r, session, ideaID)
			return
		}

	case "research":
		if len(parts) == 4 && r.Method == http.MethodGet {
			payload, err := s.service.ListResearch(r.Context(), session.UserID, ideaID)
			s.respond(w, http.StatusOK, payload, err)
			return
		}
		if len(parts) == 4 && r.Method == http.MethodPost {
			var body struct {
				Type string `json:"type"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.GenerateResearch(r.Context(), session.UserID, ideaID, body.Type)
			s.respond(w, http.StatusOK, payload, err)
			return
		}
		if len(parts) == 5 && r.Method == http.MethodPatch {
			var body struct {
				Inserted bool `json:"inserted"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			err := s.service.SetFindingInserted(r.Context(), session, ideaID, parts[4], body.Inserted)
			s.respond(w, http.StatusOK, map[string]any{"ok": true}, err)
			return
		}

	case "features":
		if len(parts) == 4 && r.Method == http.MethodGet {
			payload, err := s.service.ListFeatures(r.Context(), session.UserID, ideaID)
			s.respond(w, http.StatusOK, payload, err)
			return
		}
		if len(parts) == 4 && r.Method == http.MethodPost {
			payload, err := s.service.GenerateFeatures(r.Context(), session.UserID, ideaID)
			s.respond(w, http.StatusOK, payload, err)
			return
		}
		if len(parts) == 5 && r.Method == http.MethodPatch {
			var body struct {
				SizeEstimate string `json:"sizeEstimate"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			err := s.service.UpdateFeatureSize(r.Context(), session.UserID, ideaID, parts[4], body.SizeEstimate)
			s.respond(w, http.StatusOK, map[string]any{"ok": true}, err)
			return
		}

	case "scores":
		if len(parts) == 4 && r.Method == http.MethodGet {
			payload, err := s.service.ListScores(r.Context(), session.UserID, ideaID)
			s.respond(w, http.StatusOK, payload, err)
			return
		}
		if len(parts) == 4 && r.Method == http.MethodPost {
			var body struct {
				Kind       string          `json:"kind"`
				Components json.RawMessage `json:"components"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.AddScore(r.Context(), session.UserID, ideaID, body.Kind, body.Components)
			s.respond(w, http.StatusCreated, payload, err)
			return
		}

	case "tech":
		if len(parts) == 4 && r.Method == http.MethodGet {
			payload, err := s.service.GetTechStack(r.Context(), session.UserID, ideaID)
			s.respond(w, http.StatusOK, payload, err)
			return
		}
		if len(parts) == 4 && r.Method == http.MethodPost {
			payload, err := s.service.GenerateTechStack(r.Context(), session.UserID, ideaID)
			s.respond(w, http.StatusOK, payload, err)
			return
		}

	case "export":
		if len(parts) == 4 && r.Method == http.MethodGet {
			payload, err := s.service.GetSpecExport(r.Context(), session.UserID, ideaID)
			s.respond(w, http.StatusOK, payload, err)
			return
		}
		if len(parts) == 4 && r.Method == http.MethodPost {
			payload, err := s.service.GenerateSpecExport(r.Context(), session, ideaID)
			s.respond(w, http.StatusOK, payload, err)
			return
		}
		if len(parts) == 5 && parts[4] == "download" && r.Method == http.MethodGet {
			s.handleExportDownload(w, r, session, ideaID)
			return
		}

	case "document":
		if len(parts) == 4 && r.Method == http.MethodGet {
			payload, err := s.service.GetDocument(r.Context(), session.UserID, ideaID)
			s.respond(w, http.StatusOK, payload, err)
			return
		}
		if len(parts) == 4 && r.Method == http.MethodPut {
			var body struct {
				Content string `json:"content"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			err := s.service.SaveDocument(r.Context(), session, ideaID, body.Content)
			s.respond(w, http.StatusOK, map[string]any{"ok": true}, err)
			return
		}
		if len(parts) == 5 && parts[4] == "insert" && r.Method == http.MethodPost {
			var body struct {
				SectionID   string `json:"sectionId"`
				Content     string `json:"content"`
				SourceLabel string `json:"sourceLabel"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			payload, err := s.service.InsertIntoSection(r.Context(), session, ideaID, body.SectionID, body.Content, body.SourceLabel)
			s.respond(w, http.StatusOK, payload, err)
			return
		}
		if len(parts) == 5 && parts[4] == "versions" && r.Method == http.MethodGet {
			payload, err := s.service.ListDocumentVersions(r.Context(), session.UserID, ideaID)
			s.respond(w, http.StatusOK, payload, err)
			return
		}
		if len(parts) == 6 && parts[4] == "versions" && r.Method == http.MethodGet {
			payload, err := s.service.DocumentVersionContent(r.Context(), session.UserID, ideaID, parts[5])
			s.respond(w, http.StatusOK, payload, err)
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

// handleChatStream streams assistant output as plain text chunks. The
// JSON header is replaced once the first chunk arrives; upstream
// failures before that point map to normal JSON errors.
func (s *HTTPServer) handleChatStream(w http.ResponseWriter, r *http.Request, session Session, ideaID string) {
	var body struct {
		Content string `json:"content"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	messages, err := s.service.StartChat(r.Context(), session.UserID, ideaID, body.Content)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "Streaming not supported", nil)
		return
	}

	chunks, errs := s.service.StreamCompletion(r.Context(), messages)

	var assembled strings.Builder
	headerWritten := false
	for chunk := range chunks {
		delta := chunk.DeltaContent()
		if delta == "" {
			continue
		}
		if !headerWritten {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
			headerWritten = true
		}
		assembled.WriteString(delta)
		_, _ = fmt.Fprint(w, delta)
		flusher.Flush()
	}

	if err := <-errs; err != nil {
		if !headerWritten {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		// Mid-stream failure: keep what was sent, persist the partial.
		log.Printf("chat: stream for idea %s: %v", ideaID, err)
	}

	if !headerWritten {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
	s.service.FinishChat(ideaID, assembled.String())
}

func (s *HTTPServer) handleExportDownload(w http.ResponseWriter, r *http.Request, session Session, ideaID string) {
	format := export.Format(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = export.FormatMarkdown
	}
	if format != export.FormatMarkdown && format != export.FormatPDF {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "format must be md or pdf", nil)
		return
	}

	result, err := s.service.DownloadExport(r.Context(), session, ideaID, format)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}

	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

// respond writes payload or maps err, whichever is set.
func (s *HTTPServer) respond(w http.ResponseWriter, status int, payload any, err error) {
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, status, payload)
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush forwards to the wrapped writer so chat streaming works through
// the middleware.
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	if errors.Is(err, llm.ErrNotConfigured) {
		return http.StatusServiceUnavailable, "LLM_UNAVAILABLE", "Generation is not configured", nil
	}
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway, "UPSTREAM_ERROR", "Generation failed", nil
	}
	if errors.Is(err, export.ErrPDFDependencyMissing) {
		return http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "PDF rendering is not available", nil
	}
	if errors.Is(err, document.ErrNoSink) {
		return http.StatusServiceUnavailable, "DOCUMENT_UNAVAILABLE", "Document updates are not available", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

// Auth handlers for email/password authentication

func (s *HTTPServer) handleAuthSignUp(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	resp, err := authSvc.SignUp(r.Context(), authpw.SignUpRequest{
		Email:       body.Email,
		Password:    body.Password,
		DisplayName: body.DisplayName,
	})
	if err != nil {
		if errors.Is(err, authpw.ErrEmailExists) {
			writeError(w, http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "SIGNUP_FAILED", err.Error(), nil)
		return
	}

	emailConfigured := s.service.SMTPConfigured()
	if emailConfigured {
		s.service.SendVerificationEmail(body.Email, body.DisplayName, resp.VerificationToken)
	}

	response := map[string]any{
		"userId":  resp.UserID,
		"message": "Please check your email to verify your account",
	}
	// Dev bypass: include verification token in response when email not configured
	if !emailConfigured {
		response["devVerificationToken"] = resp.VerificationToken
		response["message"] = "Account created. Verify your email to continue."
	}

	writeJSON(w, http.StatusCreated, response)
}

func (s *HTTPServer) handleAuthSignIn(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	resp, err := authSvc.SignIn(r.Context(), authpw.SignInRequest{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		return
	}

	if resp.RequiresVerify {
		writeError(w, http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Please verify your email before signing in", nil)
		return
	}

	session, err := s.service.CreateSession(r.Context(), resp.User.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "SESSION_FAILED", "Failed to create session", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  session.Token,
		"refreshToken": session.RefreshToken,
		"userId":       session.UserID,
		"userName":     session.UserName,
		"expiresAt":    session.ExpiresAt.Unix(),
	})
}

func (s *HTTPServer) handleAuthVerifyEmail(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	if err := authSvc.VerifyEmail(r.Context(), body.Token); err != nil {
		writeError(w, http.StatusBadRequest, "VERIFICATION_FAILED", err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified successfully",
	})
}

func (s *HTTPServer) handleAuthRequestReset(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	token, _ := authSvc.RequestPasswordReset(r.Context(), body.Email)

	emailConfigured := s.service.SMTPConfigured()
	if emailConfigured && token != "" {
		s.service.SendPasswordResetEmail(body.Email, body.Email, token)
	}

	response := map[string]any{
		"message": "If an account exists, a reset email has been sent",
	}
	// Dev bypass: include reset token in response when email not configured and token was created
	if !emailConfigured && token != "" {
		response["devResetToken"] = token
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) handleAuthResetPassword(w http.ResponseWriter, r *http.Request) {
	authSvc := s.service.AuthPasswordService()
	if authSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication service not configured", nil)
		return
	}

	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	if err := authSvc.ResetPassword(r.Context(), authpw.ResetPasswordRequest{
		Token:       body.Token,
		NewPassword: body.NewPassword,
	}); err != nil {
		writeError(w, http.StatusBadRequest, "RESET_FAILED", err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset successfully",
	})
}
