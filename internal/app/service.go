package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"idealauncher/api/internal/auth"
	"idealauncher/api/internal/authpw"
	"idealauncher/api/internal/cache"
	"idealauncher/api/internal/config"
	"idealauncher/api/internal/document"
	"idealauncher/api/internal/domaincheck"
	"idealauncher/api/internal/export"
	"idealauncher/api/internal/history"
	"idealauncher/api/internal/llm"
	"idealauncher/api/internal/optimistic"
	"idealauncher/api/internal/search"
	"idealauncher/api/internal/store"
	"idealauncher/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	Ping(ctx context.Context) error
	GetUserByID(ctx context.Context, userID string) (store.User, error)
	RevokeAccessToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)

	ListIdeas(ctx context.Context, userID string) ([]store.Idea, error)
	CreateIdea(ctx context.Context, idea store.Idea) error
	GetIdea(ctx context.Context, userID, ideaID string) (store.Idea, error)
	UpdateIdea(ctx context.Context, userID, ideaID, title, pitch string) error
	UpdateIdeaDocument(ctx context.Context, userID, ideaID, document string) error
	UpdateIdeaBestScore(ctx context.Context, userID, ideaID string, composite float64, kind string) error
	DeleteIdea(ctx context.Context, userID, ideaID string) error
	SearchIdeas(ctx context.Context, userID, query string, limit int) ([]store.Idea, error)

	InsertChatMessage(ctx context.Context, msg store.ChatMessage) error
	ListChatMessages(ctx context.Context, ideaID string) ([]store.ChatMessage, error)

	InsertResearchFinding(ctx context.Context, finding store.ResearchFinding) error
	ListResearchFindings(ctx context.Context, ideaID string) ([]store.ResearchFinding, error)
	SetFindingInserted(ctx context.Context, ideaID, findingID string, inserted bool) error
	DeleteResearchFindings(ctx context.Context, ideaID, findingType string) error

	ReplaceFeatures(ctx context.Context, ideaID string, features []store.Feature) error
	ListFeatures(ctx context.Context, ideaID string) ([]store.Feature, error)
	UpdateFeatureSize(ctx context.Context, ideaID, featureID, sizeEstimate string) error

	InsertScore(ctx context.Context, score store.Score) error
	ListScores(ctx context.Context, ideaID string) ([]store.Score, error)

	ReplaceTechStack(ctx context.Context, ideaID string, payload json.RawMessage, id string) error
	GetLatestTechStack(ctx context.Context, ideaID string) (store.TechStack, error)

	InsertSpecExport(ctx context.Context, specExport store.SpecExport) error
	GetLatestSpecExport(ctx context.Context, ideaID string) (store.SpecExport, error)

	InsertDocumentVersion(ctx context.Context, version store.DocumentVersion) error
	ListDocumentVersions(ctx context.Context, ideaID string, limit int) ([]store.DocumentVersion, error)
}

// refreshStore holds refresh sessions: Redis when configured, Postgres
// otherwise. Both satisfy this.
type refreshStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type historyService interface {
	Snapshot(ideaID, doc, author, changeType, summary string) (history.Commit, error)
	History(ideaID string, limit int) ([]history.Commit, error)
	DocumentAt(ideaID, hash string) (string, error)
}

type llmClient interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
	Stream(ctx context.Context, messages []llm.Message) (<-chan llm.StreamChunk, <-chan error)
	Model() string
}

type Service struct {
	cfg       config.Config
	store     dataStore
	refresh   refreshStore
	cache     cache.Store
	llm       llmClient
	history   historyService
	search    *search.Service
	export    *export.Service
	artifacts *export.Storage
	email     EmailSender
	domains   *domaincheck.Service
	authpw    *authpw.Service
	sinks     *document.SinkRegistry

	scoreMu     sync.Mutex
	scorePanels map[string]*optimistic.Store[scoreboard]
}

// scoreboard is the in-process view of an idea's best score. Score
// writes settle through it so concurrent submissions keep last-write
// ordering.
type scoreboard struct {
	Composite float64
	Kind      string
	Known     bool
}

func (s *Service) scorePanel(ideaID string, initial scoreboard) *optimistic.Store[scoreboard] {
	s.scoreMu.Lock()
	defer s.scoreMu.Unlock()
	if s.scorePanels == nil {
		s.scorePanels = make(map[string]*optimistic.Store[scoreboard])
	}
	panel, ok := s.scorePanels[ideaID]
	if !ok {
		panel = optimistic.New(initial)
		s.scorePanels[ideaID] = panel
	}
	return panel
}

func (s *Service) dropScorePanel(ideaID string) {
	s.scoreMu.Lock()
	delete(s.scorePanels, ideaID)
	s.scoreMu.Unlock()
}

// EmailSender is the slice of the mail service the app uses.
type EmailSender interface {
	IsConfigured() bool
	SendVerificationEmail(to, userName, verificationURL string) error
	SendPasswordResetEmail(to, userName, resetURL string) error
}

type Deps struct {
	Store     *store.PostgresStore
	Refresh   refreshStore
	Cache     cache.Store
	LLM       llmClient
	History   *history.Service
	Search    *search.Service
	Export    *export.Service
	Artifacts *export.Storage
	Email     EmailSender
	Domains   *domaincheck.Service
	AuthPW    *authpw.Service
}

func New(cfg config.Config, deps Deps) *Service {
	s := &Service{
		cfg:       cfg,
		store:     deps.Store,
		refresh:   deps.Refresh,
		cache:     deps.Cache,
		llm:       deps.LLM,
		history:   deps.History,
		search:    deps.Search,
		export:    deps.Export,
		artifacts: deps.Artifacts,
		email:     deps.Email,
		domains:   deps.Domains,
		authpw:    deps.AuthPW,
		sinks:     document.NewSinkRegistry(),
	}
	// The service owns the stored documents, so it registers itself as
	// the mutation sink that research and chat flows resolve.
	s.sinks.Register(serviceSink{s})
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

// SendVerificationEmail dispatches signup mail when SMTP is
// configured; callers fall back to dev tokens otherwise.
func (s *Service) SendVerificationEmail(to, userName, token string) {
	if !s.SMTPConfigured() {
		return
	}
	url := fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(s.cfg.CORSOrigin, "/"), token)
	if err := s.email.SendVerificationEmail(to, userName, url); err != nil {
		log.Printf("email: send verification to %s: %v", to, err)
	}
}

func (s *Service) SendPasswordResetEmail(to, userName, token string) {
	if !s.SMTPConfigured() {
		return
	}
	url := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.cfg.CORSOrigin, "/"), token)
	if err := s.email.SendPasswordResetEmail(to, userName, url); err != nil {
		log.Printf("email: send password reset to %s: %v", to, err)
	}
}

// Sessions

func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.refresh.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.refresh.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refreshToken := util.NewID("rft") + util.NewID("")
	if err := s.refresh.SaveRefreshSession(ctx, auth.HashToken(refreshToken), user.ID, now.Add(s.cfg.RefreshTTL)); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.refresh.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// Ideas

func (s *Service) ListIdeas(ctx context.Context, userID string) (json.RawMessage, error) {
	return s.cached(ctx, cache.IdeaListKey(userID), cache.DefaultTTL, func() (any, error) {
		ideas, err := s.store.ListIdeas(ctx, userID)
		if err != nil {
			return nil, err
		}
		items := make([]map[string]any, 0, len(ideas))
		for _, idea := range ideas {
			items = append(items, ideaSummary(idea))
		}
		return map[string]any{"ideas": items}, nil
	})
}

func (s *Service) CreateIdea(ctx context.Context, userID, title, pitch string) (map[string]any, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationError(map[string]string{"title": "title is required"})
	}

	idea := store.Idea{
		ID:     util.NewID("idea"),
		UserID: userID,
		Title:  title,
		Pitch:  strings.TrimSpace(pitch),
	}
	if err := s.store.CreateIdea(ctx, idea); err != nil {
		return nil, err
	}

	s.invalidateIdea(ctx, userID, idea.ID)
	s.search.IndexIdea(searchRecord(idea))
	return ideaSummary(idea), nil
}

func (s *Service) GetIdea(ctx context.Context, userID, ideaID string) (json.RawMessage, error) {
	return s.cached(ctx, cache.IdeaKey(userID, ideaID), cache.DefaultTTL, func() (any, error) {
		idea, err := s.store.GetIdea(ctx, userID, ideaID)
		if err != nil {
			return nil, err
		}
		payload := ideaSummary(idea)
		payload["document"] = idea.Document
		return payload, nil
	})
}

func (s *Service) UpdateIdea(ctx context.Context, userID, ideaID, title, pitch string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return validationError(map[string]string{"title": "title is required"})
	}
	if err := s.store.UpdateIdea(ctx, userID, ideaID, title, strings.TrimSpace(pitch)); err != nil {
		return err
	}
	s.invalidateIdea(ctx, userID, ideaID)
	if idea, err := s.store.GetIdea(ctx, userID, ideaID); err == nil {
		s.search.IndexIdea(searchRecord(idea))
	}
	return nil
}

func (s *Service) DeleteIdea(ctx context.Context, userID, ideaID string) error {
	if err := s.store.DeleteIdea(ctx, userID, ideaID); err != nil {
		return err
	}
	s.invalidateIdea(ctx, userID, ideaID)
	s.dropScorePanel(ideaID)
	s.search.DeleteIdea(ideaID)
	return nil
}

func (s *Service) SearchIdeas(ctx context.Context, userID, text string, limit, offset int) search.Response {
	return s.search.Search(ctx, search.Query{UserID: userID, Text: text, Limit: limit, Offset: offset})
}

// Document

func (s *Service) GetDocument(ctx context.Context, userID, ideaID string) (map[string]any, error) {
	idea, err := s.store.GetIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"ideaId":   idea.ID,
		"document": idea.Document,
		"sections": sectionList(),
	}, nil
}

// SaveDocument persists a debounced editor save and snapshots the
// version fire-and-forget.
func (s *Service) SaveDocument(ctx context.Context, session Session, ideaID, content string) error {
	idea, err := s.store.GetIdea(ctx, session.UserID, ideaID)
	if err != nil {
		return err
	}
	if err := s.store.UpdateIdeaDocument(ctx, session.UserID, ideaID, content); err != nil {
		return err
	}
	s.invalidateIdea(ctx, session.UserID, ideaID)
	s.snapshotDocument(ideaID, content, session.UserName, history.ChangeManual, "Saved document")
	idea.Document = content
	s.search.IndexIdea(searchRecord(idea))
	return nil
}

// InsertIntoSection merges content into the named document section and
// persists the result.
func (s *Service) InsertIntoSection(ctx context.Context, session Session, ideaID, sectionID, content, sourceLabel string) (map[string]any, error) {
	idea, err := s.store.GetIdea(ctx, session.UserID, ideaID)
	if err != nil {
		return nil, err
	}

	res, err := document.Insert(idea.Document, sectionID, content, sourceLabel)
	if err != nil {
		return nil, validationError(map[string]string{"sectionId": err.Error()})
	}

	if err := s.store.UpdateIdeaDocument(ctx, session.UserID, ideaID, res.Document); err != nil {
		return nil, err
	}
	s.invalidateIdea(ctx, session.UserID, ideaID)
	s.snapshotDocument(ideaID, res.Document, session.UserName, history.ChangeAIInsert, res.Summary)
	idea.Document = res.Document
	s.search.IndexIdea(searchRecord(idea))

	return map[string]any{
		"document":       res.Document,
		"section":        res.Section.ID,
		"sectionCreated": res.Created,
	}, nil
}

func (s *Service) ListDocumentVersions(ctx context.Context, userID, ideaID string) (map[string]any, error) {
	if _, err := s.store.GetIdea(ctx, userID, ideaID); err != nil {
		return nil, err
	}
	versions, err := s.store.ListDocumentVersions(ctx, ideaID, 50)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(versions))
	for _, v := range versions {
		items = append(items, map[string]any{
			"id":         v.ID,
			"changeType": v.ChangeType,
			"summary":    v.Summary,
			"commitHash": v.CommitHash,
			"createdAt":  v.CreatedAt,
		})
	}
	return map[string]any{"versions": items}, nil
}

func (s *Service) DocumentVersionContent(ctx context.Context, userID, ideaID, hash string) (map[string]any, error) {
	if _, err := s.store.GetIdea(ctx, userID, ideaID); err != nil {
		return nil, err
	}
	content, err := s.history.DocumentAt(ideaID, hash)
	if err != nil {
		return nil, domainError(http.StatusNotFound, "VERSION_NOT_FOUND", "Version not found", nil)
	}
	return map[string]any{"commitHash": hash, "document": content}, nil
}

// serviceSink adapts the service to the document mutation sink
// contract resolved by chat and research flows.
type serviceSink struct {
	svc *Service
}

func (k serviceSink) InsertContent(ctx context.Context, ideaID, sectionID, content, sourceLabel string) error {
	session, ok := sessionFromContext(ctx)
	if !ok {
		return auth.ErrInvalidToken
	}
	_, err := k.svc.InsertIntoSection(ctx, session, ideaID, sectionID, content, sourceLabel)
	return err
}

// Domain check

func (s *Service) CheckDomain(ctx context.Context, name string) (domaincheck.Result, error) {
	res, err := s.domains.Check(ctx, name)
	if err == domaincheck.ErrNotConfigured {
		return domaincheck.Result{}, domainError(http.StatusServiceUnavailable, "DOMAIN_LOOKUP_UNAVAILABLE", "Domain lookup is not configured", nil)
	}
	return res, err
}

// Helpers

func ideaSummary(idea store.Idea) map[string]any {
	payload := map[string]any{
		"id":        idea.ID,
		"title":     idea.Title,
		"pitch":     idea.Pitch,
		"createdAt": idea.CreatedAt,
		"updatedAt": idea.UpdatedAt,
	}
	if idea.BestScore != nil {
		payload["bestScore"] = *idea.BestScore
		payload["bestScoreKind"] = idea.BestScoreKind
	}
	return payload
}

func searchRecord(idea store.Idea) search.IdeaRecord {
	return search.IdeaRecord{
		ID:       idea.ID,
		UserID:   idea.UserID,
		Title:    idea.Title,
		Pitch:    idea.Pitch,
		Document: idea.Document,
	}
}

func sectionList() []map[string]string {
	sections := document.Sections()
	items := make([]map[string]string, 0, len(sections))
	for _, sec := range sections {
		items = append(items, map[string]string{
			"id":          sec.ID,
			"title":       sec.Title,
			"placeholder": sec.Placeholder,
		})
	}
	return items
}

// cached serves a read through the TTL cache. Cache write failures are
// logged, never surfaced.
func (s *Service) cached(ctx context.Context, key string, ttl time.Duration, fetch func() (any, error)) (json.RawMessage, error) {
	data, err := cache.WithCache(ctx, s.cache, key, ttl, func() ([]byte, error) {
		payload, err := fetch()
		if err != nil {
			return nil, err
		}
		return json.Marshal(payload)
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (s *Service) invalidateIdea(ctx context.Context, userID, ideaID string) {
	if err := s.cache.Delete(ctx, cache.IdeaRelatedKeys(userID, ideaID)...); err != nil {
		log.Printf("cache: invalidate idea %s: %v", ideaID, err)
	}
}

// snapshotDocument records a version fire-and-forget: the edit stands
// even when the snapshot fails.
func (s *Service) snapshotDocument(ideaID, doc, author, changeType, summary string) {
	go func() {
		commit, err := s.history.Snapshot(ideaID, doc, author, changeType, summary)
		if err != nil {
			log.Printf("history: snapshot idea %s: %v", ideaID, err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.InsertDocumentVersion(ctx, store.DocumentVersion{
			ID:         util.NewID("ver"),
			IdeaID:     ideaID,
			ChangeType: changeType,
			Summary:    summary,
			CommitHash: commit.Hash,
		}); err != nil {
			log.Printf("history: record version for idea %s: %v", ideaID, err)
		}
	}()
}

func validationError(fields map[string]string) *DomainError {
	return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", fields)
}

type sessionContextKey struct{}

func contextWithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

func sessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(Session)
	return session, ok
}
