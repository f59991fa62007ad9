package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ── Users ──

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const query = `
		SELECT id, display_name, email, password_hash, is_email_verified
		FROM users WHERE LOWER(email) = LOWER($1)
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.IsEmailVerified,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	const query = `
		SELECT id, display_name, email, is_email_verified
		FROM users WHERE id = $1
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.IsEmailVerified,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash, is_email_verified, verification_token)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.DisplayName, user.Email, user.PasswordHash, user.IsEmailVerified, user.VerificationToken)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET verification_token=$2, verification_expires_at=$3, updated_at=NOW()
		WHERE id=$1
	`, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("update verification token: %w", err)
	}
	return nil
}

func (s *PostgresStore) VerifyUserEmail(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_email_verified=TRUE, verification_token='', updated_at=NOW()
		WHERE verification_token=$1 AND verification_expires_at > NOW()
	`, token)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify email rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1
	`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	const query = `
		SELECT user_id FROM password_resets
		WHERE token=$1 AND used_at IS NULL AND expires_at > NOW()
	`
	var userID string
	if err := s.db.QueryRowContext(ctx, query, token).Scan(&userID); err != nil {
		return "", err
	}
	return userID, nil
}

func (s *PostgresStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used_at=NOW() WHERE token=$1`, token)
	if err != nil {
		return fmt.Errorf("mark password reset used: %w", err)
	}
	return nil
}

// ── Sessions ──

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.display_name, u.email, u.is_email_verified
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.IsEmailVerified,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (jti, expires_at) VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, expiresAt)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti=$1)`, jti).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return exists, nil
}

// ── Ideas ──
//
// Every idea read/write is filtered by the owning user's id. A row that
// exists but belongs to someone else is indistinguishable from a missing
// row (sql.ErrNoRows), which the HTTP layer maps to 404.

func (s *PostgresStore) ListIdeas(ctx context.Context, userID string) ([]Idea, error) {
	const query = `
		SELECT id, user_id, title, pitch, best_score, best_score_kind, created_at, updated_at
		FROM ideas WHERE user_id=$1
		ORDER BY updated_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	defer rows.Close()

	var ideas []Idea
	for rows.Next() {
		var idea Idea
		var bestKind sql.NullString
		if err := rows.Scan(&idea.ID, &idea.UserID, &idea.Title, &idea.Pitch, &idea.BestScore, &bestKind, &idea.CreatedAt, &idea.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		idea.BestScoreKind = bestKind.String
		ideas = append(ideas, idea)
	}
	return ideas, rows.Err()
}

func (s *PostgresStore) CreateIdea(ctx context.Context, idea Idea) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ideas (id, user_id, title, pitch, document)
		VALUES ($1, $2, $3, $4, $5)
	`, idea.ID, idea.UserID, idea.Title, idea.Pitch, idea.Document)
	if err != nil {
		return fmt.Errorf("insert idea: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetIdea(ctx context.Context, userID, ideaID string) (Idea, error) {
	const query = `
		SELECT id, user_id, title, pitch, document, best_score, best_score_kind, created_at, updated_at
		FROM ideas WHERE id=$1 AND user_id=$2
	`
	var idea Idea
	var bestKind sql.NullString
	err := s.db.QueryRowContext(ctx, query, ideaID, userID).Scan(
		&idea.ID, &idea.UserID, &idea.Title, &idea.Pitch, &idea.Document,
		&idea.BestScore, &bestKind, &idea.CreatedAt, &idea.UpdatedAt,
	)
	if err != nil {
		return Idea{}, err
	}
	idea.BestScoreKind = bestKind.String
	return idea, nil
}

func (s *PostgresStore) UpdateIdea(ctx context.Context, userID, ideaID, title, pitch string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ideas SET title=$3, pitch=$4, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
	`, ideaID, userID, title, pitch)
	if err != nil {
		return fmt.Errorf("update idea: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) UpdateIdeaDocument(ctx context.Context, userID, ideaID, document string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ideas SET document=$3, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
	`, ideaID, userID, document)
	if err != nil {
		return fmt.Errorf("update idea document: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) UpdateIdeaBestScore(ctx context.Context, userID, ideaID string, composite float64, kind string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ideas SET best_score=$3, best_score_kind=$4, updated_at=NOW()
		WHERE id=$1 AND user_id=$2 AND (best_score IS NULL OR best_score < $3)
	`, ideaID, userID, composite, kind)
	if err != nil {
		return fmt.Errorf("update idea best score: %w", err)
	}
	// Zero affected rows here means the existing best score is higher,
	// not that the idea is missing.
	_ = result
	return nil
}

func (s *PostgresStore) DeleteIdea(ctx context.Context, userID, ideaID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM ideas WHERE id=$1 AND user_id=$2`, ideaID, userID)
	if err != nil {
		return fmt.Errorf("delete idea: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) SearchIdeas(ctx context.Context, userID, query string, limit int) ([]Idea, error) {
	const search = `
		SELECT id, user_id, title, pitch, created_at, updated_at
		FROM ideas
		WHERE user_id=$1 AND (title ILIKE '%' || $2 || '%' OR pitch ILIKE '%' || $2 || '%' OR document ILIKE '%' || $2 || '%')
		ORDER BY updated_at DESC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, search, userID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search ideas: %w", err)
	}
	defer rows.Close()

	var ideas []Idea
	for rows.Next() {
		var idea Idea
		if err := rows.Scan(&idea.ID, &idea.UserID, &idea.Title, &idea.Pitch, &idea.CreatedAt, &idea.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		ideas = append(ideas, idea)
	}
	return ideas, rows.Err()
}

// ── Chat ──

func (s *PostgresStore) InsertChatMessage(ctx context.Context, msg ChatMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, idea_id, role, content)
		VALUES ($1, $2, $3, $4)
	`, msg.ID, msg.IdeaID, msg.Role, msg.Content)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListChatMessages(ctx context.Context, ideaID string) ([]ChatMessage, error) {
	const query = `
		SELECT id, idea_id, role, content, created_at
		FROM chat_messages WHERE idea_id=$1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, ideaID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var msg ChatMessage
		if err := rows.Scan(&msg.ID, &msg.IdeaID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ── Research ──

func (s *PostgresStore) InsertResearchFinding(ctx context.Context, finding ResearchFinding) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO research_findings (id, idea_id, type, payload, inserted)
		VALUES ($1, $2, $3, $4, $5)
	`, finding.ID, finding.IdeaID, finding.Type, finding.Payload, finding.Inserted)
	if err != nil {
		return fmt.Errorf("insert research finding: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListResearchFindings(ctx context.Context, ideaID string) ([]ResearchFinding, error) {
	const query = `
		SELECT id, idea_id, type, payload, inserted, created_at
		FROM research_findings WHERE idea_id=$1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, ideaID)
	if err != nil {
		return nil, fmt.Errorf("list research findings: %w", err)
	}
	defer rows.Close()

	var findings []ResearchFinding
	for rows.Next() {
		var finding ResearchFinding
		if err := rows.Scan(&finding.ID, &finding.IdeaID, &finding.Type, &finding.Payload, &finding.Inserted, &finding.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan research finding: %w", err)
		}
		findings = append(findings, finding)
	}
	return findings, rows.Err()
}

func (s *PostgresStore) SetFindingInserted(ctx context.Context, ideaID, findingID string, inserted bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE research_findings SET inserted=$3 WHERE id=$1 AND idea_id=$2
	`, findingID, ideaID, inserted)
	if err != nil {
		return fmt.Errorf("set finding inserted: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) DeleteResearchFindings(ctx context.Context, ideaID, findingType string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM research_findings WHERE idea_id=$1 AND type=$2
	`, ideaID, findingType)
	if err != nil {
		return fmt.Errorf("delete research findings: %w", err)
	}
	return nil
}

// ── Features ──

// ReplaceFeatures swaps the idea's feature list in one transaction so a
// regenerate never leaves a half-replaced list visible.
func (s *PostgresStore) ReplaceFeatures(ctx context.Context, ideaID string, features []Feature) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace features: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM features WHERE idea_id=$1`, ideaID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear features: %w", err)
	}
	for _, feature := range features {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO features (id, idea_id, title, description, size_estimate, position)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, feature.ID, ideaID, feature.Title, feature.Description, feature.SizeEstimate, feature.Position); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert feature: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace features: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListFeatures(ctx context.Context, ideaID string) ([]Feature, error) {
	const query = `
		SELECT id, idea_id, title, description, size_estimate, position, created_at
		FROM features WHERE idea_id=$1
		ORDER BY position ASC
	`
	rows, err := s.db.QueryContext(ctx, query, ideaID)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	defer rows.Close()

	var features []Feature
	for rows.Next() {
		var feature Feature
		if err := rows.Scan(&feature.ID, &feature.IdeaID, &feature.Title, &feature.Description, &feature.SizeEstimate, &feature.Position, &feature.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		features = append(features, feature)
	}
	return features, rows.Err()
}

func (s *PostgresStore) UpdateFeatureSize(ctx context.Context, ideaID, featureID, sizeEstimate string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE features SET size_estimate=$3 WHERE id=$1 AND idea_id=$2
	`, featureID, ideaID, sizeEstimate)
	if err != nil {
		return fmt.Errorf("update feature size: %w", err)
	}
	return requireRow(result)
}

// ── Scores ──

func (s *PostgresStore) InsertScore(ctx context.Context, score Score) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scores (id, idea_id, kind, components, composite)
		VALUES ($1, $2, $3, $4, $5)
	`, score.ID, score.IdeaID, score.Kind, score.Components, score.Composite)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListScores(ctx context.Context, ideaID string) ([]Score, error) {
	const query = `
		SELECT id, idea_id, kind, components, composite, created_at
		FROM scores WHERE idea_id=$1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, ideaID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var scores []Score
	for rows.Next() {
		var score Score
		if err := rows.Scan(&score.ID, &score.IdeaID, &score.Kind, &score.Components, &score.Composite, &score.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

// ── Tech stack ──

func (s *PostgresStore) ReplaceTechStack(ctx context.Context, ideaID string, payload json.RawMessage, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tech stack: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tech_stacks WHERE idea_id=$1`, ideaID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear tech stack: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tech_stacks (id, idea_id, payload) VALUES ($1, $2, $3)
	`, id, ideaID, payload); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert tech stack: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tech stack: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLatestTechStack(ctx context.Context, ideaID string) (TechStack, error) {
	const query = `
		SELECT id, idea_id, payload, created_at
		FROM tech_stacks WHERE idea_id=$1
		ORDER BY created_at DESC LIMIT 1
	`
	var stack TechStack
	err := s.db.QueryRowContext(ctx, query, ideaID).Scan(&stack.ID, &stack.IdeaID, &stack.Payload, &stack.CreatedAt)
	if err != nil {
		return TechStack{}, err
	}
	return stack, nil
}

// ── Spec exports ──

func (s *PostgresStore) InsertSpecExport(ctx context.Context, export SpecExport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spec_exports (id, idea_id, content, artifact_url)
		VALUES ($1, $2, $3, $4)
	`, export.ID, export.IdeaID, export.Content, export.ArtifactURL)
	if err != nil {
		return fmt.Errorf("insert spec export: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLatestSpecExport(ctx context.Context, ideaID string) (SpecExport, error) {
	const query = `
		SELECT id, idea_id, content, artifact_url, created_at
		FROM spec_exports WHERE idea_id=$1
		ORDER BY created_at DESC LIMIT 1
	`
	var export SpecExport
	err := s.db.QueryRowContext(ctx, query, ideaID).Scan(&export.ID, &export.IdeaID, &export.Content, &export.ArtifactURL, &export.CreatedAt)
	if err != nil {
		return SpecExport{}, err
	}
	return export, nil
}

// ── Document versions ──

func (s *PostgresStore) InsertDocumentVersion(ctx context.Context, version DocumentVersion) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_versions (id, idea_id, change_type, summary, commit_hash)
		VALUES ($1, $2, $3, $4, $5)
	`, version.ID, version.IdeaID, version.ChangeType, version.Summary, version.CommitHash)
	if err != nil {
		return fmt.Errorf("insert document version: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDocumentVersions(ctx context.Context, ideaID string, limit int) ([]DocumentVersion, error) {
	const query = `
		SELECT id, idea_id, change_type, summary, commit_hash, created_at
		FROM document_versions WHERE idea_id=$1
		ORDER BY created_at DESC LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, ideaID, limit)
	if err != nil {
		return nil, fmt.Errorf("list document versions: %w", err)
	}
	defer rows.Close()

	var versions []DocumentVersion
	for rows.Next() {
		var version DocumentVersion
		if err := rows.Scan(&version.ID, &version.IdeaID, &version.ChangeType, &version.Summary, &version.CommitHash, &version.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
