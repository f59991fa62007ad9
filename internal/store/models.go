package store

import (
	"encoding/json"
	"time"
)

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	PasswordHash          string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type Idea struct {
	ID            string
	UserID        string
	Title         string
	Pitch         string
	Document      string
	BestScore     *float64
	BestScoreKind string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ChatMessage struct {
	ID        string
	IdeaID    string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Research finding types
const (
	FindingCompetitor   = "competitor"
	FindingMonetization = "monetization"
	FindingNaming       = "naming"
)

type ResearchFinding struct {
	ID        string
	IdeaID    string
	Type      string
	Payload   json.RawMessage
	Inserted  bool
	CreatedAt time.Time
}

type Feature struct {
	ID           string
	IdeaID       string
	Title        string
	Description  string
	SizeEstimate string
	Position     int
	CreatedAt    time.Time
}

type Score struct {
	ID         string
	IdeaID     string
	Kind       string
	Components json.RawMessage
	Composite  float64
	CreatedAt  time.Time
}

type TechStack struct {
	ID        string
	IdeaID    string
	Payload   json.RawMessage
	CreatedAt time.Time
}

type SpecExport struct {
	ID          string
	IdeaID      string
	Content     string
	ArtifactURL string
	CreatedAt   time.Time
}

type DocumentVersion struct {
	ID         string
	IdeaID     string
	ChangeType string
	Summary    string
	CommitHash string
	CreatedAt  time.Time
}
