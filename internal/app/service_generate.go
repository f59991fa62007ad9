package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"idealauncher/api/internal/cache"
	"idealauncher/api/internal/export"
	"idealauncher/api/internal/llm"
	"idealauncher/api/internal/scoring"
	"idealauncher/api/internal/store"
	"idealauncher/api/internal/util"
)

var researchKinds = []string{store.FindingCompetitor, store.FindingMonetization, store.FindingNaming}

// Chat

func (s *Service) ChatTranscript(ctx context.Context, userID, ideaID string) (json.RawMessage, error) {
	if _, err := s.store.GetIdea(ctx, userID, ideaID); err != nil {
		return nil, err
	}
	return s.cached(ctx, cache.ChatKey(ideaID), cache.DefaultTTL, func() (any, error) {
		messages, err := s.store.ListChatMessages(ctx, ideaID)
		if err != nil {
			return nil, err
		}
		items := make([]map[string]any, 0, len(messages))
		for _, msg := range messages {
			items = append(items, map[string]any{
				"id":        msg.ID,
				"role":      msg.Role,
				"content":   msg.Content,
				"createdAt": msg.CreatedAt,
			})
		}
		return map[string]any{"messages": items}, nil
	})
}

// StartChat persists the user's message and returns the full prompt
// history for the model call.
func (s *Service) StartChat(ctx context.Context, userID, ideaID, content string) ([]llm.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationError(map[string]string{"content": "message content is required"})
	}

	idea, err := s.store.GetIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}

	if err := s.store.InsertChatMessage(ctx, store.ChatMessage{
		ID:      util.NewID("msg"),
		IdeaID:  ideaID,
		Role:    "user",
		Content: content,
	}); err != nil {
		return nil, err
	}
	s.dropCacheKey(ctx, cache.ChatKey(ideaID))

	transcript, err := s.store.ListChatMessages(ctx, ideaID)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(transcript)+1)
	messages = append(messages, llm.Message{
		Role:    "system",
		Content: llm.ChatSystemPrompt(idea.Title, idea.Pitch, idea.Document),
	})
	for _, msg := range transcript {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return messages, nil
}

// FinishChat persists streamed assistant output best-effort. Partial
// output from an interrupted stream is kept too.
func (s *Service) FinishChat(ideaID, content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.InsertChatMessage(ctx, store.ChatMessage{
		ID:      util.NewID("msg"),
		IdeaID:  ideaID,
		Role:    "assistant",
		Content: content,
	}); err != nil {
		log.Printf("chat: persist assistant message for idea %s: %v", ideaID, err)
		return
	}
	s.dropCacheKey(ctx, cache.ChatKey(ideaID))
}

func (s *Service) StreamCompletion(ctx context.Context, messages []llm.Message) (<-chan llm.StreamChunk, <-chan error) {
	return s.llm.Stream(ctx, messages)
}

// Research

func (s *Service) GenerateResearch(ctx context.Context, userID, ideaID, kind string) (map[string]any, error) {
	if !validResearchKind(kind) {
		return nil, validationError(map[string]string{"type": fmt.Sprintf("unknown research type %q", kind)})
	}
	idea, err := s.store.GetIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}

	var prompt string
	switch kind {
	case store.FindingCompetitor:
		prompt = llm.CompetitorPrompt(idea.Title, idea.Pitch)
	case store.FindingMonetization:
		prompt = llm.MonetizationPrompt(idea.Title, idea.Pitch)
	case store.FindingNaming:
		prompt = llm.NamingPrompt(idea.Title, idea.Pitch)
	}

	raw, err := s.llm.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, err
	}

	payloads, err := parseFindings(kind, raw, idea.Title)
	if err != nil {
		return nil, domainError(http.StatusBadGateway, "GENERATION_FAILED", "Model returned unusable output", map[string]string{"error": err.Error()})
	}

	// Regeneration replaces the previous set for this type.
	if err := s.store.DeleteResearchFindings(ctx, ideaID, kind); err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(payloads))
	for _, payload := range payloads {
		finding := store.ResearchFinding{
			ID:      util.NewID("fnd"),
			IdeaID:  ideaID,
			Type:    kind,
			Payload: payload,
		}
		if err := s.store.InsertResearchFinding(ctx, finding); err != nil {
			return nil, err
		}
		items = append(items, findingPayload(finding))
	}
	s.dropCacheKey(ctx, cache.ResearchKey(ideaID, kind))

	return map[string]any{"type": kind, "findings": items}, nil
}

func (s *Service) ListResearch(ctx context.Context, userID, ideaID string) (map[string]any, error) {
	if _, err := s.store.GetIdea(ctx, userID, ideaID); err != nil {
		return nil, err
	}
	grouped := map[string]any{}
	for _, kind := range researchKinds {
		kind := kind
		raw, err := s.cached(ctx, cache.ResearchKey(ideaID, kind), cache.DefaultTTL, func() (any, error) {
			findings, err := s.store.ListResearchFindings(ctx, ideaID)
			if err != nil {
				return nil, err
			}
			items := make([]map[string]any, 0, len(findings))
			for _, finding := range findings {
				if finding.Type == kind {
					items = append(items, findingPayload(finding))
				}
			}
			return items, nil
		})
		if err != nil {
			return nil, err
		}
		grouped[kind] = raw
	}
	return grouped, nil
}

// SetFindingInserted toggles a finding's inserted flag. Marking a
// finding inserted also merges it into the document's research section
// when a mutation sink is registered.
func (s *Service) SetFindingInserted(ctx context.Context, session Session, ideaID, findingID string, inserted bool) error {
	if _, err := s.store.GetIdea(ctx, session.UserID, ideaID); err != nil {
		return err
	}

	findings, err := s.store.ListResearchFindings(ctx, ideaID)
	if err != nil {
		return err
	}
	var finding *store.ResearchFinding
	for i := range findings {
		if findings[i].ID == findingID {
			finding = &findings[i]
			break
		}
	}
	if finding == nil {
		return sql.ErrNoRows
	}

	if inserted && !finding.Inserted {
		sink, err := s.sinks.Resolve()
		if err == nil {
			ctx := contextWithSession(ctx, session)
			if err := sink.InsertContent(ctx, ideaID, "research", formatFinding(*finding), "research:"+finding.Type); err != nil {
				return err
			}
		} else {
			log.Printf("research: no document sink, flag-only insert for finding %s", findingID)
		}
	}

	if err := s.store.SetFindingInserted(ctx, ideaID, findingID, inserted); err != nil {
		return err
	}
	s.dropCacheKey(ctx, cache.ResearchKey(ideaID, finding.Type))
	return nil
}

// Features

func (s *Service) GenerateFeatures(ctx context.Context, userID, ideaID string) (map[string]any, error) {
	idea, err := s.store.GetIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.Complete(ctx, []llm.Message{{Role: "user", Content: llm.FeaturesPrompt(idea.Title, idea.Pitch, idea.Document)}})
	if err != nil {
		return nil, err
	}

	ideas, err := llm.ParseJSONArray[llm.FeatureIdea](raw)
	if err != nil {
		ideas = llm.FallbackFeatures()
	}

	features := make([]store.Feature, 0, len(ideas))
	for i, f := range ideas {
		features = append(features, store.Feature{
			ID:           util.NewID("feat"),
			IdeaID:       ideaID,
			Title:        f.Title,
			Description:  f.Description,
			SizeEstimate: normalizeSize(f.SizeEstimate),
			Position:     i,
		})
	}
	if err := s.store.ReplaceFeatures(ctx, ideaID, features); err != nil {
		return nil, err
	}
	s.dropCacheKey(ctx, cache.FeaturesKey(ideaID))

	return map[string]any{"features": featurePayloads(features)}, nil
}

func (s *Service) ListFeatures(ctx context.Context, userID, ideaID string) (json.RawMessage, error) {
	if _, err := s.store.GetIdea(ctx, userID, ideaID); err != nil {
		return nil, err
	}
	return s.cached(ctx, cache.FeaturesKey(ideaID), cache.DefaultTTL, func() (any, error) {
		features, err := s.store.ListFeatures(ctx, ideaID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"features": featurePayloads(features)}, nil
	})
}

func (s *Service) UpdateFeatureSize(ctx context.Context, userID, ideaID, featureID, size string) error {
	size = strings.ToUpper(strings.TrimSpace(size))
	if size != "S" && size != "M" && size != "L" {
		return validationError(map[string]string{"sizeEstimate": "size must be S, M or L"})
	}
	if _, err := s.store.GetIdea(ctx, userID, ideaID); err != nil {
		return err
	}
	if err := s.store.UpdateFeatureSize(ctx, ideaID, featureID, size); err != nil {
		return err
	}
	s.dropCacheKey(ctx, cache.FeaturesKey(ideaID))
	return nil
}

// Scores

func (s *Service) AddScore(ctx context.Context, userID, ideaID, kind string, components json.RawMessage) (map[string]any, error) {
	idea, err := s.store.GetIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}

	composite, err := scoring.Composite(scoring.Kind(kind), components)
	if err != nil {
		return nil, validationError(map[string]string{"components": err.Error()})
	}

	score := store.Score{
		ID:         util.NewID("score"),
		IdeaID:     ideaID,
		Kind:       kind,
		Components: components,
		Composite:  composite,
	}

	initial := scoreboard{}
	if idea.BestScore != nil {
		initial = scoreboard{Composite: *idea.BestScore, Kind: idea.BestScoreKind, Known: true}
	}
	panel := s.scorePanel(ideaID, initial)
	token := panel.Update(func(prev scoreboard) scoreboard {
		if !prev.Known || composite > prev.Composite {
			return scoreboard{Composite: composite, Kind: kind, Known: true}
		}
		return prev
	})

	var writeErr error
	token.Commit(ctx, func(ctx context.Context) (scoreboard, error) {
		if err := s.store.InsertScore(ctx, score); err != nil {
			writeErr = err
			return scoreboard{}, err
		}
		best := initial
		if !best.Known || composite > best.Composite {
			best = scoreboard{Composite: composite, Kind: kind, Known: true}
			if err := s.store.UpdateIdeaBestScore(ctx, userID, ideaID, composite, kind); err != nil {
				writeErr = err
				return scoreboard{}, err
			}
		}
		return best, nil
	}, func(prev scoreboard) scoreboard { return prev })
	if writeErr != nil {
		return nil, writeErr
	}
	s.invalidateIdea(ctx, userID, ideaID)

	return map[string]any{
		"id":         score.ID,
		"kind":       score.Kind,
		"components": score.Components,
		"composite":  score.Composite,
	}, nil
}

func (s *Service) ListScores(ctx context.Context, userID, ideaID string) (json.RawMessage, error) {
	if _, err := s.store.GetIdea(ctx, userID, ideaID); err != nil {
		return nil, err
	}
	return s.cached(ctx, cache.ScoresKey(ideaID), cache.DefaultTTL, func() (any, error) {
		scores, err := s.store.ListScores(ctx, ideaID)
		if err != nil {
			return nil, err
		}
		items := make([]map[string]any, 0, len(scores))
		for _, sc := range scores {
			items = append(items, map[string]any{
				"id":         sc.ID,
				"kind":       sc.Kind,
				"components": sc.Components,
				"composite":  sc.Composite,
				"createdAt":  sc.CreatedAt,
			})
		}
		return map[string]any{"scores": items}, nil
	})
}

// Tech stack

func (s *Service) GenerateTechStack(ctx context.Context, userID, ideaID string) (map[string]any, error) {
	idea, err := s.store.GetIdea(ctx, userID, ideaID)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.Complete(ctx, []llm.Message{{Role: "user", Content: llm.TechStackPrompt(idea.Title, idea.Pitch, idea.Document)}})
	if err != nil {
		return nil, err
	}

	recs, err := llm.ParseJSONArray[llm.TechRecommendation](raw)
	if err != nil {
		recs = llm.FallbackTechStack()
	}
	payload, err := json.Marshal(recs)
	if err != nil {
		return nil, err
	}

	if err := s.store.ReplaceTechStack(ctx, ideaID, payload, util.NewID("tech")); err != nil {
		return nil, err
	}
	s.dropCacheKey(ctx, cache.TechStackKey(ideaID))

	return map[string]any{"stack": json.RawMessage(payload)}, nil
}

func (s *Service) GetTechStack(ctx context.Context, userID, ideaID string) (json.RawMessage, error) {
	if _, err := s.store.GetIdea(ctx, userID, ideaID); err != nil {
		return nil, err
	}
	return s.cached(ctx, cache.TechStackKey(ideaID), cache.DefaultTTL, func() (any, error) {
		stack, err := s.store.GetLatestTechStack(ctx, ideaID)
		if errors.Is(err, sql.ErrNoRows) {
			return map[string]any{"stack": json.RawMessage("[]")}, nil
		}
		if err != nil {
			return nil, err
		}
		return map[string]any{"stack": stack.Payload, "createdAt": stack.CreatedAt}, nil
	})
}

// Spec export

func (s *Service) GenerateSpecExport(ctx context.Context, session Session, ideaID string) (map[string]any, error) {
	idea, err := s.store.GetIdea(ctx, session.UserID, ideaID)
	if err != nil {
		return nil, err
	}

	content, err := s.llm.Complete(ctx, []llm.Message{{Role: "user", Content: llm.SpecPrompt(idea.Title, idea.Pitch, idea.Document)}})
	if err != nil {
		return nil, err
	}

	specExport := store.SpecExport{
		ID:      util.NewID("exp"),
		IdeaID:  ideaID,
		Content: content,
	}

	// Artifact upload is best-effort: the export row stands without it.
	if s.artifacts != nil {
		res, err := s.export.Render(export.Request{
			IdeaTitle: idea.Title,
			Pitch:     idea.Pitch,
			Author:    session.UserName,
			Content:   content,
			Format:    export.FormatMarkdown,
		})
		if err == nil {
			url, err := s.artifacts.Upload(ctx, ideaID, res)
			if err != nil {
				log.Printf("export: upload artifact for idea %s: %v", ideaID, err)
			} else {
				specExport.ArtifactURL = url
			}
		}
	}

	if err := s.store.InsertSpecExport(ctx, specExport); err != nil {
		return nil, err
	}
	s.dropCacheKey(ctx, cache.SpecExportKey(ideaID))

	return specExportPayload(specExport), nil
}

func (s *Service) GetSpecExport(ctx context.Context, userID, ideaID string) (json.RawMessage, error) {
	if _, err := s.store.GetIdea(ctx, userID, ideaID); err != nil {
		return nil, err
	}
	return s.cached(ctx, cache.SpecExportKey(ideaID), cache.DefaultTTL, func() (any, error) {
		specExport, err := s.store.GetLatestSpecExport(ctx, ideaID)
		if err != nil {
			return nil, err
		}
		return specExportPayload(specExport), nil
	})
}

// DownloadExport renders the latest spec export in the requested
// format.
func (s *Service) DownloadExport(ctx context.Context, session Session, ideaID string, format export.Format) (*export.Result, error) {
	idea, err := s.store.GetIdea(ctx, session.UserID, ideaID)
	if err != nil {
		return nil, err
	}
	specExport, err := s.store.GetLatestSpecExport(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	return s.export.Render(export.Request{
		IdeaTitle: idea.Title,
		Pitch:     idea.Pitch,
		Author:    session.UserName,
		Content:   specExport.Content,
		Format:    format,
	})
}

// Helpers

func validResearchKind(kind string) bool {
	for _, k := range researchKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func parseFindings(kind, raw, ideaTitle string) ([]json.RawMessage, error) {
	switch kind {
	case store.FindingCompetitor:
		items, err := llm.ParseJSONArray[llm.Competitor](raw)
		if err != nil {
			items = llm.FallbackCompetitors(ideaTitle)
		}
		return marshalEach(items)
	case store.FindingMonetization:
		items, err := llm.ParseJSONArray[llm.Monetization](raw)
		if err != nil {
			return nil, err
		}
		return marshalEach(items)
	case store.FindingNaming:
		items, err := llm.ParseJSONArray[llm.NameSuggestion](raw)
		if err != nil {
			return nil, err
		}
		return marshalEach(items)
	}
	return nil, fmt.Errorf("unknown research type %q", kind)
}

func marshalEach[T any](items []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func findingPayload(f store.ResearchFinding) map[string]any {
	return map[string]any{
		"id":        f.ID,
		"type":      f.Type,
		"payload":   f.Payload,
		"inserted":  f.Inserted,
		"createdAt": f.CreatedAt,
	}
}

func featurePayloads(features []store.Feature) []map[string]any {
	items := make([]map[string]any, 0, len(features))
	for _, f := range features {
		items = append(items, map[string]any{
			"id":           f.ID,
			"title":        f.Title,
			"description":  f.Description,
			"sizeEstimate": f.SizeEstimate,
			"position":     f.Position,
		})
	}
	return items
}

func specExportPayload(e store.SpecExport) map[string]any {
	payload := map[string]any{
		"id":        e.ID,
		"content":   e.Content,
		"createdAt": e.CreatedAt,
	}
	if e.ArtifactURL != "" {
		payload["artifactUrl"] = e.ArtifactURL
	}
	return payload
}

// formatFinding renders a finding as markdown for document insertion.
func formatFinding(f store.ResearchFinding) string {
	switch f.Type {
	case store.FindingCompetitor:
		var c llm.Competitor
		if err := json.Unmarshal(f.Payload, &c); err == nil {
			var b strings.Builder
			fmt.Fprintf(&b, "**%s**: %s\n", c.Name, c.Description)
			if c.Strengths != "" {
				fmt.Fprintf(&b, "- Strengths: %s\n", c.Strengths)
			}
			if c.Weaknesses != "" {
				fmt.Fprintf(&b, "- Weaknesses: %s\n", c.Weaknesses)
			}
			return b.String()
		}
	case store.FindingMonetization:
		var m llm.Monetization
		if err := json.Unmarshal(f.Payload, &m); err == nil {
			return fmt.Sprintf("**%s**: %s", m.Model, m.Description)
		}
	case store.FindingNaming:
		var n llm.NameSuggestion
		if err := json.Unmarshal(f.Payload, &n); err == nil {
			return fmt.Sprintf("**%s**: %s", n.Name, n.Rationale)
		}
	}
	return string(f.Payload)
}

func normalizeSize(size string) string {
	switch strings.ToUpper(strings.TrimSpace(size)) {
	case "S":
		return "S"
	case "L":
		return "L"
	default:
		return "M"
	}
}

func (s *Service) dropCacheKey(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		log.Printf("cache: drop %s: %v", key, err)
	}
}
