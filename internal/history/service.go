package history

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const documentFile = "document.md"

// ChangeType distinguishes manual edits from AI insertions in the
// version log.
const (
	ChangeManual   = "manual"
	ChangeAIInsert = "ai_insert"
)

// Commit describes one version snapshot.
type Commit struct {
	Hash       string    `json:"hash"`
	Summary    string    `json:"summary"`
	ChangeType string    `json:"change_type"`
	Author     string    `json:"author"`
	CreatedAt  time.Time `json:"created_at"`
}

// Service stores each idea's document as a single-file git repository
// under baseDir. One commit per snapshot, change type carried as a
// message trailer.
type Service struct {
	baseDir string
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Snapshot commits the current document for the idea, initializing the
// repository on first use. Unchanged documents still commit so every
// recorded version maps to exactly one snapshot call.
func (s *Service) Snapshot(ideaID, doc, author, changeType, summary string) (Commit, error) {
	lock := s.ideaLock(ideaID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.openOrInit(ideaID)
	if err != nil {
		return Commit{}, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return Commit{}, fmt.Errorf("open worktree: %w", err)
	}

	path := filepath.Join(s.repoPath(ideaID), documentFile)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return Commit{}, fmt.Errorf("write document: %w", err)
	}
	if _, err := worktree.Add(documentFile); err != nil {
		return Commit{}, fmt.Errorf("git add document: %w", err)
	}

	message := fmt.Sprintf("%s\n\nchange-type: %s", summary, changeType)
	hash, err := worktree.Commit(message, &git.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  author,
			Email: fmt.Sprintf("%s@local.idealauncher.dev", sanitizeEmail(author)),
			When:  time.Now(),
		},
	})
	if err != nil {
		return Commit{}, fmt.Errorf("commit document: %w", err)
	}

	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return Commit{}, fmt.Errorf("read commit object: %w", err)
	}
	return toCommit(commitObj), nil
}

// History lists snapshots newest-first, bounded by limit when positive.
func (s *Service) History(ideaID string, limit int) ([]Commit, error) {
	lock := s.ideaLock(ideaID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(ideaID))
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return []Commit{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve head: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]Commit, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toCommit(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// DocumentAt returns the document content as of the given commit.
func (s *Service) DocumentAt(ideaID, hash string) (string, error) {
	lock := s.ideaLock(ideaID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(ideaID))
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}

	resolved, err := resolveHash(repo, hash)
	if err != nil {
		return "", err
	}
	commitObj, err := repo.CommitObject(resolved)
	if err != nil {
		return "", fmt.Errorf("read commit %s: %w", hash, err)
	}

	file, err := commitObj.File(documentFile)
	if err != nil {
		return "", fmt.Errorf("load document from commit: %w", err)
	}
	content, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("read document contents: %w", err)
	}
	return content, nil
}

func (s *Service) openOrInit(ideaID string) (*git.Repository, error) {
	path := s.repoPath(ideaID)
	repo, err := git.PlainOpen(path)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create repo dir: %w", err)
	}
	repo, err = git.PlainInit(path, false)
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	return repo, nil
}

func (s *Service) repoPath(ideaID string) string {
	return filepath.Join(s.baseDir, ideaID)
}

func (s *Service) ideaLock(ideaID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[ideaID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[ideaID] = lock
	}
	return lock
}

func toCommit(commitObj *object.Commit) Commit {
	summary, changeType := parseMessage(commitObj.Message)
	return Commit{
		Hash:       commitObj.Hash.String()[:7],
		Summary:    summary,
		ChangeType: changeType,
		Author:     commitObj.Author.Name,
		CreatedAt:  commitObj.Author.When,
	}
}

func parseMessage(message string) (summary, changeType string) {
	changeType = ChangeManual
	lines := strings.Split(strings.TrimSpace(message), "\n")
	if len(lines) > 0 {
		summary = strings.TrimSpace(lines[0])
	}
	for _, line := range lines[1:] {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "change-type:"); ok {
			changeType = strings.TrimSpace(rest)
		}
	}
	return summary, changeType
}

func resolveHash(repo *git.Repository, hash string) (plumbing.Hash, error) {
	if len(hash) == 40 {
		return plumbing.NewHash(hash), nil
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve hash %s: %w", hash, err)
	}
	return *resolved, nil
}

func sanitizeEmail(input string) string {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
			continue
		}
		if r == ' ' || r == '-' || r == '_' {
			out = append(out, '.')
		}
	}
	if len(out) == 0 {
		return "user"
	}
	return string(out)
}
