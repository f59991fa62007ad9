package optimistic

import (
	"context"
	"errors"
	"testing"
)

type scorePanel struct {
	Best  float64
	Count int
}

func TestUpdateAppliesSynchronously(t *testing.T) {
	s := New(scorePanel{Best: 1, Count: 1})

	s.Update(func(p scorePanel) scorePanel {
		p.Best = 3.36
		p.Count++
		return p
	})

	data, opt := s.Get()
	if !opt {
		t.Fatal("expected optimistic flag set")
	}
	if data.Best != 3.36 || data.Count != 2 {
		t.Fatalf("expected reducer applied immediately, got %+v", data)
	}
}

func TestCommitSuccessStoresResult(t *testing.T) {
	s := New(scorePanel{Best: 1})
	token := s.Update(func(p scorePanel) scorePanel {
		p.Best = 2
		return p
	})

	got, ok := token.Commit(context.Background(), func(context.Context) (scorePanel, error) {
		return scorePanel{Best: 2.5}, nil
	}, func(prev scorePanel) scorePanel { return prev })

	if !ok {
		t.Fatal("expected successful commit")
	}
	if got.Best != 2.5 {
		t.Fatalf("expected remote result returned, got %+v", got)
	}
	data, opt := s.Get()
	if opt {
		t.Fatal("optimistic flag must clear on success")
	}
	if data.Best != 2.5 {
		t.Fatalf("expected remote result stored, got %+v", data)
	}
}

func TestCommitFailureRestoresFallbackAgainstPreUpdateState(t *testing.T) {
	s := New(scorePanel{Best: 1, Count: 5})
	token := s.Update(func(p scorePanel) scorePanel {
		p.Best = 9
		p.Count++
		return p
	})

	got, ok := token.Commit(context.Background(), func(context.Context) (scorePanel, error) {
		return scorePanel{}, errors.New("write failed")
	}, func(prev scorePanel) scorePanel {
		if prev.Best != 1 || prev.Count != 5 {
			t.Fatalf("fallback must see pre-update state, got %+v", prev)
		}
		return prev
	})

	if ok {
		t.Fatal("expected failed commit")
	}
	if got != (scorePanel{}) {
		t.Fatalf("failed commit must return the zero value, got %+v", got)
	}
	data, opt := s.Get()
	if opt {
		t.Fatal("optimistic flag must clear on failure")
	}
	if data.Best != 1 || data.Count != 5 {
		t.Fatalf("expected rollback to pre-update state, got %+v", data)
	}
}

func TestStaleCommitDiscarded(t *testing.T) {
	s := New(scorePanel{Best: 1})
	first := s.Update(func(p scorePanel) scorePanel {
		p.Best = 2
		return p
	})
	// A second update supersedes the first before it settles.
	s.Update(func(p scorePanel) scorePanel {
		p.Best = 3
		return p
	})

	first.Commit(context.Background(), func(context.Context) (scorePanel, error) {
		return scorePanel{Best: 2.5}, nil
	}, func(prev scorePanel) scorePanel { return prev })

	data, opt := s.Get()
	if !opt {
		t.Fatal("the newer update is still unsettled, flag must stay set")
	}
	if data.Best != 3 {
		t.Fatalf("stale settlement must not clobber the newer value, got %+v", data)
	}
}

func TestStaleFailedCommitDoesNotRollBack(t *testing.T) {
	s := New(scorePanel{Best: 1})
	first := s.Update(func(p scorePanel) scorePanel {
		p.Best = 2
		return p
	})
	s.Update(func(p scorePanel) scorePanel {
		p.Best = 3
		return p
	})

	first.Commit(context.Background(), func(context.Context) (scorePanel, error) {
		return scorePanel{}, errors.New("write failed")
	}, func(prev scorePanel) scorePanel { return prev })

	data, _ := s.Get()
	if data.Best != 3 {
		t.Fatalf("stale failure must not roll back the newer value, got %+v", data)
	}
}
