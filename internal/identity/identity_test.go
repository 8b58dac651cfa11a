// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/taskdesk/taskchat-tui/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "identity.json"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCurrentBeforeSignIn(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Current(); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("want ErrNotSignedIn, got %v", err)
	}
}

func TestSignInThenCurrent(t *testing.T) {
	s := newTestStore(t)
	if err := s.SignIn("ava", "Senior Director"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	id, err := s.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if id.Name != "ava" {
		t.Errorf("name = %q", id.Name)
	}
	if id.Role() != model.RoleDirector {
		t.Errorf("role = %v, want director", id.Role())
	}
}

func TestSignInRejectsBlankName(t *testing.T) {
	s := newTestStore(t)
	if err := s.SignIn("   ", "Associate"); err == nil {
		t.Error("blank name should be rejected")
	}
}

func TestSignOutIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.SignIn("ava", "Associate"); err != nil {
		t.Fatal(err)
	}
	if err := s.SignOut(); err != nil {
		t.Fatalf("first sign out: %v", err)
	}
	if err := s.SignOut(); err != nil {
		t.Fatalf("second sign out should be a no-op: %v", err)
	}
	if _, err := s.Current(); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("want ErrNotSignedIn after sign out, got %v", err)
	}
}

func TestReloadPicksUpExternalEdit(t *testing.T) {
	s := newTestStore(t)
	if err := s.SignIn("ava", "Associate"); err != nil {
		t.Fatal(err)
	}

	// Another process rewrites the file behind our back.
	external := `{"workerName":"kim","role":"Team Lead"}`
	if err := os.WriteFile(s.Path(), []byte(external), 0600); err != nil {
		t.Fatal(err)
	}

	id, err := s.Reload()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if id.Name != "kim" || id.Role() != model.RoleTeamLead {
		t.Errorf("reloaded identity = %+v", id)
	}
}

func TestReloadCorruptFile(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Reload(); err == nil {
		t.Error("corrupt file should surface an error")
	}
}

func TestWatcherSeesSignOut(t *testing.T) {
	s := newTestStore(t)
	if err := s.SignIn("ava", "Associate"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var lastErr error
	fired := make(chan struct{}, 8)

	_, err := Watch(ctx, s, func(id Identity, err error) {
		mu.Lock()
		lastErr = err
		mu.Unlock()
		fired <- struct{}{}
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := os.Remove(s.Path()); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case <-fired:
			mu.Lock()
			err := lastErr
			mu.Unlock()
			if errors.Is(err, ErrNotSignedIn) {
				return
			}
		case <-deadline:
			t.Fatal("watcher never reported the sign-out")
		}
	}
}
