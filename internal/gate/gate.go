// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gate decides whether the signed-in worker may enter a task room.
//
// Directors skip per-worker validation and only need the task to exist;
// everyone else goes through the backend access check. The gate owns that
// branch so the UI never has to reason about roles.
package gate

import (
	"context"
	"errors"
	"strings"

	"github.com/taskdesk/taskchat-tui/internal/identity"
	"github.com/taskdesk/taskchat-tui/internal/model"
)

// ErrBlankTask is returned when the task field is empty after trimming.
var ErrBlankTask = errors.New("gate: task name must not be empty")

// TaskDirectory is the backend surface the gate needs. *api.Client
// satisfies it.
type TaskDirectory interface {
	GetTask(ctx context.Context, taskName string) (model.Task, error)
	ValidateTaskAccess(ctx context.Context, workerName, taskName, roleName string) (model.Task, error)
	TaskSuggestions(ctx context.Context) ([]model.TaskSuggestion, error)
}

// Result is a granted authorization.
type Result struct {
	// Task is the record the room will be joined with.
	Task model.Task
	// Identity is the worker the grant was issued for.
	Identity identity.Identity
	// Bypassed is true when the director shortcut skipped validation.
	Bypassed bool
}

// Gate authorizes entry to task rooms.
type Gate struct {
	dir   TaskDirectory
	store *identity.Store
}

// New creates a gate over the given backend and identity store.
func New(dir TaskDirectory, store *identity.Store) *Gate {
	return &Gate{dir: dir, store: store}
}

// Authorize checks whether the signed-in worker may enter taskName.
//
// Possible failures: ErrBlankTask for empty input, identity.ErrNotSignedIn
// when no one is logged in, api.ErrTaskNotFound and api.ErrAccessDenied
// from the backend, or a transport error.
func (g *Gate) Authorize(ctx context.Context, taskName string) (Result, error) {
	taskName = strings.TrimSpace(taskName)
	if taskName == "" {
		return Result{}, ErrBlankTask
	}

	id, err := g.store.Current()
	if err != nil {
		return Result{}, err
	}

	role := id.Role()
	if role.BypassesAccessCheck() {
		task, err := g.dir.GetTask(ctx, taskName)
		if err != nil {
			return Result{}, err
		}
		return Result{Task: task, Identity: id, Bypassed: true}, nil
	}

	task, err := g.dir.ValidateTaskAccess(ctx, id.Name, taskName, role.String())
	if err != nil {
		return Result{}, err
	}
	return Result{Task: task, Identity: id}, nil
}

// Suggestions fetches the task directory and filters it by query. Failures
// here are advisory: the caller may still submit a task name by hand.
func (g *Gate) Suggestions(ctx context.Context, query string) ([]model.TaskSuggestion, error) {
	all, err := g.dir.TaskSuggestions(ctx)
	if err != nil {
		return nil, err
	}
	return model.FilterSuggestions(all, query), nil
}
