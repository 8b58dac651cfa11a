// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package room

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/taskdesk/taskchat-tui/internal/channel"
	"github.com/taskdesk/taskchat-tui/internal/identity"
	"github.com/taskdesk/taskchat-tui/internal/model"
)

// =============================================================================
// FAKES
// =============================================================================

// eventLog records teardown steps across fakes so tests can assert order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeIDs struct {
	mu       sync.Mutex
	id       identity.Identity
	signOuts int
	log      *eventLog
}

func (f *fakeIDs) Current() (identity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.id.Name == "" {
		return identity.Identity{}, identity.ErrNotSignedIn
	}
	return f.id, nil
}

func (f *fakeIDs) SignOut() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	f.id = identity.Identity{}
	if f.log != nil {
		f.log.add("signout")
	}
	return nil
}

func (f *fakeIDs) set(name, role string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.id = identity.Identity{Name: name, RoleName: role}
}

type fakeChannel struct {
	mu          sync.Mutex
	joins       []string
	taskJoins   [][2]string
	sent        []model.Message
	taskSent    []channel.TaskMessage
	closeCalls  int
	sendErr     error
	taskSendErr error
	log         *eventLog
}

func (f *fakeChannel) JoinGeneral(username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins = append(f.joins, username)
	return nil
}

func (f *fakeChannel) JoinTaskRoom(taskName, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taskJoins = append(f.taskJoins, [2]string{taskName, username})
	return nil
}

func (f *fakeChannel) SendMessage(msg model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeChannel) SendTaskMessage(msg channel.TaskMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.taskSendErr != nil {
		return f.taskSendErr
	}
	f.taskSent = append(f.taskSent, msg)
	return nil
}

func (f *fakeChannel) Connected() bool { return true }

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	if f.log != nil {
		f.log.add("close")
	}
	return nil
}

type fakeUploader struct {
	url     string
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeUploader) UploadFile(ctx context.Context, path string) (string, string, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return "", "", f.err
	}
	return f.url, "report.pdf", nil
}

// =============================================================================
// TASK ROOM
// =============================================================================

func newTaskRoom(t *testing.T) (*TaskRoom, *fakeIDs, *fakeChannel, *fakeUploader) {
	t.Helper()
	ids := &fakeIDs{}
	ids.set("ava", "Associate")
	ch := &fakeChannel{}
	up := &fakeUploader{url: "/uploads/report.pdf"}
	r, err := NewTaskRoom(model.Task{Task: "launch-42", Name: "Launch"}, ids, ch, up)
	if err != nil {
		t.Fatal(err)
	}
	return r, ids, ch, up
}

func TestMissingRoomKeyEndsSession(t *testing.T) {
	ids := &fakeIDs{}
	ids.set("ava", "Associate")
	ch := &fakeChannel{}

	_, err := NewTaskRoom(model.Task{Name: "Broken"}, ids, ch, &fakeUploader{})
	if !errors.Is(err, ErrMissingRoomKey) {
		t.Fatalf("want ErrMissingRoomKey, got %v", err)
	}
	if ids.signOuts != 1 {
		t.Errorf("sign outs = %d, want exactly 1", ids.signOuts)
	}
	if len(ch.taskJoins) != 0 {
		t.Error("no join may be sent for a broken task record")
	}
}

func TestTaskRoomJoin(t *testing.T) {
	r, _, ch, _ := newTaskRoom(t)

	if r.State() != StateConnecting {
		t.Errorf("initial state = %v", r.State())
	}
	if err := r.Join(); err != nil {
		t.Fatalf("join: %v", err)
	}
	if r.State() != StateJoined {
		t.Errorf("state after join = %v", r.State())
	}
	if len(ch.taskJoins) != 1 || ch.taskJoins[0] != [2]string{"launch-42", "ava"} {
		t.Errorf("joins = %v", ch.taskJoins)
	}
}

func TestSendTextBlankKeepsDraft(t *testing.T) {
	r, _, ch, _ := newTaskRoom(t)
	if err := r.SendText("   \t  "); !errors.Is(err, ErrBlankMessage) {
		t.Errorf("want ErrBlankMessage, got %v", err)
	}
	if len(ch.taskSent) != 0 {
		t.Error("blank draft must not reach the wire")
	}
}

func TestSendTextTrimsAndStamps(t *testing.T) {
	r, _, ch, _ := newTaskRoom(t)
	if err := r.SendText("  status?  "); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(ch.taskSent) != 1 {
		t.Fatalf("sent = %d", len(ch.taskSent))
	}
	msg := ch.taskSent[0]
	if msg.TaskName != "launch-42" {
		t.Errorf("taskName = %q", msg.TaskName)
	}
	if msg.Content != "status?" {
		t.Errorf("content = %q", msg.Content)
	}
	if msg.From != "ava" {
		t.Errorf("from = %q", msg.From)
	}
	if msg.Timestamp.IsZero() || msg.Time == "" {
		t.Error("outbound message must carry timestamp and clock")
	}
}

func TestSendTextReadsIdentityAtSendTime(t *testing.T) {
	r, ids, ch, _ := newTaskRoom(t)
	if err := r.SendText("one"); err != nil {
		t.Fatal(err)
	}
	ids.set("kim", "Associate")
	if err := r.SendText("two"); err != nil {
		t.Fatal(err)
	}
	if ch.taskSent[0].From != "ava" || ch.taskSent[1].From != "kim" {
		t.Errorf("senders = %q, %q", ch.taskSent[0].From, ch.taskSent[1].From)
	}
}

func TestSendTextAfterSignOut(t *testing.T) {
	r, ids, _, _ := newTaskRoom(t)
	ids.SignOut()
	if err := r.SendText("hello"); !errors.Is(err, identity.ErrNotSignedIn) {
		t.Errorf("want ErrNotSignedIn, got %v", err)
	}
}

func TestShareFileAnnouncesUpload(t *testing.T) {
	r, _, ch, _ := newTaskRoom(t)
	if err := r.ShareFile(context.Background(), "/tmp/report.pdf"); err != nil {
		t.Fatalf("share: %v", err)
	}
	if len(ch.taskSent) != 1 {
		t.Fatalf("sent = %d", len(ch.taskSent))
	}
	msg := ch.taskSent[0]
	if msg.Content != "Shared a file: report.pdf" {
		t.Errorf("content = %q", msg.Content)
	}
	if msg.FileURL != "/uploads/report.pdf" || msg.FileName != "report.pdf" {
		t.Errorf("file fields = %q %q", msg.FileURL, msg.FileName)
	}
}

func TestShareFileSerialized(t *testing.T) {
	ids := &fakeIDs{}
	ids.set("ava", "Associate")
	ch := &fakeChannel{}
	up := &fakeUploader{
		url:     "/uploads/report.pdf",
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	r, err := NewTaskRoom(model.Task{Task: "launch-42"}, ids, ch, up)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- r.ShareFile(context.Background(), "/tmp/a.pdf") }()
	<-up.started

	if !r.Uploading() {
		t.Error("room should report an upload in flight")
	}
	if err := r.ShareFile(context.Background(), "/tmp/b.pdf"); !errors.Is(err, ErrUploadInFlight) {
		t.Errorf("want ErrUploadInFlight, got %v", err)
	}

	close(up.release)
	if err := <-done; err != nil {
		t.Fatalf("first share: %v", err)
	}
	if r.Uploading() {
		t.Error("upload flag must clear after completion")
	}
}

func TestShareFileUploadFailureSendsNothing(t *testing.T) {
	ids := &fakeIDs{}
	ids.set("ava", "Associate")
	ch := &fakeChannel{}
	up := &fakeUploader{err: errors.New("backend rejected")}
	r, err := NewTaskRoom(model.Task{Task: "launch-42"}, ids, ch, up)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.ShareFile(context.Background(), "/tmp/a.pdf"); err == nil {
		t.Fatal("expected upload error")
	}
	if len(ch.taskSent) != 0 {
		t.Error("failed upload must not announce anything")
	}
	if r.Uploading() {
		t.Error("upload flag must clear after failure")
	}
}

func TestReceiveFiltersOtherRooms(t *testing.T) {
	r, _, _, _ := newTaskRoom(t)
	r.Receive(channel.TaskMessage{TaskName: "launch-42", Message: model.NewTextMessage("kim", "ours")})
	r.Receive(channel.TaskMessage{TaskName: "audit-7", Message: model.NewTextMessage("kim", "theirs")})

	msgs := r.Messages()
	if len(msgs) != 1 || msgs[0].Content != "ours" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestHydrateHistoryReplacesBuffer(t *testing.T) {
	r, _, _, _ := newTaskRoom(t)
	r.Receive(channel.TaskMessage{TaskName: "launch-42", Message: model.NewTextMessage("kim", "stale")})

	r.HydrateHistory([]model.Message{
		model.NewTextMessage("ava", "one"),
		model.NewTextMessage("kim", "two"),
	})

	msgs := r.Messages()
	if len(msgs) != 2 || msgs[0].Content != "one" {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestLogoutDisconnectsThenSignsOut(t *testing.T) {
	r, ids, ch, _ := newTaskRoom(t)
	log := &eventLog{}
	ids.log = log
	ch.log = log
	if err := r.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ids.signOuts != 1 {
		t.Errorf("sign outs = %d", ids.signOuts)
	}
	if ch.closeCalls != 1 {
		t.Errorf("close calls = %d", ch.closeCalls)
	}
	if got := log.all(); len(got) != 2 || got[0] != "close" || got[1] != "signout" {
		t.Errorf("teardown order = %v, want [close signout]", got)
	}
	if r.State() != StateClosed {
		t.Errorf("state = %v", r.State())
	}
	// Closed room refuses further sends.
	if err := r.SendText("late"); !errors.Is(err, ErrClosed) {
		t.Errorf("want ErrClosed, got %v", err)
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	r, _, ch, _ := newTaskRoom(t)
	if err := r.Leave(); err != nil {
		t.Fatal(err)
	}
	if err := r.Leave(); err != nil {
		t.Fatal(err)
	}
	if ch.closeCalls != 1 {
		t.Errorf("close calls = %d, want 1", ch.closeCalls)
	}
}

// =============================================================================
// GENERAL ROOM
// =============================================================================

func TestGeneralRoomJoinAndSend(t *testing.T) {
	ids := &fakeIDs{}
	ids.set("ava", "Associate")
	ch := &fakeChannel{}
	r := NewGeneralRoom(ids, ch, 0)

	if err := r.Join(); err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(ch.joins) != 1 || ch.joins[0] != "ava" {
		t.Errorf("joins = %v", ch.joins)
	}

	if err := r.SendText("hello all"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(ch.sent) != 1 || ch.sent[0].Content != "hello all" {
		t.Errorf("sent = %+v", ch.sent)
	}
}

func TestGeneralRoomCooldown(t *testing.T) {
	ids := &fakeIDs{}
	ids.set("ava", "Associate")
	ch := &fakeChannel{}
	r := NewGeneralRoom(ids, ch, 80*time.Millisecond)

	if err := r.SendText("first"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := r.SendText("second"); !errors.Is(err, ErrSendCooldown) {
		t.Errorf("want ErrSendCooldown, got %v", err)
	}

	time.Sleep(120 * time.Millisecond)
	if err := r.SendText("third"); err != nil {
		t.Errorf("send after cooldown: %v", err)
	}
	if len(ch.sent) != 2 {
		t.Errorf("sent = %d, want 2", len(ch.sent))
	}
}

func TestGeneralRoomBlankDraft(t *testing.T) {
	ids := &fakeIDs{}
	ids.set("ava", "Associate")
	ch := &fakeChannel{}
	r := NewGeneralRoom(ids, ch, 0)

	if err := r.SendText(""); !errors.Is(err, ErrBlankMessage) {
		t.Errorf("want ErrBlankMessage, got %v", err)
	}
	if len(ch.sent) != 0 {
		t.Error("blank draft must not reach the wire")
	}
}
