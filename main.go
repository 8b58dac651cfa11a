// taskchat TUI - A terminal client for task-scoped team chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/taskdesk/taskchat-tui/internal/api"
	"github.com/taskdesk/taskchat-tui/internal/channel"
	"github.com/taskdesk/taskchat-tui/internal/config"
	taskgate "github.com/taskdesk/taskchat-tui/internal/gate"
	"github.com/taskdesk/taskchat-tui/internal/identity"
	"github.com/taskdesk/taskchat-tui/internal/model"
	"github.com/taskdesk/taskchat-tui/internal/room"
	"github.com/taskdesk/taskchat-tui/internal/ui/chat"
	gateview "github.com/taskdesk/taskchat-tui/internal/ui/gate"
	"github.com/taskdesk/taskchat-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async channel events
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

// connectTimeout bounds a room's websocket dial, retries included.
const connectTimeout = 15 * time.Second

func main() {
	args := os.Args[1:]

	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "signin":
		if err := handleSignIn(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "signout":
		if err := handleSignOut(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "whoami":
		handleWhoami()
	case "version", "--version", "-v":
		fmt.Printf("taskchat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	case "help", "--help", "-h":
		printUsage()
	case "":
		runTUI()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`taskchat - terminal client for task-scoped team chat

Usage:
  taskchat                       Start the chat interface
  taskchat signin <name> <role>  Store the worker identity
  taskchat signout               Remove the stored identity
  taskchat whoami                Show the stored identity
  taskchat version               Print version information
  taskchat help                  Show this help
`)
}

// =============================================================================
// IDENTITY COMMANDS
// =============================================================================

func openStore() (*identity.Store, error) {
	cfg := config.Global()
	return identity.NewStore(cfg.Identity.Path)
}

func handleSignIn(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: taskchat signin <name> <role>")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.SignIn(args[0], args[1]); err != nil {
		return err
	}

	id, err := store.Current()
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (%s)\n", id.Name, id.Role().String())
	return nil
}

func handleSignOut() error {
	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.SignOut(); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

func handleWhoami() {
	store, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	id, err := store.Current()
	if errors.Is(err, identity.ErrNotSignedIn) {
		fmt.Println("Not signed in. Run 'taskchat signin <name> <role>' first.")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s (%s)\n", id.Name, id.Role().String())
}

// =============================================================================
// TUI STARTUP
// =============================================================================

// runTUI starts the chat interface.
func runTUI() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "taskchat requires an interactive terminal")
		os.Exit(1)
	}

	cfg := config.Global()

	store, err := identity.NewStore(cfg.Identity.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The sign-in step is a precondition, not a screen of this client.
	id, err := store.Current()
	if errors.Is(err, identity.ErrNotSignedIn) {
		fmt.Fprintln(os.Stderr, "Not signed in. Run 'taskchat signin <name> <role>' first.")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading identity: %v\n", err)
		os.Exit(1)
	}

	theme := styles.NewTheme()

	apiClient := api.NewClient(cfg.Server.BaseURL,
		api.WithTimeout(time.Duration(cfg.Server.RequestTimeoutSecs)*time.Second),
		api.WithMaxResponseBytes(cfg.Server.MaxResponseBytes),
		api.WithMaxUploadBytes(cfg.Upload.MaxBytes),
	)

	socketURL := cfg.Server.SocketURL
	if socketURL == "" {
		socketURL = config.DeriveSocketURL(cfg.Server.BaseURL)
	}

	app := NewApp(theme, cfg, store, apiClient, socketURL, id)

	p := tea.NewProgram(app, tea.WithAltScreen())

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	// Reload the identity record when another process edits it.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if cfg.Identity.Watch {
		_, err := identity.Watch(watchCtx, store, func(id identity.Identity, err error) {
			sendToProgram(IdentityChangedMsg{Identity: id, Err: err})
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: identity watch unavailable: %v\n", err)
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running taskchat: %v\n", err)
		os.Exit(1)
	}

	// Quitting from inside a room leaves its connection up; drop it here.
	if app.adapter != nil {
		if err := app.adapter.Close(); err != nil && !errors.Is(err, channel.ErrClosed) {
			fmt.Fprintf(os.Stderr, "Warning: channel close: %v\n", err)
		}
	}
}

// sendToProgram delivers a message into the running program, if any.
func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// bridgeHandlers maps channel events onto Bubble Tea messages.
func bridgeHandlers() channel.Handlers {
	return channel.Handlers{
		OnMessage: func(msg model.Message) {
			sendToProgram(chat.IncomingMessageMsg{Message: msg})
		},
		OnTaskMessage: func(msg channel.TaskMessage) {
			sendToProgram(chat.TaskMessageMsg{Message: msg})
		},
		OnHistory: func(msgs []model.Message) {
			sendToProgram(chat.HistoryMsg{Messages: msgs})
		},
		OnTaskHistory: func(msgs []model.Message) {
			sendToProgram(chat.HistoryMsg{Messages: msgs})
		},
		OnConnected: func() {
			sendToProgram(chat.ConnectedMsg{})
		},
		OnDisconnected: func(err error) {
			sendToProgram(chat.DisconnectedMsg{Err: err})
		},
		OnReconnecting: func(attempt int) {
			sendToProgram(chat.ReconnectingMsg{Attempt: attempt})
		},
		OnReconnectFailed: func() {
			sendToProgram(chat.ReconnectFailedMsg{})
		},
	}
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// State represents the current application view.
type State int

const (
	StateGate State = iota // Task selection and access check
	StateChat              // Inside a room
)

// IdentityChangedMsg reports an external edit to the identity file.
type IdentityChangedMsg struct {
	Identity identity.Identity
	Err      error
}

// App is the top-level Bubble Tea model.
type App struct {
	state State

	theme *styles.Theme

	width  int
	height int

	cfg       *config.Config
	store     *identity.Store
	apiClient *api.Client
	id        identity.Identity

	// Realtime connections are opened per room view and closed when the
	// view is left, never reused across rooms.
	socketURL string
	adapter   *channel.Adapter

	gateModel gateview.Model
	chatModel chat.Model
	hasChat   bool
}

// NewApp wires the top-level model.
func NewApp(theme *styles.Theme, cfg *config.Config, store *identity.Store, apiClient *api.Client, socketURL string, id identity.Identity) *App {
	g := taskgate.New(apiClient, store)
	return &App{
		state:     StateGate,
		theme:     theme,
		cfg:       cfg,
		store:     store,
		apiClient: apiClient,
		socketURL: socketURL,
		id:        id,
		gateModel: gateview.New(theme, g, id),
	}
}

// newRoomAdapter opens a fresh channel adapter for one room view.
func (a *App) newRoomAdapter() *channel.Adapter {
	return channel.New(a.socketURL, bridgeHandlers(), channel.Options{
		ReconnectAttempts: a.cfg.Channel.ReconnectAttempts,
		ReconnectDelay:    time.Duration(a.cfg.Channel.ReconnectDelayMS) * time.Millisecond,
		WriteTimeout:      time.Duration(a.cfg.Channel.WriteTimeoutSecs) * time.Second,
		PingInterval:      time.Duration(a.cfg.Channel.PingIntervalSecs) * time.Second,
	})
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the gate view. The realtime channel is dialed when a room
// is opened.
func (a *App) Init() tea.Cmd {
	return a.gateModel.Init()
}

func connectCmd(ad *channel.Adapter) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		if err := ad.Connect(ctx); err != nil {
			return chat.DisconnectedMsg{Err: err}
		}
		// OnConnected already delivered the state change.
		return nil
	}
}

// Update handles messages and updates the model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.gateModel, cmd = a.gateModel.Update(msg)
		cmds = append(cmds, cmd)
		if a.hasChat {
			a.chatModel, cmd = a.chatModel.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	// Room selection outcomes from the gate
	case gateview.GrantedMsg:
		return a.openTaskRoom(msg.Result)
	case gateview.GeneralSelectedMsg:
		return a.openGeneralRoom()

	// Room exits. The room closed its own connection on the way out.
	case chat.LeftRoomMsg:
		a.adapter = nil
		return a.returnToGate()
	case chat.LoggedOutMsg:
		a.adapter = nil
		return a, tea.Quit

	case chat.ConnectedMsg, chat.DisconnectedMsg, chat.ReconnectingMsg,
		chat.ReconnectFailedMsg,
		chat.HistoryMsg, chat.IncomingMessageMsg, chat.TaskMessageMsg:
		return a.forward(msg)

	case IdentityChangedMsg:
		return a.handleIdentityChange(msg)
	}

	// Everything else goes to the active view.
	var cmd tea.Cmd
	switch a.state {
	case StateGate:
		a.gateModel, cmd = a.gateModel.Update(msg)
	case StateChat:
		a.chatModel, cmd = a.chatModel.Update(msg)
	}
	return a, cmd
}

// forward hands a room-traffic message to the chat view when one is open.
func (a *App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !a.hasChat {
		return a, nil
	}
	var cmd tea.Cmd
	a.chatModel, cmd = a.chatModel.Update(msg)
	return a, cmd
}

// View renders the active view.
func (a *App) View() string {
	switch a.state {
	case StateChat:
		return a.chatModel.View()
	default:
		return a.gateModel.View()
	}
}

// =============================================================================
// ROOM TRANSITIONS
// =============================================================================

func (a *App) openTaskRoom(res taskgate.Result) (tea.Model, tea.Cmd) {
	ad := a.newRoomAdapter()
	r, err := room.NewTaskRoom(res.Task, a.store, ad, a.apiClient)
	if err != nil {
		// The gate vetted the task, so this is a record problem.
		ad.Close()
		var cmd tea.Cmd
		a.gateModel, cmd = a.gateModel.Update(gateview.AuthorizeResultMsg{Err: err})
		return a, cmd
	}
	// The join lands before the dial completes; the adapter remembers it
	// and replays it once connected.
	if err := r.Join(); err != nil && !errors.Is(err, channel.ErrNotConnected) {
		ad.Close()
		var cmd tea.Cmd
		a.gateModel, cmd = a.gateModel.Update(gateview.AuthorizeResultMsg{Err: err})
		return a, cmd
	}

	a.adapter = ad
	m := chat.NewTaskModel(a.theme, r, res.Identity.Name, a.cfg.Export.Dir, res.Bypassed)
	return a.enterRoom(m)
}

func (a *App) openGeneralRoom() (tea.Model, tea.Cmd) {
	ad := a.newRoomAdapter()
	cooldown := time.Duration(a.cfg.General.ResendCooldownMS) * time.Millisecond
	r := room.NewGeneralRoom(a.store, ad, cooldown)
	if err := r.Join(); err != nil && !errors.Is(err, channel.ErrNotConnected) {
		ad.Close()
		var cmd tea.Cmd
		a.gateModel, cmd = a.gateModel.Update(gateview.AuthorizeResultMsg{Err: err})
		return a, cmd
	}

	a.adapter = ad
	m := chat.NewGeneralModel(a.theme, r, a.cfg.General.RoomKey, a.id.Name, a.cfg.Export.Dir)
	return a.enterRoom(m)
}

// enterRoom switches to the chat view and dials the room's connection.
func (a *App) enterRoom(m chat.Model) (tea.Model, tea.Cmd) {
	a.chatModel = m
	a.hasChat = true
	a.state = StateChat

	cmds := []tea.Cmd{a.chatModel.Init(), connectCmd(a.adapter)}
	if a.width > 0 {
		var cmd tea.Cmd
		a.chatModel, cmd = a.chatModel.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a *App) returnToGate() (tea.Model, tea.Cmd) {
	a.hasChat = false
	a.state = StateGate

	g := taskgate.New(a.apiClient, a.store)
	a.gateModel = gateview.New(a.theme, g, a.id)

	cmds := []tea.Cmd{a.gateModel.Init()}
	if a.width > 0 {
		var cmd tea.Cmd
		a.gateModel, cmd = a.gateModel.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

// handleIdentityChange reacts to the identity file changing under us.
func (a *App) handleIdentityChange(msg IdentityChangedMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.Err, identity.ErrNotSignedIn) {
		// Signed out elsewhere; the session cannot continue.
		return a, tea.Quit
	}
	if msg.Err == nil {
		a.id = msg.Identity
	}
	return a, nil
}
