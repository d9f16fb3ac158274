// Package tui is the reference terminal front end: tcell-backed views over
// the session engine, plus the collaborator implementations the engine
// requires (source display, cursor context, disambiguation, path
// completion).
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/gdbmi/internal/app"
	"github.com/dshills/gdbmi/internal/session"
)

// paneID identifies a focusable pane.
type paneID int

const (
	paneThreads paneID = iota
	paneFrames
	paneBreakpoints
	paneConsole
)

// UI owns the terminal screen and renders session state.
type UI struct {
	mu     sync.Mutex
	screen tcell.Screen
	sess   *session.Session
	log    *app.Logger

	focus        paneID
	threadCursor int
	frameCursor  int

	// Cached session state, refreshed on every redraw. The session may call
	// the cursor-context methods while holding its own lock, so those methods
	// must never call back into the session; they read this cache instead.
	threads  []session.Thread
	frames   []session.Frame
	bps      []session.Breakpoint
	selected int

	srcPath   string
	srcLine   int
	srcMarked bool
	srcLines  []string

	disasm []string

	status string
	quit   chan struct{}
}

// disasmView receives disassembly text for the source pane overlay.
type disasmView struct {
	ui *UI
}

func (d disasmView) ViewKind() session.ViewKind { return session.ViewDisassembly }

func (d disasmView) Redraw() { d.ui.Redraw() }

// SetDisassembly replaces the disassembly listing (session.DisassemblySink).
func (d disasmView) SetDisassembly(lines []string) {
	d.ui.mu.Lock()
	d.ui.disasm = lines
	d.ui.mu.Unlock()
}

// pane adapts one view kind onto the UI's full-screen redraw.
type pane struct {
	ui   *UI
	kind session.ViewKind
}

// ViewKind reports the pane's view category.
func (p pane) ViewKind() session.ViewKind { return p.kind }

// Redraw re-renders the screen.
func (p pane) Redraw() { p.ui.Redraw() }

// New initializes the screen and registers the UI's panes and collaborator
// implementations with the session.
func New(sess *session.Session, log *app.Logger) (*UI, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}

	if log == nil {
		log = app.NullLogger
	}
	ui := &UI{
		screen: screen,
		sess:   sess,
		log:    log.WithComponent("tui"),
		quit:   make(chan struct{}),
		status: "no session",
	}

	for _, kind := range []session.ViewKind{
		session.ViewThreads, session.ViewFrames, session.ViewBreakpoints,
		session.ViewConsole, session.ViewSource,
	} {
		sess.Views().Register(pane{ui: ui, kind: kind})
	}
	sess.Views().Register(disasmView{ui: ui})
	sess.SetSourceDisplay(ui)
	sess.SetCursorContext(ui)
	sess.SetChooser(ui)
	sess.SetPathCompleter(ui)
	sess.OnEnded(func(err error) {
		ui.mu.Lock()
		if err != nil {
			ui.status = fmt.Sprintf("session ended: %v", err)
		} else {
			ui.status = "session ended"
		}
		ui.mu.Unlock()
	})

	return ui, nil
}

// Shutdown restores the terminal.
func (ui *UI) Shutdown() {
	ui.screen.Fini()
}

// Run processes input until quit.
func (ui *UI) Run() {
	ui.Redraw()
	for {
		select {
		case <-ui.quit:
			return
		default:
		}

		ev := ui.screen.PollEvent()
		if ev == nil {
			// Screen finalized.
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			ui.screen.Sync()
			ui.Redraw()
		case *tcell.EventKey:
			if !ui.handleKey(ev) {
				return
			}
		}
	}
}

// handleKey returns false when the UI should exit.
func (ui *UI) handleKey(ev *tcell.EventKey) bool {
	switch {
	case ev.Key() == tcell.KeyCtrlC, ev.Rune() == 'q':
		close(ui.quit)
		return false
	case ev.Key() == tcell.KeyTab:
		ui.mu.Lock()
		ui.focus = (ui.focus + 1) % 4
		ui.mu.Unlock()
		ui.Redraw()
	case ev.Key() == tcell.KeyUp:
		ui.moveCursor(-1)
	case ev.Key() == tcell.KeyDown:
		ui.moveCursor(1)
	case ev.Key() == tcell.KeyEnter:
		ui.activateCursor()
	case ev.Rune() == 'r':
		ui.sess.Run()
	case ev.Rune() == 'c':
		ui.sess.Continue()
	case ev.Rune() == 'n':
		ui.sess.Next()
	case ev.Rune() == 's':
		ui.sess.Step()
	case ev.Rune() == 'f':
		ui.sess.Finish()
	case ev.Rune() == 'i':
		ui.sess.Interrupt()
	case ev.Rune() == 't':
		ui.sess.RequestThreads()
	case ev.Rune() == 'a':
		ui.sess.RequestDisassembly(disasmView{ui: ui})
	case ev.Rune() == 'b':
		if loc, ok := ui.prompt("break at"); ok && loc != "" {
			ui.sess.BreakInsert(loc)
		}
	case ev.Rune() == 'd':
		ui.deleteCursorBreakpoint()
	}
	return true
}

func (ui *UI) moveCursor(delta int) {
	ui.mu.Lock()
	switch ui.focus {
	case paneThreads:
		ui.threadCursor = clamp(ui.threadCursor+delta, 0, len(ui.threads)-1)
	case paneFrames:
		ui.frameCursor = clamp(ui.frameCursor+delta, 0, len(ui.frames)-1)
	case paneBreakpoints:
		ui.threadCursor = clamp(ui.threadCursor+delta, 0, len(ui.bps)-1)
	}
	ui.mu.Unlock()
	ui.Redraw()
}

func (ui *UI) activateCursor() {
	ui.mu.Lock()
	focus := ui.focus
	fc := ui.frameCursor
	tid := 0
	if ui.threadCursor >= 0 && ui.threadCursor < len(ui.threads) {
		tid = ui.threads[ui.threadCursor].ID
	}
	ui.mu.Unlock()

	switch focus {
	case paneThreads:
		if tid != 0 {
			ui.sess.SelectThread(tid, true)
		}
	case paneFrames:
		ui.sess.SelectFrame(fc)
	}
}

func (ui *UI) deleteCursorBreakpoint() {
	ui.mu.Lock()
	focus := ui.focus
	num := 0
	if ui.threadCursor >= 0 && ui.threadCursor < len(ui.bps) {
		num = ui.bps[ui.threadCursor].Number
	}
	ui.mu.Unlock()
	if focus == paneBreakpoints && num != 0 {
		ui.sess.BreakDelete(num)
	}
}

// Collaborator implementations.

// Show displays and marks a source location (session.SourceDisplay).
func (ui *UI) Show(path string, line int) {
	ui.mu.Lock()
	if path != ui.srcPath {
		ui.srcLines = readLines(path)
	}
	ui.srcPath = path
	ui.srcLine = line
	ui.srcMarked = true
	ui.mu.Unlock()
	ui.Redraw()
}

// Clear removes the current-location marker (session.SourceDisplay).
func (ui *UI) Clear() {
	ui.mu.Lock()
	ui.srcMarked = false
	ui.mu.Unlock()
	ui.Redraw()
}

// CursorThread reports the thread under the cursor (session.CursorContext).
func (ui *UI) CursorThread() (int, bool) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	if ui.focus != paneThreads {
		return 0, false
	}
	if ui.threadCursor < 0 || ui.threadCursor >= len(ui.threads) {
		return 0, false
	}
	return ui.threads[ui.threadCursor].ID, true
}

// CursorFrame reports the frame level under the cursor.
func (ui *UI) CursorFrame() (int, bool) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	if ui.focus != paneFrames {
		return 0, false
	}
	return ui.frameCursor, true
}

// CursorViewThread reports the thread the frame pane is rendering.
func (ui *UI) CursorViewThread() (int, bool) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	if ui.focus != paneFrames || ui.selected == 0 {
		return 0, false
	}
	return ui.selected, true
}

// Choose presents a disambiguation list (session.Chooser).
func (ui *UI) Choose(title string, options []session.ChoiceOption) (int, bool) {
	if len(options) == 0 {
		return 0, false
	}
	cursor := 0
	for {
		ui.drawChooser(title, options, cursor)
		raw := ui.screen.PollEvent()
		if raw == nil {
			return 0, false
		}
		ev, ok := raw.(*tcell.EventKey)
		if !ok {
			continue
		}
		switch ev.Key() {
		case tcell.KeyUp:
			cursor = clamp(cursor-1, 0, len(options)-1)
		case tcell.KeyDown:
			cursor = clamp(cursor+1, 0, len(options)-1)
		case tcell.KeyEnter:
			ui.Redraw()
			return options[cursor].ID, true
		case tcell.KeyEscape:
			ui.Redraw()
			return 0, false
		}
	}
}

// Complete maps a protocol path to a local one (session.PathCompleter).
func (ui *UI) Complete(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
	}
	return path
}

// prompt reads one input line in a modal bar at the bottom of the screen.
func (ui *UI) prompt(title string) (string, bool) {
	var input []rune
	for {
		ui.drawPrompt(title, string(input))
		raw := ui.screen.PollEvent()
		if raw == nil {
			return "", false
		}
		ev, ok := raw.(*tcell.EventKey)
		if !ok {
			continue
		}
		switch ev.Key() {
		case tcell.KeyEnter:
			ui.Redraw()
			return string(input), true
		case tcell.KeyEscape:
			ui.Redraw()
			return "", false
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			if len(input) > 0 {
				input = input[:len(input)-1]
			}
		default:
			if ev.Rune() != 0 {
				input = append(input, ev.Rune())
			}
		}
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// readLines loads a source file for the source pane. Errors degrade to an
// empty pane; the marker logic does not depend on file readability.
func readLines(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
}
