package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/gdbmi/internal/session"
)

var (
	styleDefault  = tcell.StyleDefault
	styleTitle    = tcell.StyleDefault.Bold(true)
	styleCursor   = tcell.StyleDefault.Reverse(true)
	styleMarker   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleStopped  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleRunning  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleDisabled = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// Redraw snapshots session state and renders the full screen. Session
// accessors are called before taking ui.mu so the UI lock is never held
// while locking the session.
func (ui *UI) Redraw() {
	threads := ui.sess.Threads()
	selected := ui.sess.SelectedThread()
	var frames []session.Frame
	if th, ok := ui.sess.Thread(selected); ok {
		frames = th.Frames
	}
	bps := ui.sess.Breakpoints()
	console := ui.sess.ConsoleLines()
	alive := ui.sess.Alive()

	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.threads = threads
	ui.frames = frames
	ui.bps = bps
	ui.selected = selected
	ui.redrawLocked(console, alive)
}

// Layout:
//
//	+----------------+--------------------------+
//	| threads        | source / disassembly     |
//	+----------------+                          |
//	| frames         |                          |
//	+----------------+-----------+--------------+
//	| console                    | breakpoints  |
//	+----------------------------+--------------+
func (ui *UI) redrawLocked(console []string, alive bool) {
	ui.screen.Clear()
	w, h := ui.screen.Size()
	if w < 20 || h < 8 {
		ui.screen.Show()
		return
	}

	leftW := w / 3
	bottomH := h / 4
	if bottomH < 4 {
		bottomH = 4
	}
	topH := h - bottomH - 1
	threadsH := topH / 2

	ui.drawThreads(0, 1, leftW, threadsH)
	ui.drawFrames(0, 1+threadsH, leftW, topH-threadsH)
	ui.drawSource(leftW+1, 1, w-leftW-1, topH)
	ui.drawConsole(0, 1+topH, w-w/4, bottomH, console)
	ui.drawBreakpoints(w-w/4+1, 1+topH, w/4-1, bottomH)
	ui.drawHeader(w, alive)

	ui.screen.Show()
}

func (ui *UI) drawHeader(w int, alive bool) {
	state := "dead"
	if alive {
		state = "alive"
	}
	text := fmt.Sprintf(" gdbmi  [%s]  %s", state, ui.status)
	ui.drawText(0, 0, w, text, styleTitle)
}

func (ui *UI) drawThreads(x, y, w, h int) {
	ui.paneTitle(x, y, w, "Threads", ui.focus == paneThreads)
	for i, th := range ui.threads {
		if i >= h-1 {
			break
		}
		mark := " "
		if th.ID == ui.selected {
			mark = "*"
		}
		style := styleRunning
		if th.State == session.StateStopped {
			style = styleStopped
		}
		if ui.focus == paneThreads && i == ui.threadCursor {
			style = styleCursor
		}
		line := fmt.Sprintf("%s %d %-8s %s", mark, th.ID, th.State, th.Name)
		ui.drawText(x, y+1+i, w, line, style)
	}
}

func (ui *UI) drawFrames(x, y, w, h int) {
	ui.paneTitle(x, y, w, "Frames", ui.focus == paneFrames)
	for i, fr := range ui.frames {
		if i >= h-1 {
			break
		}
		style := styleDefault
		if ui.focus == paneFrames && i == ui.frameCursor {
			style = styleCursor
		}
		loc := fr.Addr
		if fr.HasSource() {
			loc = fmt.Sprintf("%s:%d", fr.File, fr.Line)
		}
		line := fmt.Sprintf("#%d %s %s", fr.Level, fr.Func, loc)
		ui.drawText(x, y+1+i, w, line, style)
	}
}

// drawSource renders the source pane, or the last disassembly listing when
// no source file is loaded.
func (ui *UI) drawSource(x, y, w, h int) {
	title := "Source"
	if ui.srcPath != "" {
		title = "Source " + ui.srcPath
	}
	ui.paneTitle(x, y, w, title, false)

	if len(ui.srcLines) == 0 {
		for i, line := range ui.disasm {
			if i >= h-1 {
				break
			}
			ui.drawText(x, y+1+i, w, line, styleDefault)
		}
		return
	}

	// Center the marked line in the pane.
	rows := h - 1
	first := ui.srcLine - rows/2
	if first < 1 {
		first = 1
	}
	for i := 0; i < rows; i++ {
		ln := first + i
		if ln > len(ui.srcLines) {
			break
		}
		style := styleDefault
		prefix := "  "
		if ui.srcMarked && ln == ui.srcLine {
			style = styleMarker
			prefix = "=>"
		}
		line := fmt.Sprintf("%s%4d  %s", prefix, ln, ui.srcLines[ln-1])
		ui.drawText(x, y+1+i, w, line, style)
	}
}

func (ui *UI) drawConsole(x, y, w, h int, lines []string) {
	ui.paneTitle(x, y, w, "Console", ui.focus == paneConsole)
	rows := h - 1
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	for i, line := range lines {
		ui.drawText(x, y+1+i, w, line, styleDefault)
	}
}

func (ui *UI) drawBreakpoints(x, y, w, h int) {
	ui.paneTitle(x, y, w, "Breakpoints", ui.focus == paneBreakpoints)
	for i, bp := range ui.bps {
		if i >= h-1 {
			break
		}
		style := styleDefault
		if !bp.Enabled {
			style = styleDisabled
		}
		if ui.focus == paneBreakpoints && i == ui.threadCursor {
			style = styleCursor
		}
		line := fmt.Sprintf("%d %s", bp.Number, bp.Description)
		if bp.Hits != "" && bp.Hits != "0" {
			line += fmt.Sprintf(" (hit %s)", bp.Hits)
		}
		ui.drawText(x, y+1+i, w, line, style)
	}
}

func (ui *UI) paneTitle(x, y, w int, title string, focused bool) {
	style := styleTitle
	if focused {
		style = styleTitle.Underline(true)
	}
	ui.drawText(x, y, w, title, style)
}

// drawChooser renders a modal option list over the current screen.
func (ui *UI) drawChooser(title string, options []session.ChoiceOption, cursor int) {
	w, h := ui.screen.Size()
	boxW := w / 2
	boxX := (w - boxW) / 2
	boxY := h / 4

	ui.drawText(boxX, boxY, boxW, " "+title, styleTitle.Reverse(true))
	for i, opt := range options {
		if boxY+1+i >= h {
			break
		}
		style := styleDefault.Reverse(false)
		if i == cursor {
			style = styleCursor
		}
		ui.drawText(boxX, boxY+1+i, boxW, fmt.Sprintf(" %s", opt.Label), style)
	}
	ui.screen.Show()
}

// drawPrompt renders the modal input bar.
func (ui *UI) drawPrompt(title, input string) {
	w, h := ui.screen.Size()
	ui.drawText(0, h-1, w, fmt.Sprintf("%s: %s", title, input), styleTitle.Reverse(true))
	ui.screen.ShowCursor(len(title)+2+len(input), h-1)
	ui.screen.Show()
}

// drawText writes a clipped, padded row of text.
func (ui *UI) drawText(x, y, w int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col >= x+w {
			break
		}
		ui.screen.SetContent(col, y, r, nil, style)
		col++
	}
	for ; col < x+w; col++ {
		ui.screen.SetContent(col, y, ' ', nil, style)
	}
}
