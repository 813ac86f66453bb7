// Package console renders download/resolution progress to a terminal: a
// single byte-count progress bar plus interleaved status lines that never
// tear the bar mid-render. Grounded on console/progress.go's queue-fed
// worker goroutine, pb.ProgressBar, and wsxiaoys/terminal color codes,
// generalized from mirror/publish phrasing to fetch/resolve/download
// phrasing.
package console

import (
	"fmt"
	"os"
	"strings"

	"github.com/cheggaaa/pb"
	"github.com/wsxiaoys/terminal/color"
)

const (
	codePrint = iota
	codePrintStdErr
	codeProgress
	codeHideProgress
	codeStop
	codeFlush
	codeBarEnabled
	codeBarDisabled
)

type printTask struct {
	code    int
	message string
	reply   chan bool
}

// Progress renders aptprep's download/resolution status: plain and colored
// status lines, interleaved with a byte-count progress bar, all funneled
// through a single worker goroutine so concurrent downloaders never
// interleave their output mid-line.
type Progress struct {
	stopped  chan bool
	queue    chan printTask
	bar      *pb.ProgressBar
	barShown bool
}

// NewProgress creates a new Progress. Callers must call Start before
// sending any output and Shutdown when done.
func NewProgress() *Progress {
	return &Progress{
		stopped: make(chan bool),
		queue:   make(chan printTask, 100),
	}
}

// Start launches the rendering worker.
func (p *Progress) Start() {
	go p.worker()
}

// Shutdown stops the bar (if any) and drains the worker.
func (p *Progress) Shutdown() {
	p.ShutdownBar()
	p.queue <- printTask{code: codeStop}
	<-p.stopped
}

// Flush blocks until every message queued so far has been rendered.
func (p *Progress) Flush() {
	ch := make(chan bool)
	p.queue <- printTask{code: codeFlush, reply: ch}
	<-ch
}

// InitBar starts a byte-count progress bar for a download run totaling
// totalBytes. A no-op when stdout isn't a terminal.
func (p *Progress) InitBar(totalBytes int64) {
	if p.bar != nil {
		panic("bar already initialized")
	}
	if !RunningOnTerminal() {
		return
	}

	p.bar = pb.New(0)
	p.bar.Total = totalBytes
	p.bar.NotPrint = true
	p.bar.SetUnits(pb.U_BYTES)
	p.bar.ShowSpeed = true
	p.bar.Callback = func(out string) {
		p.queue <- printTask{code: codeProgress, message: out}
	}

	p.queue <- printTask{code: codeBarEnabled}
	p.bar.Start()
}

// ShutdownBar stops and hides the progress bar, if one is active.
func (p *Progress) ShutdownBar() {
	if p.bar == nil {
		return
	}
	p.bar.Finish()
	p.queue <- printTask{code: codeBarDisabled}
	p.bar = nil
	p.queue <- printTask{code: codeHideProgress}
}

// AddBar advances the bar by count bytes. A no-op without an active bar.
func (p *Progress) AddBar(count int64) {
	if p.bar != nil {
		p.bar.Add64(count)
	}
}

// Printf prints a status line, pausing the progress bar so it doesn't tear.
func (p *Progress) Printf(msg string, a ...interface{}) {
	p.queue <- printTask{code: codePrint, message: fmt.Sprintf(msg, a...)}
}

// PrintfStdErr prints a status line to stderr, same tear-safe handling.
func (p *Progress) PrintfStdErr(msg string, a ...interface{}) {
	p.queue <- printTask{code: codePrintStdErr, message: fmt.Sprintf(msg, a...)}
}

// ColoredPrintf prints a wsxiaoys/terminal-colored status line, with color
// codes stripped when stdout isn't a terminal.
func (p *Progress) ColoredPrintf(msg string, a ...interface{}) {
	if RunningOnTerminal() {
		p.queue <- printTask{code: codePrint, message: color.Sprintf(msg, a...) + "\n"}
		return
	}

	p.Printf(stripColorMarks(msg)+"\n", a...)
}

// stripColorMarks removes wsxiaoys/terminal @{...} color directives,
// leaving a plain-text status line for non-terminal output.
func stripColorMarks(msg string) string {
	var inColorMark, inCurly bool
	return strings.Map(func(r rune) rune {
		if inColorMark {
			if inCurly {
				if r == '}' {
					inCurly = false
					inColorMark = false
					return -1
				}
				return -1
			}
			if r == '{' {
				inCurly = true
				return -1
			}
			inColorMark = false
			if r == '@' {
				return '@'
			}
			return -1
		}

		if r == '@' {
			inColorMark = true
			return -1
		}

		return r
	}, msg)
}

func (p *Progress) worker() {
	hasBar := false

	for {
		task := <-p.queue
		switch task.code {
		case codeBarEnabled:
			hasBar = true
		case codeBarDisabled:
			hasBar = false
		case codePrint:
			if p.barShown {
				fmt.Print("\r\033[2K")
				p.barShown = false
			}
			fmt.Print(task.message)
		case codePrintStdErr:
			if p.barShown {
				fmt.Print("\r\033[2K")
				p.barShown = false
			}
			fmt.Fprint(os.Stderr, task.message)
		case codeProgress:
			if hasBar {
				fmt.Print("\r" + task.message)
				p.barShown = true
			}
		case codeHideProgress:
			if p.barShown {
				fmt.Print("\r\033[2K")
				p.barShown = false
			}
		case codeFlush:
			task.reply <- true
		case codeStop:
			p.stopped <- true
			return
		}
	}
}
