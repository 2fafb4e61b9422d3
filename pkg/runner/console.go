package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/statechart/internal/runtime"
	"github.com/aretw0/statechart/pkg/domain"
	"github.com/aretw0/statechart/pkg/ports"
)

// Renderer formats a snapshot for the console.
type Renderer func(*domain.Snapshot) string

// Console is an interactive front end: every line read is triggered as an event.
//
// Besides event names it understands "?" (print the configuration) and
// "exit"/"quit".
type Console struct {
	engine   ports.Engine
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer Renderer

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// ConsoleOption defines configuration for Console.
type ConsoleOption func(*Console)

// WithConsoleRenderer configures how snapshots are printed.
func WithConsoleRenderer(r Renderer) ConsoleOption {
	return func(c *Console) {
		c.Renderer = r
	}
}

// NewConsole creates a console reading from r and writing to w.
func NewConsole(engine ports.Engine, r io.Reader, w io.Writer, opts ...ConsoleOption) *Console {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	c := &Console{
		engine:   engine,
		Reader:   bufio.NewReader(r),
		Writer:   w,
		Renderer: runtime.RenderTree,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) initPump() {
	c.startOnce.Do(func() {
		c.inputChan = make(chan inputResult)
		go c.pump()
	})
}

func (c *Console) pump() {
	for {
		text, err := c.Reader.ReadString('\n')
		if text != "" {
			c.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.inputChan <- inputResult{err: err}
			}
			close(c.inputChan)
			return
		}
	}
}

// Run reads events until the input ends, the chart completes or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	c.initPump()
	c.print(c.engine.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			fmt.Fprint(c.Writer, "> ")
		}

		var res inputResult
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok = <-c.inputChan:
		}
		if !ok {
			return nil
		}
		if res.err != nil {
			return fmt.Errorf("input error: %w", res.err)
		}

		line := strings.TrimSpace(res.text)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "?":
			c.print(c.engine.Snapshot())
			continue
		}

		ev, err := SanitizeEvent(line)
		if err != nil {
			fmt.Fprintf(c.Writer, "Error: %v. Please try again.\n", err)
			continue
		}
		if err := c.engine.Trigger(ctx, ev); err != nil {
			return fmt.Errorf("event %q: %w", ev, err)
		}

		snap := c.engine.Snapshot()
		c.print(snap)
		if snap != nil && snap.Status == domain.StatusCompleted {
			return nil
		}
	}
}

func (c *Console) print(snap *domain.Snapshot) {
	if snap == nil || c.Renderer == nil {
		return
	}
	fmt.Fprintln(c.Writer, strings.TrimRight(c.Renderer(snap), "\n"))
}
