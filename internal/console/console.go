// Package console reads text-screen commands from a terminal or pipe.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/coreman2200/arcaluminis-text/internal/textscreen"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("console: quit")

// Screen is the blocking text screen. *service.Screen implements it.
type Screen interface {
	Print(ctx context.Context, text string) (int, error)
	On(ctx context.Context) error
	Off(ctx context.Context) error
	Clear(ctx context.Context) error
	SetSpeed(ctx context.Context, d time.Duration) error
	SetCursor(ctx context.Context, x, y int) error
	Command(ctx context.Context, num, arg int) error
	Snapshot(ctx context.Context) (textscreen.Snapshot, error)
}

const help = `commands:
  print <text>      scroll text (quote to keep spaces)
  on | off          show or hide the text
  clear             drop the text
  speed <ms>        time per character
  cursor <x> <y>    move the cursor
  cmd <num> <arg>   numbered driver command
  size | status
  help | quit
`

type Console struct {
	screen Screen
	out    io.Writer
}

func New(s Screen, out io.Writer) *Console {
	return &Console{screen: s, out: out}
}

// Exec runs one command line.
func (c *Console) Exec(ctx context.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if len(args) == 0 {
		return nil
	}
	name, args := strings.ToLower(args[0]), args[1:]

	switch name {
	case "print", "p":
		n, err := c.screen.Print(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "printed %d\n", n)
	case "on":
		return c.screen.On(ctx)
	case "off":
		return c.screen.Off(ctx)
	case "clear":
		return c.screen.Clear(ctx)
	case "speed":
		ms, err := ints(args, 1)
		if err != nil {
			return err
		}
		return c.screen.SetSpeed(ctx, time.Duration(ms[0])*time.Millisecond)
	case "cursor":
		xy, err := ints(args, 2)
		if err != nil {
			return err
		}
		return c.screen.SetCursor(ctx, xy[0], xy[1])
	case "cmd":
		na, err := ints(args, 2)
		if err != nil {
			return err
		}
		return c.screen.Command(ctx, na[0], na[1])
	case "size":
		snap, err := c.screen.Snapshot(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%dx1\n", snap.Capacity)
	case "status":
		snap, err := c.screen.Snapshot(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s enabled=%t speed=%dms policy=%s cursor=%d text=%q\n",
			snap.State, snap.Enabled, snap.SpeedMS, snap.Policy, snap.Cursor, snap.Text)
	case "help", "?":
		io.WriteString(c.out, help)
	case "quit", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	return nil
}

func ints(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("want %d numbers, got %d", n, len(args))
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

// Run executes lines from in until EOF, quit or ctx is done. Command
// errors are printed and do not stop the loop.
func (c *Console) Run(ctx context.Context, in io.Reader, prompt bool) error {
	sc := bufio.NewScanner(in)
	for {
		if prompt {
			io.WriteString(c.out, "> ")
		}
		if !sc.Scan() {
			return sc.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := c.Exec(ctx, sc.Text())
		switch {
		case errors.Is(err, ErrQuit):
			return nil
		case err != nil:
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}
