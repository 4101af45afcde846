package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/msalah0e/h2canvas/internal/canvas"
	"github.com/msalah0e/h2canvas/internal/editor"
	"github.com/msalah0e/h2canvas/internal/remote"
	"github.com/msalah0e/h2canvas/internal/sim"
	"github.com/msalah0e/h2canvas/internal/ui"
	"github.com/spf13/cobra"
)

func editCmd() *cobra.Command {
	var (
		serverURL string
		noConnect bool
	)

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a plant interactively against a running service",
		Long: `Open a terminal canvas connected to the plant service.

  h2canvas edit
  h2canvas edit --server http://localhost:8080

Type 'help' at the prompt for commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL != "" {
				cfg.Server.URL = serverURL
			}
			if noConnect {
				cfg.Editor.PromptConnect = false
			}
			logger := newLogger(cmd.ErrOrStderr(), false)

			client := remote.New(cfg.Server.URL,
				remote.WithTimeout(time.Duration(cfg.Server.TimeoutSeconds)*time.Second),
				remote.WithLogger(logger),
			)
			term := newTerminal(cmd.InOrStdin(), cmd.OutOrStdout())
			c := editor.New(client, term, editorOptions(cfg, logger))

			ui.Banner(term.out, "editing "+cfg.Server.URL)
			return runEditor(cmd.Context(), c, term)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Plant service URL (default from config)")
	cmd.Flags().BoolVar(&noConnect, "no-connect-prompt", false, "Do not ask for a connection after placing a component")
	return cmd
}

// terminal is the editor surface on a line-oriented terminal.
type terminal struct {
	in     *bufio.Scanner
	out    io.Writer
	reload bool
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	return &terminal{in: bufio.NewScanner(in), out: out}
}

func (t *terminal) Prompt(message string) (string, bool) {
	fmt.Fprintf(t.out, "  %s %s ", ui.Info.Sprint("?"), message)
	if !t.in.Scan() {
		fmt.Fprintln(t.out)
		return "", false
	}
	return t.in.Text(), true
}

func (t *terminal) Alert(message string) {
	fmt.Fprintf(t.out, "  %s %s\n", ui.Brand.Sprint("!"), message)
}

func (t *terminal) Reload() {
	t.reload = true
	fmt.Fprintln(t.out, ui.Subtle.Sprint("  reloading canvas..."))
}

func (t *terminal) readCommand() ([]string, bool) {
	fmt.Fprint(t.out, ui.Brand.Sprint(ui.Mark+"> "))
	if !t.in.Scan() {
		return nil, false
	}
	return strings.Fields(t.in.Text()), true
}

const editHelp = `  palette                       list component types
  drop <type> <x> <y>           drop a component at canvas point (x, y)
  drag <name> <dx> <dy> [vx vy] move an icon, optionally releasing with velocity
  connect <source> <target>     connect two components
  icons                         list icons on the canvas
  select <name>                 select an icon
  simulate                      run the simulation
  reset                         clear the plant
  quit                          leave the editor`

func runEditor(ctx context.Context, c *editor.Controller, term *terminal) error {
	if err := c.Start(ctx); err != nil {
		return err
	}

	for {
		args, ok := term.readCommand()
		if !ok {
			return nil
		}
		if len(args) == 0 {
			continue
		}

		var err error
		switch args[0] {
		case "help", "?":
			fmt.Fprintln(term.out, editHelp)
		case "palette":
			for _, t := range c.Palette().Types() {
				fmt.Fprintf(term.out, "  %s\n", t)
			}
		case "drop":
			err = editDrop(ctx, c, args[1:])
		case "drag":
			err = editDrag(c, term.out, args[1:])
		case "connect":
			if len(args) != 3 {
				err = errors.New("usage: connect <source> <target>")
				break
			}
			err = c.Connect(ctx, args[1], args[2])
		case "icons":
			printIcons(term.out, c.Canvas().Icons())
		case "select":
			if len(args) != 2 {
				err = errors.New("usage: select <name>")
				break
			}
			if !c.Canvas().Select(args[1]) {
				err = fmt.Errorf("no icon named %s", args[1])
			}
		case "simulate":
			if err = c.Simulate(ctx); err == nil && term.reload {
				if r := c.LastReport(); r != nil {
					printSummary(term.out, *r)
				}
			}
		case "reset":
			err = c.Reset(ctx)
		case "quit", "exit":
			return nil
		default:
			err = fmt.Errorf("unknown command %q (try 'help')", args[0])
		}

		if err != nil {
			fmt.Fprintf(term.out, "  %s %v\n", ui.StatusIcon(false), err)
		}
		if term.reload {
			term.reload = false
			if err := c.Start(ctx); err != nil {
				return err
			}
		}
	}
}

func editDrop(ctx context.Context, c *editor.Controller, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: drop <type> <x> <y>")
	}
	x, errX := strconv.ParseFloat(args[1], 64)
	y, errY := strconv.ParseFloat(args[2], 64)
	if errX != nil || errY != nil {
		return errors.New("x and y must be numbers")
	}
	return c.Drop(ctx, args[0], canvas.Point{X: x, Y: y})
}

func editDrag(c *editor.Controller, out io.Writer, args []string) error {
	if len(args) != 3 && len(args) != 5 {
		return errors.New("usage: drag <name> <dx> <dy> [vx vy]")
	}
	nums := make([]float64, 0, 4)
	for _, a := range args[1:] {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("not a number: %s", a)
		}
		nums = append(nums, v)
	}

	if err := c.DragIcon(args[0]); err != nil {
		return err
	}
	if _, err := c.DragMove(nums[0], nums[1]); err != nil {
		return err
	}
	var vx, vy float64
	if len(nums) == 4 {
		vx, vy = nums[2], nums[3]
	}
	off, err := c.EndDrag(vx, vy)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  %s %s\n", args[0], ui.Subtle.Sprint(off.Transform()))
	return nil
}

func printIcons(w io.Writer, icons []canvas.Component) {
	if len(icons) == 0 {
		fmt.Fprintln(w, ui.Subtle.Sprint("  canvas is empty"))
		return
	}
	rows := make([][]string, 0, len(icons))
	for _, ic := range icons {
		rows = append(rows, []string{
			ic.Label(),
			fmt.Sprintf("(%g, %g)", ic.Position.X, ic.Position.Y),
			ic.Transform(),
		})
	}
	ui.Table(w, []string{"Icon", "Position", "Transform"}, rows)
}

func printSummary(w io.Writer, r sim.Report) {
	rows := make([][]string, 0, len(r.Traces))
	for _, tr := range r.Traces {
		h2, level := tr.Totals()
		storage := tr.Storage
		if storage == "" {
			storage = "-"
		}
		rows = append(rows, []string{
			tr.Electrolyzer,
			tr.PowerSource,
			storage,
			fmt.Sprintf("%.2f", h2),
			fmt.Sprintf("%.2f", level),
		})
	}
	fmt.Fprintln(w)
	ui.Table(w, []string{"Electrolyzer", "Source", "Storage", "H2 (MWh)", "Tank (MWh)"}, rows)
	for _, tr := range r.Traces {
		if h2, _ := tr.Totals(); h2 == 0 {
			fmt.Fprintf(w, "  %s %s produced no hydrogen\n", ui.WarnIcon(), tr.Electrolyzer)
		}
	}
	fmt.Fprintln(w)
}
