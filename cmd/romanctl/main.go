// Command romanctl converts between integers and Roman numerals from the
// command line.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"roman-numerals/go-backend/internal/numerals"
)

var version = "dev"

var errConversionFailed = errors.New("one or more conversions failed")

// CLI defines the command-line interface for romanctl.
type CLI struct {
	JSON bool `name:"json" help:"Print results as JSON lines"`

	ToRoman ToRomanCmd `cmd:"" name:"to-roman" help:"Convert integers to Roman numerals"`
	ToInt   ToIntCmd   `cmd:"" name:"to-int" help:"Convert Roman numerals to integers"`
	Table   TableCmd   `cmd:"" help:"Print a conversion table for a range of integers"`
	Version VersionCmd `cmd:"" help:"Print version information"`

	out    io.Writer `kong:"-"`
	errOut io.Writer `kong:"-"`
	failed bool      `kong:"-"`
}

// ToRomanCmd converts integers. Negative values read as flags, so they must
// follow "--" (romanctl to-roman -- -100).
type ToRomanCmd struct {
	Values []string `arg:"" help:"Integers between 1 and 3999; put negative values after --"`
}

func (c *ToRomanCmd) Run(cli *CLI) error {
	for _, raw := range c.Values {
		value, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			cli.fail(fmt.Errorf("'%s' is not an integer", raw))
			continue
		}
		numeral, err := numerals.Format(value)
		if err != nil {
			cli.fail(err)
			continue
		}
		cli.emit(numeral, value)
	}
	return cli.result()
}

type ToIntCmd struct {
	Numerals []string `arg:"" help:"Roman numerals, case-insensitive"`
}

func (c *ToIntCmd) Run(cli *CLI) error {
	for _, numeral := range c.Numerals {
		value, err := numerals.Parse(numeral)
		if err != nil {
			cli.fail(err)
			continue
		}
		cli.emit(strings.ToUpper(numeral), value)
	}
	return cli.result()
}

type TableCmd struct {
	From int `arg:"" help:"First integer"`
	To   int `arg:"" help:"Last integer"`
}

func (c *TableCmd) Run(cli *CLI) error {
	if c.From > c.To {
		return fmt.Errorf("invalid range: %d > %d", c.From, c.To)
	}
	for _, bound := range []int{c.From, c.To} {
		if _, err := numerals.Format(bound); err != nil {
			return err
		}
	}
	for v := c.From; v <= c.To; v++ {
		numeral, err := numerals.Format(v)
		if err != nil {
			return err
		}
		cli.emit(numeral, v)
	}
	return nil
}

type VersionCmd struct{}

func (c *VersionCmd) Run(cli *CLI) error {
	_, err := fmt.Fprintf(cli.out, "romanctl version %s\n", version)
	return err
}

func (cli *CLI) emit(numeral string, value int) {
	if cli.JSON {
		line, _ := json.Marshal(struct {
			Numeral string `json:"numeral"`
			Value   int    `json:"value"`
		}{numeral, value})
		_, _ = fmt.Fprintln(cli.out, string(line))
		return
	}
	_, _ = fmt.Fprintf(cli.out, "%d\t%s\n", value, numeral)
}

func (cli *CLI) fail(err error) {
	cli.failed = true
	_, _ = fmt.Fprintf(cli.errOut, "error: %v\n", err)
}

func (cli *CLI) result() error {
	if cli.failed {
		return errConversionFailed
	}
	return nil
}

// run parses args and executes the selected command, returning the process
// exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cli := &CLI{out: stdout, errOut: stderr}
	exitCode := -1
	parser, err := kong.New(cli,
		kong.Name("romanctl"),
		kong.Description("Convert between integers and Roman numerals (1-3999)"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	ctx, err := parser.Parse(args)
	if exitCode >= 0 {
		return exitCode
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	if err := ctx.Run(cli); err != nil {
		if !errors.Is(err, errConversionFailed) {
			_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
