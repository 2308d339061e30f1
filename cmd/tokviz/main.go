// Command tokviz is a thin demonstration CLI over parserx: it drives
// the jsonlex or csvlex example grammar across a file or stdin and
// prints either the dispatched events or, on an error, the
// visualizer's source-snippet rendering.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgellow/zig-stream-parse-sub001/event"
	"github.com/dgellow/zig-stream-parse-sub001/examples/csvlex"
	"github.com/dgellow/zig-stream-parse-sub001/examples/jsonlex"
	"github.com/dgellow/zig-stream-parse-sub001/fsm"
	"github.com/dgellow/zig-stream-parse-sub001/parserx"
)

const (
	exitSuccess = 0
	exitUsage   = 1
	exitIO      = 2
	exitParse   = 3
)

func main() {
	var format string
	var modeName string

	root := &cobra.Command{
		Use:     "tokviz [file]",
		Short:   "Drive the streaming tokenizer/parser framework over a file or stdin",
		Version: "0.1.0",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(args)
			if err != nil {
				fmt.Fprintf(os.Stderr, "tokviz: %v\n", err)
				os.Exit(exitIO)
			}

			p, err := buildParser(format, modeName)
			if err != nil {
				fmt.Fprintf(os.Stderr, "tokviz: %v\n", err)
				os.Exit(exitUsage)
			}

			if parseErr := p.ParseString(input); parseErr != nil {
				fmt.Fprintf(os.Stderr, "tokviz: parse failed: %v\n", parseErr)
			}

			for _, g := range p.Errors() {
				if visErr := p.Visualize(os.Stderr, g.Primary); visErr != nil {
					fmt.Fprintf(os.Stderr, "tokviz: visualize failed: %v\n", visErr)
				}
				for _, rel := range g.Related {
					fmt.Fprintf(os.Stderr, "  related: %s\n", rel.Error())
				}
			}
			if len(p.Errors()) > 0 {
				os.Exit(exitParse)
			}
			return nil
		},
	}

	root.Flags().StringVar(&format, "format", "json", "Grammar to drive: json or csv")
	root.Flags().StringVar(&modeName, "mode", "normal", "Parser mode: strict, normal, lenient, validation")

	if err := root.Execute(); err != nil {
		os.Exit(exitUsage)
	}
	os.Exit(exitSuccess)
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

func printEvent(ev event.Event) error {
	switch ev.Kind {
	case event.StartDocument, event.EndDocument:
		fmt.Printf("%s @ %s\n", ev.Kind, ev.Position)
	case event.StartElement, event.EndElement:
		fmt.Printf("%s %q @ %s\n", ev.Kind, ev.Name, ev.Position)
	case event.Value:
		fmt.Printf("value %q=%q @ %s\n", ev.Name, ev.Text, ev.Position)
	case event.Error:
		fmt.Printf("error %s @ %s: %s\n", ev.Code, ev.Position, ev.Message)
	}
	return nil
}

func buildParser(format, modeName string) (*parserx.Parser, error) {
	mode, err := parseMode(modeName)
	if err != nil {
		return nil, err
	}
	opt := parserx.WithMode(mode)
	switch format {
	case "json":
		return jsonlex.NewParser(opt, parserx.WithEventFunc(printEvent)), nil
	case "csv":
		return csvlex.NewParser(csvlex.DefaultConfig(), opt, parserx.WithEventFunc(printEvent)), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want json or csv)", format)
	}
}

func parseMode(name string) (fsm.Mode, error) {
	switch name {
	case "strict":
		return fsm.Strict, nil
	case "normal":
		return fsm.Normal, nil
	case "lenient":
		return fsm.Lenient, nil
	case "validation":
		return fsm.Validation, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", name)
	}
}
