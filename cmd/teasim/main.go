// Command teasim assembles and runs scoreboard-simulator programs, with
// an interactive TUI stepper and an HTTP API server, grounded on main.go's
// flag-based subcommand dispatch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/archlab/tea-scoreboard/api"
	"github.com/archlab/tea-scoreboard/asm"
	"github.com/archlab/tea-scoreboard/config"
	"github.com/archlab/tea-scoreboard/datapath"
	"github.com/archlab/tea-scoreboard/stepper"
	"github.com/archlab/tea-scoreboard/tui"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "assemble":
		err = runAssemble(os.Args[2:])
	case "run":
		err = runRun(os.Args[2:])
	case "tui":
		err = runTUI(os.Args[2:])
	case "api-server":
		err = runAPIServer(os.Args[2:])
	case "-help", "--help", "help":
		printHelp()
		return
	default:
		fmt.Fprintf(os.Stderr, "teasim: unknown command %q\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "teasim: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`teasim: scoreboard simulator for a TEA/XTEA-style cipher ISA

Usage:
  teasim assemble [--lint] [--format] <in.asm> <out.bin>
  teasim run [--data=file] [--key=file] [--max-cycles=N] <program.bin>
  teasim tui [--data=file] [--key=file] <program.bin>
  teasim api-server [--port=8080]`)
}

func runAssemble(args []string) error {
	fs := flag.NewFlagSet("assemble", flag.ExitOnError)
	lint := fs.Bool("lint", false, "run the linter and print findings to stderr")
	format := fs.Bool("format", false, "format the source before assembling")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("assemble needs exactly 2 arguments: <in.asm> <out.bin>")
	}
	inPath, outPath := fs.Arg(0), fs.Arg(1)

	src, err := os.ReadFile(inPath) // #nosec G304 -- user-supplied path is the whole point of a CLI tool
	if err != nil {
		return fmt.Errorf("reading %q: %w", inPath, err)
	}
	source := string(src)
	if *format {
		source = asm.Format(source, inPath, asm.DefaultFormatOptions())
	}

	prog, errs := asm.Parse(source, inPath)
	if errs.HasErrors() {
		return fmt.Errorf("%s", errs.Error())
	}

	if *lint {
		issues := asm.Lint(prog)
		failed := false
		for _, issue := range issues {
			fmt.Fprintln(os.Stderr, issue.String())
			if issue.Level == asm.LintError {
				failed = true
			}
		}
		if failed {
			return fmt.Errorf("lint found blocking errors")
		}
	}

	words, err := asm.Encode(prog)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte(asm.EncodeText(words)), 0600)
}

func buildStepperFromFlags(programPath string, dataFile, keyFile *string, maxCycles *uint64) (*stepper.Stepper, error) {
	words, err := datapath.LoadAssembledInstructions(programPath)
	if err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()
	if maxCycles != nil && *maxCycles > 0 {
		cfg.MaxCycles = *maxCycles
	}

	s := stepper.New()
	if err := s.Reset(cfg, words); err != nil {
		return nil, err
	}
	if dataFile != nil && *dataFile != "" {
		if err := s.LoadData(*dataFile, 4); err != nil {
			return nil, err
		}
	}
	if keyFile != nil && *keyFile != "" {
		if err := s.LoadKey(*keyFile, 0); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func runRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	dataFile := fs.String("data", "", "binary data file to load at word address 4")
	keyFile := fs.String("key", "", "128-bit hex key file to load into data memory words 0-3")
	maxCycles := fs.Uint64("max-cycles", 1000000, "maximum cycles before giving up")
	outputFile := fs.String("output", "", "input file whose encrypted counterpart to emit after the run completes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("run needs exactly 1 argument: <program.bin>")
	}

	s, err := buildStepperFromFlags(fs.Arg(0), dataFile, keyFile, maxCycles)
	if err != nil {
		return err
	}

	ran, err := s.Run(*maxCycles)
	if err != nil {
		return err
	}
	snap := s.Snapshot()
	fmt.Printf("ran %d cycles, done=%v, clock=%d\n", ran, snap.Done, snap.Clock)

	if *outputFile != "" {
		if err := stepper.WriteEncryptedOutput(s.Datapath(), *outputFile); err != nil {
			return err
		}
	}
	return nil
}

func runTUI(args []string) error {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	dataFile := fs.String("data", "", "binary data file to load at word address 4")
	keyFile := fs.String("key", "", "128-bit hex key file to load into data memory words 0-3")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("tui needs exactly 1 argument: <program.bin>")
	}

	s, err := buildStepperFromFlags(fs.Arg(0), dataFile, keyFile, nil)
	if err != nil {
		return err
	}

	t := tui.New(s)
	return t.Start()
}

func runAPIServer(args []string) error {
	fs := flag.NewFlagSet("api-server", flag.ExitOnError)
	port := fs.Int("port", 8080, "API server port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server := api.NewServer(*port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		fmt.Println("\nshutting down API server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}
