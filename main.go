// Command fv1asm is the FV-1 toolchain's CLI: it assembles SpinASM source to
// a program image or listing, drives a headless sample-array simulation, or
// starts the debug adapter's HTTP+WebSocket API server. Flag-based dispatch
// is grounded on the teacher's main.go (single flag.Parse, mode flags picked
// apart in sequence rather than a subcommand tree).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spinlab/fv1asm/api"
	"github.com/spinlab/fv1asm/assemble"
	"github.com/spinlab/fv1asm/config"
	"github.com/spinlab/fv1asm/parser"
	"github.com/spinlab/fv1asm/sim"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")

		assembleOnly = flag.Bool("assemble", false, "Assemble the source file and exit")
		listing      = flag.Bool("listing", false, "Emit a formatted listing instead of a binary image")
		outFile      = flag.String("o", "", "Output path (image or listing); defaults to stdout")

		apiServer = flag.Bool("api-server", false, "Start the debug adapter HTTP+WebSocket API server")
		apiAddr   = flag.String("addr", "", "API server listen address (default from config)")

		simulate   = flag.Bool("simulate", false, "Run the assembled program over a sample-array harness")
		samplesIn  = flag.String("samples", "", "Input samples file: one \"inL inR\" pair per line")
		samplesOut = flag.String("samples-out", "", "Output samples path (default: stdout)")
		pot0       = flag.Float64("pot0", 0, "POT0 value [0,1] held constant for the run")
		pot1       = flag.Float64("pot1", 0, "POT1 value [0,1] held constant for the run")
		pot2       = flag.Float64("pot2", 0, "POT2 value [0,1] held constant for the run")

		memBug     = flag.Bool("mem-bug", true, "Replicate the SpinASM MEM allocator quirk")
		clampReals = flag.Bool("clamp-reals", false, "Clamp out-of-range fixed-point literals instead of erroring")
		regCount   = flag.Int("reg-count", 0, "Register file size override (0: use config default)")
		progSize   = flag.Int("prog-size", 0, "Program image size override (0: use config default)")
		delaySize  = flag.Int("delay-size", 0, "Delay RAM capacity override (0: use config default)")

		configPath = flag.String("config", "", "Config file path (default: platform config dir)")
		verbose    = flag.Bool("verbose", false, "Verbose output")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("fv1asm %s\n", Version)
		os.Exit(0)
	}
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	opts := optionsFromConfig(cfg, *memBug, *clampReals, *regCount, *progSize, *delaySize)

	switch {
	case *apiServer:
		runAPIServer(cfg, *apiAddr)
		return

	case *assembleOnly, *listing:
		runAssemble(opts, *listing, *outFile, *verbose)
		return

	case *simulate:
		runSimulate(opts, *samplesIn, *samplesOut, *pot0, *pot1, *pot2, *verbose)
		return

	default:
		printHelp()
		os.Exit(0)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func optionsFromConfig(cfg *config.Config, memBug, clampReals bool, regCount, progSize, delaySize int) parser.Options {
	opts := parser.Options{
		MemBug:     memBug,
		ClampReals: clampReals,
		RegCount:   cfg.Simulator.RegCount,
		ProgSize:   cfg.Assembler.ProgSize,
		DelaySize:  cfg.Simulator.DelaySize,
	}
	if regCount > 0 {
		opts.RegCount = regCount
	}
	if progSize > 0 {
		opts.ProgSize = progSize
	}
	if delaySize > 0 {
		opts.DelaySize = delaySize
	}
	return opts
}

// runAssemble assembles the single positional source file argument and
// writes either the binary image or a formatted listing (spec.md §6:
// "Program image on the wire" / "Formatted listing").
func runAssemble(opts parser.Options, listing bool, outPath string, verbose bool) {
	srcPath := requireSourceArg()
	source, err := os.ReadFile(srcPath) // #nosec G304 -- user-supplied source path
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", srcPath, err)
		os.Exit(1)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Assembling %s...\n", srcPath)
	}

	res := assemble.Assemble(string(source), opts)
	for _, p := range res.Problems {
		kind := "warning"
		if p.Fatal {
			kind = "error"
		}
		fmt.Fprintf(os.Stderr, "%s:%d: %s: %s\n", srcPath, p.Line, kind, p.Message)
	}
	if len(res.Program) == 0 {
		fmt.Fprintln(os.Stderr, "Assembly failed.")
		os.Exit(1)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath) // #nosec G304 -- user-supplied output path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", outPath, err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if listing {
		fmt.Fprint(out, assemble.FormatListing(res.Program))
		return
	}
	if err := assemble.WriteImage(out, res.Program); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing image: %v\n", err)
		os.Exit(1)
	}
}

// runSimulate assembles the source file and drives the result through a
// sample-array harness, reading "inL inR" pairs one per line and writing
// "outL outR" pairs, with no WAV/audio-file dependency (spec.md §1's
// Non-goals exclude audio file I/O; this harness stays purely textual).
func runSimulate(opts parser.Options, samplesIn, samplesOut string, pot0, pot1, pot2 float64, verbose bool) {
	srcPath := requireSourceArg()
	source, err := os.ReadFile(srcPath) // #nosec G304 -- user-supplied source path
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", srcPath, err)
		os.Exit(1)
	}

	res := assemble.Assemble(string(source), opts)
	for _, p := range res.Problems {
		if p.Fatal {
			fmt.Fprintf(os.Stderr, "%s:%d: error: %s\n", srcPath, p.Line, p.Message)
		}
	}
	if len(res.Program) == 0 {
		fmt.Fprintln(os.Stderr, "Assembly failed.")
		os.Exit(1)
	}

	inL, inR, err := readSamples(samplesIn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading samples: %v\n", err)
		os.Exit(1)
	}

	machine := sim.NewSim(opts.DelaySize)
	machine.Load(res.Program, res.AddressToLine)

	if verbose {
		fmt.Fprintf(os.Stderr, "Running %d samples through %s...\n", len(inL), srcPath)
	}

	outL, outR := machine.ProcessBlock(inL, inR, pot0, pot1, pot2)

	out := os.Stdout
	if samplesOut != "" {
		f, err := os.Create(samplesOut) // #nosec G304 -- user-supplied output path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", samplesOut, err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	w := bufio.NewWriter(out)
	defer w.Flush()
	for i := range outL {
		fmt.Fprintf(w, "%.10f %.10f\n", outL[i], outR[i])
	}
}

// readSamples reads whitespace-separated "inL inR" pairs, one per line,
// from path (or stdin when path is empty).
func readSamples(path string) (inL, inR []float64, err error) {
	in := os.Stdin
	if path != "" {
		f, openErr := os.Open(path) // #nosec G304 -- user-supplied samples path
		if openErr != nil {
			return nil, nil, openErr
		}
		defer f.Close()
		in = f
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, nil, fmt.Errorf("malformed sample line %q: want \"inL inR\"", line)
		}
		l, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("malformed inL %q: %w", fields[0], err)
		}
		r, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("malformed inR %q: %w", fields[1], err)
		}
		inL = append(inL, l)
		inR = append(inR, r)
	}
	return inL, inR, scanner.Err()
}

// runAPIServer starts the headless debug adapter and blocks until an
// interrupt or SIGTERM arrives (spec.md §4.9's debug adapter surface).
func runAPIServer(cfg *config.Config, addrOverride string) {
	addr := cfg.API.ListenAddr
	if addrOverride != "" {
		addr = addrOverride
	}

	server := api.NewServer(addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() { errChan <- server.Start() }()

	select {
	case err := <-errChan:
		if err != nil {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	case <-sigChan:
		fmt.Println("\nShutting down API server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("API server stopped")
	}
}

func requireSourceArg() string {
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a SpinASM source file argument is required")
		printHelp()
		os.Exit(1)
	}
	path := flag.Arg(0)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: file not found: %s\n", path)
		os.Exit(1)
	}
	return path
}

func printHelp() {
	fmt.Println(`fv1asm - FV-1 SpinASM assembler and sample-accurate simulator

Usage:
  fv1asm -assemble [-listing] [-o out] <source.spn>
  fv1asm -simulate [-samples in.txt] [-samples-out out.txt] [-pot0 v] [-pot1 v] [-pot2 v] <source.spn>
  fv1asm -api-server [-addr host:port]

Flags:`)
	flag.PrintDefaults()
}
