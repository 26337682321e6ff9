// Command kilat runs Kilat programs: .klt source through the bytecode VM
// (the default) or the tree interpreter, .klc compiled bytecode directly,
// plus compile-to-.klc and an interactive shell.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rahmanazhar/Kilat-Lang/pkg/kilat"
)

const usageText = `Penggunaan: kilat [pilihan] <fail.klt | fail.klc>

Pilihan:
  --native        jalankan melalui pentafsir pokok
  --bytecode      kompil ke kod bait dan jalankan pada VM (lalai)
  --compile-bc    kompil ke kod bait dan tulis fail .klc
  --run-klc       muat dan jalankan fail .klc
  --compile-only  keluarkan fail terjemahan (tidak disokong dalam binaan ini)
  --repl          shell interaktif
  -o <fail>       fail output untuk mod kompil
  --version       cetak versi
  --help, -h      bantuan ini
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("kilat", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usageText) }

	native := fs.Bool("native", false, "jalankan melalui pentafsir pokok")
	bytecode := fs.Bool("bytecode", false, "kompil dan jalankan pada VM")
	compileBC := fs.Bool("compile-bc", false, "kompil ke fail .klc")
	runKLC := fs.Bool("run-klc", false, "jalankan fail .klc")
	compileOnly := fs.Bool("compile-only", false, "keluarkan fail terjemahan")
	repl := fs.Bool("repl", false, "shell interaktif")
	output := fs.String("o", "", "fail output")
	version := fs.Bool("version", false, "cetak versi")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if *version {
		fmt.Printf("Kilat %s\n", kilat.Version)
		return 0
	}

	if *repl {
		return runREPL()
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return 1
	}
	filename := fs.Arg(0)

	if *compileOnly {
		fmt.Fprintln(os.Stderr, "Ralat: mod --compile-only tidak disokong dalam binaan ini")
		return 1
	}

	if *runKLC || strings.HasSuffix(filename, ".klc") {
		return runKLCFile(filename)
	}

	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ralat: tidak dapat membaca fail '%s': %v\n", filename, err)
		return 1
	}

	switch {
	case *compileBC:
		return compileToFile(string(source), filename, *output)
	case *native:
		return report(kilat.RunNativeWithIO(string(source), filename, os.Stdout, os.Stdin))
	default:
		// --bytecode and the no-flag default are the same path.
		_ = *bytecode
		return report(kilat.RunWithIO(string(source), filename, os.Stdout, os.Stdin))
	}
}

func runKLCFile(filename string) int {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ralat: tidak dapat membaca fail '%s': %v\n", filename, err)
		return 1
	}
	return report(kilat.RunKLC(data, os.Stdout, os.Stdin))
}

func compileToFile(source, filename, output string) int {
	data, err := kilat.CompileToKLC(source, filename)
	if err != nil {
		return report(err)
	}
	if output == "" {
		output = strings.TrimSuffix(filename, ".klt") + ".klc"
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Ralat: tidak dapat menulis '%s': %v\n", output, err)
		return 1
	}
	fmt.Printf("Berjaya dikompil ke: %s\n", output)
	return 0
}

// report writes any error to the diagnostic stream in its category form
// and translates it to the process exit code.
func report(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}
