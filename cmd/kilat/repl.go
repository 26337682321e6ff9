package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/rahmanazhar/Kilat-Lang/internal/object"
	"github.com/rahmanazhar/Kilat-Lang/pkg/kilat"
)

const banner = `Kilat ⚡  REPL  (taip 'keluar' untuk berhenti)
Penafsir asli — sokongan penuh untuk fungsi, kelas, dan gelung.
`

const (
	prompt     = "kilat> "
	promptCont = "    .. "
)

// runREPL reads lines until the buffer forms a complete snippet, executes
// it against a persistent environment, and echoes bare-expression results.
// Prompts are suppressed when stdin is not a terminal so scripted input can
// be piped through.
func runREPL() int {
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	state := kilat.NewStateWithIO(os.Stdout, os.Stdin)
	scanner := bufio.NewScanner(os.Stdin)

	if interactive {
		fmt.Print(banner)
	}

	var buffer []string
	for {
		if interactive {
			if len(buffer) == 0 {
				fmt.Print(prompt)
			} else {
				fmt.Print(promptCont)
			}
		}
		if !scanner.Scan() {
			if interactive {
				fmt.Println()
			}
			return 0
		}
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "keluar" || trimmed == "exit" || trimmed == "quit" {
			if interactive {
				fmt.Println("Selamat tinggal!")
			}
			return 0
		}

		if trimmed == "" && len(buffer) > 0 {
			execSnippet(state, strings.Join(buffer, "\n"))
			buffer = nil
			continue
		}
		if trimmed == "" {
			continue
		}

		buffer = append(buffer, line)
		src := strings.Join(buffer, "\n")
		if kilat.IsComplete(src) {
			execSnippet(state, src)
			buffer = nil
		}
	}
}

func execSnippet(state *kilat.State, src string) {
	result, err := state.Eval(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if result != nil {
		if _, isNone := result.(object.NoneVal); !isNone {
			fmt.Println(object.Repr(result))
		}
	}
}
