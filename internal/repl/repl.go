// Package repl is the line-based front end: a synchronous prompt loop over
// the shared session controller.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"pdfchat/internal/session"
)

// SessionPort is the REPL-facing subset of the session controller.
type SessionPort interface {
	Rebuild(ctx context.Context) error
	Ask(ctx context.Context, question string) (string, error)
}

// Run builds the knowledge base, then reads questions line by line until
// "quit" or EOF. Empty input re-prompts without touching the engine. Errors
// from ask are printed, never propagated as a crash.
func Run(ctx context.Context, in io.Reader, out io.Writer, svc SessionPort) error {
	fmt.Fprintln(out, "Building knowledge base...")
	if err := svc.Rebuild(ctx); err != nil {
		fmt.Fprintf(out, "Failed to build knowledge base: %v\n", err)
		fmt.Fprintln(out, "Check your knowledge-base directory and try again.")
		return nil
	}
	fmt.Fprintln(out, "Ready! Ask questions about your documents. Type 'quit' to exit.")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "\nEnter your query: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			fmt.Fprintln(out, "Please enter a valid query.")
			continue
		}
		if strings.EqualFold(query, "quit") {
			return nil
		}
		fmt.Fprintln(out, "\nGenerating response...")
		answer, err := svc.Ask(ctx, query)
		if err != nil {
			if errors.Is(err, session.ErrNotReady) || errors.Is(err, session.ErrEmptyQuestion) {
				fmt.Fprintf(out, "%v\n", err)
				continue
			}
			fmt.Fprintf(out, "An error occurred: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "\nResponse: %s\n", answer)
	}
}
