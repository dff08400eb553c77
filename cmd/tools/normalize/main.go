// cmd/tools/normalize/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"sentiment-aura/internal/sentiment"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run normalizes a raw provider reply, or prints the prompts for -prompt.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	fs.SetOutput(stderr)

	file := fs.String("file", "", "Path to a raw provider reply (default: stdin)")
	prompt := fs.String("prompt", "", "Print the prompts that would be sent for this text")
	maxLen := fs.Int("max-length", 3000, "Input truncation limit in characters")
	verbose := fs.Bool("v", false, "Report the extraction strategy on stderr")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *prompt != "" {
		fmt.Fprintf(stdout, "--- system ---\n%s\n\n--- user ---\n%s\n",
			sentiment.SystemPrompt, sentiment.UserPrompt(sentiment.Truncate(*prompt, *maxLen)))
		return nil
	}

	in := stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return fmt.Errorf("open reply: %w", err)
		}
		defer f.Close()
		in = f
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}

	obj, strategy := sentiment.Extract(string(raw))
	result := sentiment.Repair(obj)
	if *verbose {
		fmt.Fprintf(stderr, "extraction strategy: %s\n", strategy)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
