/*
MIT License

Copyright (c) 2025 Yuval Adar <adary@adary.org>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Command wayclipctl is a scripting and diagnostic client for wayclipd. It is
// not a replacement for the GTK front-end; it exercises the same wire
// protocol documented in SPEC_FULL.md.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/sahilm/fuzzy"

	"github.com/wayclip/wayclipd/internal/paths"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	if os.Args[1] == "-version" || os.Args[1] == "-v" {
		fmt.Printf("wayclipctl version %s\n", version)
		return
	}

	p, err := paths.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "wayclipctl: resolve paths: %v\n", err)
		os.Exit(1)
	}
	c := newClient(p.Socket)

	var cmdErr error
	switch os.Args[1] {
	case "list":
		cmdErr = runList(c, os.Args[2:])
	case "search":
		cmdErr = runSearch(c, os.Args[2:])
	case "copy":
		cmdErr = runCopy(c, os.Args[2:])
	case "delete":
		cmdErr = runDelete(c, os.Args[2:])
	case "clear":
		cmdErr = c.clear()
	case "ping":
		cmdErr = runPing(c)
	case "paste-test":
		cmdErr = runPasteTest()
	default:
		usage()
		os.Exit(1)
	}

	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "wayclipctl: %v\n", cmdErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: wayclipctl <command> [args]

commands:
  list [-limit N] [-query Q]   list clipboard history
  search QUERY                 fuzzy-ranked search over clipboard history
  copy ID                      replay entry ID onto the live clipboard
  delete ID                    delete entry ID
  clear                        delete all entries
  ping                         check that the daemon is reachable
  paste-test                   read the X11 clipboard directly, bypassing the daemon`)
}

func runList(c *client, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("limit", 0, "maximum number of entries to show (0 = no limit)")
	query := fs.String("query", "", "case-insensitive substring filter")
	fs.Parse(args)

	entries, err := c.list(*limit, *query)
	if err != nil {
		return err
	}
	fmt.Print(renderTable(entries))
	return nil
}

// runSearch asks the daemon for its plain substring matches of the query and
// re-ranks them client-side with sahilm/fuzzy. The re-ranking is advisory and
// display-order-only: fuzzy matches on the preview come first, and every
// other entry the daemon returned follows in the daemon's own order.
func runSearch(c *client, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("search requires a query argument")
	}
	query := args[0]

	entries, err := c.list(0, query)
	if err != nil {
		return err
	}

	previews := make([]string, len(entries))
	for i, e := range entries {
		previews[i] = e.Preview
	}

	matches := fuzzy.Find(query, previews)
	ranked := make([]entryView, 0, len(entries))
	seen := make([]bool, len(entries))
	for _, m := range matches {
		ranked = append(ranked, entries[m.Index])
		seen[m.Index] = true
	}
	for i, e := range entries {
		if !seen[i] {
			ranked = append(ranked, e)
		}
	}

	fmt.Print(renderTable(ranked))
	return nil
}

func runCopy(c *client, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	return c.copy(id)
}

func runDelete(c *client, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	return c.delete(id)
}

func runPing(c *client) error {
	if err := c.ping(); err != nil {
		return err
	}
	fmt.Println("pong")
	return nil
}

// runPasteTest does not talk to the daemon at all: it reads whatever is on
// the X11 clipboard right now, a standalone smoke test for environments
// where wl-paste/wl-copy are unavailable.
func runPasteTest() error {
	text, err := clipboard.ReadAll()
	if err != nil {
		return fmt.Errorf("read X11 clipboard: %w", err)
	}
	fmt.Println(text)
	return nil
}

func parseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("expected an entry id argument")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", args[0], err)
	}
	return id, nil
}
