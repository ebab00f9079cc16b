package main

import (
	"strconv"
	"strings"
	"sync"

	"github.com/bawdo/dbconsole/catalog"
	"github.com/bawdo/dbconsole/internal/sqldb"
)

// completionContext describes what the operator is currently answering.
type completionContext int

const (
	contextMenu   completionContext = iota // menu choice
	contextField                           // a command field; enums complete their options
	contextEngine                          // engine question of the connection wizard
)

// consoleCompleter implements readline's AutoCompleter interface.
type consoleCompleter struct {
	mu      sync.Mutex
	ctx     completionContext
	ids     []string
	options []string
}

func newCompleter(cat *catalog.Catalog) *consoleCompleter {
	c := &consoleCompleter{}
	for _, cmd := range cat.Commands() {
		c.ids = append(c.ids, strconv.Itoa(cmd.ID))
	}
	return c
}

// setField is installed as the prompter's field hook. A nil field means
// prompting is over and the menu is next.
func (c *consoleCompleter) setField(f *catalog.Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f == nil {
		c.ctx, c.options = contextMenu, nil
		return
	}
	c.ctx = contextField
	if f.Type == catalog.Enum {
		c.options = append([]string(nil), f.Options...)
	} else {
		c.options = nil
	}
}

func (c *consoleCompleter) setContext(ctx completionContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx, c.options = ctx, nil
}

// Do returns completion candidates for the current line/cursor position.
// length is the number of runes before pos that form the prefix being
// completed; newLine holds the suffix to append for each candidate.
func (c *consoleCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	prefix := strings.TrimLeft(string(line[:pos]), " ")
	for _, cand := range c.candidates(prefix) {
		newLine = append(newLine, []rune(cand[len(prefix):]))
	}
	length = len([]rune(prefix))
	return
}

func (c *consoleCompleter) candidates(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.ctx {
	case contextMenu:
		return filterPrefix(c.ids, prefix)
	case contextField:
		return filterPrefix(c.options, prefix)
	case contextEngine:
		return filterPrefix(sqldb.Engines, prefix)
	}
	return nil
}

// filterPrefix returns items that start with prefix (case-insensitive).
func filterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		result := make([]string, len(items))
		copy(result, items)
		return result
	}
	lowerPrefix := strings.ToLower(prefix)
	var result []string
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lowerPrefix) {
			result = append(result, item)
		}
	}
	return result
}
