package main

import (
	"errors"

	"github.com/ergochat/readline"

	"github.com/bawdo/dbconsole/prompter"
)

// lineSource is the part of *readline.Instance the console needs.
type lineSource interface {
	ReadLine() (string, error)
	SetPrompt(string)
}

// readlineInput adapts readline to prompter.LineReader, reporting Ctrl-C as
// prompter.ErrInterrupt.
type readlineInput struct {
	rl lineSource
}

func (r readlineInput) ReadLine() (string, error) {
	line, err := r.rl.ReadLine()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", prompter.ErrInterrupt
	}
	return line, err
}

func (r readlineInput) SetPrompt(p string) {
	r.rl.SetPrompt(p)
}
