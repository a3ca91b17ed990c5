// Package parser extracts cards from markdown deck files. A card is a
// block of prefixed sections:
//
//	Q: question text
//	A: answer text
//	C: optional context
//
// Sections may span multiple lines; a new "Q:" line or a "---" rule
// ends the current card. Anything outside a card is ignored.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/memodeck/memodeck/internal/domain"
)

const separator = "---"

type section int

const (
	none section = iota
	question
	answer
	context
)

var prefixes = map[string]section{
	"Q:": question,
	"A:": answer,
	"C:": context,
}

// ParseFile extracts all cards from the deck file at path.
func ParseFile(path string) ([]domain.Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse extracts all cards from r.
func Parse(r io.Reader) ([]domain.Card, error) {
	var (
		cards   []domain.Card
		current domain.Card
		lines   []string
		active  section
	)

	closeSection := func() {
		for len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		if len(lines) == 0 {
			return
		}
		body := strings.Join(lines, "\n")
		switch active {
		case question:
			current.Question = body
		case answer:
			current.Answer = body
		case context:
			current.Context = body
		}
		lines = nil
	}

	closeCard := func() {
		closeSection()
		if current.Question != "" {
			cards = append(cards, current)
		}
		current = domain.Card{}
		active = none
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if line == separator {
			closeCard()
			continue
		}

		sec, body, ok := splitPrefix(line)
		switch {
		case ok && sec == question:
			// A question always starts a fresh card.
			if active != none {
				closeCard()
			}
			active = question
			lines = append(lines, body)
		case ok:
			closeSection()
			active = sec
			lines = append(lines, body)
		case active != none:
			lines = append(lines, line)
		}
	}
	closeCard()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

// splitPrefix recognizes a section-opening line and returns the
// section together with the remainder of the line, an optional single
// space after the prefix stripped.
func splitPrefix(line string) (section, string, bool) {
	for prefix, sec := range prefixes {
		if strings.HasPrefix(line, prefix) {
			return sec, strings.TrimPrefix(line[len(prefix):], " "), true
		}
	}
	return none, "", false
}
