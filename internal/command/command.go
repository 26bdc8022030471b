// Package command parses and applies the text commands accepted at the host
// boundary: insert, delete, search and clear of keys between 0 and 99.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
)

// Sentinel errors.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnknownOp    = errors.New("unknown operation")
)

// Key limits of the text entry.
const (
	MaxKeyDigits = 2
	MaxKey       = 99
)

const invalidPrefix = "Invalid input: "

// Op is a tree operation.
type Op string

// Operations.
const (
	OpInsert Op = "insert"
	OpDelete Op = "delete"
	OpSearch Op = "search"
	OpClear  Op = "clear"
)

var opAliases = map[string]Op{
	"insert": OpInsert,
	"add":    OpInsert,
	"delete": OpDelete,
	"remove": OpDelete,
	"del":    OpDelete,
	"search": OpSearch,
	"find":   OpSearch,
	"clear":  OpClear,
}

// Ops lists the canonical operations.
func Ops() []Op {
	return []Op{OpInsert, OpDelete, OpSearch, OpClear}
}

// ParseOp resolves an operation name or alias, case-insensitively.
func ParseOp(name string) (Op, error) {
	op, ok := opAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownOp, name)
	}

	return op, nil
}

// NeedsKey reports whether the operation takes a key.
func (op Op) NeedsKey() bool {
	return op != OpClear
}

// ParseKey accepts one or two decimal digits and nothing else.
func ParseKey(text string) (int, error) {
	switch {
	case text == "":
		return 0, fmt.Errorf("%w: empty key", ErrInvalidInput)
	case len(text) > MaxKeyDigits:
		return 0, fmt.Errorf("%w: %q has more than %d characters", ErrInvalidInput, text, MaxKeyDigits)
	}

	key := 0

	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, text)
		}

		key = key*10 + int(r-'0')
	}

	return key, nil
}

// Command is one operation with its key. Key is ignored for OpClear.
type Command struct {
	Op  Op  `json:"op"`
	Key int `json:"key,omitempty"`
}

// Parse reads the text form "insert 42", "delete 7", "search 5" or "clear".
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty command", ErrInvalidInput)
	}

	op, err := ParseOp(fields[0])
	if err != nil {
		return Command{}, err
	}

	if !op.NeedsKey() {
		if len(fields) != 1 {
			return Command{}, fmt.Errorf("%w: %s takes no key", ErrInvalidInput, op)
		}

		return Command{Op: op}, nil
	}

	if len(fields) != 2 {
		return Command{}, fmt.Errorf("%w: %s takes exactly one key", ErrInvalidInput, op)
	}

	key, err := ParseKey(fields[1])
	if err != nil {
		return Command{}, err
	}

	return Command{Op: op, Key: key}, nil
}

// Validate checks a command built outside Parse, e.g. decoded from JSON.
func (c Command) Validate() error {
	if op, ok := opAliases[string(c.Op)]; !ok || op != c.Op {
		return fmt.Errorf("%w: %q", ErrUnknownOp, c.Op)
	}

	if c.Op.NeedsKey() && (c.Key < 0 || c.Key > MaxKey) {
		return fmt.Errorf("%w: key %d outside 0..%d", ErrInvalidInput, c.Key, MaxKey)
	}

	return nil
}

// String returns the text form accepted by Parse.
func (c Command) String() string {
	if !c.Op.NeedsKey() {
		return string(c.Op)
	}

	return string(c.Op) + " " + strconv.Itoa(c.Key)
}

// Result is the immediate outcome of a command. OK is false only for a delete
// of an absent key or a rejected command; search results arrive later
// through the controller's status line.
type Result struct {
	Status string `json:"status"`
	OK     bool   `json:"ok"`
}

// Apply runs the command on ctrl. It must be called on the goroutine that
// owns ctrl.
func (c Command) Apply(ctrl *layout.Controller) Result {
	if err := c.Validate(); err != nil {
		return Reject(ctrl, err)
	}

	ok := true

	switch c.Op {
	case OpInsert:
		ctrl.Insert(c.Key)
	case OpDelete:
		ok = ctrl.Remove(c.Key)
	case OpSearch:
		ctrl.Search(c.Key)
	case OpClear:
		ctrl.Clear()
	}

	return Result{Status: ctrl.Status(), OK: ok}
}

// Reject shows a boundary error on the status line without touching the tree.
func Reject(ctrl *layout.Controller, err error) Result {
	status := InvalidStatus(err)
	ctrl.SetStatus(status)

	return Result{Status: status}
}

// InvalidStatus renders a boundary error as a status line.
func InvalidStatus(err error) string {
	reason := err.Error()
	for _, sentinel := range []error{ErrInvalidInput, ErrUnknownOp} {
		reason = strings.TrimPrefix(reason, sentinel.Error()+": ")
	}

	return invalidPrefix + reason
}
