package scenario

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Mismatch is one expectation that did not hold.
type Mismatch struct {
	Field string `json:"field"`
	Want  string `json:"want"`
	Got   string `json:"got"`
	// Diff marks removed text as [-...-] and added text as {+...+}. It is only
	// set for text fields.
	Diff string `json:"diff,omitempty"`
}

func (m Mismatch) String() string {
	if m.Diff != "" {
		return m.Field + ": " + m.Diff
	}

	return m.Field + ": want " + m.Want + ", got " + m.Got
}

// textDiff renders a character diff between want and got.
func textDiff(want, got string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(want, got, false))

	var sb strings.Builder

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("{+" + d.Text + "+}")
		case diffmatchpatch.DiffEqual:
			sb.WriteString(d.Text)
		}
	}

	return sb.String()
}
