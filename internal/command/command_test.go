package command_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bstviz/internal/command"
	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
)

func TestParseKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"0", 0, true},
		{"7", 7, true},
		{"07", 7, true},
		{"99", 99, true},
		{"", 0, false},
		{"100", 0, false},
		{"-1", 0, false},
		{"4a", 0, false},
		{" 4", 0, false},
		{"٣", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			key, err := command.ParseKey(tt.input)
			if !tt.ok {
				require.ErrorIs(t, err, command.ErrInvalidInput)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	cmd, err := command.Parse("insert 42")
	require.NoError(t, err)
	assert.Equal(t, command.Command{Op: command.OpInsert, Key: 42}, cmd)
	assert.Equal(t, "insert 42", cmd.String())

	cmd, err = command.Parse("  REMOVE   7 ")
	require.NoError(t, err)
	assert.Equal(t, command.Command{Op: command.OpDelete, Key: 7}, cmd)

	cmd, err = command.Parse("clear")
	require.NoError(t, err)
	assert.Equal(t, "clear", cmd.String())

	_, err = command.Parse("")
	require.ErrorIs(t, err, command.ErrInvalidInput)

	_, err = command.Parse("clear 5")
	require.ErrorIs(t, err, command.ErrInvalidInput)

	_, err = command.Parse("search")
	require.ErrorIs(t, err, command.ErrInvalidInput)

	_, err = command.Parse("search abc")
	require.ErrorIs(t, err, command.ErrInvalidInput)

	_, err = command.Parse("rotate 5")
	require.ErrorIs(t, err, command.ErrUnknownOp)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, command.Command{Op: command.OpSearch, Key: 99}.Validate())
	require.NoError(t, command.Command{Op: command.OpClear, Key: 500}.Validate())
	require.ErrorIs(t, command.Command{Op: command.OpInsert, Key: 100}.Validate(), command.ErrInvalidInput)
	require.ErrorIs(t, command.Command{Op: "remove", Key: 1}.Validate(), command.ErrUnknownOp)
	require.ErrorIs(t, command.Command{Op: "rotate"}.Validate(), command.ErrUnknownOp)
}

func TestApply(t *testing.T) {
	t.Parallel()

	ctrl := layout.New(layout.DefaultParams())

	res := command.Command{Op: command.OpInsert, Key: 13}.Apply(ctrl)
	assert.Equal(t, command.Result{Status: "Inserted: 13", OK: true}, res)

	res = command.Command{Op: command.OpDelete, Key: 5}.Apply(ctrl)
	assert.Equal(t, command.Result{Status: "Not found: 5", OK: false}, res)

	res = command.Command{Op: command.OpSearch, Key: 13}.Apply(ctrl)
	assert.Equal(t, command.Result{Status: "Searching: 13", OK: true}, res)
	assert.Equal(t, "Found: 13", ctrl.Tick(layout.DefaultSearchStep.Seconds()))

	res = command.Command{Op: command.OpDelete, Key: 13}.Apply(ctrl)
	assert.Equal(t, command.Result{Status: "Removed: 13", OK: true}, res)

	res = command.Command{Op: command.OpClear}.Apply(ctrl)
	assert.Equal(t, command.Result{Status: layout.StatusCleared, OK: true}, res)
}

func TestApplyRejectsInvalid(t *testing.T) {
	t.Parallel()

	ctrl := layout.New(layout.DefaultParams())

	res := command.Command{Op: command.OpInsert, Key: 123}.Apply(ctrl)
	assert.False(t, res.OK)
	assert.Equal(t, "Invalid input: key 123 outside 0..99", res.Status)
	assert.Equal(t, res.Status, ctrl.Status())
	assert.Equal(t, 0, ctrl.Size())
}

func TestInvalidStatus(t *testing.T) {
	t.Parallel()

	_, err := command.ParseKey("abc")
	assert.Equal(t, `Invalid input: "abc" has more than 2 characters`, command.InvalidStatus(err))

	_, err = command.ParseOp("jump")
	assert.Equal(t, `Invalid input: "jump"`, command.InvalidStatus(err))
}

func TestCommandJSON(t *testing.T) {
	t.Parallel()

	var cmd command.Command

	require.NoError(t, json.Unmarshal([]byte(`{"op":"search","key":42}`), &cmd))
	assert.Equal(t, command.Command{Op: command.OpSearch, Key: 42}, cmd)

	data, err := json.Marshal(command.Command{Op: command.OpClear})
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"clear"}`, string(data))
}
