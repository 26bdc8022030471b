package version_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/bstviz/pkg/version"
)

func TestString(t *testing.T) {
	version.InitBinaryVersion()

	line := version.String()
	assert.True(t, strings.HasPrefix(line, "bstviz "))
	assert.Contains(t, line, "commit: "+version.Commit)
	assert.Contains(t, line, "built: "+version.Date)
	assert.NotEmpty(t, version.Version)
}
