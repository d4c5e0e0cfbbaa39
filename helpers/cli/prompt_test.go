package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadLines(t *testing.T) {
	t.Parallel()

	var lines []string
	ReadLines(strings.NewReader("hex 5\n\ntick 2\nshow"), func(line string) { lines = append(lines, line) })
	assert.Equal(t, []string{"hex 5", "", "tick 2", "show"}, lines)
}
