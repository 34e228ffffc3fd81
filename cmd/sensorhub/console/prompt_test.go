package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	answers := []string{Yes, No, Quit}
	assert.Equal(t, Yes, match("", answers))
	assert.Equal(t, No, match(" N ", answers))
	assert.Equal(t, Quit, match("q", answers))
	assert.Equal(t, Yes, match("maybe", answers))
}
