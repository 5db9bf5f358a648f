package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuesOptions(t *testing.T) {
	opts, err := issuesOptions(5)
	require.NoError(t, err)
	assert.Equal(t, 5, opts.Limit)

	_, err = issuesOptions(0)
	assert.ErrorContains(t, err, "--last must be at least 1")
}

func TestIssuesCommandKeepsShowAlias(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"show"})
	require.NoError(t, err)
	assert.Same(t, issuesCmd, cmd)
}
