package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloser struct {
	closed int
}

func (f *fakeCloser) Close() error {
	f.closed++
	return nil
}

func TestRunClosesCacheOnFailure(t *testing.T) {
	logger = zerolog.Nop()
	fc := &fakeCloser{}

	failing := &cobra.Command{
		Use: "failing",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			closer = fc
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("lookup failed")
		},
	}
	rootCmd.AddCommand(failing)
	t.Cleanup(func() {
		rootCmd.RemoveCommand(failing)
		rootCmd.SetArgs(nil)
		closer = nil
	})

	rootCmd.SetArgs([]string{"failing"})
	err := run(context.Background())
	require.EqualError(t, err, "lookup failed")
	assert.Equal(t, 1, fc.closed)
	assert.Nil(t, closer)

	require.NoError(t, shutdownApp())
	assert.Equal(t, 1, fc.closed)
}
