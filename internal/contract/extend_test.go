package contract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(v any) ExtensionFunc {
	return func(context.Context, *Instance, ...any) (any, error) { return v, nil }
}

func TestExtendLastWriteWins(t *testing.T) {
	f := Default()
	f.Extend(Extensions{"a": constant(1), "b": constant(1)}, Extensions{"b": constant(2)})
	f.Extend(Extensions{"a": constant(3)})
	assert.Equal(t, []string{"a", "b"}, f.ExtensionNames())

	inst, err := f.Deployed()
	require.NoError(t, err)
	got, err := inst.CallExtension(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 3, got)
	got, err = inst.CallExtension(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestExtensionSeesInstanceAndArgs(t *testing.T) {
	f := Default()
	inst, err := f.Deployed()
	require.NoError(t, err)

	// Added after the instance exists.
	f.Extend(Extensions{"describe": func(_ context.Context, i *Instance, args ...any) (any, error) {
		return []any{i.Address().Hex(), len(args)}, nil
	}})

	got, err := inst.CallExtension(context.Background(), "describe", "x", "y")
	require.NoError(t, err)
	assert.Equal(t, []any{inst.Address().Hex(), 2}, got)

	_, ok := inst.Extension("describe")
	assert.True(t, ok)
}

func TestUnknownExtension(t *testing.T) {
	inst, err := Default().Deployed()
	require.NoError(t, err)
	_, err = inst.CallExtension(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownExtension)
}
