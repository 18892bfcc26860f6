package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/redcore/internal/command"
	"github.com/dreamware/redcore/internal/engine"
)

func TestNewBuildsUsableEngine(t *testing.T) {
	eng := engine.New(engine.Config{Databases: 4, ReapInterval: time.Hour})
	defer eng.Close()

	ctx := eng.NewContext()
	f := eng.Execute(ctx, command.Command{Name: "SET", Args: [][]byte{[]byte("k"), []byte("v")}})
	assert.False(t, f.IsError())

	f = eng.Execute(ctx, command.Command{Name: "GET", Args: [][]byte{[]byte("k")}})
	require.False(t, f.IsError())
	assert.Equal(t, "v", string(f.Str))
}

func TestNewContextWiresScriptEngine(t *testing.T) {
	eng := engine.New(engine.Config{Databases: 1, ReapInterval: time.Hour})
	defer eng.Close()

	ctx := eng.NewContext()
	f := eng.Execute(ctx, command.Command{Name: "EVAL", Args: [][]byte{[]byte("return 1 + 1"), []byte("0")}})
	require.False(t, f.IsError())
	assert.Equal(t, int64(2), f.Int)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := engine.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Databases)
}
