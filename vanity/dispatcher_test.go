package vanity

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_OnlyOne(t *testing.T) {
	tab, err := Compile(Config{Owner: zeroOwner, End: "A", CaseSensitive: true, OnlyOne: true})
	require.NoError(t, err)

	var out bytes.Buffer
	d := NewDispatcher(tab, &out, logr.Discard())
	d.Workers = 2
	d.GlobalSize = 64
	d.Iterations = 8

	require.NoError(t, d.Run(context.Background()))
	require.EqualValues(t, 1, d.Found())
	require.NotZero(t, d.Checked())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)

	var m Match
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &m))

	assert.True(t, strings.HasSuffix(m.Address, "A"), m.Address)
	assert.NotEmpty(t, m.Init.Code)
	assert.NotEmpty(t, m.Salt)
	assert.NotZero(t, m.Timestamp)
	assert.Equal(t, tab.Config(), m.Config)
}

func TestDispatcher_CancelledContext(t *testing.T) {
	tab, err := Compile(Config{Owner: zeroOwner, End: "zzzzzz", CaseSensitive: true})
	require.NoError(t, err)

	var out bytes.Buffer
	d := NewDispatcher(tab, &out, logr.Discard())
	d.Workers = 1
	d.GlobalSize = 4
	d.Iterations = 1

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, d.Run(ctx))
	require.Zero(t, d.Found())
}

func TestDispatcher_Defaults(t *testing.T) {
	tab, err := Compile(Config{Owner: zeroOwner, End: "A", CaseSensitive: true})
	require.NoError(t, err)

	d := NewDispatcher(tab, &bytes.Buffer{}, logr.Discard())
	require.Greater(t, d.Workers, 0)
	require.GreaterOrEqual(t, d.Iterations, uint32(minIterations))
	require.NotZero(t, d.GlobalSize)
}

func TestDispatcher_SaltRotation(t *testing.T) {
	tab, err := Compile(Config{Owner: zeroOwner, End: "A", CaseSensitive: true})
	require.NoError(t, err)

	d := NewDispatcher(tab, &bytes.Buffer{}, logr.Discard())

	a, err := d.nextSalt(0)
	require.NoError(t, err)
	b, err := d.nextSalt(1)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}
