package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"encode", "decode", "options"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestEncode(t *testing.T) {
	out, err := run(t, "encode", "--genre", "rpg,unknown", "--sale", "--max", "250", "--sort", "price-asc")
	require.NoError(t, err)
	assert.Equal(t, "/games?genre=rpg&sale=true&sort=price-asc\n", out)

	out, err = run(t, "encode")
	require.NoError(t, err)
	assert.Equal(t, "/games\n", out)
}

func TestDecodeNormalizes(t *testing.T) {
	out, err := run(t, "decode", "https://shop.example/games?sale=1&genre=strategy&genre=rpg&min=90&max=20&sort=bogus")
	require.NoError(t, err)
	assert.Equal(t, "/games?genre=rpg&genre=strategy&max=90&min=20&sale=true\n", out)
}

func TestDecodeJson(t *testing.T) {
	out, err := run(t, "--format", "json", "--path", "/store", "decode", "q=zelda&rating=4")
	require.NoError(t, err)

	var res stateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "/store?q=zelda&rating=4", res.Url)
	assert.Equal(t, 2, res.Active)
	assert.Equal(t, "zelda", res.State.Search)
}

func TestOptions(t *testing.T) {
	out, err := run(t, "options", "platform")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 6)
	assert.Contains(t, lines, "platform\tswitch\tNintendo Switch")

	_, err = run(t, "options", "color")
	assert.ErrorContains(t, err, `unknown facet "color"`)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "--format", "xml", "options")
	assert.ErrorContains(t, err, "invalid format")
}
