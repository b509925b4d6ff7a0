package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	require.Error(t, err)
}

func TestGetLines(t *testing.T) {
	var out bytes.Buffer
	got, err := GetLines(rdr("/tmp/a.jpg\n  /tmp/b.png \n\nignored\n"), "Images", &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/a.jpg", "/tmp/b.png"}, got)

	got, err = GetLines(rdr("only"), "Images", &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, got)
}

func TestGetSecret(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) { return []byte(" tok \n"), nil }
	var out bytes.Buffer
	got, err := GetSecret("Session token", &out)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
	assert.Equal(t, "Session token: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetSecret("Session token", &out)
	require.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"wifi", "parking", "ac"}, splitList("wifi, parking,,ac "))
	assert.Nil(t, splitList(" , "))
}

func TestParsePrice(t *testing.T) {
	v, err := parsePrice("25,000")
	require.NoError(t, err)
	assert.Equal(t, 25000.0, v)

	v, err = parsePrice("")
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = parsePrice("-1")
	require.Error(t, err)
	_, err = parsePrice("cheap")
	require.Error(t, err)
}
