package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	morphon "github.com/goliatone/go-morphon"
)

func TestNewSetCommand(t *testing.T) {
	cmd := NewSetCommand()

	assert.Equal(t, "set <file> <section> <key> <value>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("string"))
}

func TestNewSnapshotCommand(t *testing.T) {
	cmd := NewSnapshotCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"push", "pull", "list", "delete"}, names)

	push, _, err := cmd.Find([]string{"push"})
	assert.NoError(t, err)
	for _, flag := range []string{"name", "etag"} {
		assert.NotNil(t, push.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestParseValue(t *testing.T) {
	cases := []struct {
		raw      string
		asString bool
		want     morphon.Value
	}{
		{raw: "1280", want: morphon.Int(1280)},
		{raw: "true", want: morphon.Bool(true)},
		{raw: `"quoted"`, want: morphon.String("quoted")},
		{raw: "plain words", want: morphon.String("plain words")},
		{raw: "42", asString: true, want: morphon.String("42")},
		{raw: "null", want: morphon.Null()},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got := parseValue(tc.raw, tc.asString)
			assert.True(t, tc.want.Equal(got), "got %v", got)
		})
	}
}

func TestSnapshotName(t *testing.T) {
	assert.Equal(t, "app", snapshotName("/tmp/conf/app.json", ""))
	assert.Equal(t, "app.local", snapshotName("app.local.yaml", ""))
	assert.Equal(t, "custom", snapshotName("app.json", "custom"))
}
