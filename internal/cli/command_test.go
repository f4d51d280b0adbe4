package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandDispatchesNestedSubcommands(t *testing.T) {
	var called string
	var got []string

	root := &Command{
		Name: "sellbook",
		Subcommands: []*Command{
			{
				Name: "tickets",
				Subcommands: []*Command{
					{Name: "list", Run: func(args []string) error { called = "list"; return nil }},
					{Name: "show", Run: func(args []string) error { called = "show"; got = args; return nil }},
				},
			},
		},
	}

	require.NoError(t, root.Execute([]string{"tickets", "show", "t1"}))
	assert.Equal(t, "show", called)
	assert.Equal(t, []string{"t1"}, got)
}

func TestCommandParsesFlagsAnywhere(t *testing.T) {
	var page int
	var got []string

	cmd := &Command{
		Name: "list",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
			fs.IntVar(&page, "page", 1, "")
			return fs
		},
		Run: func(args []string) error { got = args; return nil },
	}

	require.NoError(t, cmd.Execute([]string{"a", "--page", "3", "b"}))
	assert.Equal(t, 3, page)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestCommandSuggestsUnknownSubcommand(t *testing.T) {
	root := &Command{
		Name: "sellbook",
		Subcommands: []*Command{
			{Name: "tickets", Run: func([]string) error { return nil }},
			{Name: "portals", Run: func([]string) error { return nil }},
		},
	}

	err := root.Execute([]string{"tikets"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "tickets"`)
}

func TestCommandSuggestsUnknownFlag(t *testing.T) {
	cmd := &Command{
		Name: "stats",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("stats", pflag.ContinueOnError)
			fs.String("window", "all", "")
			return fs
		},
		Run: func([]string) error { return nil },
	}

	err := cmd.Execute([]string{"--windw", "last-year"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean --window")
}

func TestCommandRequiresSubcommand(t *testing.T) {
	var help bytes.Buffer
	root := &Command{
		Name:        "sellbook",
		Subcommands: []*Command{{Name: "stats", Summary: "Show totals", Run: func([]string) error { return nil }}},
	}
	root.SetHelpOutput(&help)

	err := root.Execute(nil)
	require.Error(t, err)
	assert.Contains(t, help.String(), "stats")
	assert.Contains(t, help.String(), "Show totals")
}

func TestCommandHelpIncludesFlagsAndExamples(t *testing.T) {
	var help bytes.Buffer
	var ran bool

	cmd := &Command{
		Name:     "stats",
		Summary:  "Show totals",
		Examples: []Example{{Description: "This week", Command: "sellbook stats -w this-week"}},
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("stats", pflag.ContinueOnError)
			fs.StringP("window", "w", "all", "time window")
			return fs
		},
		Run: func([]string) error { ran = true; return nil },
	}
	cmd.SetHelpOutput(&help)

	require.NoError(t, cmd.Execute([]string{"--help"}))
	assert.False(t, ran)
	assert.Contains(t, help.String(), "--window")
	assert.Contains(t, help.String(), "sellbook stats -w this-week")
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("stats", "stats"))
	assert.Equal(t, 1, levenshtein("tikets", "tickets"))
	assert.Equal(t, 3, levenshtein("", "abc"))
}
