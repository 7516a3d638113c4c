package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/basket.jsonc", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/basket.jsonc", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
	require.Empty(t, parsed.Args)
}

func TestParseTextCommandsKeepArguments(t *testing.T) {
	parsed, err := Parse([]string{"do", "add", "2", "apples"})
	require.NoError(t, err)
	require.Equal(t, CommandDo, parsed.Command)
	require.Equal(t, []string{"add", "2", "apples"}, parsed.Args)
	require.Equal(t, "add 2 apples", parsed.Text())

	parsed, err = Parse([]string{"say", "--config", "find milk"})
	require.NoError(t, err)
	require.Equal(t, CommandSay, parsed.Command)
	require.Equal(t, "--config find milk", parsed.Text())
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  string
		wantCmd  Command
		wantHelp bool
		wantPath string
		wantArgs []string
	}{
		{name: "help short flag", args: []string{"-h"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "help long flag", args: []string{"--help"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "version flag", args: []string{"--version"}, wantCmd: CommandVersion},
		{name: "config after command", args: []string{"status", "--config", "/tmp/cfg"}, wantErr: "unexpected arguments after command"},
		{name: "missing config path", args: []string{"--config"}, wantErr: "requires a path"},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: "unknown flag"},
		{name: "unknown command", args: []string{"bogus"}, wantErr: "unknown command"},
		{name: "extra args after command", args: []string{"doctor", "extra"}, wantErr: "unexpected arguments"},
		{name: "language needs tag", args: []string{"language"}, wantErr: "requires an argument"},
		{name: "language takes one tag", args: []string{"language", "hi-IN", "en-US"}, wantErr: "unexpected arguments"},
		{name: "say needs text", args: []string{"say"}, wantErr: "requires an argument"},
		{name: "valid language", args: []string{"language", "hindi"}, wantCmd: CommandLanguage, wantArgs: []string{"hindi"}},
		{name: "valid listen", args: []string{"listen"}, wantCmd: CommandListen},
		{name: "valid suggest", args: []string{"suggest"}, wantCmd: CommandSuggest},
		{
			name:     "valid stop with config",
			args:     []string{"--config", "/tmp/cfg", "stop"},
			wantCmd:  CommandStop,
			wantPath: "/tmp/cfg",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantPath, parsed.ConfigPath)
			require.Equal(t, tc.wantArgs, parsed.Args)
		})
	}
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("basket")
	for _, cmd := range []string{"listen", "say TEXT", "parse TEXT", "do TEXT", "language TAG", "suggest", "doctor", "--config PATH"} {
		require.Contains(t, text, cmd)
	}
}
