package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandListen   Command = "listen"
	CommandStart    Command = "start"
	CommandStop     Command = "stop"
	CommandStatus   Command = "status"
	CommandLanguage Command = "language"
	CommandSay      Command = "say"
	CommandParse    Command = "parse"
	CommandDo       Command = "do"
	CommandList     Command = "list"
	CommandSuggest  Command = "suggest"
	CommandDevices  Command = "devices"
	CommandDoctor   Command = "doctor"
	CommandVersion  Command = "version"
	CommandHelp     Command = "help"
)

// arity bounds the positional arguments a command accepts. max < 0 means
// unbounded.
type arity struct {
	min, max int
}

var validCommands = map[Command]arity{
	CommandListen:   {},
	CommandStart:    {},
	CommandStop:     {},
	CommandStatus:   {},
	CommandLanguage: {min: 1, max: 1},
	CommandSay:      {min: 1, max: -1},
	CommandParse:    {min: 1, max: -1},
	CommandDo:       {min: 1, max: -1},
	CommandList:     {},
	CommandSuggest:  {},
	CommandDevices:  {},
	CommandDoctor:   {},
	CommandVersion:  {},
	CommandHelp:     {},
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	ShowHelp   bool
}

// Text joins the positional arguments into one utterance.
func (p Parsed) Text() string {
	return strings.TrimSpace(strings.Join(p.Args, " "))
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			bounds, ok := validCommands[cmd]
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			rest := args[i+1:]
			if len(rest) < bounds.min {
				return Parsed{}, fmt.Errorf("command %q requires an argument", arg)
			}
			if bounds.max >= 0 && len(rest) > bounds.max {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if len(rest) > 0 {
				parsed.Args = append([]string(nil), rest...)
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [args]

Commands:
  listen          Run the voice session until interrupted
  start           Start recognition in the running listener
  stop            Stop recognition in the running listener
  status          Print listener state and language
  language TAG    Switch recognition language (en-US, hi-IN, english, hindi)
  say TEXT...     Send typed text to the running listener
  parse TEXT...   Print the command TEXT parses to, as JSON
  do TEXT...      Parse TEXT and apply it to the shopping list
  list            Print the shopping list
  suggest         Print history, seasonal and substitute suggestions
  devices         List available input devices
  doctor          Run configuration and environment checks
  version         Print version information
  help            Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/basket/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
