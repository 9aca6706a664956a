package main

// usageBody is shared by every command; only the Usage header differs.
const usageBody = `
{{if .HasExample}}Examples:
{{.Example}}

{{end}}{{if .HasAvailableSubCommands}}Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}  {{rpad .Name .NamePadding }} {{.Short}}
{{end}}{{end}}
{{end}}{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.
{{end}}`

const rootUsageTemplate = `Usage:
  pgnct <input.pgn> <output.pgn> [flags]
  pgnct --test-connection [flags]
  pgnct [command]
` + usageBody

const subcommandUsageTemplate = `Usage:
  {{.UseLine}}
` + usageBody

const groupUsageTemplate = `Usage:
  {{.UseLine}}
  {{.CommandPath}} [command]
` + usageBody

const rootExample = `  pgnct game.pgn game_es.pgn
  pgnct game.pgn game_de.pgn --target de --offline
  pgnct translate game.pgn game_fr.pgn --provider gemini --target fr -y
  pgnct repair game_es_recovery.json`
