package cmdutil

import (
	"strings"

	"github.com/spf13/pflag"
)

// SplitKnownArgs separates args into those fs understands and everything
// else, preserving order within each. Unknown arguments are meant to be
// forwarded verbatim to another program, so an unknown flag never consumes
// the word after it. Everything after "--" is unknown.
func SplitKnownArgs(fs *pflag.FlagSet, args []string) (known, unknown []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			unknown = append(unknown, args[i+1:]...)
			return known, unknown
		}

		flag, inline := lookup(fs, arg)
		if flag == nil {
			unknown = append(unknown, arg)
			continue
		}

		known = append(known, arg)
		if inline || flag.NoOptDefVal != "" {
			continue
		}
		if i+1 < len(args) {
			i++
			known = append(known, args[i])
		}
	}
	return known, unknown
}

// lookup finds the flag named by arg. inline reports whether the value is
// part of arg itself (--name=value). Single-dash words longer than a bare
// shorthand are never ours: test executables commonly take -name=value.
func lookup(fs *pflag.FlagSet, arg string) (flag *pflag.Flag, inline bool) {
	switch {
	case strings.HasPrefix(arg, "--") && len(arg) > 2:
		name, _, hasValue := strings.Cut(arg[2:], "=")
		return fs.Lookup(name), hasValue
	case strings.HasPrefix(arg, "-") && len(arg) == 2:
		return fs.ShorthandLookup(arg[1:]), false
	}
	return nil, false
}
