package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/pflag"
)

// verbosityValue lets -v and -q write the same counter, applied in command-line order.
type verbosityValue struct {
	level *int
	kind  string
}

func (v *verbosityValue) String() string {
	if v.level == nil {
		return "0"
	}
	return strconv.Itoa(*v.level)
}

func (v *verbosityValue) Set(s string) error {
	if s == "+1" {
		*v.level++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid verbosity %q", s)
	}
	*v.level = n
	return nil
}

func (v *verbosityValue) Type() string { return v.kind }

func addVerbosityFlags(fs *pflag.FlagSet, level *int) {
	verbose := fs.VarPF(&verbosityValue{level: level, kind: "count"}, "verbose", "v", "increase verbosity (repeatable)")
	verbose.NoOptDefVal = "+1"

	quiet := fs.VarPF(&verbosityValue{level: level, kind: "quiet"}, "quiet", "q", "reset verbosity to 0")
	quiet.NoOptDefVal = "0"
}
