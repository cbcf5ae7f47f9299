package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	switchFlagTypeName      = "bool"
	switchFlagTrueLiteral   = "true"
	switchFlagAcceptedList  = "true, false, yes, no, on, off, 1, 0"
	errorInvalidSwitchValue = "invalid boolean value %q for --%s; accepted values: %s"
)

// separateSwitchLiterals are the only values consumed from the argument after
// a switch flag; anything else stays positional, so an archive or directory
// named "on" or "y" is never swallowed.
var separateSwitchLiterals = map[string]struct{}{
	"true":  {},
	"false": {},
}

var switchFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// switchFlag is a boolean flag that also accepts yes/no and on/off as
// --name=value. As a separate argument only true and false are taken.
type switchFlag struct {
	target *bool
	name   string
}

func parseSwitchLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		normalized = switchFlagTrueLiteral
	}
	value, known := switchFlagLiterals[normalized]
	return value, known
}

func (flag *switchFlag) Set(input string) error {
	value, known := parseSwitchLiteral(input)
	if !known {
		return fmt.Errorf(errorInvalidSwitchValue, input, flag.name, switchFlagAcceptedList)
	}
	*flag.target = value
	return nil
}

func (flag *switchFlag) String() string {
	if flag == nil || flag.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*flag.target)
}

func (flag *switchFlag) Type() string {
	return switchFlagTypeName
}

// registerBooleanFlag adds a switch flag named name to flagSet, writing into target.
func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	*target = defaultValue
	flagSet.Var(&switchFlag{target: target, name: name}, name, usage)
	registered := flagSet.Lookup(name)
	registered.DefValue = strconv.FormatBool(defaultValue)
	registered.NoOptDefVal = switchFlagTrueLiteral
}

// normalizeBooleanFlagArguments rewrites "--name value" into "--name=value" for
// switch flags whose following argument is true or false. pflag would
// otherwise treat the literal as a positional argument.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	switchNames := map[string]struct{}{}
	collectSwitchFlagNames(command, switchNames)

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == "--" {
			return append(normalized, arguments[index:]...)
		}
		flagName, isLongFlag := strings.CutPrefix(current, "--")
		if isLongFlag && !strings.Contains(flagName, "=") && index+1 < len(arguments) {
			if _, isSwitch := switchNames[flagName]; isSwitch {
				next := arguments[index+1]
				if _, known := separateSwitchLiterals[strings.ToLower(next)]; known {
					normalized = append(normalized, current+"="+next)
					index++
					continue
				}
			}
		}
		normalized = append(normalized, current)
	}
	return normalized
}

func collectSwitchFlagNames(command *cobra.Command, names map[string]struct{}) {
	collect := func(flagSet *pflag.FlagSet) {
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if _, isSwitch := flag.Value.(*switchFlag); isSwitch {
				names[flag.Name] = struct{}{}
			}
		})
	}
	collect(command.PersistentFlags())
	collect(command.Flags())
	for _, child := range command.Commands() {
		collectSwitchFlagNames(child, names)
	}
}
