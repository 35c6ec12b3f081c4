package util

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ValentinKolb/kvperf/lib/logging"
	"github.com/ValentinKolb/kvperf/lib/serializer"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables read by kvperf
	EnvPrefix = "kvperf"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads .env files and makes viper read KVPERF_* environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// InitLogging sets the level of all package loggers from the log-level setting
func InitLogging() error {
	return logging.InitLoggers(viper.GetString("log-level"))
}

// GetSerializer returns the result codec for path. The format setting wins
// over the file extension.
func GetSerializer(path string) (serializer.IResultSerializer, error) {
	if format := viper.GetString("format"); format != "" {
		return serializer.ForFormat(format)
	}
	return serializer.ForPath(path), nil
}

// WaitForEnter blocks until a line is read from in
func WaitForEnter(in io.Reader, out io.Writer) {
	fmt.Fprint(out, "Press ENTER to exit...")
	_, _ = bufio.NewReader(in).ReadString('\n')
}

// PreRunBindFlags binds the flags of the executed command to viper
func PreRunBindFlags(cmd *cobra.Command, _ []string) error {
	return BindCommandFlags(cmd)
}
