// Package console holds terminal helpers of the sensorhub command.
package console

import (
	"fmt"
	"io"
	"os"
)

const PictoThermometer = "🌡"
const PictoHumidity = "💧"
const PictoCalendar = "📅"
const PictoPin = "📌"
const PictoStop = "🚫"
const PictoGhost = "👻"
const PictoTree = "🌲"

var writer io.Writer = os.Stdout
var errWriter io.Writer = os.Stderr

func SetOutput(w, errw io.Writer) {
	writer = w
	errWriter = errw
}

func Errorf(msg string, args ...any) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Red("ERROR"), fmt.Sprintf(msg, args...))
}

func Warnf(msg string, args ...any) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Yellow("WARN"), fmt.Sprintf(msg, args...))
}

func Infof(msg string, args ...any) {
	_, _ = fmt.Fprintf(writer, "%s %s\n", White("..."), fmt.Sprintf(msg, args...))
}

func PInfof(picto, msg string, args ...any) {
	_, _ = fmt.Fprintf(writer, "%s %s\n", picto, fmt.Sprintf(msg, args...))
}

func Printf(msg string, args ...any) {
	_, _ = fmt.Fprintf(writer, msg, args...)
}
