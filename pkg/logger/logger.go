// Package logger is the colored, leveled console logger shared by every
// component of the service.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

var (
	cInf  = color.New(color.FgCyan, color.Bold).SprintFunc()
	cDbg  = color.New(color.FgMagenta).SprintFunc()
	cWarn = color.New(color.FgYellow, color.Bold).SprintFunc()
	cErr  = color.New(color.FgRed, color.Bold).SprintFunc()
	cSucc = color.New(color.FgGreen, color.Bold).SprintFunc()
	cFatl = color.New(color.BgRed, color.FgWhite, color.Bold).SprintFunc()
	cTime = color.New(color.FgHiBlack).SprintFunc()
	cComp = color.New(color.FgHiBlue).SprintFunc()
)

var (
	mu     sync.Mutex
	stdout io.Writer = color.Output
	stderr io.Writer = color.Error
	debug  atomic.Bool
)

func init() {
	log.SetFlags(0)
}

// SetOutput redirects info/debug lines to out and warnings/errors to errOut.
// Passing nil keeps the current writer.
func SetOutput(out, errOut io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderr = errOut
	}
}

// SetDebug toggles LogDebug output.
func SetDebug(enabled bool) {
	debug.Store(enabled)
}

// Writer returns the writer used for info level output.
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return stdout
}

func timeStamp() string {
	return cTime(time.Now().Format("2006-01-02 15:04:05"))
}

func emit(toErr bool, level, component, msg string) {
	prefix := ""
	if component != "" {
		prefix = cComp("["+component+"]") + " "
	}

	mu.Lock()
	defer mu.Unlock()
	w := stdout
	if toErr {
		w = stderr
	}
	fmt.Fprintf(w, "%s %s %s%s\n", timeStamp(), level, prefix, msg)
}

func LogInfo(format string, v ...interface{}) {
	emit(false, cInf("[INFO]"), "", fmt.Sprintf(format, v...))
}

func LogSuccess(format string, v ...interface{}) {
	emit(false, cSucc("[OK]"), "", fmt.Sprintf(format, v...))
}

func LogDebug(format string, v ...interface{}) {
	if !debug.Load() {
		return
	}
	emit(false, cDbg("[DEBUG]"), "", fmt.Sprintf(format, v...))
}

func LogWarn(format string, v ...interface{}) {
	emit(true, cWarn("[WARN]"), "", fmt.Sprintf(format, v...))
}

func LogError(format string, v ...interface{}) {
	emit(true, cErr("[ERR]"), "", fmt.Sprintf(format, v...))
}

func LogFatal(format string, v ...interface{}) {
	emit(true, cFatl("[FATAL]"), "", fmt.Sprintf(format, v...))
	os.Exit(1)
}

// Logger tags every line with a component name, e.g. "[reconciler]".
// The zero value and a nil *Logger both log without a tag.
type Logger struct {
	component string
}

// New returns a component logger.
func New(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) name() string {
	if l == nil {
		return ""
	}
	return l.component
}

func (l *Logger) Info(format string, v ...interface{}) {
	emit(false, cInf("[INFO]"), l.name(), fmt.Sprintf(format, v...))
}

func (l *Logger) Success(format string, v ...interface{}) {
	emit(false, cSucc("[OK]"), l.name(), fmt.Sprintf(format, v...))
}

func (l *Logger) Debug(format string, v ...interface{}) {
	if !debug.Load() {
		return
	}
	emit(false, cDbg("[DEBUG]"), l.name(), fmt.Sprintf(format, v...))
}

func (l *Logger) Warn(format string, v ...interface{}) {
	emit(true, cWarn("[WARN]"), l.name(), fmt.Sprintf(format, v...))
}

func (l *Logger) Error(format string, v ...interface{}) {
	emit(true, cErr("[ERR]"), l.name(), fmt.Sprintf(format, v...))
}

// LogServerStart prints the listening banner.
func LogServerStart(port int, baseURL string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "   %s  %s\n", cSucc("⚡ Media server is active"), cTime("waiting for uploads..."))
	fmt.Fprintf(stdout, "   %s  %s\n", cInf("➜ Local:"), fmt.Sprintf("http://localhost:%d", port))
	fmt.Fprintf(stdout, "   %s  %s\n", cInf("➜ Public:"), color.New(color.FgHiBlue, color.Underline).Sprint(baseURL))
	fmt.Fprintln(stdout)
}
