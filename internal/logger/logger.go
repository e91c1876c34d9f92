package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level represents the logging level.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var levelColors = map[Level]string{
	DEBUG: "\033[36m", // Cyan
	INFO:  "\033[32m", // Green
	WARN:  "\033[33m", // Yellow
	ERROR: "\033[31m", // Red
	FATAL: "\033[35m", // Magenta
}

const colorReset = "\033[0m"

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel converts a level name to a Level. Unknown names map to INFO.
func ParseLevel(levelStr string) Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// Logger writes leveled, optionally colored messages.
// Diagnostics go to stderr so that report output on stdout stays clean.
type Logger struct {
	mu          sync.Mutex
	level       Level
	out         *log.Logger
	colorEnable bool
	exit        func(int)
}

// New creates a Logger writing to w at the given level.
func New(w io.Writer, level Level) *Logger {
	return &Logger{
		level:       level,
		out:         log.New(w, "", log.LstdFlags),
		colorEnable: true,
		exit:        os.Exit,
	}
}

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if l == nil {
		return
	}

	l.mu.Lock()
	if level < l.level {
		l.mu.Unlock()
		return
	}

	message := fmt.Sprintf(format, args...)
	if l.colorEnable {
		l.out.Printf("%s[%s]%s %s", levelColors[level], level, colorReset, message)
	} else {
		l.out.Printf("[%s] %s", level, message)
	}
	exit := l.exit
	l.mu.Unlock()

	if level == FATAL {
		exit(1)
	}
}

var (
	defaultLogger *Logger
	once          sync.Once
)

func std() *Logger {
	once.Do(func() {
		if defaultLogger == nil {
			defaultLogger = New(os.Stderr, INFO)
		}
	})
	return defaultLogger
}

// Init configures the level of the default logger.
func Init(levelStr string) {
	SetLevel(levelStr)
}

// SetLevel sets the logging level for the default logger.
func SetLevel(levelStr string) {
	l := std()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = ParseLevel(levelStr)
}

// SetOutput sets the output destination for the default logger.
func SetOutput(w io.Writer) {
	l := std()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.SetOutput(w)
}

// SetColorEnable enables or disables color output.
func SetColorEnable(enable bool) {
	l := std()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.colorEnable = enable
}

// Debug logs a debug message.
func Debug(format string, args ...interface{}) {
	std().logf(DEBUG, format, args...)
}

// Info logs an info message.
func Info(format string, args ...interface{}) {
	std().logf(INFO, format, args...)
}

// Warn logs a warning message.
func Warn(format string, args ...interface{}) {
	std().logf(WARN, format, args...)
}

// Error logs an error message.
func Error(format string, args ...interface{}) {
	std().logf(ERROR, format, args...)
}

// Fatal logs a fatal message and exits the program.
func Fatal(format string, args ...interface{}) {
	std().logf(FATAL, format, args...)
}
