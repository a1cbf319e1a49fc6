package interfaces

import "fmt"

// TestLogger is a simple logger implementation for testing purposes.
// It writes to stdout and can be used in tests where a Logger interface is required.
type TestLogger struct {
	component string
	verbose   bool
}

// NewTestLogger creates a new test logger. Debug and Info lines are printed
// only when verbose is true.
func NewTestLogger(verbose bool) *TestLogger {
	return &TestLogger{verbose: verbose}
}

func (tl *TestLogger) print(level, msg string, fields []Field) {
	if tl.component != "" {
		fmt.Printf("[%s] %s %s %v\n", level, tl.component, msg, fields)
		return
	}
	fmt.Printf("[%s] %s %v\n", level, msg, fields)
}

func (tl *TestLogger) Debug(msg string, fields ...Field) {
	if tl.verbose {
		tl.print("DEBUG", msg, fields)
	}
}

func (tl *TestLogger) Info(msg string, fields ...Field) {
	if tl.verbose {
		tl.print("INFO", msg, fields)
	}
}

func (tl *TestLogger) Warn(msg string, fields ...Field) {
	tl.print("WARN", msg, fields)
}

func (tl *TestLogger) Error(msg string, fields ...Field) {
	tl.print("ERROR", msg, fields)
}

func (tl *TestLogger) With(fields ...Field) Logger {
	child := &TestLogger{component: tl.component, verbose: tl.verbose}
	for _, f := range fields {
		if f.Key == "component" {
			if s, ok := f.Value.(string); ok {
				child.component = s
			}
		}
	}
	return child
}
