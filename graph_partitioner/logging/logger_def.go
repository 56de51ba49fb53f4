package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type defaultLogger struct {
	mu     sync.RWMutex
	depth  int
	module string
	out    io.Writer
}

func GetDefaultLogger(moduleName string) Logger {
	return NewWriterLogger(moduleName, os.Stdout)
}

func NewWriterLogger(moduleName string, out io.Writer) Logger {
	return &defaultLogger{module: moduleName, out: out}
}

func (l *defaultLogger) Depth() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.depth
}

func (l *defaultLogger) SetDepth(depth int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.depth = depth
}

func (l *defaultLogger) write(level byte, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(
		l.out,
		"%c%s %s] ",
		level,
		time.Now().Format("0102 15:04:05.000000"),
		l.module,
	)
	fmt.Fprintf(l.out, format, args...)
	fmt.Fprintf(l.out, "\n")
}

func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	l.write('E', format, args...)
}

func (l *defaultLogger) Warningf(format string, args ...interface{}) {
	l.write('W', format, args...)
}

func (l *defaultLogger) Infof(format string, args ...interface{}) {
	l.write('I', format, args...)
}

func (l *defaultLogger) Flush() {
}
