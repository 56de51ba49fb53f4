package logging

type Logger interface {
	Depth() int
	SetDepth(depth int)
	Errorf(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Flush()
}

type LoggerFactory func(moduleName string) Logger

var (
	loggerFactory LoggerFactory = GetDefaultLogger
)

// SetLoggerFactory only affects loggers created afterwards, call it before
// any package level logger is initialized.
func SetLoggerFactory(factory LoggerFactory) {
	loggerFactory = factory
}

func GetLogger(moduleName string) Logger {
	return loggerFactory(moduleName)
}

// ReplaceLogger swaps the logger behind the package level helpers and returns
// the old one.
func ReplaceLogger(l Logger) Logger {
	old := kLogger
	kLogger = l
	return old
}
