package logging

import (
	"os"
	"runtime/debug"
	"sync/atomic"
)

var (
	kLogger      = GetLogger("graph_partitioner")
	verboseLevel = int32(0)

	// invoked after a fatal message is flushed, tests may swap it to observe
	// an assertion instead of terminating the process
	exitFunc = os.Exit
)

func init() {
	kLogger.SetDepth(kLogger.Depth() + 1)
}

func Fatal(format string, args ...interface{}) {
	kLogger.Errorf(format, args...)
	kLogger.Errorf(string(debug.Stack()))
	kLogger.Flush()
	exitFunc(255)
}

// Assert is used for structural invariants only: a failed assertion means
// the partition state can no longer be trusted, so the process goes down.
func Assert(exp bool, format string, args ...interface{}) {
	if !exp {
		Fatal(format, args...)
	}
}

func InfoIf(flag bool, format string, args ...interface{}) {
	if flag {
		kLogger.Infof(format, args...)
	}
}

func Info(format string, args ...interface{}) {
	kLogger.Infof(format, args...)
}

func Warning(format string, args ...interface{}) {
	kLogger.Warningf(format, args...)
}

func Error(format string, args ...interface{}) {
	kLogger.Errorf(format, args...)
}

func Verbose(lvl int32, format string, args ...interface{}) {
	l := atomic.LoadInt32(&verboseLevel)
	if lvl <= l {
		kLogger.Infof(format, args...)
	}
}

func VerboseEnabled(lvl int32) bool {
	return lvl <= atomic.LoadInt32(&verboseLevel)
}

func SetVerboseLevel(level int32) {
	Info("set verbose level to %d", level)
	atomic.StoreInt32(&verboseLevel, level)
}

func SetExitFunc(f func(code int)) (previous func(code int)) {
	previous = exitFunc
	exitFunc = f
	return
}

func Flush() {
	kLogger.Flush()
}
