package third_party

import "sync"

// PerfLogger receives numeric samples tagged with the metric's namespace,
// plug a real sink in with SetPerfLogger.
type PerfLogger interface {
	LogWithTags(namespace, subtag, extra1, extra2 string, value int64)
}

type NullPerfLogger struct{}

func (n *NullPerfLogger) LogWithTags(namespace, subtag, extra1, extra2 string, value int64) {}

// MemoryPerfLogger keeps the last value of every tag tuple.
type MemoryPerfLogger struct {
	mu     sync.Mutex
	values map[string]int64
	count  int
}

func NewMemoryPerfLogger() *MemoryPerfLogger {
	return &MemoryPerfLogger{values: make(map[string]int64)}
}

func perfKey(namespace, subtag, extra1, extra2 string) string {
	key := namespace + "." + subtag
	if extra1 != "" {
		key += "." + extra1
	}
	if extra2 != "" {
		key += "." + extra2
	}
	return key
}

func (m *MemoryPerfLogger) LogWithTags(namespace, subtag, extra1, extra2 string, value int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[perfKey(namespace, subtag, extra1, extra2)] = value
	m.count++
}

func (m *MemoryPerfLogger) Get(key string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryPerfLogger) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

var (
	perfLogger PerfLogger = &NullPerfLogger{}
)

func SetPerfLogger(pl PerfLogger) PerfLogger {
	old := perfLogger
	perfLogger = pl
	return old
}

func PerfLog(namespace, subtag string, value int64) {
	perfLogger.LogWithTags(namespace, subtag, "", "", value)
}

func PerfLog1(namespace, subtag, extra1 string, value int64) {
	perfLogger.LogWithTags(namespace, subtag, extra1, "", value)
}

func PerfLog2(namespace, subtag, extra1, extra2 string, value int64) {
	perfLogger.LogWithTags(namespace, subtag, extra1, extra2, value)
}
