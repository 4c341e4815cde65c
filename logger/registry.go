package logger

import "sync"

// Component loggers. The app binds one per subsystem at startup so that
// scheduler, runner and server lines carry their own component tag while
// sharing the app's sinks.
var components = struct {
	sync.RWMutex
	byName map[string]*Logger
}{byName: make(map[string]*Logger)}

// Register binds l to a component name, replacing any earlier binding.
func Register(name string, l *Logger) {
	components.Lock()
	defer components.Unlock()
	components.byName[name] = l
}

// Get returns the logger bound to name. Before the app has bound one, it
// falls back to the global logger tagged with the component name.
func Get(name string) *Logger {
	components.RLock()
	l, ok := components.byName[name]
	components.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterComponents binds a child of base, tagged with the component name,
// for each of names.
func RegisterComponents(base *Logger, names ...string) {
	components.Lock()
	defer components.Unlock()
	for _, name := range names {
		components.byName[name] = base.WithComponent(name)
	}
}
