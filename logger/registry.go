package logger

import (
	"maps"
	"slices"
	"sync"
)

// named maps component and client names to the logger their events go to.
var named = struct {
	sync.RWMutex
	loggers map[string]*Logger
}{loggers: make(map[string]*Logger)}

// Register routes the events of the component called name to l. A nil l
// removes the entry.
func Register(name string, l *Logger) {
	named.Lock()
	defer named.Unlock()
	if l == nil {
		delete(named.loggers, name)
		return
	}
	named.loggers[name] = l
}

// Get returns the logger registered under name. Unregistered names get the
// global logger tagged with name.
func Get(name string) *Logger {
	named.RLock()
	l, ok := named.loggers[name]
	named.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// Seed registers base tagged with each name, replacing earlier entries.
// bootstrap.App seeds one entry per registered component so that
// components created later log through the app logger.
func Seed(base *Logger, names ...string) {
	named.Lock()
	defer named.Unlock()
	for _, name := range names {
		named.loggers[name] = base.WithComponent(name)
	}
}

// Registered returns the registered names in sorted order.
func Registered() []string {
	named.RLock()
	defer named.RUnlock()
	return slices.Sorted(maps.Keys(named.loggers))
}
