package logger

// Instance defines the interface for logging backends.
type Instance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

// Logger holds the configured backends and dispatches every call to all of
// them. Logging before Init is a no-op, so library code may log freely.
type Logger struct {
	instances []Instance
}

var singleton *Logger

// Init installs the global logger backends. Call once at process start.
func Init(instances ...Instance) {
	singleton = &Logger{instances: instances}
}

func dispatch(fn func(Instance)) {
	if singleton == nil {
		return
	}
	for _, instance := range singleton.instances {
		fn(instance)
	}
}

// Log writes a message at the default level to all backends.
func Log(message string, keyvals ...any) {
	dispatch(func(i Instance) { i.Log(message, keyvals...) })
}

// Debug writes a message at DEBUG level to all backends.
func Debug(message string, keyvals ...any) {
	dispatch(func(i Instance) { i.Debug(message, keyvals...) })
}

// Info writes a message at INFO level to all backends.
func Info(message string, keyvals ...any) {
	dispatch(func(i Instance) { i.Info(message, keyvals...) })
}

// Warn writes a message at WARN level to all backends.
func Warn(message string, keyvals ...any) {
	dispatch(func(i Instance) { i.Warn(message, keyvals...) })
}

// Error writes a message at ERROR level to all backends.
func Error(message string, keyvals ...any) {
	dispatch(func(i Instance) { i.Error(message, keyvals...) })
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	dispatch(func(i Instance) { i.Fatal(message, keyvals...) })
}
