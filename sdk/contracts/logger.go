package contracts

// LogLevel is the minimum severity a Logger emits.
type LogLevel int

const (
	InfoLevel LogLevel = iota
	DebugLevel
	ErrorLevel
	WarnLevel
	FatalLevel
)

// LogDestination selects where a Logger writes.
type LogDestination string

const (
	ConsoleLog LogDestination = "console"
	FileLog    LogDestination = "file"
)

// Field builds one typed key/value pair for a log entry.
type Field interface {
	Bool(key string, val bool) Field
	Int(key string, val int) Field
	Int64(key string, val int64) Field
	Uint64(key string, val uint64) Field
	Float64(key string, val float64) Field
	String(key string, val string) Field
	Error(key string, val error) Field
}

// Logger is the leveled logger shared by nodes, processors and device clients.
// Implementations must be safe for concurrent use, but none of the methods are
// real-time safe; the audio thread never logs.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	Field() Field

	SetLevel(level LogLevel)
	SetDestination(dest LogDestination, filePath ...string)
}
