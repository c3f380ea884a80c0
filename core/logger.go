package core

// Logger is any service that can log messages.
// `args` may hold errors, maps of extra data and a Person.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Reporter is a Logger that also sends the messages to an error tracker.
// The tracker follows the user's crash-report consent.
type Reporter interface {
	Logger
	EnableReports(enabled bool)
}

// Person identifies the user in error reports.
type Person struct {
	ID    string
	Name  string
	Email string
}
