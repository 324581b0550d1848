package core

// Logger is any service that can log application messages and report errors.
// Implementations may attach the acting user when one is passed in args.
type Logger interface {
	Enable(enabled bool)
	Info(msg string, args ...interface{})
	Error(msg string, err error, args ...interface{})
}
