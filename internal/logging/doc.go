// Package logging provides a simple leveled logging interface for the
// asset extractor.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable (or
// DEBUG=true) and may be overridden with SetLevel. Records go to stderr
// through a tint handler and, once SetLogFile is called, to a rotating log
// file as well.
package logging
