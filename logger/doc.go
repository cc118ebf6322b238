// Package logger provides structured logging using zerolog.
//
// It supports JSON and console output, level configuration, component
// scoped loggers and a registry of named loggers. The HTTP client looks up
// its logger by client name, so registering one under that name routes the
// client's events to it. bootstrap.App seeds one entry per registered
// component from its own logger.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("billing-api")
//	log.Info("request sent", logger.Fields("status", 200))
package logger
