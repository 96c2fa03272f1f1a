// Package logger provides structured logging for the relay broker,
// backed by zerolog.
//
// A process-wide logger is initialized once from configuration at
// startup; components derive tagged child loggers from it:
//
//	logger.Init(cfg.Logging)
//	log := logger.WithComponent("hub")
//	log.Info("consumer attached", logger.Fields("consumer_id", id))
package logger
