// Package logger builds configured slog.Logger instances for the
// notification engine and provides the shared attribute helpers used in
// log calls across the module (logger.UserID, logger.DocID, ...).
//
// The factory supports JSON and text formats, static attributes and
// context extractors that inject request-scoped values at log time:
//
//	log := logger.New(
//		logger.WithProduction("docnotify"),
//		logger.WithContextValue("request_id", requestIDKey),
//	)
//	logger.SetAsDefault(log)
package logger
