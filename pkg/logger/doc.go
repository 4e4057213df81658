// Package logger builds the service-wide *slog.Logger.
//
// New applies functional options on top of production defaults (JSON, INFO)
// and wraps the chosen handler with LogHandlerDecorator so request-scoped
// values such as the request id are attached to every record:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "upvote"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "feedback created",
//	    logger.CompanyID(companyID),
//	    logger.ApplicationID(appID),
//	)
//
// Attribute helpers in attr.go keep key names consistent across packages and
// return an empty slog.Attr for nil values so call sites need no nil checks.
package logger
