package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id any) slog.Attr {
	return anyAttr("request_id", id)
}

// CompanyID records the tenant identifier under the key "company_id".
func CompanyID(id any) slog.Attr {
	return anyAttr("company_id", id)
}

// ApplicationID records the application identifier under the key "application_id".
func ApplicationID(id any) slog.Attr {
	return anyAttr("application_id", id)
}

// FeedbackID records the feedback identifier under the key "feedback_id".
func FeedbackID(id any) slog.Attr {
	return anyAttr("feedback_id", id)
}

// EndUserID records the embedding site's user id under the key "end_user_id".
func EndUserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("end_user_id", id)
}

// Plan records a subscription plan under the key "plan".
func Plan(plan any) slog.Attr {
	return anyAttr("plan", plan)
}

// Provider records a third-party provider name under the key "provider".
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func anyAttr(key string, v any) slog.Attr {
	if v == nil {
		return slog.Attr{}
	}
	return slog.Any(key, v)
}
