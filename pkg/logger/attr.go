package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// DocID records the document identifier under the key "document_id".
func DocID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("document_id", id)
}

// TxID records the transaction identifier under the key "tx_id".
func TxID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("tx_id", id)
}

// RuleID records the notification rule identifier under the key "rule_id".
func RuleID(id string) slog.Attr {
	return slog.String("rule_id", id)
}

// Provider records the delivery provider under the key "provider".
func Provider(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("provider", id)
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Shard records a worker shard index under the key "shard".
func Shard(n int) slog.Attr {
	return slog.Int("shard", n)
}
