package observability

import (
	"context"
	"strings"

	"github.com/yungbote/gemeos-pipeline/internal/platform/ctxutil"
	"github.com/yungbote/gemeos-pipeline/internal/platform/logger"
)

// ReportMissingKeys records a trigger rejected for absent payload keys.
func ReportMissingKeys(ctx context.Context, log *logger.Logger, stage string, keys []string) {
	if len(keys) == 0 {
		return
	}
	stage = labelOr(stage, "unknown")
	n := 0
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		Current().IncDataQuality(stage, "missing_required", key)
		n++
	}
	if log != nil && n > 0 {
		log.Warn("data quality missing keys", append([]interface{}{"stage", stage, "keys", keys}, ctxutil.LogFields(ctx)...)...)
	}
}

// ReportMalformedTrigger records an undecodable push body.
func ReportMalformedTrigger(ctx context.Context, log *logger.Logger, route string, err error) {
	Current().IncDataQuality(labelOr(route, "unknown"), "malformed_trigger", "")
	if log != nil {
		log.Warn("malformed trigger rejected", append([]interface{}{"route", route, "error", err}, ctxutil.LogFields(ctx)...)...)
	}
}
