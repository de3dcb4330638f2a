package wallet

import "time"

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationResult(string, string) {}
func (n *NoopMetricsCollector) RecordBalanceChange(int64, int64)     {}
func (n *NoopMetricsCollector) RecordPersistDuration(time.Duration)  {}
func (n *NoopMetricsCollector) RecordHydration(string)               {}
func (n *NoopMetricsCollector) RecordError(string, string)           {}
