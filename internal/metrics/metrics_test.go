package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"walletd/internal/services/wallet"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

var _ wallet.MetricsCollector = (*Collector)(nil)

func TestCollector_Records(t *testing.T) {
	c := NewCollector()

	c.RecordOperationResult(wallet.OperationDeduct, wallet.ResultApplied)
	c.RecordOperationResult(wallet.OperationDeduct, wallet.ResultApplied)
	c.RecordOperationResult(wallet.OperationTopUp, wallet.ResultRejected)
	c.RecordBalanceChange(1000, 1500)
	c.RecordBalanceChange(1500, 1200)
	c.RecordHydration(wallet.HydrationClamped)
	c.RecordError(wallet.OperationAddFunds, "persistence")
	c.RecordPersistDuration(3 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.operations.WithLabelValues("deduct", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("top_up", "rejected")))
	assert.Equal(t, 500.0, testutil.ToFloat64(c.moved.WithLabelValues("credit")))
	assert.Equal(t, 300.0, testutil.ToFloat64(c.moved.WithLabelValues("debit")))
	assert.Equal(t, 1200.0, testutil.ToFloat64(c.balance))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.hydrations.WithLabelValues("clamped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errors.WithLabelValues("add_funds", "persistence")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.RecordHydration(wallet.HydrationLoaded)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `walletd_ledger_hydrations_total{outcome="loaded"} 1`))
}
