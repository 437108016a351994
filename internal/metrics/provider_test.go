package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestProviderCall_Success(t *testing.T) {
	call := StartProviderCall(APIEmbeddings, "openai", "test-model-a")
	call.Done("")
	call.Tokens(3, 5)

	if got := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues(APIEmbeddings, "openai", "test-model-a", "success")); got != 1 {
		t.Errorf("success count = %v", got)
	}
	if got := testutil.ToFloat64(ProviderTokensTotal.WithLabelValues(APIEmbeddings, "openai", "test-model-a", "total")); got != 5 {
		t.Errorf("total tokens = %v", got)
	}
}

func TestProviderCall_Error(t *testing.T) {
	StartProviderCall(APIChat, "openai", "test-model-b").Done("api_error")

	if got := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues(APIChat, "openai", "test-model-b", "error")); got != 1 {
		t.Errorf("error count = %v", got)
	}
	if got := testutil.ToFloat64(ProviderErrorsTotal.WithLabelValues(APIChat, "openai", "api_error")); got < 1 {
		t.Errorf("errors_total = %v", got)
	}
}
