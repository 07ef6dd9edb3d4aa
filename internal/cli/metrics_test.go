package cli

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikilake/hopcheck/internal/metrics"
)

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	srv := httptest.NewServer(metricsHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "hopcheck_build_info")
}
