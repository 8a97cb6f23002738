package covenant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const portfolioFixture = `{
  "name": "Syndicated Book Q1",
  "asOf": "2026-03-31T00:00:00Z",
  "facilities": [
    {
      "facilityId": "fac-1",
      "name": "Term Loan B",
      "status": "active",
      "covenants": [
        {"covenantId": "cov-a", "name": "Leverage Ratio", "facilityId": "fac-1", "state": "at_risk", "daysInState": 12}
      ]
    }
  ],
  "histories": {
    "cov-a": [
      {"id": "t2", "covenantId": "cov-a", "fromState": "healthy", "toState": "at_risk", "trigger": "test_failed", "timestamp": "2026-03-10T00:00:00Z"},
      {"id": "t1", "covenantId": "cov-a", "fromState": "at_risk", "toState": "healthy", "trigger": "test_passed", "timestamp": "2026-02-01T00:00:00Z"}
    ]
  }
}`

func writePortfolio(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPortfolio(t *testing.T) {
	p, err := LoadPortfolio(writePortfolio(t, portfolioFixture))
	require.NoError(t, err)

	assert.Equal(t, "Syndicated Book Q1", p.Name)
	require.Len(t, p.Facilities, 1)
	require.Len(t, p.Histories["cov-a"], 2)

	// Histories come back chronologically sorted regardless of file order.
	history := p.Histories["cov-a"]
	assert.Equal(t, "t1", history[0].ID)
	assert.Equal(t, "t2", history[1].ID)
	assert.True(t, history[0].Timestamp.Before(history[1].Timestamp))
}

func TestLoadPortfolioMissingFile(t *testing.T) {
	_, err := LoadPortfolio("/nonexistent/portfolio.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestLoadPortfolioInvalidJSON(t *testing.T) {
	_, err := LoadPortfolio(writePortfolio(t, "{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestPortfolioFacility(t *testing.T) {
	p, err := LoadPortfolio(writePortfolio(t, portfolioFixture))
	require.NoError(t, err)

	fac, err := p.Facility("fac-1")
	require.NoError(t, err)
	assert.Equal(t, "Term Loan B", fac.Name)

	_, err = p.Facility("fac-unknown")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFacilityNotFound)
}

func TestPortfolioFacilityHistories(t *testing.T) {
	p, err := LoadPortfolio(writePortfolio(t, portfolioFixture))
	require.NoError(t, err)

	histories := p.FacilityHistories("fac-1")
	require.Len(t, histories, 1)
	assert.Len(t, histories["cov-a"], 2)

	assert.Empty(t, p.FacilityHistories("fac-unknown"))
}
