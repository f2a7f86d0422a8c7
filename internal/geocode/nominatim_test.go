package geocode

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimResolverResolveSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Contains(t, r.URL.Query().Get("q"), "Springfield")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"39.78","lon":"-89.65","boundingbox":["39.60","39.95","-89.80","-89.50"]}]`))
	}))
	defer server.Close()

	r := NewNominatimResolver("test-agent")
	r.baseURL = server.URL

	bounds, err := r.Resolve("US", "IL", "Springfield")
	require.NoError(t, err)
	assert.Equal(t, 39.95, bounds.North)
	assert.Equal(t, 39.60, bounds.South)
	assert.Equal(t, -89.50, bounds.East)
	assert.Equal(t, -89.80, bounds.West)
	assert.Equal(t, 39.78, bounds.CenterLat)
	assert.Equal(t, -89.65, bounds.CenterLng)
}

func TestNominatimResolverResolveNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	r := NewNominatimResolver("test-agent")
	r.baseURL = server.URL

	_, err := r.Resolve("US", "IL", "Nowhereville")
	require.Error(t, err)
}

func TestNominatimResolverResolveRejectsCountryOnlyQuery(t *testing.T) {
	r := NewNominatimResolver("test-agent")

	_, err := r.Resolve("US", "", "")
	require.Error(t, err)
}
