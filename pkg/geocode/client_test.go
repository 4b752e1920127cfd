package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const placesResponse = `{
	"places": [{
		"id": "ChIJabc123",
		"formattedAddress": "Av. Corrientes 1234, C1043 CABA, Argentina",
		"location": {"latitude": -34.6037, "longitude": -58.3816},
		"googleMapsUri": "https://maps.google.com/?cid=123"
	}]
}`

const geocodeOKResponse = `{
	"status": "OK",
	"results": [{
		"formatted_address": "Rosario, Santa Fe, Argentina",
		"place_id": "ChIJdef456",
		"geometry": {"location": {"lat": -32.9442, "lng": -60.6505}}
	}]
}`

func TestLocate_PlacesHit(t *testing.T) {
	places := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Goog-Api-Key"))
		_, _ = w.Write([]byte(placesResponse))
	}))
	defer places.Close()

	c := NewClient("test-key", WithPlacesBaseURL(places.URL))
	result, err := c.Locate(context.Background(), "Acme SA", "CABA")
	require.NoError(t, err)

	assert.Equal(t, "Av. Corrientes 1234, C1043 CABA, Argentina", result.Address)
	assert.InDelta(t, -34.6037, result.Latitude, 0.0001)
	assert.Equal(t, "ChIJabc123", result.PlaceID)
	assert.Equal(t, "https://maps.google.com/?cid=123", result.MapsURL)
}

func TestLocate_FallsBackToGeocoding(t *testing.T) {
	places := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"places": []}`))
	}))
	defer places.Close()

	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/json", r.URL.Path)
		assert.Equal(t, "Rosario", r.URL.Query().Get("address"))
		assert.Equal(t, "ar", r.URL.Query().Get("region"))
		_, _ = w.Write([]byte(geocodeOKResponse))
	}))
	defer geo.Close()

	c := NewClient("test-key", WithPlacesBaseURL(places.URL), WithGeocodeBaseURL(geo.URL))
	result, err := c.Locate(context.Background(), "Acme SA", "Rosario")
	require.NoError(t, err)

	assert.Equal(t, "Rosario, Santa Fe, Argentina", result.Address)
	assert.Contains(t, result.MapsURL, "ChIJdef456")
}

func TestLocate_NothingToLocate(t *testing.T) {
	c := NewClient("test-key")
	_, err := c.Locate(context.Background(), "", "  ")
	assert.Error(t, err)
}

// countingClient fails or succeeds on demand, counting calls.
type countingClient struct {
	calls  atomic.Int64
	result *Result
	err    error
}

func (m *countingClient) Locate(ctx context.Context, name, location string) (*Result, error) {
	m.calls.Add(1)
	return m.result, m.err
}

func TestCachedClient_HitSkipsInner(t *testing.T) {
	inner := &countingClient{result: &Result{Address: "CABA, Argentina"}}
	c := NewCachedClient(inner, time.Minute)

	for range 3 {
		result, err := c.Locate(context.Background(), "Acme SA", "CABA")
		require.NoError(t, err)
		assert.Equal(t, "CABA, Argentina", result.Address)
	}
	assert.Equal(t, int64(1), inner.calls.Load())
}

func TestCachedClient_ErrorsNotCached(t *testing.T) {
	inner := &countingClient{err: eris.New("quota exceeded")}
	c := NewCachedClient(inner, time.Minute)

	for range 2 {
		_, err := c.Locate(context.Background(), "Acme SA", "CABA")
		assert.Error(t, err)
	}
	assert.Equal(t, int64(2), inner.calls.Load())
}
