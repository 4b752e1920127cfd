// Package geocode resolves a business to coordinates and a canonical
// address using the Google Places and Geocoding APIs.
package geocode

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultPlacesBaseURL  = "https://places.googleapis.com/v1"
	defaultGeocodeBaseURL = "https://maps.googleapis.com/maps/api"
)

// Result is one resolved location.
type Result struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PlaceID   string  `json:"place_id"`
	MapsURL   string  `json:"maps_url"`
}

// Client performs location lookups.
type Client interface {
	// Locate resolves a business name plus free-text location. Places
	// text search is tried first; plain geocoding of the location text
	// is the fallback.
	Locate(ctx context.Context, name, location string) (*Result, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithPlacesBaseURL overrides the Places API base URL.
func WithPlacesBaseURL(url string) Option {
	return func(c *httpClient) {
		c.placesBaseURL = strings.TrimSuffix(url, "/")
	}
}

// WithGeocodeBaseURL overrides the Geocoding API base URL.
func WithGeocodeBaseURL(url string) Option {
	return func(c *httpClient) {
		c.geocodeBaseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRegion sets the region and language bias.
func WithRegion(region, language string) Option {
	return func(c *httpClient) {
		c.region = region
		c.language = language
	}
}

type httpClient struct {
	apiKey         string
	placesBaseURL  string
	geocodeBaseURL string
	region         string
	language       string
	http           *http.Client
}

// NewClient creates a geocoding client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:         apiKey,
		placesBaseURL:  defaultPlacesBaseURL,
		geocodeBaseURL: defaultGeocodeBaseURL,
		region:         "ar",
		language:       "es",
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Locate(ctx context.Context, name, location string) (*Result, error) {
	if strings.TrimSpace(name) == "" && strings.TrimSpace(location) == "" {
		return nil, eris.New("geocode: nothing to locate")
	}

	result, err := c.textSearch(ctx, strings.TrimSpace(name+" "+location))
	if err == nil {
		return result, nil
	}
	if location == "" {
		return nil, err
	}

	return c.geocode(ctx, location)
}

type textSearchRequest struct {
	TextQuery    string `json:"textQuery"`
	RegionCode   string `json:"regionCode,omitempty"`
	LanguageCode string `json:"languageCode,omitempty"`
}

type textSearchResponse struct {
	Places []struct {
		ID               string `json:"id"`
		FormattedAddress string `json:"formattedAddress"`
		Location         struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
		GoogleMapsURI string `json:"googleMapsUri"`
	} `json:"places"`
}

func (c *httpClient) textSearch(ctx context.Context, query string) (*Result, error) {
	body, err := json.Marshal(textSearchRequest{
		TextQuery:    query,
		RegionCode:   strings.ToUpper(c.region),
		LanguageCode: c.language,
	})
	if err != nil {
		return nil, eris.Wrap(err, "geocode: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.placesBaseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "geocode: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", "places.id,places.formattedAddress,places.location,places.googleMapsUri")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: places status %d: %s", resp.StatusCode, string(respBody))
	}

	var result textSearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "geocode: unmarshal response")
	}
	if len(result.Places) == 0 {
		return nil, eris.Errorf("geocode: no place for %q", query)
	}

	place := result.Places[0]
	mapsURL := place.GoogleMapsURI
	if mapsURL == "" && place.ID != "" {
		mapsURL = "https://www.google.com/maps/place/?q=place_id:" + place.ID
	}
	return &Result{
		Address:   place.FormattedAddress,
		Latitude:  place.Location.Latitude,
		Longitude: place.Location.Longitude,
		PlaceID:   place.ID,
		MapsURL:   mapsURL,
	}, nil
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		PlaceID          string `json:"place_id"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (c *httpClient) geocode(ctx context.Context, address string) (*Result, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("region", c.region)
	params.Set("language", c.language)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.geocodeBaseURL+"/geocode/json?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: status %d: %s", resp.StatusCode, string(respBody))
	}

	var result geocodeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "geocode: unmarshal response")
	}
	if result.Status != "OK" || len(result.Results) == 0 {
		return nil, eris.Errorf("geocode: no result for %q (status %s)", address, result.Status)
	}

	first := result.Results[0]
	return &Result{
		Address:   first.FormattedAddress,
		Latitude:  first.Geometry.Location.Lat,
		Longitude: first.Geometry.Location.Lng,
		PlaceID:   first.PlaceID,
		MapsURL:   "https://www.google.com/maps/place/?q=place_id:" + first.PlaceID,
	}, nil
}
