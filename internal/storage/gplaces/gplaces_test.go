package gplaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"placesbot/internal/geo"
	"placesbot/internal/storage"
)

var center = geo.Point{Latitude: 50.4501, Longitude: 30.5234}

type result map[string]any

func placeResult(id string, lat, lng float64, types ...string) result {
	return result{
		"place_id": id,
		"name":     "Place " + id,
		"vicinity": "Street " + id,
		"types":    types,
		"geometry": result{"location": result{"lat": lat, "lng": lng}},
	}
}

// fakePlacesAPI serves canned NearbySearch, Place Details and Place Photo
// answers
type fakePlacesAPI struct {
	mu       sync.Mutex
	nearby   map[string][]result // first page by type
	pages    map[string][]result // later pages by token
	details  map[string]result
	photos   map[string]string // body by photo reference, missing ones are denied
	requests []string
}

func (f *fakePlacesAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	f.requests = append(f.requests, r.URL.Path+"?"+q.Get("type")+q.Get("pagetoken"))
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/maps/api/place/nearbysearch/json":
		if token := q.Get("pagetoken"); token != "" {
			json.NewEncoder(w).Encode(result{"status": "OK", "results": f.pages[token]})
			return
		}
		resp := result{"status": "OK", "results": f.nearby[q.Get("type")]}
		if _, ok := f.pages[q.Get("type")+"-2"]; ok {
			resp["next_page_token"] = q.Get("type") + "-2"
		}
		json.NewEncoder(w).Encode(resp)
	case "/maps/api/place/details/json":
		d, ok := f.details[q.Get("placeid")]
		if !ok {
			json.NewEncoder(w).Encode(result{"status": "NOT_FOUND"})
			return
		}
		json.NewEncoder(w).Encode(result{"status": "OK", "result": d})
	case "/maps/api/place/photo":
		body, ok := f.photos[q.Get("photoreference")]
		if !ok || q.Get("maxwidth") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte(body))
	default:
		http.NotFound(w, r)
	}
}

func newTestStore(t *testing.T, api *fakePlacesAPI, types ...string) *Store {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	client, err := NewClient("test-key", maps.WithBaseURL(server.URL))
	require.NoError(t, err)

	return New(client, zap.NewNop(), WithTypes(types...), WithPageDelay(0))
}

func TestStore_QueryByBoundingBox(t *testing.T) {
	api := &fakePlacesAPI{
		nearby: map[string][]result{
			"cafe": {
				placeResult("c1", 50.4505, 30.5230, "cafe"),
				placeResult("shared", 50.4500, 30.5235, "cafe", "bar"),
				placeResult("outside", 50.60, 30.70, "cafe"),
			},
			"bar": {
				placeResult("shared", 50.4500, 30.5235, "cafe", "bar"),
				placeResult("b1", 50.4499, 30.5232, "bar"),
			},
		},
		pages: map[string][]result{
			"bar-2": {placeResult("b2", 50.4502, 30.5236, "bar")},
		},
	}
	store := newTestStore(t, api, "cafe", "bar")

	venues, err := store.QueryByBoundingBox(context.Background(), geo.NewBoundingBox(center, 500))
	require.NoError(t, err)

	var ids []string
	for _, v := range venues {
		ids = append(ids, v.PlaceID)
	}
	assert.Equal(t, []string{"c1", "shared", "b1", "b2"}, ids)
	assert.Equal(t, "Street c1", venues[0].FormattedAddress)
	assert.Equal(t, []string{"cafe", "bar"}, venues[1].TypeTags)
}

func TestStore_GetVenueDetails(t *testing.T) {
	api := &fakePlacesAPI{
		details: map[string]result{
			"p1": {
				"place_id":                   "p1",
				"name":                       "Coffee",
				"formatted_address":          "Main St, 1, Kyiv, Ukraine",
				"international_phone_number": "+380 44 000 0000",
				"website":                    "https://example.com",
				"rating":                     4.5,
				"price_level":                2,
				"types":                      []string{"cafe"},
				"geometry":                   result{"location": result{"lat": 50.45, "lng": 30.52}},
				"opening_hours": result{
					"weekday_text": []string{"Monday: 8:00 AM – 8:00 PM"},
					"periods": []result{
						{"open": result{"day": 1, "time": "0800"}, "close": result{"day": 1, "time": "2000"}},
						{"open": result{"day": 0, "time": "0000"}},
					},
				},
				"reviews": []result{{"author_name": "Ann", "rating": 5, "text": "Great", "time": 1700000000}},
				"photos":  []result{{"photo_reference": "ref-1"}},
			},
		},
	}
	store := newTestStore(t, api)

	d, err := store.GetVenueDetails(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Coffee", d.Name)
	assert.Equal(t, "+380 44 000 0000", d.Phone)
	require.NotNil(t, d.Rating)
	assert.InDelta(t, 4.5, *d.Rating, 1e-6)
	require.NotNil(t, d.PriceLevel)
	assert.Equal(t, 2, *d.PriceLevel)
	require.NotNil(t, d.OpeningHours)
	require.Len(t, d.OpeningHours.Periods, 2)
	assert.Equal(t, "0800", d.OpeningHours.Periods[0].Open.Time)
	require.NotNil(t, d.OpeningHours.Periods[0].Close)
	assert.Nil(t, d.OpeningHours.Periods[1].Close)
	assert.Equal(t, "Monday: 8:00 AM – 8:00 PM", d.WeekdayText)
	require.Len(t, d.GoogleReviews, 1)
	assert.Equal(t, int64(1700000000), d.GoogleReviews[0].Time)
	assert.Equal(t, []string{"ref-1"}, d.PhotoRefs)

	_, err = store.GetVenueDetails(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_GetPhotos(t *testing.T) {
	api := &fakePlacesAPI{
		details: map[string]result{
			"p1": {
				"place_id": "p1",
				"name":     "Coffee",
				"geometry": result{"location": result{"lat": 50.45, "lng": 30.52}},
				"photos": []result{
					{"photo_reference": "ref-1"},
					{"photo_reference": "ref-denied"},
					{"photo_reference": "ref-3"},
					{"photo_reference": "ref-4"},
				},
			},
		},
		photos: map[string]string{
			"ref-1": "jpeg-1",
			"ref-3": "jpeg-3",
			"ref-4": "jpeg-4",
		},
	}
	store := newTestStore(t, api)
	ctx := context.Background()

	photos, err := store.GetPhotos(ctx, "p1", 3)
	require.NoError(t, err)
	require.Len(t, photos, 2, "the denied photo is skipped and the fourth is past the limit")
	assert.Equal(t, []byte("jpeg-1"), photos[0].Data)
	assert.Equal(t, []byte("jpeg-3"), photos[1].Data)

	photos, err = store.GetPhotos(ctx, "p1", 1)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, []byte("jpeg-1"), photos[0].Data)

	_, err = store.GetPhotos(ctx, "missing", 3)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result{"status": "REQUEST_DENIED", "error_message": "bad key"})
	}))
	defer server.Close()

	client, err := NewClient("test-key", maps.WithBaseURL(server.URL))
	require.NoError(t, err)
	store := New(client, zap.NewNop(), WithPageDelay(0))

	_, err = store.QueryByBoundingBox(context.Background(), geo.NewBoundingBox(center, 500))
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}
