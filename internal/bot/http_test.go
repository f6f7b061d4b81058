package bot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placesbot/internal/models"
	"placesbot/internal/paging"
)

const testToken = "123456:test-token"

func newTestServer(t *testing.T, webhookMode bool, allowed ...int64) *httptest.Server {
	t.Helper()

	b, _, _ := newTestBot(t, allowed...)
	hs := &HTTPServer{bot: b, token: testToken, webhookMode: webhookMode}

	mux := http.NewServeMux()
	hs.RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// initData builds a signed Mini App initData string
func initData(userID int64, authDate time.Time) string {
	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	values.Set("user", `{"id":`+strconv.FormatInt(userID, 10)+`,"first_name":"Test"}`)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	values.Set("hash", signInitData(testToken, strings.Join(lines, "\n")))
	return values.Encode()
}

func get(t *testing.T, rawURL, auth string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHTTPServer_Search(t *testing.T) {
	server := newTestServer(t, false)

	resp := get(t, server.URL+"/api/search?lat=50.4501&lon=30.5234&radius=500&type=cafe", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var page paging.ResultPage[models.RankedResult]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))

	require.Len(t, page.Items, 1)
	assert.Equal(t, "mock-cafe-khreshchatyk", page.Items[0].Venue.PlaceID)
	assert.InDelta(t, 307, page.Items[0].DistanceMeters, 5)
	assert.Equal(t, 1, page.TotalCount)
}

func TestHTTPServer_SearchPaging(t *testing.T) {
	server := newTestServer(t, false)

	resp := get(t, server.URL+"/api/search?lat=50.4501&lon=30.5234&radius=3000&page=1&page_size=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page paging.ResultPage[models.RankedResult]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))

	assert.Equal(t, 4, page.TotalCount)
	assert.Equal(t, 1, page.PageIndex)
	assert.True(t, page.HasPrevious)
	assert.False(t, page.HasNext)
	require.Len(t, page.Items, 2)
	assert.LessOrEqual(t, page.Items[0].DistanceMeters, page.Items[1].DistanceMeters)
}

func TestHTTPServer_SearchPageBeyondEnd(t *testing.T) {
	server := newTestServer(t, false)

	resp := get(t, server.URL+"/api/search?lat=50.4501&lon=30.5234&radius=500&type=cafe&page=3689348814741910323", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page paging.ResultPage[models.RankedResult]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Empty(t, page.Items)
	assert.True(t, page.HasPrevious)
	assert.False(t, page.HasNext)
	assert.Equal(t, 1, page.TotalCount)
}

func TestHTTPServer_SearchBadRequest(t *testing.T) {
	server := newTestServer(t, false)

	tests := []struct {
		name  string
		query string
	}{
		{"missing coordinates", ""},
		{"latitude out of range", "lat=91&lon=0"},
		{"bad radius", "lat=50&lon=30&radius=wide"},
		{"negative radius", "lat=50&lon=30&radius=-1"},
		{"bad page", "lat=50&lon=30&page=abc"},
		{"negative page", "lat=50&lon=30&page=-1"},
		{"page overflows int", "lat=50&lon=30&page=99999999999999999999"},
		{"bad page size", "lat=50&lon=30&page_size=many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, server.URL+"/api/search?"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestHTTPServer_Place(t *testing.T) {
	server := newTestServer(t, false)

	resp := get(t, server.URL+"/api/places/mock-bar-podil", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var details models.VenueDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&details))
	assert.Equal(t, "Podil Taproom", details.Name)

	resp = get(t, server.URL+"/api/places/nowhere", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPServer_Auth(t *testing.T) {
	server := newTestServer(t, true, 42)
	searchURL := server.URL + "/api/search?lat=50.4501&lon=30.5234"

	tests := []struct {
		name   string
		auth   string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Bearer " + initData(42, time.Now()), http.StatusUnauthorized},
		{"valid", "tma " + initData(42, time.Now()), http.StatusOK},
		{"tampered", "tma " + strings.Replace(initData(42, time.Now()), "Test", "Evil", 1), http.StatusUnauthorized},
		{"expired", "tma " + initData(42, time.Now().Add(-48*time.Hour)), http.StatusUnauthorized},
		{"not allowed", "tma " + initData(7, time.Now()), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, searchURL, tt.auth)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
