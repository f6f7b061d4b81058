package bot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"placesbot/internal/geo"
	"placesbot/internal/paging"
	"placesbot/internal/search"
	"placesbot/internal/storage"
)

const maxAPIPageSize = 50

// HTTPServer serves the search API used by the Telegram Mini App
type HTTPServer struct {
	bot         *Bot
	token       string
	webhookMode bool // If false (polling mode), skip authentication for easier local dev
}

// NewHTTPServer creates a new HTTP server for the search API
func NewHTTPServer(bot *Bot, webhookMode bool) *HTTPServer {
	var token string
	if bot.api != nil {
		token = bot.api.Token
	}
	return &HTTPServer{
		bot:         bot,
		token:       token,
		webhookMode: webhookMode,
	}
}

// RegisterRoutes registers API routes on the provided mux
func (hs *HTTPServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/search", hs.handleSearch)
	mux.HandleFunc("/api/places/", hs.handlePlace)
}

// validateTelegramInitData validates the Telegram Mini App initData
func (hs *HTTPServer) validateTelegramInitData(initData string) (int64, error) {
	if initData == "" {
		return 0, fmt.Errorf("missing initData")
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0, fmt.Errorf("invalid initData format: %w", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return 0, fmt.Errorf("missing hash in initData")
	}
	values.Del("hash")

	// Create data-check-string
	var keys []string
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dataCheckString strings.Builder
	for i, k := range keys {
		if i > 0 {
			dataCheckString.WriteByte('\n')
		}
		dataCheckString.WriteString(k)
		dataCheckString.WriteByte('=')
		dataCheckString.WriteString(values.Get(k))
	}

	if !hmac.Equal([]byte(signInitData(hs.token, dataCheckString.String())), []byte(hash)) {
		return 0, fmt.Errorf("invalid hash")
	}

	// Data should be recent, within 24 hours
	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("missing auth_date")
	}
	if time.Now().Unix()-authDate > 86400 {
		return 0, fmt.Errorf("initData is too old")
	}

	userStr := values.Get("user")
	if userStr == "" {
		return 0, fmt.Errorf("missing user data")
	}

	var userData struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(userStr), &userData); err != nil {
		return 0, fmt.Errorf("invalid user data: %w", err)
	}

	if !hs.bot.isAllowed(userData.ID) {
		return 0, fmt.Errorf("user not allowed")
	}

	return userData.ID, nil
}

// signInitData computes the initData hash for the bot token
func signInitData(token, dataCheckString string) string {
	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(token))

	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(dataCheckString))
	return hex.EncodeToString(h.Sum(nil))
}

// authMiddleware validates Telegram Mini App authentication
// In polling mode (webhookMode=false), authentication is skipped for easier local development
func (hs *HTTPServer) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !hs.webhookMode {
			hs.bot.logger.Debug("Skipping authentication (polling mode)",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			next(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "tma ") {
			hs.bot.logger.Warn("Missing or invalid authorization header")
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, err := hs.validateTelegramInitData(strings.TrimPrefix(authHeader, "tma "))
		if err != nil {
			hs.bot.logger.Warn("Failed to validate initData",
				zap.Error(err),
				zap.String("remote_addr", r.RemoteAddr),
			)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		hs.bot.logger.Debug("Authenticated request",
			zap.Int64("user_id", userID),
			zap.String("path", r.URL.Path),
		)

		next(w, r)
	}
}

// handleSearch runs a proximity search and returns one page of it
func (hs *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	hs.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		q := r.URL.Query()
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
		if errLat != nil || errLon != nil {
			writeError(w, http.StatusBadRequest, "lat and lon are required")
			return
		}

		radius := float64(hs.bot.settings.DefaultRadius)
		if v := q.Get("radius"); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid radius")
				return
			}
			radius = parsed
		}

		pageIndex, err := queryInt(q, "page", 0)
		if err != nil || pageIndex < 0 {
			writeError(w, http.StatusBadRequest, "Invalid page")
			return
		}
		pageSize, err := queryInt(q, "page_size", hs.bot.settings.PageSize)
		if err != nil || pageSize < 0 {
			writeError(w, http.StatusBadRequest, "Invalid page_size")
			return
		}
		if pageSize == 0 {
			pageSize = hs.bot.settings.PageSize
		}
		pageSize = min(pageSize, maxAPIPageSize)

		req, err := search.NewRequest(geo.Point{Latitude: lat, Longitude: lon}, radius, q.Get("type"), q.Get("keyword"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		results, err := hs.bot.search.Search(r.Context(), req)
		if err != nil {
			hs.bot.logger.Error("API search failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "Search is unavailable")
			return
		}

		writeJSON(w, http.StatusOK, paging.Page(results, pageIndex, pageSize))
	})(w, r)
}

// handlePlace returns the details of one venue
func (hs *HTTPServer) handlePlace(w http.ResponseWriter, r *http.Request) {
	hs.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		placeID := strings.TrimPrefix(r.URL.Path, "/api/places/")
		if placeID == "" || strings.Contains(placeID, "/") {
			http.NotFound(w, r)
			return
		}

		details, err := hs.bot.search.Details(r.Context(), placeID)
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Place not found")
			return
		}
		if err != nil {
			hs.bot.logger.Error("API details failed", zap.Error(err), zap.String("place_id", placeID))
			writeError(w, http.StatusServiceUnavailable, "Details are unavailable")
			return
		}

		writeJSON(w, http.StatusOK, details)
	})(w, r)
}

// queryInt parses an optional integer query parameter
func queryInt(q url.Values, name string, def int) (int, error) {
	v := q.Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
