// Package session holds the per-chat conversation state of the bot.
//
// A Session is a plain value: handlers load it from a Store, derive the next
// value with Transition or by editing fields, and save it back. Nothing in
// the search core reads or mutates it.
package session

import (
	"slices"

	"github.com/google/uuid"

	"placesbot/internal/geo"
	"placesbot/internal/paging"
)

// DefaultRadiusMeters is the radius a chat starts with after /start
const DefaultRadiusMeters = 300

// AllowedRadii are the radius choices offered in settings, in meters
var AllowedRadii = []int{250, 500, 1000, 1500, 2000, 3000, 4000, 5000}

// IsAllowedRadius reports whether r is one of AllowedRadii
func IsAllowedRadius(r int) bool {
	return slices.Contains(AllowedRadii, r)
}

// State is the carousel state of a chat
type State string

const (
	StateIdle    State = "idle"
	StateListing State = "listing"
	StateDetail  State = "detail"
)

// Carousel names the secondary single-item carousels
type Carousel string

const (
	CarouselNone      Carousel = ""
	CarouselFavorites Carousel = "favorites"
	CarouselReviews   Carousel = "reviews"
	CarouselMyReviews Carousel = "my_reviews"
)

// DraftStep is the position inside the add/edit review conversation
type DraftStep string

const (
	DraftName  DraftStep = "name"
	DraftScore DraftStep = "score"
	DraftText  DraftStep = "text"
)

// ReviewDraft collects a review across several messages
type ReviewDraft struct {
	PlaceID  string    `json:"place_id"`
	ReviewID int64     `json:"review_id,omitempty"` // non-zero when editing
	Step     DraftStep `json:"step"`
	Name     string    `json:"name,omitempty"`
	Score    int       `json:"score,omitempty"`
}

// Session is the state of one chat
type Session struct {
	ChatID       int64      `json:"chat_id"`
	Location     *geo.Point `json:"location,omitempty"`
	RadiusMeters int        `json:"radius"`
	TypeFilter   string     `json:"type,omitempty"`

	State       State  `json:"state"`
	ResultSetID string `json:"result_set_id,omitempty"`
	ResultCount int    `json:"result_count"`
	PageIndex   int    `json:"page_index"`
	ItemIndex   int    `json:"item_index"`

	// Messages edited in place on navigation
	ListMessageID   int   `json:"list_message_id,omitempty"`
	DetailMessageID int   `json:"detail_message_id,omitempty"`
	PhotoMessageIDs []int `json:"photo_message_ids,omitempty"`

	Carousel          Carousel `json:"carousel,omitempty"`
	CarouselIndex     int      `json:"carousel_index"`
	CarouselPlaceID   string   `json:"carousel_place_id,omitempty"`
	CarouselMessageID int      `json:"carousel_message_id,omitempty"`

	// Venues whose cards carry buttons, oldest first
	Cards []CardRef `json:"cards,omitempty"`

	Draft *ReviewDraft `json:"draft,omitempty"`
}

// maxCards bounds how many sent cards keep working buttons
const maxCards = 32

// CardRef ties the short key carried in card buttons to a venue. Place ids
// can be longer than the 64 bytes Telegram allows in callback data.
type CardRef struct {
	Key     string `json:"key"`
	PlaceID string `json:"place_id"`
}

// AddCard remembers placeID and returns the key its buttons carry. A venue
// shown again keeps its key and becomes the newest entry.
func (s *Session) AddCard(placeID string) string {
	var key string
	if i := slices.IndexFunc(s.Cards, func(c CardRef) bool { return c.PlaceID == placeID }); i >= 0 {
		key = s.Cards[i].Key
		s.Cards = slices.Delete(s.Cards, i, i+1)
	} else {
		key = uuid.NewString()[:8]
	}

	s.Cards = append(s.Cards, CardRef{Key: key, PlaceID: placeID})
	if len(s.Cards) > maxCards {
		s.Cards = slices.Delete(s.Cards, 0, len(s.Cards)-maxCards)
	}
	return key
}

// CardPlace returns the venue behind key
func (s *Session) CardPlace(key string) (string, bool) {
	for _, c := range s.Cards {
		if c.Key == key {
			return c.PlaceID, true
		}
	}
	return "", false
}

// New returns the Idle session a chat starts with
func New(chatID int64, radiusMeters int) *Session {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	return &Session{
		ChatID:       chatID,
		RadiusMeters: radiusMeters,
		State:        StateIdle,
	}
}

// EventKind enumerates carousel inputs
type EventKind int

const (
	EventUnknown EventKind = iota
	EventSearch
	EventNext
	EventPrevious
	EventSelect
	EventBack
	EventRestart
)

// Event is one carousel input. Index is used by EventSelect only.
type Event struct {
	Kind  EventKind
	Index int
}

// Search, Next, Previous, Back and Restart are the argument-free events
var (
	Search   = Event{Kind: EventSearch}
	Next     = Event{Kind: EventNext}
	Previous = Event{Kind: EventPrevious}
	Back     = Event{Kind: EventBack}
	Restart  = Event{Kind: EventRestart}
)

// Select returns the event of choosing the i-th result of the whole set
func Select(i int) Event {
	return Event{Kind: EventSelect, Index: i}
}

// Transition applies ev to s for a result set of total items shown pageSize
// per list page. It returns the next session and whether ev was accepted. A
// rejected event returns s unchanged.
//
//	Idle/any  --Search-->        Listing(0)
//	Listing(p) --Next/Previous--> Listing(p±1)   while the page exists
//	Listing(p) --Select(i)-->    Detail(i)       0 <= i < total
//	Detail(i) --Next/Previous--> Detail(i±1)     inside the result set
//	Detail(i) --Back-->          Listing(page of i)
//	any       --Restart/Unknown--> Idle
func (s Session) Transition(ev Event, total, pageSize int) (Session, bool) {
	if pageSize <= 0 {
		pageSize = paging.DefaultPageSize
	}

	next := s
	switch ev.Kind {
	case EventSearch:
		next.State = StateListing
		next.PageIndex = 0
		next.ItemIndex = 0
		next.ResultCount = total
		return next, true

	case EventRestart, EventUnknown:
		next.State = StateIdle
		next.PageIndex = 0
		next.ItemIndex = 0
		next.ResultSetID = ""
		next.ResultCount = 0
		next.Carousel = CarouselNone
		next.CarouselIndex = 0
		next.Draft = nil
		return next, true
	}

	switch s.State {
	case StateListing:
		switch ev.Kind {
		case EventNext:
			if s.PageIndex+1 >= paging.PageCount(total, pageSize) {
				return s, false
			}
			next.PageIndex++
			return next, true
		case EventPrevious:
			if s.PageIndex <= 0 {
				return s, false
			}
			next.PageIndex--
			return next, true
		case EventSelect:
			if ev.Index < 0 || ev.Index >= total {
				return s, false
			}
			next.State = StateDetail
			next.ItemIndex = ev.Index
			return next, true
		}

	case StateDetail:
		switch ev.Kind {
		case EventNext:
			if s.ItemIndex+1 >= total {
				return s, false
			}
			next.ItemIndex++
			return next, true
		case EventPrevious:
			if s.ItemIndex <= 0 {
				return s, false
			}
			next.ItemIndex--
			return next, true
		case EventBack:
			next.State = StateListing
			next.PageIndex = s.ItemIndex / pageSize
			return next, true
		}
	}

	return s, false
}
