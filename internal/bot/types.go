package bot

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"placesbot/internal/metrics"
	"placesbot/internal/search"
	"placesbot/internal/session"
	"placesbot/internal/storage"
)

// Bot represents the Telegram bot wrapper
type Bot struct {
	api          *tgbotapi.BotAPI
	search       *search.Service
	places       storage.Places
	users        storage.UserStore
	sessions     session.Store
	metrics      *metrics.Metrics
	allowedUsers map[int64]bool // empty means everyone may use the bot
	settings     Settings
	locks        *chatLocks
	logger       *zap.Logger
	now          func() time.Time
}

// Deps are the collaborators the bot works with
type Deps struct {
	Search   *search.Service
	Places   storage.Places
	Users    storage.UserStore
	Sessions session.Store
	Metrics  *metrics.Metrics
}

// Settings tune the bot behaviour
type Settings struct {
	AllowedUserIDs []int64
	PageSize       int
	DefaultRadius  int
	PhotoLimit     int
	// Location is where Now is evaluated for opening hours
	Location *time.Location
}

const defaultPhotoLimit = 5

// chatLocks serialises updates of one chat. Entries are dropped once no
// goroutine holds or waits for them.
type chatLocks struct {
	mu    sync.Mutex
	locks map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[int64]*chatLock)}
}

// lock blocks until chatID is free and returns the unlock func
func (l *chatLocks) lock(chatID int64) func() {
	l.mu.Lock()
	cl, ok := l.locks[chatID]
	if !ok {
		cl = &chatLock{}
		l.locks[chatID] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.mu.Lock()
	return func() {
		cl.mu.Unlock()
		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.locks, chatID)
		}
		l.mu.Unlock()
	}
}

func (l *chatLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
