package thoughts

import (
	"log/slog"
	"time"

	"github.com/mskvii/bot2-2/mirror"
)

// Option configures a Repository.
type Option func(*options)

type options struct {
	logger            *slog.Logger
	passphrase        string
	salt              []byte
	admins            []string
	syncer            mirror.Syncer
	mirrorRate        int
	mirrorRetries     int
	mirrorDelay       time.Duration
	now               func() time.Time
	inMemorySequences bool
}

func defaultOptions() *options {
	return &options{
		logger:        slog.Default(),
		mirrorRetries: 3,
		mirrorDelay:   2 * time.Second,
		now:           time.Now,
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// WithPassphrase sets the passphrase the encryption key is derived from.
// It is only needed the first time a data directory is opened; later opens
// read the persisted key file.
func WithPassphrase(passphrase string) Option {
	return func(o *options) {
		o.passphrase = passphrase
	}
}

// WithSalt sets the key derivation salt. Default is a random salt.
func WithSalt(salt []byte) Option {
	return func(o *options) {
		o.salt = salt
	}
}

// WithAdmins lists users allowed to delete posts they do not own.
func WithAdmins(ids ...string) Option {
	return func(o *options) {
		o.admins = append(o.admins, ids...)
	}
}

// WithSyncer enables mirror notifications delivered to syncer.
func WithSyncer(syncer mirror.Syncer) Option {
	return func(o *options) {
		o.syncer = syncer
	}
}

// WithMirrorRate limits mirror syncs per second. Zero means unlimited.
func WithMirrorRate(perSecond int) Option {
	return func(o *options) {
		o.mirrorRate = perSecond
	}
}

// WithMirrorRetry sets the attempts and first backoff delay of a mirror sync.
func WithMirrorRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(o *options) {
		o.mirrorRetries = maxAttempts
		o.mirrorDelay = baseDelay
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithInMemorySequences keeps id counters in memory instead of under
// .sequences. Counters are still seeded from the files on disk.
func WithInMemorySequences() Option {
	return func(o *options) {
		o.inMemorySequences = true
	}
}
