// Package gate implements the visibility gate for the export control.
//
// This is a UX convenience toggle, not an access control: the digest
// constant ships with the viewer and the comparison happens locally, so
// unlocking only reveals a control that was hidden. Real authorization,
// if ever needed, belongs on the side producing the export artifact.
package gate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jtorresq/pericias-console/internal/bus"
	"github.com/jtorresq/pericias-console/internal/store"
)

// DefaultDigestHex is the SHA-256 digest the submitted passphrase is
// compared against when no override is configured.
const DefaultDigestHex = "3b612c75a7b5048a435fb6ec81e52ff92d6d795a8b5a9c17070f6a63c97a53b2"

const (
	sessionFlagKey = "export_gate"
	flagUnlocked   = "unlocked"
)

// State is the gate's visibility state.
type State int

const (
	Locked State = iota
	Unlocked
)

// Options configures the gate controller.
type Options struct {
	// DigestHex overrides DefaultDigestHex when non-empty.
	DigestHex string
	SessionID string
	// Store persists the unlocked flag per session; nil disables persistence.
	Store  *store.Store
	Bus    bus.Bus
	Logger *log.Logger
}

// Controller is the two-state gate. Unlocked is terminal for the session:
// there is no transition back to Locked.
type Controller struct {
	mu        sync.Mutex
	state     State
	digestHex string
	sessionID string
	store     *store.Store
	bus       bus.Bus
	logger    *log.Logger
}

// NewController creates a gate controller in the Locked state.
func NewController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[gate] ", log.LstdFlags)
	}
	if opts.DigestHex == "" {
		opts.DigestHex = DefaultDigestHex
	}
	if opts.Bus == nil {
		opts.Bus = bus.NewNullBus(opts.Logger)
	}
	return &Controller{
		state:     Locked,
		digestHex: strings.ToLower(opts.DigestHex),
		sessionID: opts.SessionID,
		store:     opts.Store,
		bus:       opts.Bus,
		logger:    opts.Logger,
	}
}

// Restore boots the gate from the session flag: a prior activation in the
// same session comes back Unlocked.
func (c *Controller) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	value, err := c.store.GetSessionFlag(ctx, c.sessionID, sessionFlagKey)
	if err != nil {
		return err
	}
	if value == flagUnlocked {
		c.mu.Lock()
		c.state = Unlocked
		c.mu.Unlock()
		c.logger.Printf("Export gate restored unlocked for session %s", c.sessionID)
	}
	return nil
}

// State returns the current gate state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Unlocked reports whether the export control should be visible.
func (c *Controller) Unlocked() bool {
	return c.State() == Unlocked
}

// Submit checks a passphrase attempt. A match transitions to Unlocked and
// persists the session flag; a mismatch leaves the gate Locked so the
// prompt can stay open for another try. Attempts are unlimited.
func (c *Controller) Submit(ctx context.Context, passphrase string) bool {
	ok := HashPassphrase(passphrase) == c.digestHex

	if ok {
		c.mu.Lock()
		c.state = Unlocked
		c.mu.Unlock()

		if c.store != nil {
			if err := c.store.SetSessionFlag(ctx, c.sessionID, sessionFlagKey, flagUnlocked); err != nil {
				c.logger.Printf("Failed to persist gate flag: %v", err)
			}
			_ = c.store.AddActivity(ctx, store.ActivityEntry{
				SessionID: c.sessionID,
				Action:    store.ActionGateUnlocked,
			})
		}
		_ = c.bus.PublishActivity(ctx, bus.ActivityMessage{
			SessionID: c.sessionID,
			Action:    store.ActionGateUnlocked,
			Timestamp: time.Now().Unix(),
		})
		c.logger.Printf("Export gate unlocked for session %s", c.sessionID)
		return true
	}

	if c.store != nil {
		_ = c.store.AddActivity(ctx, store.ActivityEntry{
			SessionID: c.sessionID,
			Action:    store.ActionGateMismatch,
		})
	}
	return false
}

// HashPassphrase returns the lowercase hex SHA-256 digest of the trimmed
// passphrase, matching how the digest constant was produced.
func HashPassphrase(passphrase string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(passphrase)))
	return hex.EncodeToString(sum[:])
}
