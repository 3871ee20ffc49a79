package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/guildtools/raidpay-bot/internal/payout"
	"github.com/guildtools/raidpay-bot/internal/storage"
)

// Store is the persistence surface the registry needs. Reads go through the
// cache, so only the write and bulk-load operations appear here.
type Store interface {
	UpsertPaymentCharacter(ctx context.Context, pc *storage.PaymentCharacter) error
	ListPaymentCharacters(ctx context.Context) ([]storage.PaymentCharacter, error)
}

// Registry is the in-memory read-through cache over the payment character
// store. Writes persist first and only update the cache on confirmed
// success, so the cache never claims a fact the store doesn't have.
type Registry struct {
	mu    sync.RWMutex
	store Store
	chars map[string]payout.Registration
}

// New creates an empty registry over the given store. Call Load to warm it.
func New(store Store) *Registry {
	return &Registry{
		store: store,
		chars: make(map[string]payout.Registration),
	}
}

// Load replaces the cache with the full store contents.
func (r *Registry) Load(ctx context.Context) error {
	chars, err := r.store.ListPaymentCharacters(ctx)
	if err != nil {
		return fmt.Errorf("failed to load payment characters: %w", err)
	}

	loaded := make(map[string]payout.Registration, len(chars))
	for _, pc := range chars {
		loaded[pc.DiscordUserID] = payout.Registration{
			Character: pc.CharacterName,
			Faction:   pc.Faction,
		}
	}

	r.mu.Lock()
	r.chars = loaded
	r.mu.Unlock()
	return nil
}

// Set upserts a user's payment character. The faction is stored capitalized
// canonically. On persistence failure the cache is left untouched.
func (r *Registry) Set(ctx context.Context, discordUserID, characterName, faction string) error {
	characterName = strings.TrimSpace(characterName)
	faction = canonicalFaction(faction)

	pc := &storage.PaymentCharacter{
		DiscordUserID: discordUserID,
		CharacterName: characterName,
		Faction:       faction,
	}
	if err := r.store.UpsertPaymentCharacter(ctx, pc); err != nil {
		return err
	}

	r.mu.Lock()
	r.chars[discordUserID] = payout.Registration{Character: characterName, Faction: faction}
	r.mu.Unlock()
	return nil
}

// Get returns a user's cached registration. Satisfies payout.LookupFunc.
func (r *Registry) Get(discordUserID string) (payout.Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.chars[discordUserID]
	return reg, ok
}

// Len reports how many registrations are cached.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chars)
}

func canonicalFaction(faction string) string {
	faction = strings.TrimSpace(faction)
	if faction == "" {
		return ""
	}
	return strings.ToUpper(faction[:1]) + strings.ToLower(faction[1:])
}
