package venue

import (
	"context"
	"sync"

	"github.com/tidwall/gjson"

	"gemScoutBot/internal/domain"
	"gemScoutBot/internal/ports"
)

const defaultSeenLimit = 10000

// defaultCreationMarkers are the event types recognised as new-listing
// events when no per-deployment set is configured.
var defaultCreationMarkers = []string{"new_pool", "initialize2", "create_pool", "mint_new"}

// Parser extracts candidates from raw venue frames and suppresses
// duplicates through a bounded first-seen set. Pure transformation plus a
// membership check; no network or scoring logic lives here.
type Parser struct {
	markers   map[string]bool
	seenLimit int
	logger    ports.Logger

	mu    sync.Mutex
	seen  map[string]bool
	order []string // FIFO eviction order for the seen set
}

// NewParser creates a parser matching the given creation-intent markers.
// A nil or empty marker list falls back to the defaults; seenLimit <= 0
// falls back to the default bound.
func NewParser(markers []string, seenLimit int, logger ports.Logger) *Parser {
	if len(markers) == 0 {
		markers = defaultCreationMarkers
	}
	if seenLimit <= 0 {
		seenLimit = defaultSeenLimit
	}
	set := make(map[string]bool, len(markers))
	for _, m := range markers {
		set[m] = true
	}
	return &Parser{
		markers:   set,
		seenLimit: seenLimit,
		logger:    logger,
		seen:      make(map[string]bool, seenLimit),
	}
}

// Parse identifies whether the frame is a new-listing event and extracts a
// candidate from it. Returns (nil, false) for non-listing frames, malformed
// frames and re-deliveries of an already-seen address: first-seen wins.
func (p *Parser) Parse(frame ports.RawFrame) (*domain.Candidate, bool) {
	if !gjson.ValidBytes(frame.Payload) {
		p.debugDrop(frame, "invalid JSON")
		return nil, false
	}

	eventType := gjson.GetBytes(frame.Payload, "type").String()
	if eventType == "" {
		eventType = gjson.GetBytes(frame.Payload, "event").String()
	}
	if !p.markers[eventType] {
		return nil, false // not a listing event, nothing to report
	}

	addr := gjson.GetBytes(frame.Payload, "address").String()
	if addr == "" {
		addr = gjson.GetBytes(frame.Payload, "token.address").String()
	}
	if !validAddress(addr) {
		p.debugDrop(frame, "missing or malformed address")
		return nil, false
	}

	if !p.markSeen(addr) {
		return nil, false // duplicate delivery
	}

	return &domain.Candidate{
		Address:      addr,
		Venue:        frame.Venue,
		DiscoveredAt: frame.ReceivedAt,
	}, true
}

// markSeen inserts the address into the seen set if absent, evicting the
// oldest entry once the bound is reached. Returns false when already seen.
func (p *Parser) markSeen(addr string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.seen[addr] {
		return false
	}
	if len(p.order) >= p.seenLimit {
		oldest := p.order[0]
		p.order = p.order[1:]
		delete(p.seen, oldest)
	}
	p.seen[addr] = true
	p.order = append(p.order, addr)
	return true
}

func (p *Parser) debugDrop(frame ports.RawFrame, why string) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(context.Background(), "parser: dropped frame", map[string]interface{}{
		"venue": frame.Venue, "why": why,
	})
}

// validAddress checks the rough shape of a base58 asset address.
func validAddress(addr string) bool {
	if len(addr) < 32 || len(addr) > 44 {
		return false
	}
	for _, r := range addr {
		switch {
		case r >= '1' && r <= '9', r >= 'A' && r <= 'H', r >= 'J' && r <= 'N',
			r >= 'P' && r <= 'Z', r >= 'a' && r <= 'k', r >= 'm' && r <= 'z':
		default:
			return false
		}
	}
	return true
}
