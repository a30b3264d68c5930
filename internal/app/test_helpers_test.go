package app

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/example/logitrack/internal/core/effects"
	"github.com/example/logitrack/internal/ports/secondary"
)

// memStore is an in-memory implementation of every repository port.
// Records are stored by value so snapshots taken by memTransactor can roll
// a failed unit of work back.
type memStore struct {
	mu        sync.Mutex
	users     map[string]secondary.UserRecord
	shipments map[string]secondary.ShipmentRecord
	issues    map[string]secondary.DeliveryIssueRecord
	contacts  map[string]secondary.ContactRecord
	chains    map[string]secondary.EscalationChainRecord
	logs      []secondary.EscalationLogRecord
	acks      []secondary.AcknowledgmentRecord
	seq       int64

	appendErr error
}

type memSnapshot struct {
	contacts map[string]secondary.ContactRecord
	chains   map[string]secondary.EscalationChainRecord
	logs     []secondary.EscalationLogRecord
	acks     []secondary.AcknowledgmentRecord
	seq      int64
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[string]secondary.UserRecord),
		shipments: make(map[string]secondary.ShipmentRecord),
		issues:    make(map[string]secondary.DeliveryIssueRecord),
		contacts:  make(map[string]secondary.ContactRecord),
		chains:    make(map[string]secondary.EscalationChainRecord),
	}
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		contacts: maps.Clone(s.contacts),
		chains:   maps.Clone(s.chains),
		logs:     slices.Clone(s.logs),
		acks:     slices.Clone(s.acks),
		seq:      s.seq,
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = snap.contacts
	s.chains = snap.chains
	s.logs = snap.logs
	s.acks = snap.acks
	s.seq = snap.seq
}

func (s *memStore) repos() secondary.Repositories {
	return secondary.Repositories{
		Users:           memUsers{s},
		Shipments:       memShipments{s},
		DeliveryIssues:  memIssues{s},
		Contacts:        memContacts{s},
		Chains:          memChains{s},
		Logs:            memLogs{s},
		Acknowledgments: memAcks{s},
	}
}

// Fixture helpers

func (s *memStore) addUser(id, role string) {
	s.users[id] = secondary.UserRecord{ID: id, Name: "User " + id, Email: id + "@test.example", Role: role}
}

func (s *memStore) addShipment(id string) {
	s.shipments[id] = secondary.ShipmentRecord{ID: id, TrackingNumber: "TRK-" + id, Status: "in_transit"}
}

func (s *memStore) addIssue(id, shipmentID string) {
	s.issues[id] = secondary.DeliveryIssueRecord{ID: id, ShipmentID: shipmentID, IssueType: "damaged", Status: "open"}
}

func (s *memStore) addContact(id, userID string, position int, contactType string, timeout int, active bool) {
	s.contacts[id] = secondary.ContactRecord{
		ID: id, UserID: userID, Position: position, ContactType: contactType,
		TimeoutSeconds: timeout, IsActive: active, CreatedAt: time.Now().UTC(),
	}
}

// addLadder seeds the demo ladder: dispatcher/email at 1, manager/phone at 2,
// admin/push at 3.
func (s *memStore) addLadder() {
	s.addUser("USR-001", "admin")
	s.addUser("USR-002", "manager")
	s.addUser("USR-003", "dispatcher")
	s.addUser("USR-004", "driver")
	s.addUser("USR-005", "manager")
	s.addContact("CONT-001", "USR-003", 1, "email", 300, true)
	s.addContact("CONT-002", "USR-002", 2, "phone", 600, true)
	s.addContact("CONT-003", "USR-001", 3, "push", 900, true)
}

func (s *memStore) logCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

func (s *memStore) unackedOutstanding(shipmentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, ch := range s.chains {
		if ch.ShipmentID != shipmentID || ch.Status != "active" {
			continue
		}
		for _, l := range s.logs {
			if l.ChainID == ch.ID && l.AttemptNumber == ch.HeadAttempt && !l.AckReceived {
				count++
			}
		}
	}
	return count
}

// memTransactor serialises units of work the way BEGIN IMMEDIATE does.
type memTransactor struct {
	mu    sync.Mutex
	store *memStore
}

func (t *memTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.store.snapshot()
	if err := fn(ctx, t.store.repos()); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

var _ secondary.Transactor = (*memTransactor)(nil)

type memUsers struct{ s *memStore }

func (r memUsers) GetByID(ctx context.Context, id string) (*secondary.UserRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s %w", id, secondary.ErrNotFound)
	}
	return &u, nil
}

type memShipments struct{ s *memStore }

func (r memShipments) GetByID(ctx context.Context, id string) (*secondary.ShipmentRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sh, ok := r.s.shipments[id]
	if !ok {
		return nil, fmt.Errorf("shipment %s %w", id, secondary.ErrNotFound)
	}
	return &sh, nil
}

type memIssues struct{ s *memStore }

func (r memIssues) GetByID(ctx context.Context, id string) (*secondary.DeliveryIssueRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i, ok := r.s.issues[id]
	if !ok {
		return nil, fmt.Errorf("delivery issue %s %w", id, secondary.ErrNotFound)
	}
	return &i, nil
}

type memContacts struct{ s *memStore }

func (r memContacts) joined(c secondary.ContactRecord) *secondary.ContactRecord {
	u := r.s.users[c.UserID]
	c.UserName, c.UserEmail, c.UserPushToken = u.Name, u.Email, u.PushToken
	return &c
}

func (r memContacts) Create(ctx context.Context, c *secondary.ContactRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.contacts {
		if existing.Position == c.Position {
			return fmt.Errorf("contact position %d %w", c.Position, secondary.ErrDuplicate)
		}
	}
	r.s.contacts[c.ID] = *c
	return nil
}

func (r memContacts) GetByID(ctx context.Context, id string) (*secondary.ContactRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contacts[id]
	if !ok {
		return nil, fmt.Errorf("contact %s %w", id, secondary.ErrNotFound)
	}
	return r.joined(c), nil
}

func (r memContacts) List(ctx context.Context, filters secondary.ContactFilters) ([]*secondary.ContactRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*secondary.ContactRecord
	for _, c := range r.s.contacts {
		if filters.ActiveOnly && !c.IsActive {
			continue
		}
		out = append(out, r.joined(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r memContacts) SetActive(ctx context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contacts[id]
	if !ok {
		return fmt.Errorf("contact %s %w", id, secondary.ErrNotFound)
	}
	c.IsActive = active
	r.s.contacts[id] = c
	return nil
}

func (r memContacts) PositionTaken(ctx context.Context, position int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.contacts {
		if c.Position == position {
			return true, nil
		}
	}
	return false, nil
}

func (r memContacts) GetNextID(ctx context.Context) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fmt.Sprintf("CONT-%03d", len(r.s.contacts)+1), nil
}

type memChains struct{ s *memStore }

func (r memChains) Create(ctx context.Context, ch *secondary.EscalationChainRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.chains {
		if existing.ShipmentID == ch.ShipmentID && existing.Status == "active" {
			return fmt.Errorf("active escalation chain for shipment %s %w", ch.ShipmentID, secondary.ErrDuplicate)
		}
	}
	r.s.chains[ch.ID] = *ch
	return nil
}

func (r memChains) GetActive(ctx context.Context, shipmentID string) (*secondary.EscalationChainRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ch := range r.s.chains {
		if ch.ShipmentID == shipmentID && ch.Status == "active" {
			return &ch, nil
		}
	}
	return nil, fmt.Errorf("active escalation chain for shipment %s %w", shipmentID, secondary.ErrNotFound)
}

func (r memChains) SetHead(ctx context.Context, id string, attempt int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ch, ok := r.s.chains[id]
	if !ok || ch.Status != "active" {
		return fmt.Errorf("active escalation chain %s %w", id, secondary.ErrNotFound)
	}
	ch.HeadAttempt = attempt
	r.s.chains[id] = ch
	return nil
}

func (r memChains) Close(ctx context.Context, id string, closedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ch, ok := r.s.chains[id]
	if !ok || ch.Status != "active" {
		return fmt.Errorf("active escalation chain %s %w", id, secondary.ErrNotFound)
	}
	ch.Status = "acknowledged"
	ch.ClosedAt = &closedAt
	r.s.chains[id] = ch
	return nil
}

func (r memChains) GetNextID(ctx context.Context) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fmt.Sprintf("ECH-%03d", len(r.s.chains)+1), nil
}

type memLogs struct{ s *memStore }

// joined attaches detail; caller holds the lock.
func (r memLogs) joined(l secondary.EscalationLogRecord) *secondary.EscalationLogRecord {
	c := r.s.contacts[l.ContactID]
	u := r.s.users[c.UserID]
	c.UserName, c.UserEmail, c.UserPushToken = u.Name, u.Email, u.PushToken
	l.Contact = &c
	sh := r.s.shipments[l.ShipmentID]
	l.Shipment = &sh
	if issue, ok := r.s.issues[l.DeliveryIssueID]; ok {
		l.DeliveryIssue = &issue
	}
	return &l
}

func (r memLogs) Append(ctx context.Context, l *secondary.EscalationLogRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.appendErr != nil {
		return r.s.appendErr
	}
	for _, existing := range r.s.logs {
		if existing.ChainID == l.ChainID && existing.AttemptNumber == l.AttemptNumber {
			return fmt.Errorf("escalation attempt %d %w", l.AttemptNumber, secondary.ErrDuplicate)
		}
	}
	r.s.seq++
	l.Seq = r.s.seq
	stored := *l
	stored.Contact, stored.Shipment, stored.DeliveryIssue = nil, nil, nil
	r.s.logs = append(r.s.logs, stored)
	return nil
}

func (r memLogs) GetByID(ctx context.Context, id string) (*secondary.EscalationLogRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.logs {
		if l.ID == id {
			return r.joined(l), nil
		}
	}
	return nil, fmt.Errorf("escalation log %s %w", id, secondary.ErrNotFound)
}

func (r memLogs) outstanding() []*secondary.EscalationLogRecord {
	var out []*secondary.EscalationLogRecord
	for _, l := range r.s.logs {
		ch, ok := r.s.chains[l.ChainID]
		if ok && ch.Status == "active" && ch.HeadAttempt == l.AttemptNumber {
			out = append(out, r.joined(l))
		}
	}
	return out
}

func (r memLogs) Outstanding(ctx context.Context, shipmentID string) (*secondary.EscalationLogRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.outstanding() {
		if l.ShipmentID == shipmentID {
			return l, nil
		}
	}
	return nil, fmt.Errorf("outstanding escalation for shipment %s %w", shipmentID, secondary.ErrNotFound)
}

func (r memLogs) ListOutstanding(ctx context.Context) ([]*secondary.EscalationLogRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.outstanding(), nil
}

func (r memLogs) ListByShipment(ctx context.Context, shipmentID string) ([]*secondary.EscalationLogRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*secondary.EscalationLogRecord
	for i := len(r.s.logs) - 1; i >= 0; i-- {
		if r.s.logs[i].ShipmentID == shipmentID {
			out = append(out, r.joined(r.s.logs[i]))
		}
	}
	return out, nil
}

func (r memLogs) MarkAcknowledged(ctx context.Context, id, method string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, l := range r.s.logs {
		if l.ID == id && !l.AckReceived {
			r.s.logs[i].AckReceived = true
			r.s.logs[i].AckMethod = method
			r.s.logs[i].AcknowledgedAt = &at
			return nil
		}
	}
	return fmt.Errorf("unacknowledged escalation log %s %w", id, secondary.ErrNotFound)
}

func (r memLogs) GetNextID(ctx context.Context) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fmt.Sprintf("ELOG-%04d", len(r.s.logs)+1), nil
}

type memAcks struct{ s *memStore }

func (r memAcks) Create(ctx context.Context, ack *secondary.AcknowledgmentRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.acks = append(r.s.acks, *ack)
	return nil
}

func (r memAcks) ListByShipment(ctx context.Context, shipmentID string) ([]*secondary.AcknowledgmentRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*secondary.AcknowledgmentRecord
	for i := len(r.s.acks) - 1; i >= 0; i-- {
		if r.s.acks[i].ShipmentID == shipmentID {
			a := r.s.acks[i]
			out = append(out, &a)
		}
	}
	return out, nil
}

func (r memAcks) GetNextID(ctx context.Context) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fmt.Sprintf("ACK-%03d", len(r.s.acks)+1), nil
}

// recordingExecutor captures dispatched effects.
type recordingExecutor struct {
	mu      sync.Mutex
	effects []effects.Effect
	err     error
}

func (e *recordingExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.effects = append(e.effects, effs...)
	return e.err
}

func (e *recordingExecutor) notifies() []effects.NotifyEffect {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []effects.NotifyEffect
	for _, eff := range e.effects {
		if n, ok := eff.(effects.NotifyEffect); ok {
			out = append(out, n)
		}
	}
	return out
}

func (e *recordingExecutor) pages() []effects.PageEffect {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []effects.PageEffect
	for _, eff := range e.effects {
		if p, ok := eff.(effects.PageEffect); ok {
			out = append(out, p)
		}
	}
	return out
}

// Recording sinks for DefaultEffectExecutor tests

type recordingPublisher struct {
	mu     sync.Mutex
	name   string
	events []secondary.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event secondary.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Name() string { return p.name }

type recordingPager struct {
	mu          sync.Mutex
	contactType string
	pages       []secondary.Page
	err         error
}

func (p *recordingPager) Page(ctx context.Context, page secondary.Page) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = append(p.pages, page)
	return p.err
}

func (p *recordingPager) ContactType() string { return p.contactType }
