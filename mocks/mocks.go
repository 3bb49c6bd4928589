// Package mocks provides in-memory repositories for tests. They enforce
// the same uniqueness rules as the SQL schema and the Mongo indexes so
// the services' conflict handling can be exercised without a database.
package mocks

import (
	"context"
	"sort"
	"sync"

	"avease/models"
	"avease/utils"
)

// Store bundles one of each repository over shared state, so removing a
// participant also drops its availability as the SQL cascade would.
type Store struct {
	Events       *MockEventRepo
	Users        *MockUserRepo
	Participants *MockParticipantRepo
	Availability *MockAvailabilityRepo
}

func New() *Store {
	users := &MockUserRepo{byEmail: map[string]int64{}, byID: map[int64]models.User{}}
	avail := &MockAvailabilityRepo{weekly: map[int64]models.WeeklySlot{}, dates: map[int64]models.DateSlot{}, rsvp: map[int64]models.RSVPStatus{}}
	parts := &MockParticipantRepo{users: users, avail: avail, rows: map[int64]models.Participant{}}
	avail.members = parts
	return &Store{
		Events:       &MockEventRepo{Items: map[string]models.Event{}},
		Users:        users,
		Participants: parts,
		Availability: avail,
	}
}

// ===== Events =====
type MockEventRepo struct {
	mu    sync.Mutex
	Items map[string]models.Event // key is id
}

func (m *MockEventRepo) Create(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.Items {
		if x.ID == e.ID || x.Link == e.Link {
			return &models.Error{Kind: models.KindConflictRetry, Message: "event id or link taken"}
		}
	}
	m.Items[e.ID] = *e
	return nil
}

func (m *MockEventRepo) GetByID(_ context.Context, id string) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Items[id]
	if !ok {
		return models.Event{}, models.ErrNotFound
	}
	return e, nil
}

func (m *MockEventRepo) GetByLink(_ context.Context, link string) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Items {
		if e.Link == link {
			return e, nil
		}
	}
	return models.Event{}, models.ErrNotFound
}

func (m *MockEventRepo) ListVisible(_ context.Context, ids []string, coordinatorID int64) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []models.Event{}
	for _, e := range m.Items {
		if want[e.ID] || (coordinatorID != 0 && e.CoordinatorID == coordinatorID) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockEventRepo) Update(_ context.Context, e *models.Event, expected int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.Items[e.ID]
	if !ok {
		return models.ErrNotFound
	}
	if cur.Version != expected {
		return models.ErrConflict
	}
	e.Version = expected + 1
	m.Items[e.ID] = *e
	return nil
}

func (m *MockEventRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Items, id)
	return nil
}

// ===== Users =====
type MockUserRepo struct {
	mu      sync.Mutex
	next    int64
	byEmail map[string]int64
	byID    map[int64]models.User
}

func (m *MockUserRepo) insert(u *models.User) bool {
	if _, ok := m.byEmail[u.Email]; ok {
		return false
	}
	m.next++
	u.ID = m.next
	m.byEmail[u.Email] = u.ID
	m.byID[u.ID] = *u
	return true
}

func (m *MockUserRepo) Create(_ context.Context, u *models.User, password string) error {
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Kind, u.PasswordHash = models.UserRegistered, hashed
	if !m.insert(u) {
		return models.InvalidField("email", "already registered")
	}
	return nil
}

func (m *MockUserRepo) CreateGuest(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Kind, u.PasswordHash = models.UserGuest, ""
	if !m.insert(u) {
		return models.ErrConflict
	}
	return nil
}

func (m *MockUserRepo) EnsureGuest(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Kind, u.PasswordHash = models.UserGuest, ""
	if m.insert(u) {
		return nil
	}
	existing := m.byID[m.byEmail[u.Email]]
	if !existing.IsGuest() {
		return models.ErrConflict
	}
	*u = existing
	return nil
}

func (m *MockUserRepo) ValidateCredentials(_ context.Context, email, plain string) (models.User, error) {
	m.mu.Lock()
	id, ok := m.byEmail[email]
	u := m.byID[id]
	m.mu.Unlock()
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	if !u.HasCredential() || !utils.CheckPasswordHash(plain, u.PasswordHash) {
		return models.User{}, models.ErrBadCredentials
	}
	return u, nil
}

func (m *MockUserRepo) GetByID(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

// Seed stores a registered user as is, skipping the password hash.
func (m *MockUserRepo) Seed(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.Kind == "" {
		u.Kind = models.UserRegistered
	}
	m.insert(&u)
	return u
}

// Count reports how many identities exist, guests included.
func (m *MockUserRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// ===== Participants =====
type MockParticipantRepo struct {
	mu    sync.Mutex
	next  int64
	rows  map[int64]models.Participant
	users *MockUserRepo
	avail *MockAvailabilityRepo
}

func (m *MockParticipantRepo) Add(ctx context.Context, p *models.Participant) error {
	u, err := m.users.GetByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.rows {
		if x.UserID == p.UserID && x.EventID == p.EventID {
			return models.ErrDuplicateMembership
		}
	}
	m.next++
	p.ID, p.User = m.next, u
	m.rows[p.ID] = *p
	return nil
}

func (m *MockParticipantRepo) Get(_ context.Context, id int64) (models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return models.Participant{}, models.ErrNotFound
	}
	return p, nil
}

func (m *MockParticipantRepo) Find(_ context.Context, eventID string, userID int64) (models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.EventID == eventID && p.UserID == userID {
			return p, nil
		}
	}
	return models.Participant{}, models.ErrNotFound
}

func (m *MockParticipantRepo) ListByEvent(_ context.Context, eventID string) ([]models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Participant{}
	for _, p := range m.rows {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockParticipantRepo) EventIDsForUser(_ context.Context, userID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, p := range m.rows {
		if p.UserID == userID {
			ids = append(ids, p.EventID)
		}
	}
	return ids, nil
}

func (m *MockParticipantRepo) Remove(_ context.Context, eventID string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.rows {
		if p.EventID == eventID && p.UserID == userID {
			delete(m.rows, id)
			m.avail.cascade(id)
		}
	}
	return nil
}

func (m *MockParticipantRepo) DeleteByEvent(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.rows {
		if p.EventID == eventID {
			delete(m.rows, id)
			m.avail.cascade(id)
		}
	}
	return nil
}

func (m *MockParticipantRepo) idsForEvent(eventID string) map[int64]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := map[int64]bool{}
	for id, p := range m.rows {
		if p.EventID == eventID {
			ids[id] = true
		}
	}
	return ids
}

// ===== Availability =====
type MockAvailabilityRepo struct {
	mu     sync.Mutex
	next   int64
	weekly map[int64]models.WeeklySlot
	dates  map[int64]models.DateSlot
	rsvp   map[int64]models.RSVPStatus

	members *MockParticipantRepo

	// RSVPConflicts makes the next n UpsertRSVP calls lose the insert race.
	RSVPConflicts int
}

func (m *MockAvailabilityRepo) AddWeekly(_ context.Context, s *models.WeeklySlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.weekly {
		if x.ParticipantID == s.ParticipantID && x.Day == s.Day && x.StartTime == s.StartTime {
			*s = x
			return nil
		}
	}
	m.next++
	s.ID = m.next
	m.weekly[s.ID] = *s
	return nil
}

func (m *MockAvailabilityRepo) RemoveWeekly(_ context.Context, participantID int64, day models.Weekday, start models.TimeOfDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, x := range m.weekly {
		if x.ParticipantID == participantID && x.Day == day && x.StartTime == start {
			delete(m.weekly, id)
		}
	}
	return nil
}

func sameClock(a, b *models.TimeOfDay) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *MockAvailabilityRepo) AddDate(_ context.Context, s *models.DateSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.dates {
		if x.ParticipantID == s.ParticipantID && x.Date == s.Date && sameClock(x.StartTime, s.StartTime) && sameClock(x.EndTime, s.EndTime) {
			*s = x
			return nil
		}
	}
	m.next++
	s.ID = m.next
	m.dates[s.ID] = *s
	return nil
}

func (m *MockAvailabilityRepo) RemoveDate(_ context.Context, participantID int64, date models.Date, start, end *models.TimeOfDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, x := range m.dates {
		if x.ParticipantID != participantID || x.Date != date {
			continue
		}
		if start != nil && (!sameClock(x.StartTime, start) || !sameClock(x.EndTime, end)) {
			continue
		}
		delete(m.dates, id)
	}
	return nil
}

func (m *MockAvailabilityRepo) UpsertRSVP(_ context.Context, s *models.RSVPStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RSVPConflicts > 0 {
		m.RSVPConflicts--
		return &models.Error{Kind: models.KindConflictRetry, Message: "rsvp inserted concurrently"}
	}
	if cur, ok := m.rsvp[s.ParticipantID]; ok {
		cur.Status = s.Status
		m.rsvp[s.ParticipantID] = cur
		*s = cur
		return nil
	}
	m.next++
	s.ID = m.next
	m.rsvp[s.ParticipantID] = *s
	return nil
}

// PutRSVP stores a row without any checks, for seeding inconsistent data.
func (m *MockAvailabilityRepo) PutRSVP(s models.RSVPStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	s.ID = m.next
	m.rsvp[s.ParticipantID] = s
}

func (m *MockAvailabilityRepo) ListForEvent(_ context.Context, eventID string) (models.Availabilities, error) {
	// membership is read before taking our own lock; Remove locks the
	// other way round when it cascades
	members := m.members.idsForEvent(eventID)

	m.mu.Lock()
	defer m.mu.Unlock()
	out := models.Availabilities{Weekly: []models.WeeklySlot{}, Date: []models.DateSlot{}, RSVP: []models.RSVPStatus{}}
	for _, s := range m.weekly {
		if members[s.ParticipantID] {
			out.Weekly = append(out.Weekly, s)
		}
	}
	for _, s := range m.dates {
		if members[s.ParticipantID] {
			out.Date = append(out.Date, s)
		}
	}
	for _, s := range m.rsvp {
		if members[s.ParticipantID] {
			out.RSVP = append(out.RSVP, s)
		}
	}
	sort.Slice(out.Weekly, func(i, j int) bool {
		a, b := out.Weekly[i], out.Weekly[j]
		if a.ParticipantID != b.ParticipantID {
			return a.ParticipantID < b.ParticipantID
		}
		if a.Day != b.Day {
			return a.Day.Index() < b.Day.Index()
		}
		return a.StartTime.Before(b.StartTime)
	})
	sort.Slice(out.Date, func(i, j int) bool { return out.Date[i].ID < out.Date[j].ID })
	sort.Slice(out.RSVP, func(i, j int) bool { return out.RSVP[i].ID < out.RSVP[j].ID })
	return out, nil
}

// CountRSVP reports the stored RSVP rows of one participant (0 or 1).
func (m *MockAvailabilityRepo) CountRSVP(participantID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rsvp[participantID]; ok {
		return 1
	}
	return 0
}

// cascade is called with the participant lock held.
func (m *MockAvailabilityRepo) cascade(participantID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.weekly {
		if s.ParticipantID == participantID {
			delete(m.weekly, id)
		}
	}
	for id, s := range m.dates {
		if s.ParticipantID == participantID {
			delete(m.dates, id)
		}
	}
	delete(m.rsvp, participantID)
}
