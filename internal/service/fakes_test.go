package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/repository"
)

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type memProfiles struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]domain.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{rows: map[primitive.ObjectID]domain.Profile{}}
}

func (m *memProfiles) add(name, email string, role domain.Role) domain.Profile {
	p := domain.Profile{FullName: name, Email: email, Role: role}
	_, _ = m.Create(context.Background(), &p)
	return p
}

func (m *memProfiles) Create(_ context.Context, p *domain.Profile) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Email = domain.NormalizeEmail(p.Email)
	for _, row := range m.rows {
		if row.Email == p.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = fixedNow, fixedNow
	m.rows[p.ID] = *p
	return p.ID, nil
}

func (m *memProfiles) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = domain.NormalizeEmail(email)
	for _, row := range m.rows {
		if row.Email == email {
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memProfiles) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (m *memProfiles) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Profile
	for _, id := range ids {
		if row, ok := m.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memProfiles) Update(_ context.Context, p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	row.FullName, row.Phone, row.UpdatedAt = p.FullName, p.Phone, fixedNow
	m.rows[p.ID] = row
	return nil
}

type memConnections struct {
	mu      sync.Mutex
	rows    []domain.ClientConnection
	creates int
}

func (m *memConnections) Create(_ context.Context, c *domain.ClientConnection) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	for _, row := range m.rows {
		if row.ClientID == c.ClientID && row.ProfessionalID == c.ProfessionalID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	c.ID = primitive.NewObjectID()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	m.rows = append(m.rows, *c)
	return c.ID, nil
}

func (m *memConnections) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ClientConnection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.ID == id {
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memConnections) GetByPair(_ context.Context, clientID, professionalID primitive.ObjectID) (*domain.ClientConnection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.ClientID == clientID && row.ProfessionalID == professionalID {
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memConnections) list(match func(domain.ClientConnection) bool) []domain.ClientConnection {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ClientConnection
	for i := len(m.rows) - 1; i >= 0; i-- {
		if match(m.rows[i]) {
			out = append(out, m.rows[i])
		}
	}
	return out
}

func (m *memConnections) ListByClient(_ context.Context, clientID primitive.ObjectID) ([]domain.ClientConnection, error) {
	return m.list(func(c domain.ClientConnection) bool { return c.ClientID == clientID }), nil
}

func (m *memConnections) ListByProfessional(_ context.Context, professionalID primitive.ObjectID) ([]domain.ClientConnection, error) {
	return m.list(func(c domain.ClientConnection) bool { return c.ProfessionalID == professionalID }), nil
}

func (m *memConnections) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.ConnectionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

type memMessages struct {
	mu    sync.Mutex
	rows  []domain.ClientMessage
	calls int
}

func (m *memMessages) Create(_ context.Context, msg *domain.ClientMessage) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	msg.ID = primitive.NewObjectID()
	msg.SentAt = fixedNow.Add(time.Duration(len(m.rows)) * time.Second)
	m.rows = append(m.rows, *msg)
	return msg.ID, nil
}

func (m *memMessages) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ClientMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, row := range m.rows {
		if row.ID == id {
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memMessages) ListByConnection(_ context.Context, connectionID primitive.ObjectID) ([]domain.ClientMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var out []domain.ClientMessage
	for _, row := range m.rows {
		if row.ConnectionID == connectionID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memMessages) MarkRead(_ context.Context, id, recipientID primitive.ObjectID) (*domain.ClientMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].RecipientID == recipientID {
			if m.rows[i].ReadAt == nil {
				at := fixedNow
				m.rows[i].ReadAt = &at
			}
			row := m.rows[i]
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memMessages) CountUnread(_ context.Context, recipientID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var n int64
	for _, row := range m.rows {
		if row.RecipientID == recipientID && row.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

type memNotes struct {
	rows []domain.ClientNote
}

func (m *memNotes) Create(_ context.Context, n *domain.ClientNote) (primitive.ObjectID, error) {
	n.ID = primitive.NewObjectID()
	m.rows = append(m.rows, *n)
	return n.ID, nil
}

func (m *memNotes) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ClientNote, error) {
	for _, row := range m.rows {
		if row.ID == id {
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memNotes) ListByProfessionalAndClient(_ context.Context, professionalID, clientID primitive.ObjectID) ([]domain.ClientNote, error) {
	var out []domain.ClientNote
	for _, row := range m.rows {
		if row.ProfessionalID == professionalID && row.ClientID == clientID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memNotes) Update(_ context.Context, n *domain.ClientNote) error {
	for i := range m.rows {
		if m.rows[i].ID == n.ID && m.rows[i].ProfessionalID == n.ProfessionalID {
			m.rows[i] = *n
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memNotes) Delete(_ context.Context, id, professionalID primitive.ObjectID) error {
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].ProfessionalID == professionalID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memAppointments struct {
	rows []domain.Appointment
}

func (m *memAppointments) Create(_ context.Context, a *domain.Appointment) (primitive.ObjectID, error) {
	a.ID = primitive.NewObjectID()
	m.rows = append(m.rows, *a)
	return a.ID, nil
}

func (m *memAppointments) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Appointment, error) {
	for _, row := range m.rows {
		if row.ID == id {
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAppointments) sorted(match func(domain.Appointment) bool) []domain.Appointment {
	var out []domain.Appointment
	for _, row := range m.rows {
		if match(row) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

func (m *memAppointments) ListByProfessional(_ context.Context, professionalID primitive.ObjectID) ([]domain.Appointment, error) {
	return m.sorted(func(a domain.Appointment) bool { return a.ProfessionalID == professionalID }), nil
}

func (m *memAppointments) ListByClient(_ context.Context, clientID primitive.ObjectID) ([]domain.Appointment, error) {
	return m.sorted(func(a domain.Appointment) bool { return a.ClientID == clientID }), nil
}

func (m *memAppointments) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.AppointmentStatus) error {
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memAppointments) Delete(_ context.Context, id, professionalID primitive.ObjectID) error {
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].ProfessionalID == professionalID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memMeals struct {
	meals   []domain.Meal
	entries []domain.MealEntry
}

func (m *memMeals) CreateMeal(_ context.Context, meal *domain.Meal) (primitive.ObjectID, error) {
	meal.ID = primitive.NewObjectID()
	m.meals = append(m.meals, *meal)
	return meal.ID, nil
}

func (m *memMeals) GetMeal(_ context.Context, id primitive.ObjectID) (*domain.Meal, error) {
	for _, row := range m.meals {
		if row.ID == id {
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memMeals) ListMeals(_ context.Context, userID primitive.ObjectID, date string) ([]domain.Meal, error) {
	var out []domain.Meal
	for _, row := range m.meals {
		if row.UserID == userID && row.Date == date {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memMeals) DeleteMeal(_ context.Context, id, userID primitive.ObjectID) error {
	found := false
	meals := m.meals[:0]
	for _, row := range m.meals {
		if row.ID == id && row.UserID == userID {
			found = true
			continue
		}
		meals = append(meals, row)
	}
	m.meals = meals
	if !found {
		return repository.ErrNotFound
	}
	entries := m.entries[:0]
	for _, e := range m.entries {
		if e.MealID != id {
			entries = append(entries, e)
		}
	}
	m.entries = entries
	return nil
}

// seedEntry stores an entry as-is, bypassing meals.
func (m *memMeals) seedEntry(userID primitive.ObjectID, date string, calories, protein float64) {
	e := domain.MealEntry{UserID: userID, MealID: primitive.NewObjectID(), FoodName: "seed", Date: date, Calories: calories, Protein: protein}
	_, _ = m.CreateEntry(context.Background(), &e)
}

func (m *memMeals) CreateEntry(_ context.Context, e *domain.MealEntry) (primitive.ObjectID, error) {
	e.ID = primitive.NewObjectID()
	m.entries = append(m.entries, *e)
	return e.ID, nil
}

func (m *memMeals) GetEntry(_ context.Context, id primitive.ObjectID) (*domain.MealEntry, error) {
	for _, row := range m.entries {
		if row.ID == id {
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memMeals) MealPhotoKeys(_ context.Context, mealID, userID primitive.ObjectID) ([]string, error) {
	var keys []string
	for _, row := range m.entries {
		if row.MealID == mealID && row.UserID == userID && row.PhotoKey != "" {
			keys = append(keys, row.PhotoKey)
		}
	}
	return keys, nil
}

func (m *memMeals) ListEntries(_ context.Context, userID primitive.ObjectID, from, to string) ([]domain.MealEntry, error) {
	var out []domain.MealEntry
	for _, row := range m.entries {
		if row.UserID == userID && row.Date >= from && row.Date <= to {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memMeals) UpdateEntry(_ context.Context, e *domain.MealEntry) error {
	for i := range m.entries {
		if m.entries[i].ID == e.ID && m.entries[i].UserID == e.UserID {
			m.entries[i] = *e
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memMeals) SetEntryPhoto(_ context.Context, id, userID primitive.ObjectID, photoKey string) error {
	for i := range m.entries {
		if m.entries[i].ID == id && m.entries[i].UserID == userID {
			m.entries[i].PhotoKey = photoKey
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memMeals) DeleteEntry(_ context.Context, id, userID primitive.ObjectID) error {
	for i := range m.entries {
		if m.entries[i].ID == id && m.entries[i].UserID == userID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memWater struct {
	rows []domain.WaterIntake
}

func (m *memWater) Create(_ context.Context, w *domain.WaterIntake) (primitive.ObjectID, error) {
	w.ID = primitive.NewObjectID()
	m.rows = append(m.rows, *w)
	return w.ID, nil
}

func (m *memWater) ListByDate(_ context.Context, userID primitive.ObjectID, date string) ([]domain.WaterIntake, error) {
	var out []domain.WaterIntake
	for _, row := range m.rows {
		if row.UserID == userID && row.Date == date {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memWater) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].UserID == userID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memActivities struct {
	rows []domain.Activity
}

func (m *memActivities) Create(_ context.Context, a *domain.Activity) (primitive.ObjectID, error) {
	a.ID = primitive.NewObjectID()
	m.rows = append(m.rows, *a)
	return a.ID, nil
}

func (m *memActivities) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Activity, error) {
	for _, row := range m.rows {
		if row.ID == id {
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memActivities) ListByRange(_ context.Context, userID primitive.ObjectID, from, to string) ([]domain.Activity, error) {
	var out []domain.Activity
	for _, row := range m.rows {
		if row.UserID == userID && row.Date >= from && row.Date <= to {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memActivities) Update(_ context.Context, a *domain.Activity) error {
	for i := range m.rows {
		if m.rows[i].ID == a.ID && m.rows[i].UserID == a.UserID {
			m.rows[i] = *a
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memActivities) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].UserID == userID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memGoals struct {
	rows map[primitive.ObjectID]domain.UserGoals
}

func (m *memGoals) Get(_ context.Context, userID primitive.ObjectID) (*domain.UserGoals, error) {
	g, ok := m.rows[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (m *memGoals) Upsert(_ context.Context, g *domain.UserGoals) error {
	if m.rows == nil {
		m.rows = map[primitive.ObjectID]domain.UserGoals{}
	}
	m.rows[g.UserID] = *g
	return nil
}

// ---------------------------------------------------------------------------
// Other collaborators
// ---------------------------------------------------------------------------

type recordingPublisher struct {
	patches []domain.MessagePatch
}

func (p *recordingPublisher) Publish(patch domain.MessagePatch) {
	p.patches = append(p.patches, patch)
}

type fakeStorage struct {
	deleted []string
	err     error
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://bucket.example/" + key + "?put", nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://bucket.example/" + key + "?get", nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func sessionOf(p domain.Profile) domain.Session {
	return domain.Session{UserID: p.ID, Role: p.Role}
}
