package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DRegan-dev/downward/internal/model"
	"github.com/DRegan-dev/downward/internal/repository"
	pkgerrors "github.com/DRegan-dev/downward/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

func (m *mockUserRepo) List(_ context.Context, keyword string, offset, limit int) ([]model.User, int64, error) {
	var matched []model.User
	kw := strings.ToLower(keyword)
	for _, u := range m.users {
		if kw == "" || strings.Contains(strings.ToLower(u.Username), kw) || strings.Contains(strings.ToLower(u.Email), kw) {
			matched = append(matched, *u)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })
	total := int64(len(matched))
	return paginate(matched, offset, limit), total, nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) LockSuperusers(_ context.Context) ([]string, error) {
	var ids []string
	for id, u := range m.users {
		if u.IsSuperuser {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ── Mock DescentTypeRepository ──

type mockDescentTypeRepo struct {
	types map[string]*model.DescentType
}

func newMockDescentTypeRepo() *mockDescentTypeRepo {
	return &mockDescentTypeRepo{types: make(map[string]*model.DescentType)}
}

func (m *mockDescentTypeRepo) Create(_ context.Context, dt *model.DescentType) error {
	if dt.DescentTypeID == "" {
		dt.DescentTypeID = uuid.NewString()
	}
	cp := *dt
	m.types[dt.DescentTypeID] = &cp
	return nil
}

// getUnscoped also returns soft-deleted rows, like the session preload
func (m *mockDescentTypeRepo) getUnscoped(id string) *model.DescentType {
	if dt, ok := m.types[id]; ok {
		cp := *dt
		return &cp
	}
	return nil
}

func (m *mockDescentTypeRepo) GetByID(_ context.Context, id string) (*model.DescentType, error) {
	if dt, ok := m.types[id]; ok && !dt.DeletedAt.Valid {
		cp := *dt
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDescentTypeRepo) List(_ context.Context, includeInactive bool) ([]model.DescentType, error) {
	var result []model.DescentType
	for _, dt := range m.types {
		if dt.DeletedAt.Valid {
			continue
		}
		if !includeInactive && !dt.IsActive {
			continue
		}
		result = append(result, *dt)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockDescentTypeRepo) Update(_ context.Context, dt *model.DescentType) error {
	cp := *dt
	m.types[dt.DescentTypeID] = &cp
	return nil
}

func (m *mockDescentTypeRepo) Delete(_ context.Context, id string, deletedBy string) error {
	if dt, ok := m.types[id]; ok {
		dt.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		dt.DeletedBy = &deletedBy
	}
	return nil
}

func (m *mockDescentTypeRepo) Count(_ context.Context) (int64, error) {
	var n int64
	for _, dt := range m.types {
		if !dt.DeletedAt.Valid {
			n++
		}
	}
	return n, nil
}

// ── Mock SessionRepository ──

type mockSessionRepo struct {
	sessions map[string]*model.DescentSession
	types    *mockDescentTypeRepo
	users    *mockUserRepo
	locks    int // GetByIDForUpdate calls
}

func newMockSessionRepo(types *mockDescentTypeRepo, users *mockUserRepo) *mockSessionRepo {
	return &mockSessionRepo{
		sessions: make(map[string]*model.DescentSession),
		types:    types,
		users:    users,
	}
}

func (m *mockSessionRepo) load(s *model.DescentSession) *model.DescentSession {
	cp := *s
	cp.DescentType = m.types.getUnscoped(s.DescentTypeID)
	if u, ok := m.users.users[s.UserID]; ok {
		uc := *u
		cp.User = &uc
	}
	return &cp
}

func (m *mockSessionRepo) Create(_ context.Context, s *model.DescentSession) error {
	if s.SessionID == "" {
		s.SessionID = uuid.NewString()
	}
	if s.Version == 0 {
		s.Version = 1
	}
	cp := *s
	cp.DescentType = nil
	m.sessions[s.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.DescentSession, error) {
	if s, ok := m.sessions[id]; ok {
		return m.load(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.DescentSession, error) {
	m.locks++
	return m.GetByID(ctx, id)
}

func (m *mockSessionRepo) sorted(filter func(*model.DescentSession) bool) []model.DescentSession {
	var result []model.DescentSession
	for _, s := range m.sessions {
		if filter(s) {
			result = append(result, *m.load(s))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartedAt.After(result[j].StartedAt) })
	return result
}

func paginate[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

func (m *mockSessionRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.DescentSession, int64, error) {
	all := m.sorted(func(s *model.DescentSession) bool { return s.UserID == userID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockSessionRepo) ListAllByUser(_ context.Context, userID string) ([]model.DescentSession, error) {
	return m.sorted(func(s *model.DescentSession) bool { return s.UserID == userID }), nil
}

func (m *mockSessionRepo) ListAll(_ context.Context, offset, limit int) ([]model.DescentSession, int64, error) {
	all := m.sorted(func(*model.DescentSession) bool { return true })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockSessionRepo) Update(_ context.Context, s *model.DescentSession) error {
	stored, ok := m.sessions[s.SessionID]
	if !ok || stored.Version != s.Version {
		return pkgerrors.ErrOptimisticLock
	}
	s.Version++
	cp := *s
	cp.DescentType, cp.User = nil, nil
	m.sessions[s.SessionID] = &cp
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.sessions, id)
	return nil
}

// ── Mock EntryRepository ──

type mockEntryRepo struct {
	entries  map[string]*model.Entry
	sessions *mockSessionRepo
	seq      int64
}

func newMockEntryRepo(sessions *mockSessionRepo) *mockEntryRepo {
	return &mockEntryRepo{entries: make(map[string]*model.Entry), sessions: sessions}
}

func (m *mockEntryRepo) Create(_ context.Context, e *model.Entry) error {
	if e.EntryID == "" {
		e.EntryID = uuid.NewString()
	}
	m.seq++
	e.Seq = m.seq
	cp := *e
	m.entries[e.EntryID] = &cp
	return nil
}

func (m *mockEntryRepo) GetByID(_ context.Context, id string) (*model.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	if s, ok := m.sessions.sessions[e.SessionID]; ok {
		cp.Session = m.sessions.load(s)
	}
	return &cp, nil
}

func (m *mockEntryRepo) ListBySession(_ context.Context, sessionID string) ([]model.Entry, error) {
	var result []model.Entry
	for _, e := range m.entries {
		if e.SessionID == sessionID {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

func (m *mockEntryRepo) Update(_ context.Context, e *model.Entry) error {
	stored, ok := m.entries[e.EntryID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Content = e.Content
	stored.EmotionLevel = e.EmotionLevel
	stored.Reflection = e.Reflection
	stored.UpdatedAt = e.UpdatedAt
	return nil
}

func (m *mockEntryRepo) Delete(_ context.Context, id string) error {
	delete(m.entries, id)
	return nil
}

func (m *mockEntryRepo) DeleteBySession(_ context.Context, sessionID string) (int64, error) {
	var n int64
	for id, e := range m.entries {
		if e.SessionID == sessionID {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

func (m *mockEntryRepo) CountBySessions(_ context.Context, sessionIDs []string) (map[string]int64, error) {
	want := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = true
	}
	counts := make(map[string]int64)
	for _, e := range m.entries {
		if want[e.SessionID] {
			counts[e.SessionID]++
		}
	}
	return counts, nil
}

func (m *mockEntryRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.entries)), nil
}

// ── Mock RitualRepository ──

type mockRitualRepo struct {
	rituals map[string]*model.Ritual
}

func newMockRitualRepo() *mockRitualRepo {
	return &mockRitualRepo{rituals: make(map[string]*model.Ritual)}
}

func (m *mockRitualRepo) Create(_ context.Context, r *model.Ritual) error {
	if r.RitualID == "" {
		r.RitualID = uuid.NewString()
	}
	cp := *r
	m.rituals[r.RitualID] = &cp
	return nil
}

func (m *mockRitualRepo) GetByID(_ context.Context, id string) (*model.Ritual, error) {
	if r, ok := m.rituals[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

var phaseOrder = map[model.RitualPhase]int{model.PhasePre: 1, model.PhaseDuring: 2, model.PhasePost: 3}

func (m *mockRitualRepo) List(_ context.Context, descentTypeID string, phase model.RitualPhase) ([]model.Ritual, error) {
	var result []model.Ritual
	for _, r := range m.rituals {
		if descentTypeID != "" && r.DescentTypeID != descentTypeID {
			continue
		}
		if phase != "" && r.Phase != phase {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		if phaseOrder[result[i].Phase] != phaseOrder[result[j].Phase] {
			return phaseOrder[result[i].Phase] < phaseOrder[result[j].Phase]
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (m *mockRitualRepo) Update(_ context.Context, r *model.Ritual) error {
	cp := *r
	m.rituals[r.RitualID] = &cp
	return nil
}

func (m *mockRitualRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.rituals[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.rituals, id)
	return nil
}

func (m *mockRitualRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.rituals)), nil
}

// ── Mock StatsRepository ──

type mockStatsRepo struct {
	sessions *mockSessionRepo
	entries  *mockEntryRepo
	types    *mockDescentTypeRepo
}

func (m *mockStatsRepo) SessionStatusCounts(_ context.Context) ([]repository.StatusCount, error) {
	counts := make(map[model.SessionStatus]int64)
	for _, s := range m.sessions.sessions {
		counts[s.Status]++
	}
	var rows []repository.StatusCount
	for st, n := range counts {
		rows = append(rows, repository.StatusCount{Status: st, N: n})
	}
	return rows, nil
}

func (m *mockStatsRepo) PerDescentType(_ context.Context) ([]repository.DescentTypeAggregate, error) {
	var rows []repository.DescentTypeAggregate
	for _, dt := range m.types.types {
		agg := repository.DescentTypeAggregate{DescentTypeID: dt.DescentTypeID, Name: dt.Name}
		var emotionSum int
		for _, s := range m.sessions.sessions {
			if s.DescentTypeID != dt.DescentTypeID {
				continue
			}
			agg.Sessions++
			switch s.Status {
			case model.StatusCompleted:
				agg.Completed++
			case model.StatusAbandoned:
				agg.Abandoned++
			}
			for _, e := range m.entries.entries {
				if e.SessionID == s.SessionID {
					agg.Entries++
					emotionSum += e.EmotionLevel
				}
			}
		}
		if agg.Entries > 0 {
			agg.AvgEmotion = float64(emotionSum) / float64(agg.Entries)
		}
		rows = append(rows, agg)
	}
	return rows, nil
}

// ── Fakes ──

type fakeBlacklist struct {
	revoked map[string]time.Duration
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{revoked: make(map[string]time.Duration)}
}

func (f *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	f.revoked[jti] = ttl
	return nil
}

func (f *fakeBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := f.revoked[jti]
	return ok, nil
}

// fakeClock a settable clock
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// ── fixture ──

type mockRepos struct {
	repo     *repository.Repository
	users    *mockUserRepo
	types    *mockDescentTypeRepo
	sessions *mockSessionRepo
	entries  *mockEntryRepo
	rituals  *mockRitualRepo
}

func newMockRepos() *mockRepos {
	users := newMockUserRepo()
	types := newMockDescentTypeRepo()
	sessions := newMockSessionRepo(types, users)
	entries := newMockEntryRepo(sessions)
	rituals := newMockRitualRepo()

	return &mockRepos{
		repo: &repository.Repository{
			User:        users,
			DescentType: types,
			Session:     sessions,
			Entry:       entries,
			Ritual:      rituals,
			Stats:       &mockStatsRepo{sessions: sessions, entries: entries, types: types},
		},
		users:    users,
		types:    types,
		sessions: sessions,
		entries:  entries,
		rituals:  rituals,
	}
}

// addDescentType seeds a selectable descent type
func (m *mockRepos) addDescentType(name string, category model.DescentCategory) *model.DescentType {
	dt := &model.DescentType{Name: name, Category: category, IsActive: true}
	_ = m.types.Create(context.Background(), dt)
	return dt
}

func (m *mockRepos) addUser(username string, superuser bool) Actor {
	u := &model.User{Username: username, Email: username + "@example.com", IsSuperuser: superuser}
	_ = m.users.Create(context.Background(), u)
	return Actor{UserID: u.UserID, Username: username, IsSuperuser: superuser}
}
