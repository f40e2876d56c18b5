package service

import (
	"context"
	"time"

	"github.com/olekventi/chatly/internal/model"
	"github.com/olekventi/chatly/internal/queue"
	"github.com/olekventi/chatly/internal/repository"
)

// In-memory stores backing the service tests. They mirror the SQL
// repositories' observable behavior, including the conditional-update
// contracts and the sentinel errors.

type memUsers struct {
	users  map[uint64]*model.User
	salts  map[uint64]string
	nextID uint64
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[uint64]*model.User{}, salts: map[uint64]string{}}
}

func (m *memUsers) Create(_ context.Context, u model.User, salt string) (uint64, error) {
	for _, have := range m.users {
		if have.Email == u.Email || have.Username == u.Username || have.Phone == u.Phone {
			return 0, repository.ErrDuplicate
		}
	}
	m.nextID++
	u.ID = m.nextID
	m.users[u.ID] = &u
	m.salts[u.ID] = salt
	return u.ID, nil
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return *u, nil
}

func (m *memUsers) GetByIdentifier(_ context.Context, ident model.LoginIdentifier) (model.User, error) {
	for _, u := range m.users {
		switch ident.Kind {
		case model.IdentifyByEmail:
			if u.Email == ident.Value {
				return *u, nil
			}
		case model.IdentifyByUsername:
			if u.Username == ident.Value {
				return *u, nil
			}
		case model.IdentifyByPhone:
			if u.Phone == ident.Value {
				return *u, nil
			}
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) PhoneExists(_ context.Context, phone string) (bool, error) {
	for _, u := range m.users {
		if u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) PasswordHashExists(_ context.Context, hash string) (bool, error) {
	for _, u := range m.users {
		if u.PasswordHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) GetVaultSalt(_ context.Context, userID uint64) (string, error) {
	salt, ok := m.salts[userID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return salt, nil
}

func (m *memUsers) IncrementLoginAttempts(_ context.Context, userID uint64) (int, error) {
	u, ok := m.users[userID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	u.LoginAttempts++
	return u.LoginAttempts, nil
}

func (m *memUsers) ResetLoginAttempts(_ context.Context, userID uint64) error {
	if u, ok := m.users[userID]; ok {
		u.LoginAttempts = 0
	}
	return nil
}

func (m *memUsers) LockIfAttemptsReached(_ context.Context, userID uint64, threshold int, until time.Time) (bool, error) {
	u, ok := m.users[userID]
	if !ok || u.LoginAttempts < threshold {
		return false, nil
	}
	u.IsBlocked = true
	u.BlockExpires = &until
	u.LoginAttempts = 0
	return true, nil
}

func (m *memUsers) UnlockIfExpired(_ context.Context, userID uint64, now time.Time) (bool, error) {
	u, ok := m.users[userID]
	if !ok || !u.IsBlocked || u.BlockExpires == nil || u.BlockExpires.After(now) {
		return false, nil
	}
	u.IsBlocked = false
	u.BlockExpires = nil
	return true, nil
}

func (m *memUsers) Activate(_ context.Context, email, verification string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email && !u.IsActive && u.Verification == verification {
			u.IsActive = true
			u.Verification = ""
			u.VerificationExpires = nil
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) UpdateIdentity(_ context.Context, userID uint64, dataType model.ChangeDataType, oldValue, newValue, verification string, verifyExpires, blockExpires time.Time) (bool, error) {
	u, ok := m.users[userID]
	if !ok {
		return false, nil
	}
	for id, have := range m.users {
		if id == userID {
			continue
		}
		if have.Email == newValue || have.Username == newValue || have.Phone == newValue {
			return false, repository.ErrDuplicate
		}
	}
	switch dataType {
	case model.ChangeEmail:
		if u.Email != oldValue {
			return false, nil
		}
		u.Email = newValue
	case model.ChangeUsername:
		if u.Username != oldValue {
			return false, nil
		}
		u.Username = newValue
	case model.ChangePhone:
		if u.Phone != oldValue {
			return false, nil
		}
		u.Phone = newValue
	default:
		return false, nil
	}
	u.Verification = verification
	u.VerificationExpires = &verifyExpires
	u.IsBlocked = true
	u.BlockExpires = &blockExpires
	return true, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, userID uint64, hash, salt, verification string, verifyExpires, blockExpires *time.Time) error {
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	m.salts[userID] = salt
	if verifyExpires != nil && blockExpires != nil {
		u.Verification = verification
		u.VerificationExpires = verifyExpires
		u.IsBlocked = true
		u.BlockExpires = blockExpires
	}
	return nil
}

func (m *memUsers) ClearBlock(_ context.Context, userID uint64) error {
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsBlocked = false
	u.BlockExpires = nil
	u.Verification = ""
	u.VerificationExpires = nil
	return nil
}

type memSessions struct {
	rows []model.RefreshSession
}

func (m *memSessions) Count(_ context.Context, userID uint64) (int, error) {
	n := 0
	for _, r := range m.rows {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memSessions) Insert(_ context.Context, s model.RefreshSession) error {
	s.ID = uint64(len(m.rows) + 1)
	m.rows = append(m.rows, s)
	return nil
}

func (m *memSessions) Find(_ context.Context, userID uint64, sc model.SessionContext, refreshToken string) (model.RefreshSession, error) {
	for _, r := range m.rows {
		if r.UserID == userID && r.IP == sc.IP && r.UserAgent == sc.UserAgent &&
			r.Fingerprint == sc.Fingerprint && r.RefreshToken == refreshToken {
			return r, nil
		}
	}
	return model.RefreshSession{}, repository.ErrNotFound
}

func (m *memSessions) Delete(_ context.Context, userID uint64, sc model.SessionContext, refreshToken string) (bool, error) {
	for i, r := range m.rows {
		if r.UserID == userID && r.IP == sc.IP && r.UserAgent == sc.UserAgent &&
			r.Fingerprint == sc.Fingerprint && r.RefreshToken == refreshToken {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memSessions) DeleteAllForUser(_ context.Context, userID uint64) error {
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	return nil
}

type memPending struct {
	rows []model.PendingChange
}

func (m *memPending) ReapExpired(_ context.Context, userID uint64, now time.Time) error {
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.UserID == userID && !r.Verified && now.After(r.ExpiresAt) {
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return nil
}

func (m *memPending) InsertIfNone(_ context.Context, pc model.PendingChange) (bool, error) {
	for _, r := range m.rows {
		if r.UserID == pc.UserID && !r.Verified {
			return false, nil
		}
	}
	pc.ID = uint64(len(m.rows) + 1)
	m.rows = append(m.rows, pc)
	return true, nil
}

func (m *memPending) MarkVerified(_ context.Context, userID uint64, verification string, dataType model.ChangeDataType, now time.Time) (bool, error) {
	for i, r := range m.rows {
		if r.UserID == userID && r.Verification == verification && r.DataType == dataType &&
			!r.Verified && r.ExpiresAt.After(now) {
			m.rows[i].Verified = true
			return true, nil
		}
	}
	return false, nil
}

type rightKey struct{ user, room uint64 }

type memRights struct {
	grants map[rightKey][]model.Capability
}

func newMemRights() *memRights {
	return &memRights{grants: map[rightKey][]model.Capability{}}
}

func (m *memRights) Get(_ context.Context, userID, roomID uint64) (model.Right, error) {
	caps, ok := m.grants[rightKey{userID, roomID}]
	if !ok {
		return model.Right{}, repository.ErrNotFound
	}
	return model.Right{UserID: userID, RoomID: roomID, Rights: caps}, nil
}

func (m *memRights) Upsert(_ context.Context, userID, roomID uint64, caps []model.Capability) error {
	m.grants[rightKey{userID, roomID}] = caps
	return nil
}

func (m *memRights) Delete(_ context.Context, userID, roomID uint64) (bool, error) {
	k := rightKey{userID, roomID}
	if _, ok := m.grants[k]; !ok {
		return false, nil
	}
	delete(m.grants, k)
	return true, nil
}

func (m *memRights) DeleteAllForRoom(_ context.Context, roomID uint64) error {
	for k := range m.grants {
		if k.room == roomID {
			delete(m.grants, k)
		}
	}
	return nil
}

type memRooms struct {
	rooms  map[uint64]model.Room
	nextID uint64
}

func newMemRooms() *memRooms {
	return &memRooms{rooms: map[uint64]model.Room{}}
}

func (m *memRooms) Create(_ context.Context, room model.Room) (uint64, error) {
	m.nextID++
	room.ID = m.nextID
	m.rooms[room.ID] = room
	return room.ID, nil
}

func (m *memRooms) GetByID(_ context.Context, id uint64) (model.Room, error) {
	room, ok := m.rooms[id]
	if !ok {
		return model.Room{}, repository.ErrNotFound
	}
	return room, nil
}

func (m *memRooms) GetByName(_ context.Context, name string) (model.Room, error) {
	for _, room := range m.rooms {
		if room.Name == name {
			return room, nil
		}
	}
	return model.Room{}, repository.ErrNotFound
}

func (m *memRooms) Delete(_ context.Context, id uint64) (bool, error) {
	if _, ok := m.rooms[id]; !ok {
		return false, nil
	}
	delete(m.rooms, id)
	return true, nil
}

type memResets struct {
	rows []model.PasswordReset
}

func (m *memResets) Insert(_ context.Context, pr model.PasswordReset) error {
	pr.ID = uint64(len(m.rows) + 1)
	m.rows = append(m.rows, pr)
	return nil
}

func (m *memResets) FindByVerification(_ context.Context, verification string) (model.PasswordReset, error) {
	for _, r := range m.rows {
		if r.Verification == verification {
			return r, nil
		}
	}
	return model.PasswordReset{}, repository.ErrNotFound
}

func (m *memResets) Delete(_ context.Context, id uint64) error {
	for i, r := range m.rows {
		if r.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

type memClients struct {
	sessions []model.ClientSession
	forms    []string
}

func (m *memClients) InsertSession(_ context.Context, s model.ClientSession) error {
	m.sessions = append(m.sessions, s)
	return nil
}

func (m *memClients) InsertContactForm(_ context.Context, clientID, email, subject, message string) error {
	m.forms = append(m.forms, clientID+"|"+email+"|"+subject+"|"+message)
	return nil
}

type memNotifier struct {
	events []queue.VerificationEvent
}

func (m *memNotifier) SendVerification(_ context.Context, event queue.VerificationEvent) error {
	m.events = append(m.events, event)
	return nil
}
