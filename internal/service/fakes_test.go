package service

import (
	"context"

	"github.com/yproject/authcore/internal/errs"
	"github.com/yproject/authcore/internal/model"
	"github.com/yproject/authcore/internal/repository"
)

type fakeUsers struct {
	byName map[string]*model.User
	nextID int64

	createErr error
	getErr    error
	touchErr  error

	createCalls int
	touchCalls  int
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byName: map[string]*model.User{}, nextID: 1}
}

func (f *fakeUsers) Create(_ context.Context, username, encodedPassword string) (int64, error) {
	f.createCalls++
	if f.createErr != nil {
		return 0, f.createErr
	}
	if _, exists := f.byName[username]; exists {
		return 0, errs.ErrUsernameTaken
	}
	id := f.nextID
	f.nextID++
	f.byName[username] = &model.User{ID: id, Username: username, Password: encodedPassword}
	return id, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byName {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrUserNotFound
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, errs.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) UsernameTaken(_ context.Context, username string) (bool, error) {
	_, ok := f.byName[username]
	return ok, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id int64, encodedPassword string) error {
	for _, u := range f.byName {
		if u.ID == id {
			u.Password = encodedPassword
			return nil
		}
	}
	return errs.ErrUserNotFound
}

func (f *fakeUsers) TouchLastLogin(_ context.Context, id int64) error {
	f.touchCalls++
	return f.touchErr
}

type fakeSessions struct {
	byID      map[string]*model.UserSession
	usernames map[int64]string // owner usernames returned by GetByID

	createErr   error
	deleteErr   error
	updateIPErr error

	updateIPCalls int
}

var _ repository.SessionRepository = (*fakeSessions)(nil)

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: map[string]*model.UserSession{}, usernames: map[int64]string{}}
}

func (f *fakeSessions) Create(_ context.Context, s *model.UserSession) error {
	if f.createErr != nil {
		return f.createErr
	}
	c := *s
	f.byID[s.SessionID] = &c
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, sessionID string) (*model.UserSession, string, error) {
	s, ok := f.byID[sessionID]
	if !ok {
		return nil, "", errs.ErrNotFound
	}
	c := *s
	return &c, f.usernames[s.UserID], nil
}

func (f *fakeSessions) ListByUserID(_ context.Context, userID int64) ([]model.UserSession, error) {
	var out []model.UserSession
	for _, s := range f.byID {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessions) DeleteByID(_ context.Context, sessionID string) (*model.UserSession, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	s, ok := f.byID[sessionID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	delete(f.byID, sessionID)
	c := *s
	return &c, nil
}

func (f *fakeSessions) DeleteByIDAndUserID(_ context.Context, sessionID string, userID int64) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	s, ok := f.byID[sessionID]
	if !ok || s.UserID != userID {
		return false, nil
	}
	delete(f.byID, sessionID)
	return true, nil
}

func (f *fakeSessions) UpdateCurrentIP(_ context.Context, sessionID, ip string) error {
	f.updateIPCalls++
	if f.updateIPErr != nil {
		return f.updateIPErr
	}
	if s, ok := f.byID[sessionID]; ok {
		s.CurrentIP = ip
	}
	return nil
}
