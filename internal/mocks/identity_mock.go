package mocks

import (
	"github.com/benmeehan/mission-agent/pkg/identity"
	"github.com/stretchr/testify/mock"
)

// UserInfo is a mock implementation of the UserInfoInterface
type UserInfo struct {
	mock.Mock
}

func (m *UserInfo) LoadUserInfo() error {
	args := m.Called()
	return args.Error(0)
}

func (m *UserInfo) GetUserID() string {
	args := m.Called()
	return args.String(0)
}

func (m *UserInfo) GetIdentity() *identity.Identity {
	args := m.Called()
	if v := args.Get(0); v != nil {
		return v.(*identity.Identity)
	}
	return nil
}
