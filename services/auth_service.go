package services

import "crypto/subtle"

// Authenticator decides whether a submitted login is valid.
type Authenticator interface {
	Authenticate(password string) bool
}

// SharedPassword accepts exactly one configured password.
type SharedPassword struct {
	password string
}

func NewSharedPassword(password string) *SharedPassword {
	return &SharedPassword{password: password}
}

// Authenticate compares in constant time. An empty password never matches.
func (a *SharedPassword) Authenticate(password string) bool {
	if password == "" || a.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
}
