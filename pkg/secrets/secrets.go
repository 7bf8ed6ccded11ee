package secrets

import "errors"

// ErrMissingCredentials signals that no VAPID key pair is configured.
var ErrMissingCredentials = errors.New("secrets: VAPID credentials are not configured")

// VAPIDKeys carry the provider credentials for Web Push delivery. Subscriber
// is the contact identity (mailto: or https:) sent alongside the keys.
type VAPIDKeys struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
}

// Configured reports whether the key pair is usable.
func (k VAPIDKeys) Configured() bool {
	return k.PublicKey != "" && k.PrivateKey != ""
}

// Source resolves push credentials for the dispatcher.
type Source interface {
	VAPID() (VAPIDKeys, error)
}

// Static keeps credentials in memory, seeded at construction.
type Static struct {
	Keys VAPIDKeys
}

var _ Source = (*Static)(nil)

func (s *Static) VAPID() (VAPIDKeys, error) {
	if !s.Keys.Configured() {
		return VAPIDKeys{}, ErrMissingCredentials
	}
	return s.Keys, nil
}

// Nop never resolves credentials. Useful for tests and dry-run setups.
type Nop struct{}

var _ Source = (*Nop)(nil)

func (n *Nop) VAPID() (VAPIDKeys, error) { return VAPIDKeys{}, ErrMissingCredentials }
