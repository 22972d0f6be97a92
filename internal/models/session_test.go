package models

import "testing"

func TestSession_HasUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		session *Session
		want    bool
	}{
		{name: "nil session", session: nil, want: false},
		{name: "anonymous session", session: &Session{}, want: false},
		{name: "session with user", session: &Session{User: &SessionUser{Email: "a@example.com"}}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.session.HasUser(); got != tt.want {
				t.Errorf("HasUser() = %v, want %v", got, tt.want)
			}
		})
	}
}
