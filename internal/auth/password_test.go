package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash %q does not use PHC argon2id format", hash)
	}

	// Fresh salt per call: two hashes of the same password differ.
	other, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == other {
		t.Error("two hashes of the same password are identical")
	}
}

func TestVerifyPassword(t *testing.T) {
	const password = "s3cure-enough"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	t.Run("correct password", func(t *testing.T) {
		ok, err := VerifyPassword(password, hash)
		if err != nil {
			t.Fatalf("VerifyPassword() error = %v", err)
		}
		if !ok {
			t.Error("correct password rejected")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		ok, err := VerifyPassword("wrong", hash)
		if err != nil {
			t.Fatalf("VerifyPassword() error = %v", err)
		}
		if ok {
			t.Error("wrong password accepted")
		}
	})

	t.Run("malformed hash", func(t *testing.T) {
		tests := []struct {
			name string
			hash string
		}{
			{"empty", ""},
			{"not PHC", "plainhash"},
			{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA"},
			{"bad salt encoding", "$argon2id$v=19$m=65536,t=3,p=1$!!!$aGFzaA"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := VerifyPassword(password, tt.hash); !errors.Is(err, ErrInvalidHash) {
					t.Errorf("VerifyPassword() error = %v, want ErrInvalidHash", err)
				}
			})
		}
	})
}
