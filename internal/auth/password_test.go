package auth

import "testing"

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name       string
		password   string
		hash       string
		wantOK     bool
		wantRehash bool
	}{
		{name: "bcrypt match", password: "secret123", hash: hash, wantOK: true},
		{name: "bcrypt mismatch", password: "wrong", hash: hash},
		{name: "legacy digest match", password: "admin123", hash: "JAvlGPq9JyTdtvBO6x2llnRI1+gxwIyPqCKAn3THIKk=", wantOK: true, wantRehash: true},
		{name: "legacy digest mismatch", password: "admin", hash: "JAvlGPq9JyTdtvBO6x2llnRI1+gxwIyPqCKAn3THIKk="},
		{name: "empty hash", password: "x", hash: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, rehash := VerifyPassword(tt.password, tt.hash)
			if ok != tt.wantOK || rehash != tt.wantRehash {
				t.Errorf("VerifyPassword() = (%v, %v), want (%v, %v)", ok, rehash, tt.wantOK, tt.wantRehash)
			}
		})
	}
}
