package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("user-1", "teacher", "academy-portal", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := Parse(pair.AccessToken, "secret", "academy-portal")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-1")
	}
	if claims.Role != "teacher" {
		t.Errorf("Role = %q, want %q", claims.Role, "teacher")
	}
}

func TestParseRejects(t *testing.T) {
	pair, err := Issue("user-1", "student", "academy-portal", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name   string
		token  string
		key    string
		issuer string
	}{
		{name: "wrong key", token: pair.AccessToken, key: "other", issuer: "academy-portal"},
		{name: "wrong issuer", token: pair.AccessToken, key: "secret", issuer: "someone-else"},
		{name: "garbage", token: "not.a.token", key: "secret", issuer: "academy-portal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.token, tt.key, tt.issuer); err == nil {
				t.Error("Parse should fail")
			}
		})
	}
}

func TestParseExpired(t *testing.T) {
	pair, err := Issue("user-1", "student", "academy-portal", "secret", -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "secret", "academy-portal"); err == nil {
		t.Error("Parse should reject expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "hunter2") {
		t.Error("CheckPassword should accept the original password")
	}
	if CheckPassword(hash, "hunter3") {
		t.Error("CheckPassword should reject a wrong password")
	}
}
