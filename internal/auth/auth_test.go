package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	iss := Issuer{Issuer: "classattend", Key: "test-key", TTL: 24 * time.Hour}
	token, exp, err := iss.Issue("teacher-1", RoleTeacher)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if until := time.Until(exp); until < 23*time.Hour {
		t.Errorf("expiry %v from now, want ~24h", until)
	}

	claims, err := Parse(token, "test-key", "classattend")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "teacher-1" {
		t.Errorf("subject = %q, want teacher-1", claims.Subject)
	}
	if claims.Role != RoleTeacher {
		t.Errorf("role = %q, want %q", claims.Role, RoleTeacher)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	iss := Issuer{Issuer: "classattend", Key: "test-key", TTL: time.Hour}
	token, _, err := iss.Issue("student-1", RoleStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(token, "other-key", "classattend"); err == nil {
		t.Error("Parse accepted token signed with a different key")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	iss := Issuer{Issuer: "someone-else", Key: "test-key", TTL: time.Hour}
	token, _, err := iss.Issue("student-1", RoleStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(token, "test-key", "classattend"); err == nil {
		t.Error("Parse accepted token from a different issuer")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	iss := Issuer{Issuer: "classattend", Key: "test-key", TTL: -time.Minute}
	token, _, err := iss.Issue("student-1", RoleStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := Parse(token, "test-key", "classattend"); err == nil {
		t.Error("Parse accepted an expired token")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("not-a-token", "test-key", "classattend"); err == nil {
		t.Error("Parse accepted a malformed token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("CheckPassword rejected the correct password")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("CheckPassword accepted a wrong password")
	}
}
