package utils

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("password stored in the clear")
	}

	if !CheckPasswordHash("s3cret-pass", hash) {
		t.Error("correct password should verify")
	}
	if CheckPasswordHash("wrong-pass", hash) {
		t.Error("wrong password should not verify")
	}
}
