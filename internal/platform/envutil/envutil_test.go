package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "nope")
	if got := Int("X_INT", 7); got != 7 {
		t.Fatalf("int: want=%d got=%d", 7, got)
	}
	t.Setenv("X_INT", " 12 ")
	if got := Int("X_INT", 7); got != 12 {
		t.Fatalf("int: want=%d got=%d", 12, got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	if Bool("X_BOOL", true) {
		t.Fatalf("bool: want=false")
	}
	t.Setenv("X_BOOL", "maybe")
	if !Bool("X_BOOL", true) {
		t.Fatalf("bool: unparsable value should use default")
	}
}

func TestSeconds(t *testing.T) {
	t.Setenv("X_SECS", "5")
	if got := Seconds("X_SECS", time.Second); got != 5*time.Second {
		t.Fatalf("seconds: want=%s got=%s", 5*time.Second, got)
	}
	t.Setenv("X_SECS", "-1")
	if got := Seconds("X_SECS", time.Second); got != time.Second {
		t.Fatalf("seconds: want=%s got=%s", time.Second, got)
	}
}
