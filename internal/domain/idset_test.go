package domain_test

import (
	"reflect"
	"testing"

	"github.com/msomdec/socialfeed/internal/domain"
)

func TestNewIDSet_DropsDuplicatesAndEmpty(t *testing.T) {
	s := domain.NewIDSet("b", "a", "b", "", "a")
	if s.Len() != 2 {
		t.Fatalf("expected 2 members, got %d", s.Len())
	}
	if got := s.Slice(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected [a b], got %v", got)
	}
}

func TestIDSet_AddIsIdempotent(t *testing.T) {
	s := domain.NewIDSet()
	if !s.Add("u1") {
		t.Fatal("first Add should change the set")
	}
	if s.Add("u1") {
		t.Fatal("second Add should not change the set")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 member, got %d", s.Len())
	}
}

func TestIDSet_DoubleToggleRestoresMembership(t *testing.T) {
	s := domain.NewIDSet("other")

	if !s.Toggle("u1") {
		t.Fatal("expected u1 to be a member after first toggle")
	}
	if s.Toggle("u1") {
		t.Fatal("expected u1 to be absent after second toggle")
	}
	if s.Has("u1") || !s.Has("other") || s.Len() != 1 {
		t.Fatalf("unexpected set after double toggle: %v", s.Slice())
	}
}

func TestIDSet_ZeroValueReads(t *testing.T) {
	var s domain.IDSet
	if s.Has("x") {
		t.Fatal("nil set should not contain anything")
	}
	if s.Remove("x") {
		t.Fatal("Remove on nil set should report no change")
	}
	if len(s.Slice()) != 0 {
		t.Fatal("expected empty slice")
	}
}
