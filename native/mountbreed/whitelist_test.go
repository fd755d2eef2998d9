package mountbreed

import (
	"errors"
	"testing"

	"mountbreed/crypto"
	"mountbreed/native/metadata"
)

func TestIsEligible(t *testing.T) {
	a := newTestAddress(0xA1)
	b := newTestAddress(0xB1)
	stranger := newTestAddress(0xC1)
	set := NewCreatorSet(a, b)

	tests := []struct {
		name     string
		creators []metadata.Creator
		want     bool
	}{
		{name: "no creators", want: false},
		{name: "verified a", creators: []metadata.Creator{{Address: a, Verified: true}}, want: true},
		{name: "verified b", creators: []metadata.Creator{{Address: b, Verified: true}}, want: true},
		{name: "unverified a", creators: []metadata.Creator{{Address: a}}, want: false},
		{name: "verified stranger", creators: []metadata.Creator{{Address: stranger, Verified: true}}, want: false},
		{
			name: "stranger first then verified b",
			creators: []metadata.Creator{
				{Address: stranger, Verified: true},
				{Address: a},
				{Address: b, Verified: true},
			},
			want: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsEligible(tc.creators, set); got != tc.want {
				t.Fatalf("IsEligible = %v, want %v", got, tc.want)
			}
			err := CheckCreators(tc.creators, set)
			if tc.want && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if !tc.want && !errors.Is(err, ErrCreatorNotWhitelisted) {
				t.Fatalf("expected not whitelisted, got %v", err)
			}
		})
	}
}

func TestNewCreatorSetSkipsZero(t *testing.T) {
	set := NewCreatorSet(crypto.Address{}, newTestAddress(0xA1))
	if len(set) != 1 {
		t.Fatalf("expected one entry, got %d", len(set))
	}
	if IsEligible([]metadata.Creator{{Verified: true}}, set) {
		t.Fatalf("zero address must never be eligible")
	}
}
