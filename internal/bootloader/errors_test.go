package bootloader

import "testing"

func TestErrorClassifiers(t *testing.T) {
	cases := []struct {
		err                                error
		wantAuth, wantPolicy, wantResource bool
	}{
		{ErrBadTag, true, false, false},
		{ErrRollback, false, true, false},
		{ErrNoImage, false, false, true},
		{ErrCorruptMetadata, false, false, true},
		{ErrUnknownRegion, false, false, false},
	}
	for _, c := range cases {
		if got := IsAuthFailure(c.err); got != c.wantAuth {
			t.Errorf("IsAuthFailure(%v) = %v, want %v", c.err, got, c.wantAuth)
		}
		if got := IsPolicyFailure(c.err); got != c.wantPolicy {
			t.Errorf("IsPolicyFailure(%v) = %v, want %v", c.err, got, c.wantPolicy)
		}
		if got := IsResourceFailure(c.err); got != c.wantResource {
			t.Errorf("IsResourceFailure(%v) = %v, want %v", c.err, got, c.wantResource)
		}
	}
}
