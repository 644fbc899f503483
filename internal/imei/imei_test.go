package imei

import "testing"

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantErr error
	}{
		{"valid", "490154203237518", nil},
		{"too short", "1234567890123", ErrInvalidLength},
		{"non digit", "49015420323751X", ErrInvalidLength},
		{"bad checksum", "490154203237519", ErrChecksum},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.in)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && err != tc.wantErr {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}
