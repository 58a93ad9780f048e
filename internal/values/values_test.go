package values

import (
	"testing"

	"github.com/vaultchain/txscript/internal/types"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"ints equal", Int(3), Int(3), true},
		{"ints differ", Int(3), Int(4), false},
		{"bools equal", Bool(true), Bool(true), true},
		{"bytes equal", Bytes{1, 2, 3}, Bytes{1, 2, 3}, true},
		{"bytes differ", Bytes{1, 2, 3}, Bytes{1, 2, 4}, false},
		{"none equals none", None(types.Int), None(types.Int), true},
		{"some equals some", Some(Int(5)), Some(Int(5)), true},
		{"some differs from none", Some(Int(5)), None(types.Int), false},
		{"cross-type mismatch", Int(1), Bool(true), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", String(tt.a), String(tt.b), got, tt.want)
			}
		})
	}
}

func TestOptionIsDefined(t *testing.T) {
	if None(types.Int).IsDefined() {
		t.Errorf("None should not be defined")
	}
	if !Some(Int(1)).IsDefined() {
		t.Errorf("Some should be defined")
	}
}

func TestOptionType(t *testing.T) {
	opt := Some(Int(1))
	if got, want := opt.Type().String(), "Option[Int]"; got != want {
		t.Errorf("Some(Int(1)).Type() = %s, want %s", got, want)
	}
	none := None(types.ByteVector)
	if got, want := none.Type().String(), "Option[ByteVector]"; got != want {
		t.Errorf("None(ByteVector).Type() = %s, want %s", got, want)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Int(42), "42"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Bytes{0xde, 0xad}, "0xdead"},
		{None(types.Int), "None"},
		{Some(Int(7)), "Some(7)"},
	}
	for _, tt := range tests {
		if got := String(tt.v); got != tt.want {
			t.Errorf("String(%#v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
