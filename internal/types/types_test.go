package types

import "testing"

func TestUnifyLeaves(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Type
		want    Type
		wantOk  bool
	}{
		{"int/int", Int, Int, Int, true},
		{"int/boolean", Int, Boolean, nil, false},
		{"bytevector/bytevector", ByteVector, ByteVector, ByteVector, true},
		{"boolean/bytevector", Boolean, ByteVector, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Unify(tt.a, tt.b)
			if ok != tt.wantOk {
				t.Fatalf("Unify(%s, %s) ok = %v, want %v", tt.a, tt.b, ok, tt.wantOk)
			}
			if ok && !Equal(got, tt.want) {
				t.Errorf("Unify(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestUnifyNothingAbsorbs(t *testing.T) {
	nothingOpt := Option(Nothing)
	intOpt := Option(Int)

	got, ok := Unify(nothingOpt, intOpt)
	if !ok {
		t.Fatalf("Unify(Option(Nothing), Option(Int)) should succeed")
	}
	if !Equal(got, intOpt) {
		t.Errorf("Unify(Option(Nothing), Option(Int)) = %s, want %s", got, intOpt)
	}

	// Symmetric.
	got, ok = Unify(intOpt, nothingOpt)
	if !ok || !Equal(got, intOpt) {
		t.Errorf("Unify is not symmetric for Nothing absorption")
	}
}

func TestUnifyNestedOptions(t *testing.T) {
	a := Option(Option(Int))
	b := Option(Option(Nothing))
	got, ok := Unify(a, b)
	if !ok {
		t.Fatalf("Unify(%s, %s) should succeed", a, b)
	}
	if !Equal(got, a) {
		t.Errorf("Unify(%s, %s) = %s, want %s", a, b, got, a)
	}
}

func TestUnifyMismatchedOptionInner(t *testing.T) {
	_, ok := Unify(Option(Int), Option(Boolean))
	if ok {
		t.Errorf("Unify(Option(Int), Option(Boolean)) should fail")
	}
}

func TestOptionString(t *testing.T) {
	if got, want := Option(Int).String(), "Option[Int]"; got != want {
		t.Errorf("Option(Int).String() = %q, want %q", got, want)
	}
}
