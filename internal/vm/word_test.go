package vm

import "testing"

func TestWordSignedRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		width uint8
		in    int64
		want  int64
	}{
		{8, 0, 0},
		{8, 127, 127},
		{8, 128, -128},
		{8, -1, -1},
		{8, 256, 0},
		{16, 32767, 32767},
		{16, 32768, -32768},
		{16, -3, -3},
	}

	for _, c := range cases {
		w := NewWord(c.width)
		w.SetSigned(c.in)

		if got := w.GetSigned(); got != c.want {
			t.Errorf("width %d: SetSigned(%d).GetSigned() = %d, want %d", c.width, c.in, got, c.want)
		}
	}
}

func TestWordUnsignedAgreesWithSigned(t *testing.T) {
	t.Parallel()

	w := NewWord(16)
	w.SetSigned(-3)

	if got, want := w.GetUnsigned(), uint64(0x10000-3); got != want {
		t.Errorf("GetUnsigned() = %#x, want %#x", got, want)
	}

	w2 := NewWord(16)
	w2.SetUnsigned(w.GetUnsigned())

	if got, want := w2.GetSigned(), int64(-3); got != want {
		t.Errorf("round trip through unsigned: got %d, want %d", got, want)
	}
}
