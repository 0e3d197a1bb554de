package encoding

import (
	gostdencoding "encoding"
	"errors"
	"testing"

	"rmachine/internal/vm"
)

// Assert interface implemented.
var (
	_ gostdencoding.TextMarshaler   = (*ImageEncoding)(nil)
	_ gostdencoding.TextUnmarshaler = (*ImageEncoding)(nil)
)

func TestImageEncodingUnmarshalText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		input     string
		expectErr error
		want      []Section
	}{
		{name: "empty", input: "", expectErr: errEmpty},
		{name: "blank lines only", input: "\n\n\n", expectErr: errEmpty},
		{name: "missing tag", input: "[1, 2]\n", expectErr: ErrDecode},
		{name: "missing brackets", input: "ROM:1, 2\n", expectErr: ErrDecode},
		{name: "non-integer", input: "ROM:[1, two]\n", expectErr: ErrDecode},
		{
			name:  "single section",
			input: "ROM:[22, 1, 1]\n",
			want: []Section{
				{Name: "ROM", Code: words(16, 22, 1, 1)},
			},
		},
		{
			name:  "empty list",
			input: "ROM:[]\n",
			want:  []Section{{Name: "ROM", Code: nil}},
		},
		{
			name:  "two sections, no trailing newline",
			input: "ROM:[22, 1, 1]\nFLASH:[5, -5]",
			want: []Section{
				{Name: "ROM", Code: words(16, 22, 1, 1)},
				{Name: "FLASH", Code: words(16, 5, -5)},
			},
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			enc := NewImageEncoding(16)
			err := enc.UnmarshalText([]byte(tc.input))

			if tc.expectErr != nil {
				if !errors.Is(err, tc.expectErr) {
					t.Fatalf("err = %v, want %v", err, tc.expectErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("unmarshal: %s", err)
			}

			got := enc.Sections()
			if len(got) != len(tc.want) {
				t.Fatalf("sections = %d, want %d", len(got), len(tc.want))
			}

			for i := range tc.want {
				if got[i].Name != tc.want[i].Name {
					t.Errorf("section[%d].Name = %q, want %q", i, got[i].Name, tc.want[i].Name)
				}

				if len(got[i].Code) != len(tc.want[i].Code) {
					t.Errorf("section[%d].Code len = %d, want %d", i, len(got[i].Code), len(tc.want[i].Code))
					continue
				}

				for j := range tc.want[i].Code {
					if got[i].Code[j].GetSigned() != tc.want[i].Code[j].GetSigned() {
						t.Errorf("section[%d].Code[%d] = %d, want %d",
							i, j, got[i].Code[j].GetSigned(), tc.want[i].Code[j].GetSigned())
					}
				}
			}
		})
	}
}

func TestImageEncodingMarshalText(t *testing.T) {
	t.Parallel()

	enc := NewImageEncoding(16, Section{Name: "ROM", Code: words(16, 22, 1, 1)})

	out, err := enc.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %s", err)
	}

	if got, want := string(out), "ROM:[22, 1, 1]\n"; got != want {
		t.Errorf("marshal = %q, want %q", got, want)
	}
}

func TestImageEncodingRoundTrip(t *testing.T) {
	t.Parallel()

	original := []Section{
		{Name: "ROM", Code: words(16, 22, 1, 1)},
		{Name: "FLASH", Code: words(16, 5, -5)},
	}

	enc := NewImageEncoding(16, original...)

	text, err := enc.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %s", err)
	}

	decoded := NewImageEncoding(16)
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("unmarshal: %s", err)
	}

	got := decoded.Sections()
	if len(got) != len(original) {
		t.Fatalf("sections = %d, want %d", len(got), len(original))
	}

	for i := range original {
		for j := range original[i].Code {
			if got[i].Code[j].GetSigned() != original[i].Code[j].GetSigned() {
				t.Errorf("round trip section[%d].Code[%d] = %d, want %d",
					i, j, got[i].Code[j].GetSigned(), original[i].Code[j].GetSigned())
			}
		}
	}
}

func words(width uint8, vs ...int64) []vm.Word {
	out := make([]vm.Word, len(vs))
	for i, v := range vs {
		out[i] = vm.NewWord(width)
		out[i].SetSigned(v)
	}

	return out
}
