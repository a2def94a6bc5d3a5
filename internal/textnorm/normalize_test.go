package textnorm

import "testing"

func TestNormalizeFoldsArabicVariants(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"farsi yeh", "عربی", "عربي"},
		{"farsi kaf", "کتاب", "كتاب"},
		{"alef maksura", "على", "علي"},
		{"alef with madda", "آفاق", "افاق"},
		{"alef with hamza above", "أحمد", "احمد"},
		{"alef with hamza below", "إلى", "الي"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeCollapsesWhitespaceAndPunctuation(t *testing.T) {
	in := "  مرحبا   بالعالم....   نعم!!!  لماذا؟\t\nحسناً  "
	got := Normalize(in)
	want := "مرحبا بالعالم... نعم! لماذا؟ حسناً"
	if got != want {
		t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
	}
}

func TestNormalizeComposesDecomposedHamza(t *testing.T) {
	// Decomposed alef + combining hamza above composes under NFC, then folds
	// onto bare alef like the precomposed form.
	decomposed := "أحمد"
	if got := Normalize(decomposed); got != "احمد" {
		t.Fatalf("Normalize(decomposed) = %q, want %q", got, "احمد")
	}
}

func TestNormalizeFoldsRecomposedHamza(t *testing.T) {
	// Folding alef-hamza leaves a trailing combining hamza behind; NFC then
	// recomposes the pair, so compose-and-fold must run again until stable.
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"precomposed alef-hamza plus combining hamza", "أٔ", "ا"},
		{"farsi yeh plus combining hamza", "یٔ", "ئ"},
		{"stacked combining hamzas", "أٔٔ", "ا"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"نص  عادي",
		"عربی کتاب على أصل....!!??",
		"plain ascii text... with!!! noise???",
		"أ combining",
		"أٔحمد",
		"یٔ كلمة",
		"أٔٔ متراكمة",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestCountWords(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"واحد", 1},
		{"واحد اثنان ثلاثة", 3},
		{"  spaced   out  tokens ", 3},
	}
	for _, tc := range cases {
		if got := CountWords(tc.in); got != tc.want {
			t.Fatalf("CountWords(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
