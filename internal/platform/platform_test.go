package platform

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		id   string
		want Kind
	}{
		{id: "123456", want: Messenger},
		{id: "987_654", want: Instagram},
		{id: "_", want: Instagram},
		{id: "", want: Messenger},
		{id: "17841400000000000", want: Messenger},
	}
	for _, tc := range cases {
		if got := Classify(tc.id); got != tc.want {
			t.Fatalf("Classify(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	if k, ok := Parse(" Instagram "); !ok || k != Instagram {
		t.Fatalf("Parse(Instagram) = (%q, %v)", k, ok)
	}
	if k, ok := Parse("messenger"); !ok || k != Messenger {
		t.Fatalf("Parse(messenger) = (%q, %v)", k, ok)
	}
	if _, ok := Parse("whatsapp"); ok {
		t.Fatal("expected whatsapp to be rejected")
	}
	if Kind("sms").Valid() {
		t.Fatal("sms must not be valid")
	}
}
