package models

import "testing"

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func TestUserRegisteredDerived(t *testing.T) {
	cases := []struct {
		name string
		user *User
		want bool
	}{
		{"nil user", nil, false},
		{"empty row", &User{TelegramID: 1}, false},
		{"name only", &User{TelegramID: 1, Name: strp("Ann")}, false},
		{"name and gender", &User{TelegramID: 1, Name: strp("Ann"), Gender: strp(GenderFemale)}, false},
		{"complete", &User{TelegramID: 1, Name: strp("Ann"), Gender: strp(GenderFemale), Age: intp(23)}, true},
		{"empty strings", &User{TelegramID: 1, Name: strp(""), Gender: strp(""), Age: intp(23)}, false},
	}
	for _, tc := range cases {
		if got := tc.user.Registered(); got != tc.want {
			t.Errorf("%s: Registered() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestValidGender(t *testing.T) {
	if !ValidGender(GenderMale) || !ValidGender(GenderFemale) {
		t.Fatal("expected male and female to be valid")
	}
	if ValidGender("other") || ValidGender("") {
		t.Fatal("unexpected gender accepted")
	}
}

func TestPosterTitleSubtitle(t *testing.T) {
	p := Poster{Caption: "Neon Night\nFriday 23:00, main hall\nDress code: bright"}
	if got := p.Title(); got != "Neon Night" {
		t.Fatalf("Title() = %q", got)
	}
	if got := p.Subtitle(); got != "Friday 23:00, main hall\nDress code: bright" {
		t.Fatalf("Subtitle() = %q", got)
	}
}

func TestPosterSingleLineCaption(t *testing.T) {
	p := Poster{Caption: "Neon Night"}
	if got := p.Title(); got != "Neon Night" {
		t.Fatalf("Title() = %q", got)
	}
	if got := p.Subtitle(); got != "" {
		t.Fatalf("Subtitle() = %q, want empty", got)
	}
}

func TestPosterHasTicketURL(t *testing.T) {
	if (Poster{}).HasTicketURL() {
		t.Fatal("nil ticket url should report false")
	}
	blank := "   "
	if (Poster{TicketURL: &blank}).HasTicketURL() {
		t.Fatal("whitespace ticket url should report false")
	}
	url := "https://tickets.example.com/42"
	if !(Poster{TicketURL: &url}).HasTicketURL() {
		t.Fatal("expected ticket url to be reported")
	}
}
