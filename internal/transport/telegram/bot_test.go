package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quizbot/internal/engine"
)

func TestSessionKeyFor(t *testing.T) {
	group := &tgbotapi.Chat{ID: -100, Type: "group"}
	super := &tgbotapi.Chat{ID: -200, Type: "supergroup"}
	private := &tgbotapi.Chat{ID: 300, Type: "private"}

	if got := sessionKeyFor(group, 1); got != engine.GroupKey(-100) {
		t.Fatalf("group chat: got %v", got)
	}
	if got := sessionKeyFor(super, 1); got != engine.GroupKey(-200) {
		t.Fatalf("supergroup chat: got %v", got)
	}
	if got := sessionKeyFor(private, 7); got != engine.PrivateKey(300, 7) {
		t.Fatalf("private chat: got %v", got)
	}

	// Two users in the same group share one scope; in private they don't.
	if sessionKeyFor(group, 1) != sessionKeyFor(group, 2) {
		t.Fatal("group scope must not depend on the user")
	}
	if sessionKeyFor(private, 1) == sessionKeyFor(private, 2) {
		t.Fatal("private scope must depend on the user")
	}
}

func TestCommandMatchingIsExact(t *testing.T) {
	cases := []struct{ in, want string }{
		{"/quiz", "/quiz"},
		{"/quiz sfPlk", "/quiz"},
		{"/quiz@SomeBot sfPlk", "/quiz"},
		{"/stop_quiz", "/stop_quiz"},
		{"/stop@SomeBot", "/stop"},
		// Commands that merely share a prefix must not match.
		{"/quizfoo", "/quizfoo"},
		{"/stopwatch", "/stopwatch"},
		{"hello", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := command(tc.in); got != tc.want {
			t.Errorf("command(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestCommandArg(t *testing.T) {
	cases := []struct{ in, want string }{
		{"/quiz sfPlk", "sfPlk"},
		{"/quiz   sfPlk  ", "sfPlk"},
		{"/quiz", ""},
		{"/start quiz_abc12", "quiz_abc12"},
		{"/time 45", "45"},
	}
	for _, tc := range cases {
		if got := commandArg(tc.in); got != tc.want {
			t.Errorf("commandArg(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		user tgbotapi.User
		want string
	}{
		{tgbotapi.User{UserName: "alice"}, "@alice"},
		{tgbotapi.User{FirstName: "Bob", LastName: "Jones"}, "Bob Jones"},
		{tgbotapi.User{FirstName: "Bob"}, "Bob"},
		{tgbotapi.User{}, "User"},
	}
	for _, tc := range cases {
		if got := displayName(tc.user); got != tc.want {
			t.Errorf("displayName(%+v): expected %q, got %q", tc.user, tc.want, got)
		}
	}
}
