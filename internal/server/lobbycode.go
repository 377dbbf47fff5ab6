package server

import (
	"math/rand"
	"regexp"
)

// Lobby code alphabets exclude visually ambiguous characters: I and O read
// like 1 and 0 over voice chat.
const (
	codeLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	codeDigits  = "23456789"
)

var lobbyCodePattern = regexp.MustCompile(`^[A-Z]{3}[2-9]{3}$`)

// GenerateLobbyCode returns a 6-character code: 3 letters then 3 digits,
// easy to read out loud.
func GenerateLobbyCode() string {
	code := make([]byte, 6)
	for i := 0; i < 3; i++ {
		code[i] = codeLetters[rand.Intn(len(codeLetters))]
	}
	for i := 3; i < 6; i++ {
		code[i] = codeDigits[rand.Intn(len(codeDigits))]
	}
	return string(code)
}

// ValidLobbyCode reports whether code has the canonical lobby code shape.
func ValidLobbyCode(code string) bool {
	return lobbyCodePattern.MatchString(code)
}
