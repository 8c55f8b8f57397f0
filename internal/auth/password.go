package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength   = 8
	maxSimilarity       = 0.7
	minSimilarityLength = 3
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "sunshine": {},
	"princess": {}, "football": {}, "baseball": {}, "welcome1": {}, "admin123": {},
	"letmein1": {}, "trustno1": {}, "superman": {}, "starwars": {}, "whatever": {},
	"passw0rd": {}, "abcdefgh": {}, "abc12345": {}, "11111111": {}, "00000000": {},
	"dragon12": {}, "master12": {}, "monkey12": {}, "shadow12": {}, "michael1": {},
	"jennifer": {}, "computer": {}, "internet": {}, "changeme": {}, "qwerty12": {},
}

var attributeSplit = regexp.MustCompile(`\W+`)

// ValidatePassword returns every rule the password breaks. The email and name
// of the account are compared for similarity.
func ValidatePassword(password, email, name string) []string {
	var problems []string
	if utf8.RuneCountInString(password) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}
	if isSimilar(password, email) {
		problems = append(problems, "The password is too similar to the email address.")
	} else if isSimilar(password, name) {
		problems = append(problems, "The password is too similar to the name.")
	}
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		problems = append(problems, "This password is entirely numeric.")
	}
	return problems
}

func isSimilar(password, attribute string) bool {
	password = strings.ToLower(password)
	attribute = strings.ToLower(strings.TrimSpace(attribute))
	if attribute == "" || password == "" {
		return false
	}
	parts := append([]string{attribute}, attributeSplit.Split(attribute, -1)...)
	for _, part := range parts {
		if utf8.RuneCountInString(part) < minSimilarityLength {
			continue
		}
		if similarity(password, part) >= maxSimilarity {
			return true
		}
	}
	return false
}

// similarity is 2*LCS/(len(a)+len(b)) over runes.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 0
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return 2 * float64(prev[len(rb)]) / float64(len(ra)+len(rb))
}
