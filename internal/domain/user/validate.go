package user

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Israeli landline/mobile format, optional dash after the prefix.
var phoneRe = regexp.MustCompile(`^0\d{1,2}-?\d{7}$`)

const passwordSymbols = "!@#$%^&*-_"

// ValidatePassword enforces the registration password policy: at least 8
// characters from [A-Za-z0-9!@#$%^&*-_] with at least one lowercase letter,
// one uppercase letter, one digit and one symbol.
func ValidatePassword(plain string) error {
	if utf8.RuneCountInString(plain) < 8 {
		return errors.New("הסיסמה חייבת להכיל לפחות 8 תווים")
	}

	var lower, upper, digit, symbol bool

	for _, r := range plain {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		default:
			return errors.New("הסיסמה מכילה תווים שאינם מורשים")
		}
	}

	if !lower || !upper || !digit || !symbol {
		return errors.New("הסיסמה חייבת להכיל אות גדולה, אות קטנה, מספר וסימן מיוחד (!@#$%^&*-_)")
	}

	return nil
}

// Validate covers the rules the binding tags cannot express.
func (r RegisterRequest) Validate() error {
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}

	if phone := strings.TrimSpace(r.Phone); phone != "" && !phoneRe.MatchString(phone) {
		return errors.New("מספר טלפון לא תקין")
	}

	return nil
}
