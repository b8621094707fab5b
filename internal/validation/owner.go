package validation

import (
	"fmt"
	"regexp"
)

// OwnerPattern допустимый владелец коллекции (subject токена):
// латинские буквы, цифры, '_', '-', '.', '@'
var OwnerPattern = regexp.MustCompile(`^[a-zA-Z0-9_.@-]+$`)

const (
	// MinOwnerLen минимальная длина имени владельца
	MinOwnerLen = 3
	// MaxOwnerLen максимальная длина имени владельца
	MaxOwnerLen = 64
)

// ValidateOwner проверяет имя владельца коллекции
func ValidateOwner(owner string) error {
	if owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}

	if len(owner) < MinOwnerLen {
		return fmt.Errorf("owner must be at least %d characters long", MinOwnerLen)
	}

	if len(owner) > MaxOwnerLen {
		return fmt.Errorf("owner must not exceed %d characters", MaxOwnerLen)
	}

	if !OwnerPattern.MatchString(owner) {
		return fmt.Errorf("owner can only contain letters, digits and the symbols _ - . @")
	}

	return nil
}
