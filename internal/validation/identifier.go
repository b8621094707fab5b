package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// IdentifierPattern допустимый формат идентификаторов элементов и пиров:
// латинские буквы, цифры, '-', '_', '.', ':'; длина 1-128 символов
var IdentifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:-]{1,128}$`)

// ValidateIdentifier проверяет идентификатор элемента или пира
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if !IdentifierPattern.MatchString(id) {
		return fmt.Errorf("identifier %q contains invalid characters or is too long", id)
	}
	return nil
}

// NewValidator создает validator с именами полей из json тегов
// и зарегистрированными правилами проекта (identifier, owner).
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// В ошибках используем имена из json, а не Go-поля
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return ValidateIdentifier(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("owner", func(fl validator.FieldLevel) bool {
		return ValidateOwner(fl.Field().String()) == nil
	})

	return v
}
