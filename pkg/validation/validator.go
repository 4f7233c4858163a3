package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/rbac-admin-panel/internal/domain/entity"
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers alias tags and the RBAC-specific tags "permission" and "user_status".
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register installs tag name resolution, aliases and custom tags on v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterAlias("pwd", "min=6") // password minimum length
	v.RegisterAlias("nonzero", "required")
	_ = v.RegisterValidation("permission", validatePermission)
	_ = v.RegisterValidation("user_status", validateUserStatus)
}

func validatePermission(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	return entity.Permission(fl.Field().String()).Valid()
}

func validateUserStatus(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return false
	}
	s := fl.Field().String()
	return s == "" || entity.UserStatus(s).Valid()
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fieldName(fe)] = formatFieldError(fe)
		}
		return out
	}

	if errors.Is(err, entity.ErrUnknownPermission) {
		return map[string]string{"permissions": err.Error()}
	}

	return map[string]string{"payload": "invalid payload"}
}

// fieldName keeps the slice index for dive errors, e.g. permissions[2].
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.ActualTag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "permission":
		return fmt.Sprintf("unknown permission %q", fe.Value())
	case "user_status":
		return "must be one of: ACTIVE, INACTIVE, BANNED"
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + param + " items"
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		if fe.Kind() == reflect.Slice {
			return "must contain at most " + param + " items"
		}
		return "must be at most " + param + " characters long"
	case "eqfield":
		return "must match " + param
	case "nefield":
		return "must differ from " + param
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "unique":
		return "must not contain duplicates"
	case "alphanum":
		return "must contain alphanumeric characters only"
	}
	return "is invalid"
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
