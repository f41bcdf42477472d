package router

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"holyremedies.mx/storefront/pkg/global"
)

// bindingErrors turns a gin binding failure into the response's error list.
func bindingErrors(err error) []global.ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []global.ValidationError{{Field: "body", Message: err.Error(), Code: "json_parse_error"}}
	}

	out := make([]global.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s failed on the '%s=%s' rule", fe.Field(), fe.Tag(), fe.Param())
		}
		out = append(out, global.ValidationError{Field: fe.Field(), Message: msg, Code: fe.Tag()})
	}
	return out
}
