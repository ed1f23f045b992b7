package validators

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
)

const (
	MsgFormInvalid    = "入力内容に誤りがあります"
	msgFormUnreadable = "フォームを読み取れませんでした"
	msgRequired       = "入力してください"
	msgMaxLength      = "%s文字以内で入力してください"
	msgEmail          = "有効なメールアドレスを入力してください"
	msgInvalid        = "入力内容が正しくありません"
)

var (
	decoder  = form.NewDecoder()
	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// DecodeForm fills dest from the posted form values and validates it. Field
// problems come back as a validation error keyed by form field name.
func DecodeForm(r *http.Request, dest any) error {
	if err := r.ParseForm(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgFormUnreadable)
	}
	return DecodeValues(r.PostForm, dest)
}

// DecodeValues is DecodeForm over already parsed values.
func DecodeValues(values map[string][]string, dest any) error {
	if err := decoder.Decode(dest, values); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgFormUnreadable)
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		fields := pkgerrors.FieldErrors{}
		for _, fieldErr := range errs {
			if _, seen := fields[fieldErr.Field()]; !seen {
				fields[fieldErr.Field()] = validationMessage(fieldErr)
			}
		}
		return pkgerrors.Validation(MsgFormInvalid, fields)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, MsgFormInvalid)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "max":
		return fmt.Sprintf(msgMaxLength, fe.Param())
	case "email":
		return msgEmail
	}
	return msgInvalid
}
