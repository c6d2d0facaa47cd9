package handler

import (
    "errors"
    "fmt"
    "net/http"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
)

// RequestValidator plugs go-playground/validator into echo so handlers can
// call c.Validate on bound request bodies.
type RequestValidator struct {
    v *validator.Validate
}

func NewValidator() *RequestValidator {
    v := validator.New()
    // report json names instead of Go field names
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
    return rv.v.Struct(i)
}

// bindAndValidate decodes the body into dst and runs the struct tags.  On
// failure it writes the 400 itself and returns ok=false.
func bindAndValidate(c echo.Context, dst interface{}) (bool, error) {
    if err := c.Bind(dst); err != nil {
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := c.Validate(dst); err != nil {
        return false, validationFailed(c, err)
    }
    return true, nil
}

// validationFailed reports the first failing field.
func validationFailed(c echo.Context, err error) error {
    var verrs validator.ValidationErrors
    if errors.As(err, &verrs) && len(verrs) > 0 {
        fe := verrs[0]
        return c.JSON(http.StatusBadRequest, echo.Map{
            "error": fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()),
            "field": fe.Field(),
        })
    }
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}
