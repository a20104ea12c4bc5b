package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
)

const (
	orderingParam = "ordering"
	uploadField   = "file"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type form interface {
	Validate(validate *validator.Validate) error
}

// bindForm binds the request into data then validates it.
func bindForm(ctx echo.Context, validate *validator.Validate, data form) error {
	if err := ctx.Bind(data); err != nil {
		return errors.Wrapf(err, "binding to %T", data)
	}
	return data.Validate(validate)
}

// formUpload opens the optional file of a multipart request. release must be called once the upload is consumed.
func formUpload(ctx echo.Context) (up *core.Upload, release func(), err error) {
	release = func() {}
	fh, err := ctx.FormFile(uploadField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, release, nil
		}
		return nil, release, errors.Wrap(err, "reading upload")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, release, errors.Wrap(err, "opening upload")
	}
	return &core.Upload{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Content:     f,
	}, func() { _ = f.Close() }, nil
}

func newFieldError(field, msg string) error {
	return core.NewValidationError(nil, core.FieldError{Field: field, Error: msg})
}
