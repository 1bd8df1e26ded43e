package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/service"
)

const (
	maxMultipartMemory = 32 << 20
	// maxRequestBytes bounds a whole multipart request: ten 50MB photos plus form overhead.
	maxRequestBytes = 10*(50<<20) + 1<<20
)

// uploadForm is a parsed multipart request. Close releases opened files and temporary spills.
type uploadForm struct {
	form   *multipart.Form
	opened []multipart.File
}

func parseUploadForm(w http.ResponseWriter, r *http.Request) (*uploadForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.Validation("upload too large")
		}
		return nil, domain.Validation("invalid multipart form")
	}
	return &uploadForm{form: r.MultipartForm}, nil
}

// Files opens every file sent under field.
func (u *uploadForm) Files(field string) ([]service.Upload, error) {
	headers := u.form.File[field]
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, domain.Validation("could not read uploaded file")
		}
		u.opened = append(u.opened, f)
		uploads = append(uploads, service.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return uploads, nil
}

func (u *uploadForm) Close() {
	for _, f := range u.opened {
		f.Close()
	}
	u.form.RemoveAll()
}

// readUploads parses the form and returns the files under a single field.
func readUploads(w http.ResponseWriter, r *http.Request, field string) ([]service.Upload, func(), error) {
	form, err := parseUploadForm(w, r)
	if err != nil {
		return nil, func() {}, err
	}
	files, err := form.Files(field)
	if err != nil {
		form.Close()
		return nil, func() {}, err
	}
	return files, form.Close, nil
}
