package file

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/akia2466/PMNTS-Lovable/core"
)

const (
	DefaultFolder = "Documents"

	// PlaceholderScheme prefixes the reference of files whose content could not be stored.
	PlaceholderScheme = "placeholder://"
)

var ErrNotFound = core.NewNotFoundError("file")

type Type string

const (
	TypePDF   Type = "pdf"
	TypeDoc   Type = "doc"
	TypeImage Type = "image"
	TypeExcel Type = "excel"
	TypeOther Type = "other"
)

var typesByExt = map[string]Type{
	".pdf":  TypePDF,
	".doc":  TypeDoc,
	".docx": TypeDoc,
	".txt":  TypeDoc,
	".odt":  TypeDoc,
	".rtf":  TypeDoc,
	".png":  TypeImage,
	".jpg":  TypeImage,
	".jpeg": TypeImage,
	".gif":  TypeImage,
	".webp": TypeImage,
	".svg":  TypeImage,
	".xls":  TypeExcel,
	".xlsx": TypeExcel,
	".csv":  TypeExcel,
	".ods":  TypeExcel,
}

// TypeOf derives the file type from the extension of name.
func TypeOf(name string) Type {
	if t, ok := typesByExt[strings.ToLower(path.Ext(name))]; ok {
		return t
	}
	return TypeOther
}

type File struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	FileType   Type      `json:"file_type"`
	FileSize   int64     `json:"file_size"`
	FileURL    string    `json:"file_url"`
	StorageKey string    `json:"-"`
	Folder     string    `json:"folder"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsPlaceholder reports whether the content of the File was never stored.
func (f File) IsPlaceholder() bool { return strings.HasPrefix(f.FileURL, PlaceholderScheme) }

type NewFile struct {
	Folder string `form:"folder" validate:"omitempty,notblank,max=80"`
}

func (nf *NewFile) Validate(validate *validator.Validate) error {
	nf.Folder = core.CleanString(nf.Folder)
	if nf.Folder == "" {
		nf.Folder = DefaultFolder
	}
	return validate.Struct(nf)
}

type QueryFilter struct {
	UserID string
	Search string // case-insensitive match on Name
	Folder string
	Type   Type
}

// FolderUsage summarizes the content of a folder.
type FolderUsage struct {
	Folder string `json:"folder"`
	Files  int    `json:"files"`
	Size   int64  `json:"size"`
}

type Usage struct {
	Files   int           `json:"files"`
	Size    int64         `json:"size"`
	Folders []FolderUsage `json:"folders"`
}

type Repository interface {
	CreateFile(ctx context.Context, f File) (File, error)
	GetFileByID(ctx context.Context, id string) (File, error)
	// QueryFiles returns the matching files, most recent first.
	QueryFiles(ctx context.Context, filter QueryFilter) ([]File, error)
	DeleteFile(ctx context.Context, id string) error
}
