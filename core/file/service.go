package file

import (
	"context"
	"fmt"
	"mime"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

type Service struct {
	repo    Repository
	store   core.ObjectStore
	logger  core.Logger
	maxSize int64
}

func NewService(repo Repository, store core.ObjectStore, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		store:   store,
		logger:  logger,
		maxSize: conf.Server.MaxUploadSize,
	}
}

func (svc *Service) MaxSize() int64 { return svc.maxSize }

// Key is the object storage key of an upload of ownerID.
func Key(ownerID, name string) string {
	return fmt.Sprintf("%s/%s-%s", ownerID, uuid.NewString(), cleanName(name))
}

func cleanName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

func (svc *Service) checkSize(up core.Upload) error {
	if svc.maxSize > 0 && up.Size > svc.maxSize {
		msg := fmt.Sprintf("file must not exceed %d bytes", svc.maxSize)
		return core.NewValidationError(errors.New(msg), core.FieldError{Field: "file", Error: msg})
	}
	return nil
}

// put stores up, falling back to a placeholder reference when the store fails.
func (svc *Service) put(ctx context.Context, ownerID string, up core.Upload) (url, key string) {
	name := cleanName(up.Name)
	key = Key(ownerID, name)
	contentType := up.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(name))
	}

	url, err := svc.store.Put(ctx, key, up.Content, up.Size, contentType)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("file: storing %s failed, keeping a placeholder: %v", key, err), err)
		return PlaceholderScheme + name, ""
	}
	return url, key
}

// Upload stores a file of owner into a folder. The row is created even when the content could not be stored.
// nf must have been validated.
func (svc *Service) Upload(ctx context.Context, owner user.User, nf NewFile, up core.Upload) (File, error) {
	if err := svc.checkSize(up); err != nil {
		return File{}, err
	}
	url, key := svc.put(ctx, owner.ID, up)
	name := cleanName(up.Name)
	return svc.repo.CreateFile(ctx, File{
		UserID:     owner.ID,
		Name:       name,
		FileType:   TypeOf(name),
		FileSize:   up.Size,
		FileURL:    url,
		StorageKey: key,
		Folder:     nf.Folder,
		CreatedAt:  time.Now().UTC(),
	})
}

// Attach stores an attachment of ownerID (assignment, submission) without listing it in their files.
func (svc *Service) Attach(ctx context.Context, ownerID string, up core.Upload) (string, error) {
	if err := svc.checkSize(up); err != nil {
		return "", err
	}
	url, _ := svc.put(ctx, ownerID, up)
	return url, nil
}

// List returns the files of owner matching filter.
func (svc *Service) List(ctx context.Context, owner user.User, filter QueryFilter) ([]File, error) {
	filter.UserID = owner.ID
	filter.Search = core.CleanString(filter.Search)
	filter.Folder = core.CleanString(filter.Folder)
	return svc.repo.QueryFiles(ctx, filter)
}

// Usage summarizes the files of owner per folder.
func (svc *Service) Usage(ctx context.Context, owner user.User) (Usage, error) {
	files, err := svc.repo.QueryFiles(ctx, QueryFilter{UserID: owner.ID})
	if err != nil {
		return Usage{}, errors.Wrap(err, "querying files")
	}
	byFolder := make(map[string]*FolderUsage)
	usage := Usage{Folders: []FolderUsage{}}
	for _, f := range files {
		fu, ok := byFolder[f.Folder]
		if !ok {
			fu = &FolderUsage{Folder: f.Folder}
			byFolder[f.Folder] = fu
		}
		fu.Files++
		fu.Size += f.FileSize
		usage.Files++
		usage.Size += f.FileSize
	}
	for _, fu := range byFolder {
		usage.Folders = append(usage.Folders, *fu)
	}
	sort.Slice(usage.Folders, func(i, j int) bool { return usage.Folders[i].Folder < usage.Folders[j].Folder })
	return usage, nil
}

func (svc *Service) own(ctx context.Context, owner user.User, id string) (File, error) {
	f, err := svc.repo.GetFileByID(ctx, id)
	if err != nil {
		return File{}, err
	}
	if f.UserID != owner.ID {
		return File{}, ErrNotFound
	}
	return f, nil
}

// DownloadURL returns where the content of a file of owner can be fetched.
func (svc *Service) DownloadURL(ctx context.Context, owner user.User, id string) (string, error) {
	f, err := svc.own(ctx, owner, id)
	if err != nil {
		return "", err
	}
	if f.StorageKey == "" {
		return f.FileURL, nil
	}
	url, err := svc.store.URL(ctx, f.StorageKey)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("file: presigning %s: %v", f.StorageKey, err), err, owner)
		return f.FileURL, nil
	}
	return url, nil
}

// Delete removes the file row, then its content on a best-effort basis.
func (svc *Service) Delete(ctx context.Context, owner user.User, id string) error {
	f, err := svc.own(ctx, owner, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteFile(ctx, f.ID); err != nil {
		return errors.Wrap(err, "deleting file")
	}
	if f.StorageKey != "" {
		if err = svc.store.Delete(ctx, f.StorageKey); err != nil {
			svc.logger.Warn(fmt.Sprintf("file: deleting object %s: %v", f.StorageKey, err), err, owner)
		}
	}
	return nil
}
