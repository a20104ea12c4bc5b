package file_test

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/file"
	"github.com/akia2466/PMNTS-Lovable/core/user"
	"github.com/akia2466/PMNTS-Lovable/storage/objectstore"
	"github.com/akia2466/PMNTS-Lovable/tests"
)

func upload(name, content string) core.Upload {
	return core.Upload{Name: name, Size: int64(len(content)), Content: strings.NewReader(content)}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		want file.Type
	}{
		{"report.PDF", file.TypePDF},
		{"essay.docx", file.TypeDoc},
		{"notes.txt", file.TypeDoc},
		{"photo.jpeg", file.TypeImage},
		{"grades.xlsx", file.TypeExcel},
		{"data.csv", file.TypeExcel},
		{"archive.zip", file.TypeOther},
		{"README", file.TypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := file.TypeOf(tt.name); got != tt.want {
				t.Errorf("TypeOf() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestService_Upload(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	ana := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")

	stored, err := f.Files.Upload(ctx, ana, file.NewFile{Folder: "Homework"}, upload("../essay.pdf", "%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "essay.pdf", stored.Name)
	assert.Equal(t, file.TypePDF, stored.FileType)
	assert.Equal(t, int64(4), stored.FileSize)
	assert.False(t, stored.IsPlaceholder())
	require.True(t, strings.HasPrefix(stored.FileURL, objectstore.MemoryScheme+ana.ID+"/"))
	obj, ok := f.Store.Get(strings.TrimPrefix(stored.FileURL, objectstore.MemoryScheme))
	require.True(t, ok)
	assert.Equal(t, "%PDF", string(obj.Content))
	assert.Equal(t, "application/pdf", obj.ContentType)

	t.Run("store failure keeps a placeholder", func(t *testing.T) {
		f.Store.Err = errors.New("bucket unreachable")
		defer func() { f.Store.Err = nil }()

		placeholder, err := f.Files.Upload(ctx, ana, file.NewFile{Folder: file.DefaultFolder}, upload("notes.txt", "hello"))
		require.NoError(t, err)
		assert.True(t, placeholder.IsPlaceholder())
		assert.Equal(t, file.PlaceholderScheme+"notes.txt", placeholder.FileURL)

		url, err := f.Files.DownloadURL(ctx, ana, placeholder.ID)
		require.NoError(t, err)
		assert.Equal(t, placeholder.FileURL, url)
	})

	t.Run("too large", func(t *testing.T) {
		big := core.Upload{Name: "big.bin", Size: f.Files.MaxSize() + 1, Content: strings.NewReader("")}
		_, err := f.Files.Upload(ctx, ana, file.NewFile{Folder: file.DefaultFolder}, big)
		var verr *core.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	files, err := f.Files.List(ctx, ana, file.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	usage, err := f.Files.Usage(ctx, ana)
	require.NoError(t, err)
	assert.Equal(t, 2, usage.Files)
	assert.Equal(t, int64(9), usage.Size)
	assert.Equal(t, []file.FolderUsage{
		{Folder: file.DefaultFolder, Files: 1, Size: 5},
		{Folder: "Homework", Files: 1, Size: 4},
	}, usage.Folders)
}

func TestService_List(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	ana := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")
	cal := f.CreateUser(t, user.RoleStudent, "Cal Moi", "cal@pmnts.edu")

	for _, name := range []string{"essay.pdf", "Lab Report.docx", "photo.png"} {
		_, err := f.Files.Upload(ctx, ana, file.NewFile{Folder: file.DefaultFolder}, upload(name, "x"))
		require.NoError(t, err)
	}
	_, err := f.Files.Upload(ctx, cal, file.NewFile{Folder: file.DefaultFolder}, upload("cal.pdf", "x"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter file.QueryFilter
		want   int
	}{
		{"all mine", file.QueryFilter{}, 3},
		{"search", file.QueryFilter{Search: " REPORT "}, 1},
		{"type", file.QueryFilter{Type: file.TypePDF}, 1},
		{"folder", file.QueryFilter{Folder: "Homework"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := f.Files.List(ctx, ana, tt.filter)
			require.NoError(t, err)
			if len(files) != tt.want {
				t.Errorf("List() = %d files; want %d", len(files), tt.want)
			}
		})
	}
}

func TestService_Delete(t *testing.T) {
	f := testutil.NewFixture(t)
	ctx := context.Background()
	ana := f.CreateUser(t, user.RoleStudent, "Ana Kila", "ana@pmnts.edu")
	cal := f.CreateUser(t, user.RoleStudent, "Cal Moi", "cal@pmnts.edu")

	stored, err := f.Files.Upload(ctx, ana, file.NewFile{Folder: file.DefaultFolder}, upload("essay.pdf", "x"))
	require.NoError(t, err)
	key := strings.TrimPrefix(stored.FileURL, objectstore.MemoryScheme)

	assert.Equal(t, file.ErrNotFound, f.Files.Delete(ctx, cal, stored.ID), "files of others are hidden")
	_, err = f.Files.DownloadURL(ctx, cal, stored.ID)
	assert.Equal(t, file.ErrNotFound, err)

	url, err := f.Files.DownloadURL(ctx, ana, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.FileURL, url)

	require.NoError(t, f.Files.Delete(ctx, ana, stored.ID))
	_, ok := f.Store.Get(key)
	assert.False(t, ok)
	assert.Equal(t, file.ErrNotFound, f.Files.Delete(ctx, ana, stored.ID))
}
