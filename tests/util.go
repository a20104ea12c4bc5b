package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/announcement"
	"github.com/akia2466/PMNTS-Lovable/core/assignment"
	"github.com/akia2466/PMNTS-Lovable/core/attendance"
	"github.com/akia2466/PMNTS-Lovable/core/community"
	"github.com/akia2466/PMNTS-Lovable/core/connection"
	"github.com/akia2466/PMNTS-Lovable/core/contact"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/dashboard"
	"github.com/akia2466/PMNTS-Lovable/core/directory"
	"github.com/akia2466/PMNTS-Lovable/core/file"
	"github.com/akia2466/PMNTS-Lovable/core/messaging"
	"github.com/akia2466/PMNTS-Lovable/core/pages"
	"github.com/akia2466/PMNTS-Lovable/core/profile"
	"github.com/akia2466/PMNTS-Lovable/core/session"
	"github.com/akia2466/PMNTS-Lovable/core/user"
	appfs "github.com/akia2466/PMNTS-Lovable/fs"
	"github.com/akia2466/PMNTS-Lovable/services/email"
	"github.com/akia2466/PMNTS-Lovable/services/realtime"
	"github.com/akia2466/PMNTS-Lovable/storage/cache"
	"github.com/akia2466/PMNTS-Lovable/storage/database/inmem"
	"github.com/akia2466/PMNTS-Lovable/storage/objectstore"
)

// Password is the password of the users created by the Fixture.
const Password = "Sup3r-Secret!"

// Fixture wires every service on the in-memory collaborators.
type Fixture struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	DB         *inmemdb.DB
	Mail       *emailsvc.ConsoleService
	Store      *objectstore.MemoryStore
	Bus        *realtime.MemoryPubSub
	Blacklist  *cache.MemoryBlacklist

	UserRepo    user.Repository
	ProfileRepo profile.Repository
	MessageRepo messaging.Repository

	Users         *user.Service
	Profiles      *profile.Service
	Directory     *directory.Directory
	Sessions      *session.Service
	Courses       *course.Service
	Attendance    *attendance.Service
	Files         *file.Service
	Assignments   *assignment.Service
	Community     *community.Service
	Connections   *connection.Service
	Messages      *messaging.Service
	Announcements *announcement.Service
	Contacts      *contact.Service
	Dashboard     *dashboard.Service
	Pages         *pages.Catalog
}

// Option changes the Fixture before its services are built.
type Option func(f *Fixture)

// WithMessageRepository replaces the messages storage, e.g. to inject failures.
func WithMessageRepository(wrap func(messaging.Repository) messaging.Repository) Option {
	return func(f *Fixture) { f.MessageRepo = wrap(f.MessageRepo) }
}

// WithProfileRepository replaces the profiles storage.
func WithProfileRepository(wrap func(profile.Repository) profile.Repository) Option {
	return func(f *Fixture) { f.ProfileRepo = wrap(f.ProfileRepo) }
}

func NewFixture(t *testing.T, opts ...Option) *Fixture {
	t.Helper()

	conf := core.NewTestConfig()
	logger := core.NopLogger{}
	db := inmemdb.Open()
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf, logger)

	f := &Fixture{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		DB:          db,
		Mail:        emailsvc.NewConsoleServiceMock(conf),
		Store:       objectstore.NewMemoryStore(),
		Bus:         realtime.NewMemoryPubSub(logger),
		Blacklist:   cache.NewMemoryBlacklist(),
		UserRepo:    inmemdb.NewUserRepository(db),
		ProfileRepo: inmemdb.NewProfileRepository(db),
		MessageRepo: inmemdb.NewMessageRepository(db),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.Users = user.NewService(f.UserRepo, f.Mail, conf)
	f.Profiles = profile.NewService(f.ProfileRepo)
	f.Directory = directory.New(f.Profiles, f.Users)
	f.Sessions = session.NewService(db, f.Users, f.Profiles, f.Bus, f.Blacklist, logger)
	f.Courses = course.NewService(inmemdb.NewCourseRepository(db))
	f.Attendance = attendance.NewService(inmemdb.NewAttendanceRepository(db), db, f.Courses, f.Directory, conf)
	f.Files = file.NewService(inmemdb.NewFileRepository(db), f.Store, logger, conf)
	f.Assignments = assignment.NewService(inmemdb.NewAssignmentRepository(db), f.Courses, f.Directory, f.Files)
	f.Community = community.NewService(inmemdb.NewCommunityRepository(db), db, f.Directory)
	f.Connections = connection.NewService(inmemdb.NewConnectionRepository(db), db, f.Directory)
	f.Messages = messaging.NewService(f.MessageRepo, f.Directory, f.Bus, logger)
	f.Announcements = announcement.NewService(inmemdb.NewAnnouncementRepository(db), f.Directory)
	f.Contacts = contact.NewService(inmemdb.NewContactRepository(db), f.Mail, conf)
	f.Dashboard = dashboard.NewService(f.Attendance, f.Assignments, f.Messages, f.Announcements, f.Courses, f.Connections, f.Contacts)

	catalog, err := pages.Load(appfs.FS, appfs.PagesDir)
	if err != nil {
		t.Fatalf("pages.Load() failed: %v", err)
	}
	f.Pages = catalog

	if err = f.Sessions.Start(context.Background()); err != nil {
		t.Fatalf("Sessions.Start() failed: %v", err)
	}
	t.Cleanup(func() {
		_ = f.Sessions.Close()
		_ = f.Bus.Close()
	})
	return f
}

// CreateUser creates an active user of role with a profile named name.
func (f *Fixture) CreateUser(t *testing.T, role user.Role, name, email string) user.User {
	t.Helper()

	ctx := context.Background()
	usr, err := f.Users.Create(ctx, user.NewUser{Email: email, Password: Password, Role: role})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	prof := profile.Profile{UserID: usr.ID, FullName: name}
	if role == user.RoleStudent {
		prof.GradeLevel = "11"
	} else {
		prof.Department = "Science"
	}
	if _, err = f.Profiles.Create(ctx, prof); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func (f *Fixture) CreateCourse(t *testing.T, teacher user.User, code, name string) course.Course {
	t.Helper()

	c, err := f.Courses.Create(context.Background(), course.NewCourse{
		Code:       code,
		Name:       name,
		Department: "Science",
		Credits:    3,
		TeacherID:  teacher.ID,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func (f *Fixture) Enroll(t *testing.T, c course.Course, student user.User, term string) course.Enrollment {
	t.Helper()

	e, err := f.Courses.Enroll(context.Background(), course.NewEnrollment{CourseID: c.ID, StudentID: student.ID, Term: term})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return e
}

func (f *Fixture) CreateAssignment(t *testing.T, teacher user.User, c course.Course, title string, due time.Time) assignment.Assignment {
	t.Helper()

	a, err := f.Assignments.Create(context.Background(), teacher, assignment.NewAssignment{
		CourseID: c.ID,
		Title:    title,
		DueDate:  due,
		MaxScore: 100,
	}, nil)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return a
}
