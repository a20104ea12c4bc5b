package database

import (
	"database/sql"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/announcement"
	"github.com/akia2466/PMNTS-Lovable/core/assignment"
	"github.com/akia2466/PMNTS-Lovable/core/attendance"
	"github.com/akia2466/PMNTS-Lovable/core/community"
	"github.com/akia2466/PMNTS-Lovable/core/connection"
	"github.com/akia2466/PMNTS-Lovable/core/contact"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/file"
	"github.com/akia2466/PMNTS-Lovable/core/messaging"
	"github.com/akia2466/PMNTS-Lovable/core/profile"
	"github.com/akia2466/PMNTS-Lovable/core/user"
	"github.com/akia2466/PMNTS-Lovable/storage/database/inmem"
	"github.com/akia2466/PMNTS-Lovable/storage/database/postgres"
)

// Repositories groups the storage of every domain, all sharing the same transactions.
type Repositories struct {
	Tx            core.Transactor
	Users         user.Repository
	Profiles      profile.Repository
	Courses       course.Repository
	Attendance    attendance.Repository
	Files         file.Repository
	Assignments   assignment.Repository
	Community     community.Repository
	Connections   connection.Repository
	Messages      messaging.Repository
	Announcements announcement.Repository
	Contacts      contact.Repository
}

func NewPostgresRepositories(sqlDB *sql.DB) Repositories {
	db := postgres.New(sqlDB)
	return Repositories{
		Tx:            db,
		Users:         postgres.NewUserRepository(db),
		Profiles:      postgres.NewProfileRepository(db),
		Courses:       postgres.NewCourseRepository(db),
		Attendance:    postgres.NewAttendanceRepository(db),
		Files:         postgres.NewFileRepository(db),
		Assignments:   postgres.NewAssignmentRepository(db),
		Community:     postgres.NewCommunityRepository(db),
		Connections:   postgres.NewConnectionRepository(db),
		Messages:      postgres.NewMessageRepository(db),
		Announcements: postgres.NewAnnouncementRepository(db),
		Contacts:      postgres.NewContactRepository(db),
	}
}

// NewMemoryRepositories keeps everything in process memory, lost on exit.
func NewMemoryRepositories() Repositories {
	db := inmemdb.Open()
	return Repositories{
		Tx:            db,
		Users:         inmemdb.NewUserRepository(db),
		Profiles:      inmemdb.NewProfileRepository(db),
		Courses:       inmemdb.NewCourseRepository(db),
		Attendance:    inmemdb.NewAttendanceRepository(db),
		Files:         inmemdb.NewFileRepository(db),
		Assignments:   inmemdb.NewAssignmentRepository(db),
		Community:     inmemdb.NewCommunityRepository(db),
		Connections:   inmemdb.NewConnectionRepository(db),
		Messages:      inmemdb.NewMessageRepository(db),
		Announcements: inmemdb.NewAnnouncementRepository(db),
		Contacts:      inmemdb.NewContactRepository(db),
	}
}
